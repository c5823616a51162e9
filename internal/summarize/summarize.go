// Package summarize turns an aggregated lead dossier into a short bio with an
// LLM completion.
package summarize

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadbio-cli/internal/cost"
	"github.com/sells-group/leadbio-cli/pkg/anthropic"
)

// Sampling parameters. Anthropic takes Temperature only; TopP goes to Gemini.
const (
	Temperature = 0.7
	TopP        = 1.0
	MaxTokens   = 512
)

var pricing = cost.NewCalculator(cost.DefaultRates())

// Instruction is the fixed system prompt for bio generation.
const Instruction = `You will receive detailed information on a lead. Synthesize it into a concise bio. Follow these guidelines:

Conciseness: keep the bio brief and focused solely on the provided information.
Completeness: use all the information given; do not leave out any details provided.
No qualitative judgments: describe the lead without qualitative or subjective assessments.
Incomplete information: if the lead's role or other details are not fully specified, do not mention or indicate their absence.
Example: "Foo Bar has an undergraduate degree and currently focuses on slime at Nick."

The bio must contain only the factual data provided, with no extrapolation and no mention of missing information.`

// Summarizer produces a bio from dossier text.
type Summarizer interface {
	Summarize(ctx context.Context, dossier string) (string, error)
}

// ErrEmptyBio is returned when the model produced no text.
var ErrEmptyBio = eris.New("summarize: empty bio")

func finish(text string) (string, error) {
	bio := strings.TrimSpace(text)
	if bio == "" {
		return "", ErrEmptyBio
	}
	return bio, nil
}

// Options selects and configures a provider.
type Options struct {
	Provider       string
	AnthropicKey   string
	AnthropicModel string
	Gemini         GeminiConfig
}

// New builds the Summarizer named by opts.Provider. An empty provider means
// Anthropic.
func New(ctx context.Context, opts Options) (Summarizer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "anthropic":
		if strings.TrimSpace(opts.AnthropicKey) == "" {
			return nil, eris.New("summarize: anthropic api key is required")
		}
		return NewAnthropic(anthropic.NewClient(opts.AnthropicKey), opts.AnthropicModel), nil
	case "gemini":
		return NewGemini(ctx, opts.Gemini)
	default:
		return nil, eris.Errorf("summarize: unknown provider %q", opts.Provider)
	}
}
