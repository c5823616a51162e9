package summarize

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadbio-cli/internal/cost"
	"github.com/sells-group/leadbio-cli/pkg/anthropic"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicSummarizer generates bios with the Anthropic Messages API.
type AnthropicSummarizer struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates an AnthropicSummarizer.
func NewAnthropic(client anthropic.Client, model string) *AnthropicSummarizer {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicSummarizer{client: client, model: model}
}

// Summarize sends the dossier as the only user message.
func (s *AnthropicSummarizer) Summarize(ctx context.Context, dossier string) (string, error) {
	temp := Temperature
	resp, err := s.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       s.model,
		MaxTokens:   MaxTokens,
		System:      Instruction,
		Messages:    []anthropic.Message{{Role: "user", Content: dossier}},
		Temperature: &temp,
	})
	if err != nil {
		return "", eris.Wrap(err, "summarize: anthropic")
	}
	cost.LogUsage("anthropic", s.model, "summarize", resp.Usage.InputTokens, resp.Usage.OutputTokens,
		pricing.Claude(s.model, resp.Usage.InputTokens, resp.Usage.OutputTokens))
	return finish(resp.Text())
}
