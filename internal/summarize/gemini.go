package summarize

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/leadbio-cli/internal/cost"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the Gemini summarizer.
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API base URL.
	BaseURL string
}

// GeminiSummarizer generates bios with the Gemini API.
type GeminiSummarizer struct {
	models contentGenerator
	model  string
}

// NewGemini creates a GeminiSummarizer backed by the genai SDK.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*GeminiSummarizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, eris.New("summarize: gemini api key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if u := strings.TrimSpace(cfg.BaseURL); u != "" {
		cc.HTTPOptions.BaseURL = u
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "summarize: create gemini client")
	}
	return newGemini(client.Models, cfg.Model), nil
}

func newGemini(models contentGenerator, model string) *GeminiSummarizer {
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	return &GeminiSummarizer{models: models, model: strings.TrimSpace(model)}
}

// Summarize sends the dossier with the bio instruction as system prompt.
func (s *GeminiSummarizer) Summarize(ctx context.Context, dossier string) (string, error) {
	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(dossier), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(Instruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](Temperature),
		TopP:              genai.Ptr[float32](TopP),
		MaxOutputTokens:   MaxTokens,
		CandidateCount:    1,
	})
	if err != nil {
		return "", eris.Wrap(err, "summarize: gemini")
	}
	if u := resp.UsageMetadata; u != nil {
		in, out := int64(u.PromptTokenCount), int64(u.CandidatesTokenCount)
		cost.LogUsage("gemini", s.model, "summarize", in, out, pricing.Gemini(s.model, in, out))
	}
	return finish(resp.Text())
}
