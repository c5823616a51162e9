package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/leadbio-cli/pkg/anthropic"
	"github.com/sells-group/leadbio-cli/pkg/crawlbase"
	"github.com/sells-group/leadbio-cli/pkg/hunter"
	"github.com/sells-group/leadbio-cli/pkg/serper"
)

// Compile-time interface checks.
var (
	_ serper.Client    = (*StubSerperClient)(nil)
	_ crawlbase.Client = (*StubCrawlbaseClient)(nil)
	_ hunter.Client    = (*StubHunterClient)(nil)
	_ anthropic.Client = (*StubAnthropicClient)(nil)
)

// --- Serper Stub ---

// StubSerperClient implements serper.Client. Every query yields one profile
// link built from the query words.
type StubSerperClient struct{}

// Search implements serper.Client.
func (s *StubSerperClient) Search(_ context.Context, query string) (*serper.SearchResponse, error) {
	words := strings.Fields(query)
	slug := strings.ToLower(strings.Join(words[:min(2, len(words))], "-"))
	return &serper.SearchResponse{
		Organic: []serper.OrganicResult{
			{
				Title:    query + " - Company Site",
				Link:     "https://example.com/team",
				Snippet:  "Team page.",
				Position: 1,
			},
			{
				Title:    query + " | LinkedIn",
				Link:     "https://www.linkedin.com/in/" + slug,
				Snippet:  query + " | Learn more about experience and connections.",
				Position: 2,
			},
		},
	}, nil
}

// --- Crawlbase Stub ---

// StubCrawlbaseClient implements crawlbase.Client in memory. Submitted jobs
// complete immediately and stay listed, so repeated lookups hit the cache.
type StubCrawlbaseClient struct {
	mu   sync.Mutex
	jobs map[string]string
	rids []string
}

// Submit implements crawlbase.Client.
func (s *StubCrawlbaseClient) Submit(_ context.Context, targetURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs == nil {
		s.jobs = make(map[string]string)
	}
	rid := fmt.Sprintf("stub-rid-%03d", len(s.rids)+1)
	s.jobs[rid] = targetURL
	s.rids = append([]string{rid}, s.rids...)
	return rid, nil
}

// Retrieve implements crawlbase.Client.
func (s *StubCrawlbaseClient) Retrieve(_ context.Context, rid string) (json.RawMessage, error) {
	s.mu.Lock()
	target, ok := s.jobs[rid]
	s.mu.Unlock()
	if !ok {
		return nil, &crawlbase.APIError{StatusCode: http.StatusNotFound, Body: "not found"}
	}

	slug := target[strings.LastIndex(target, "/")+1:]
	body, _ := json.Marshal(map[string]any{
		"title":         cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " ")),
		"profileUrl":    strings.TrimPrefix(strings.TrimPrefix(target, "https://"), "www."),
		"headline":      "Stub headline",
		"positionInfo":  map[string]any{"company": "Stub Co"},
		"educationInfo": map[string]any{"school": "Stub University"},
		"summary":       "Stub profile summary.",
	})
	return body, nil
}

// ListJobs implements crawlbase.Client.
func (s *StubCrawlbaseClient) ListJobs(_ context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := append([]string(nil), s.rids...)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// --- Hunter Stub ---

// StubHunterClient implements hunter.Client with a predictable address.
type StubHunterClient struct{}

// FindEmail implements hunter.Client.
func (s *StubHunterClient) FindEmail(_ context.Context, req hunter.EmailFinderRequest) (*hunter.EmailFinderResponse, error) {
	local := strings.ToLower(req.FirstName)
	if req.LastName != "" {
		local += "." + strings.ToLower(req.LastName)
	}
	email := local + "@" + req.Domain
	return &hunter.EmailFinderResponse{Data: hunter.EmailFinderData{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     &email,
		Score:     50,
		Domain:    req.Domain,
	}}, nil
}

// --- Anthropic Stub ---

// StubAnthropicClient implements anthropic.Client with a canned bio.
type StubAnthropicClient struct{}

// CreateMessage implements anthropic.Client.
func (s *StubAnthropicClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	var content string
	for _, m := range req.Messages {
		content += m.Content
	}

	name := "The lead"
	var rec struct {
		Name     string `json:"name"`
		Position string `json:"position"`
		School   string `json:"school"`
	}
	if line, _, _ := strings.Cut(content, "\n"); json.Unmarshal([]byte(line), &rec) == nil && rec.Name != "" {
		name = rec.Name
	}

	return &anthropic.MessageResponse{
		ID:         "stub-msg-001",
		Model:      req.Model,
		Content:    []anthropic.ContentBlock{{Type: "text", Text: fmt.Sprintf("%s studied at %s and works at %s.", name, rec.School, rec.Position)}},
		StopReason: "end_turn",
		Usage: anthropic.TokenUsage{
			InputTokens:  150,
			OutputTokens: 40,
		},
	}, nil
}
