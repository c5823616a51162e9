// Package pipeline runs a single lead through search, profile resolution,
// contact enrichment and summarization.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadbio-cli/internal/contact"
	"github.com/sells-group/leadbio-cli/internal/model"
	"github.com/sells-group/leadbio-cli/internal/summarize"
	"github.com/sells-group/leadbio-cli/pkg/serper"
)

// Failure reasons reported on LeadResult.Error.
const (
	ReasonSearchFailed    = "search failed"
	ReasonNoCandidate     = "no profile candidate"
	ReasonResolveFailed   = "profile resolution failed"
	ReasonSummarizeFailed = "summarization failed"
	ReasonInternal        = "internal error"
)

const defaultProfileDomain = "linkedin.com"

// Resolver turns a profile URL into a completed record.
type Resolver interface {
	Resolve(ctx context.Context, targetURL string) (*model.ProfileRecord, bool)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProfileDomains sets the link patterns that mark a search result as a
// profile candidate.
func WithProfileDomains(domains ...string) Option {
	return func(p *Pipeline) {
		p.domains = domains
	}
}

// Pipeline orchestrates one lead from search to bio.
type Pipeline struct {
	search     serper.Client
	resolver   Resolver
	contacts   contact.Finder
	summarizer summarize.Summarizer
	domains    []string
}

// New creates a Pipeline with all dependencies.
func New(
	search serper.Client,
	resolver Resolver,
	contacts contact.Finder,
	summarizer summarize.Summarizer,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		search:     search,
		resolver:   resolver,
		contacts:   contacts,
		summarizer: summarizer,
		domains:    []string{defaultProfileDomain},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run enriches one lead. It never returns an error: every failure, panics
// included, becomes a LeadResult with Error set.
func (p *Pipeline) Run(ctx context.Context, lead model.Lead) (result model.LeadResult) {
	log := zap.L().With(zap.String("lead", lead.FullName()), zap.String("company", lead.Company))
	stage := model.StageSearched

	defer func() {
		if r := recover(); r != nil {
			failedAt := stage
			stage = model.StageError
			log.Error("pipeline: panic",
				zap.String("stage", string(stage)),
				zap.String("failed_stage", string(failedAt)),
				zap.Any("panic", r),
			)
			result = model.FailedResult(lead, fmt.Sprintf("%s: %v", ReasonInternal, r))
		}
	}()

	advance := func(next model.Stage) {
		stage = next
		log.Debug("pipeline: stage", zap.String("stage", string(stage)))
	}
	// fail moves the lead to StageError; failed_stage is the last stage reached.
	fail := func(reason string, err error) model.LeadResult {
		failedAt := stage
		advance(model.StageError)
		fields := []zap.Field{
			zap.String("stage", string(stage)),
			zap.String("failed_stage", string(failedAt)),
			zap.String("reason", reason),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
			reason = fmt.Sprintf("%s: %v", reason, err)
		}
		log.Warn("pipeline: lead failed", fields...)
		return model.FailedResult(lead, reason)
	}

	log.Info("pipeline: starting lead")

	results, err := p.searchLead(ctx, lead)
	if err != nil {
		return fail(ReasonSearchFailed, err)
	}

	candidate, ok := FirstCandidate(results, p.domains)
	if !ok {
		return fail(ReasonNoCandidate, nil)
	}
	advance(model.StageCandidateFound)

	rec, ok := p.resolver.Resolve(ctx, candidate.Link)
	if !ok || rec == nil {
		return fail(ReasonResolveFailed, nil)
	}
	advance(model.StageProfileResolved)

	first, last := Reconcile(lead, rec.Name)
	advance(model.StageIdentityReconciled)

	dossier := model.Dossier{LinkedInData: LinkedInData(rec, CleanSnippet(candidate.Snippet))}
	c, err := p.contacts.Find(ctx, first, last, lead.Company)
	if err != nil {
		log.Warn("pipeline: contact lookup failed", zap.Error(err))
	}
	dossier.Email, dossier.Phone = c.Email, c.Phone
	advance(model.StageEnriched)

	bio, err := p.summarizer.Summarize(ctx, dossier.LinkedInData)
	if err != nil {
		return fail(ReasonSummarizeFailed, err)
	}
	advance(model.StageDone)

	log.Info("pipeline: lead complete",
		zap.Bool("email_found", dossier.Email != ""),
		zap.Bool("phone_found", dossier.Phone != ""),
	)
	return model.LeadResult{
		Name:    lead.FullName(),
		Company: lead.Company,
		Bio:     bio,
		Email:   dossier.Email,
		Phone:   dossier.Phone,
	}
}

func (p *Pipeline) searchLead(ctx context.Context, lead model.Lead) ([]model.SearchResult, error) {
	resp, err := p.search.Search(ctx, lead.Query())
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: search")
	}
	return toResults(resp.Organic), nil
}

func toResults(organic []serper.OrganicResult) []model.SearchResult {
	out := make([]model.SearchResult, 0, len(organic))
	for _, o := range organic {
		out = append(out, model.SearchResult{Link: o.Link, Snippet: o.Snippet})
	}
	return out
}

// FirstCandidate returns the first result whose link contains one of the
// profile domains.
func FirstCandidate(results []model.SearchResult, domains []string) (model.SearchResult, bool) {
	for _, r := range results {
		for _, d := range domains {
			if d != "" && strings.Contains(r.Link, d) {
				return r, true
			}
		}
	}
	return model.SearchResult{}, false
}

// Reconcile returns the names used for contact lookup. When the resolved name
// differs from the lead's (case-insensitively), its first two whitespace
// tokens win; a single-token name leaves the last name empty.
func Reconcile(lead model.Lead, resolvedName string) (first, last string) {
	if strings.EqualFold(strings.TrimSpace(resolvedName), lead.FullName()) {
		return lead.FirstName, lead.LastName
	}
	tokens := strings.Fields(resolvedName)
	switch len(tokens) {
	case 0:
		return lead.FirstName, lead.LastName
	case 1:
		return tokens[0], ""
	default:
		return tokens[0], tokens[1]
	}
}

var learnMoreClause = regexp.MustCompile(`\| Learn more about .*?\.`)

// CleanSnippet removes the "| Learn more about ...." boilerplate from a
// search snippet and collapses the whitespace left behind.
func CleanSnippet(snippet string) string {
	return strings.Join(strings.Fields(learnMoreClause.ReplaceAllString(snippet, "")), " ")
}

// LinkedInData is the dossier text handed to the summarizer: the serialized
// record followed by the cleaned snippet.
func LinkedInData(rec *model.ProfileRecord, snippet string) string {
	b, _ := json.Marshal(rec) // string fields only, cannot fail
	if snippet == "" {
		return string(b)
	}
	return string(b) + "\n" + snippet
}
