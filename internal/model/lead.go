package model

import (
	"strings"
	"time"
)

// Stage names a state of the single-lead pipeline.
type Stage string

const (
	StageSearched           Stage = "searched"
	StageCandidateFound     Stage = "candidate_found"
	StageProfileResolved    Stage = "profile_resolved"
	StageIdentityReconciled Stage = "identity_reconciled"
	StageEnriched           Stage = "enriched"
	StageDone               Stage = "done"
	StageError              Stage = "error"
)

// Lead is a person + company pair to be enriched into a bio.
type Lead struct {
	FirstName string `json:"first" yaml:"first"`
	LastName  string `json:"last" yaml:"last"`
	Company   string `json:"company" yaml:"company"`
}

// FullName returns "first last" with surrounding whitespace removed.
func (l Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Query returns the free-text search query for the lead.
func (l Lead) Query() string {
	return strings.Join(strings.Fields(l.FirstName+" "+l.LastName+" "+l.Company), " ")
}

// SearchResult is a single organic search hit.
type SearchResult struct {
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// ProfileJob tracks one async scrape request.
type ProfileJob struct {
	JobID       string    `json:"job_id"`
	TargetURL   string    `json:"target_url"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ProfileRecord is the resolved output of a completed profile job.
type ProfileRecord struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
	Headline   string `json:"headline"`
	Position   string `json:"position"`
	School     string `json:"school"`
	Summary    string `json:"summary"`
}

// Contact holds the enrichment provider's contact details. Empty fields are absent.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Dossier is per-run scratch state aggregated before summarization.
type Dossier struct {
	LinkedInData string
	Email        string
	Phone        string
}
