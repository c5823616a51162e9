package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadbio-cli/internal/model"
	"github.com/sells-group/leadbio-cli/pkg/crawlbase"
)

// Resolver turns a profile URL into a record, reusing a cached job when one
// exists and otherwise submitting a new one and polling it.
type Resolver struct {
	client  crawlbase.Client
	scanner *Scanner
	poller  *Poller
}

// NewResolver creates a Resolver.
func NewResolver(client crawlbase.Client, scanner *Scanner, poller *Poller) *Resolver {
	return &Resolver{client: client, scanner: scanner, poller: poller}
}

// Resolve returns the record for targetURL. Failures are logged and reported
// as (nil, false).
func (r *Resolver) Resolve(ctx context.Context, targetURL string) (*model.ProfileRecord, bool) {
	if rec, ok := r.scanner.FindCached(ctx, targetURL); ok {
		return rec, true
	}

	log := zap.L().With(zap.String("target_url", targetURL))

	jobID, err := r.client.Submit(ctx, targetURL)
	if err != nil {
		log.Warn("profile: submit failed", zap.Error(err))
		return nil, false
	}
	job := model.ProfileJob{JobID: jobID, TargetURL: targetURL, SubmittedAt: r.poller.now()}
	log = log.With(zap.String("job_id", job.JobID))
	log.Debug("profile: job submitted", zap.Time("submitted_at", job.SubmittedAt))

	rec, err := r.poller.Poll(ctx, job.JobID, r.poller.Timeout())
	if err != nil {
		log.Warn("profile: poll failed",
			zap.Duration("waited", r.poller.now().Sub(job.SubmittedAt)),
			zap.Error(err),
		)
		return nil, false
	}
	return rec, true
}
