package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadbio-cli/internal/model"
	"github.com/sells-group/leadbio-cli/internal/workpool"
	"github.com/sells-group/leadbio-cli/pkg/crawlbase"
)

const (
	defaultCacheLimit   = 100
	defaultCacheWorkers = 10
)

// ScanOption configures a Scanner.
type ScanOption func(*Scanner)

// WithCacheLimit sets how many recent job ids are listed.
func WithCacheLimit(n int) ScanOption {
	return func(s *Scanner) {
		s.limit = n
	}
}

// WithCacheWorkers sets the number of concurrent job checks.
func WithCacheWorkers(n int) ScanOption {
	return func(s *Scanner) {
		s.workers = n
	}
}

// Scanner looks for an already-completed job for a profile URL among the
// provider's recently stored jobs.
type Scanner struct {
	client  crawlbase.Client
	poller  *Poller
	limit   int
	workers int
}

// NewScanner creates a Scanner. Defaults: 100 listed jobs, 10 workers.
func NewScanner(client crawlbase.Client, poller *Poller, opts ...ScanOption) *Scanner {
	s := &Scanner{
		client:  client,
		poller:  poller,
		limit:   defaultCacheLimit,
		workers: defaultCacheWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindCached returns the first ready record, in listing order, whose profile
// URL is contained in targetURL. Matching is by substring, so a short stored
// URL can match a longer unrelated target. A failed listing is a miss.
func (s *Scanner) FindCached(ctx context.Context, targetURL string) (*model.ProfileRecord, bool) {
	log := zap.L().With(zap.String("target_url", targetURL))

	ids, err := s.client.ListJobs(ctx, s.limit)
	if err != nil {
		log.Warn("profile: list cached jobs failed", zap.Error(err))
		return nil, false
	}
	if len(ids) == 0 {
		return nil, false
	}

	// Ids are checked one pool-sized chunk at a time, so a hit early in the
	// listing stops the scan without retrieving the rest.
	chunk := max(s.workers, 1)
	for start := 0; start < len(ids); start += chunk {
		batch := ids[start:min(start+chunk, len(ids))]
		results := workpool.Run(ctx, batch, func(ctx context.Context, id string) (*model.ProfileRecord, error) {
			rec, _, err := s.poller.Check(ctx, id)
			return rec, err
		}, workpool.Options{Workers: chunk})

		for _, r := range results {
			if r.Err != nil || r.Output == nil {
				continue
			}
			if strings.Contains(targetURL, r.Output.ProfileURL) {
				log.Debug("profile: cache hit", zap.String("job_id", r.Input), zap.Int("checked", start+len(batch)))
				return r.Output, true
			}
		}
		if ctx.Err() != nil {
			return nil, false
		}
	}
	return nil, false
}
