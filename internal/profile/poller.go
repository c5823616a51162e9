package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadbio-cli/internal/model"
	"github.com/sells-group/leadbio-cli/pkg/crawlbase"
)

const (
	defaultPollInitial = 1 * time.Second
	defaultPollCap     = 60 * time.Second
	defaultPollTimeout = 10 * time.Minute
)

var (
	// ErrJobNotFound is returned when a job never became ready before the
	// poll deadline.
	ErrJobNotFound = eris.New("profile: job not found before deadline")
	// ErrJobFailed is returned when retrieval fails for any reason other than
	// "not ready yet", including context cancellation.
	ErrJobFailed = eris.New("profile: job failed")
)

// FailedError carries the underlying cause of an ErrJobFailed.
type FailedError struct {
	JobID string
	Cause error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("profile: job %s failed: %v", e.JobID, e.Cause)
}

func (e *FailedError) Unwrap() error { return e.Cause }

// Is matches ErrJobFailed.
func (e *FailedError) Is(target error) bool { return target == ErrJobFailed }

// PollOption configures a Poller.
type PollOption func(*Poller)

// WithPollInterval overrides the initial poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(p *Poller) {
		p.initial = d
	}
}

// WithPollCap overrides the maximum poll interval.
func WithPollCap(d time.Duration) PollOption {
	return func(p *Poller) {
		p.cap = d
	}
}

// WithPollTimeout overrides the default max duration used by the resolver.
func WithPollTimeout(d time.Duration) PollOption {
	return func(p *Poller) {
		p.timeout = d
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) PollOption {
	return func(p *Poller) {
		p.now = now
	}
}

// WithSleep replaces the context-aware sleep, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) PollOption {
	return func(p *Poller) {
		p.sleep = sleep
	}
}

// Poller waits for async scrape jobs to produce a complete record.
type Poller struct {
	client  crawlbase.Client
	initial time.Duration
	cap     time.Duration
	timeout time.Duration
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a Poller. Defaults: 1s initial interval doubling to a
// 60s cap, 10 minute timeout.
func NewPoller(client crawlbase.Client, opts ...PollOption) *Poller {
	p := &Poller{
		client:  client,
		initial: defaultPollInitial,
		cap:     defaultPollCap,
		timeout: defaultPollTimeout,
		now:     time.Now,
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Timeout returns the configured default max duration.
func (p *Poller) Timeout() time.Duration {
	return p.timeout
}

// Check performs exactly one retrieval. A not-yet-available job or an
// incomplete payload reports NotReady with a nil error; any other retrieval
// error is returned as is.
func (p *Poller) Check(ctx context.Context, jobID string) (*model.ProfileRecord, Readiness, error) {
	raw, err := p.client.Retrieve(ctx, jobID)
	if err != nil {
		if crawlbase.IsNotFound(err) {
			return nil, NotReady, nil
		}
		return nil, NotReady, err
	}

	rec, readiness := Decode(raw)
	if readiness != Ready {
		return nil, readiness, nil
	}
	return &rec, Ready, nil
}

// Poll retrieves jobID until it yields a complete record or maxDuration
// elapses. The wait between attempts starts at the initial interval, doubles
// each retry, and never exceeds the cap or the time left to the deadline.
// A maxDuration <= 0 uses the configured timeout.
func (p *Poller) Poll(ctx context.Context, jobID string, maxDuration time.Duration) (*model.ProfileRecord, error) {
	if maxDuration <= 0 {
		maxDuration = p.timeout
	}
	log := zap.L().With(zap.String("job_id", jobID))
	deadline := p.now().Add(maxDuration)
	interval := p.initial

	for attempt := 1; ; attempt++ {
		rec, readiness, err := p.Check(ctx, jobID)
		if err != nil {
			return nil, &FailedError{JobID: jobID, Cause: err}
		}
		if readiness == Ready {
			log.Debug("profile: job ready", zap.Int("attempts", attempt))
			return rec, nil
		}
		if readiness == Malformed {
			log.Debug("profile: malformed payload, retrying")
		}

		remaining := deadline.Sub(p.now())
		if remaining <= 0 {
			return nil, eris.Wrapf(ErrJobNotFound, "job %s after %d attempts", jobID, attempt)
		}

		wait := min(interval, remaining)
		if err := p.sleep(ctx, wait); err != nil {
			return nil, &FailedError{JobID: jobID, Cause: err}
		}
		interval = min(interval*2, p.cap)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
