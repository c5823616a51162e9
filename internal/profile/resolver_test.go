package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const janeURL = "https://www.linkedin.com/in/janedoe"

func TestFindCached_FirstMatchInListingOrder(t *testing.T) {
	f := newFake()
	f.addJob("a", ready(profileJSON("Someone Else", "linkedin.com/in/other")))
	f.addJob("b", ready(profileJSON("Jane Doe (b)", "linkedin.com/in/janedoe")))
	f.addJob("c", ready(profileJSON("Jane Doe (c)", "linkedin.com/in/janedoe")))

	s := NewScanner(f, NewPoller(f), WithCacheWorkers(3))
	rec, ok := s.FindCached(context.Background(), janeURL)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe (b)", rec.Name)
}

func TestFindCached_SkipsUnreadyAndFailedJobs(t *testing.T) {
	f := newFake()
	f.addJob("pending", pending)
	f.addJob("partial", ready(`{"title":"Jane","profileUrl":"linkedin.com/in/janedoe"}`))
	f.addJob("broken", upstream)
	f.addJob("good", ready(profileJSON("Jane Doe", "linkedin.com/in/janedoe")))

	s := NewScanner(f, NewPoller(f))
	rec, ok := s.FindCached(context.Background(), janeURL)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", rec.Name)
}

func TestFindCached_StopsAfterEarliestHit(t *testing.T) {
	tests := []struct {
		name      string
		workers   int
		retrieved []string
		skipped   []string
	}{
		{"one worker", 1, []string{"a"}, []string{"b", "c", "d", "e"}},
		{"two workers", 2, []string{"a", "b"}, []string{"c", "d", "e"}},
		{"wider than listing", 10, []string{"a", "b", "c", "d", "e"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake()
			f.addJob("a", ready(profileJSON("Jane Doe", "linkedin.com/in/janedoe")))
			for _, rid := range []string{"b", "c", "d", "e"} {
				f.addJob(rid, ready(profileJSON("Other "+rid, "linkedin.com/in/other-"+rid)))
			}

			rec, ok := NewScanner(f, NewPoller(f), WithCacheWorkers(tt.workers)).FindCached(context.Background(), janeURL)
			require.True(t, ok)
			assert.Equal(t, "Jane Doe", rec.Name)

			f.mu.Lock()
			defer f.mu.Unlock()
			for _, rid := range tt.retrieved {
				assert.Equal(t, 1, f.calls[rid], rid)
			}
			for _, rid := range tt.skipped {
				assert.Zero(t, f.calls[rid], rid)
			}
		})
	}
}

func TestFindCached_LaterChunkHit(t *testing.T) {
	f := newFake()
	for _, rid := range []string{"a", "b", "c"} {
		f.addJob(rid, ready(profileJSON("Other "+rid, "linkedin.com/in/other-"+rid)))
	}
	f.addJob("d", ready(profileJSON("Jane Doe", "linkedin.com/in/janedoe")))
	f.addJob("e", ready(profileJSON("Jane Doe (e)", "linkedin.com/in/janedoe")))

	rec, ok := NewScanner(f, NewPoller(f), WithCacheWorkers(2)).FindCached(context.Background(), janeURL)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", rec.Name)
}

func TestFindCached_Miss(t *testing.T) {
	t.Run("empty listing", func(t *testing.T) {
		f := newFake()
		_, ok := NewScanner(f, NewPoller(f)).FindCached(context.Background(), janeURL)
		assert.False(t, ok)
	})

	t.Run("no match", func(t *testing.T) {
		f := newFake()
		f.addJob("a", ready(profileJSON("Other", "linkedin.com/in/other")))
		_, ok := NewScanner(f, NewPoller(f)).FindCached(context.Background(), janeURL)
		assert.False(t, ok)
	})

	t.Run("listing fails", func(t *testing.T) {
		f := newFake()
		f.addJob("a", ready(profileJSON("Jane Doe", "linkedin.com/in/janedoe")))
		f.listErr = errors.New("gateway")
		_, ok := NewScanner(f, NewPoller(f)).FindCached(context.Background(), janeURL)
		assert.False(t, ok)
	})
}

func TestFindCached_RespectsLimit(t *testing.T) {
	f := newFake()
	f.addJob("a", ready(profileJSON("Other", "linkedin.com/in/other")))
	f.addJob("b", ready(profileJSON("Jane Doe", "linkedin.com/in/janedoe")))

	_, ok := NewScanner(f, NewPoller(f), WithCacheLimit(1)).FindCached(context.Background(), janeURL)
	assert.False(t, ok)
}

func newTestResolver(f *fakeCrawlbase) *Resolver {
	clk := newClock()
	p := NewPoller(f, WithClock(clk.Now), WithSleep(clk.Sleep), WithPollTimeout(time.Minute))
	return NewResolver(f, NewScanner(f, p), p)
}

func TestResolve_CacheHitSkipsSubmit(t *testing.T) {
	f := newFake()
	f.addJob("cached", ready(profileJSON("Jane Doe", "linkedin.com/in/janedoe")))

	rec, ok := newTestResolver(f).Resolve(context.Background(), janeURL)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Zero(t, f.submitCount())
}

func TestResolve_SubmitsAndPollsOnMiss(t *testing.T) {
	f := newFake()
	f.onSubmit = []outcome{pending, ready(profileJSON("Jane Doe", "linkedin.com/in/janedoe"))}

	rec, ok := newTestResolver(f).Resolve(context.Background(), janeURL)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Equal(t, 1, f.submitCount())
}

func TestResolve_SecondCallHitsCache(t *testing.T) {
	f := newFake()
	f.onSubmit = []outcome{ready(profileJSON("Jane Doe", "linkedin.com/in/janedoe"))}
	r := newTestResolver(f)

	_, ok := r.Resolve(context.Background(), janeURL)
	require.True(t, ok)
	_, ok = r.Resolve(context.Background(), janeURL)
	require.True(t, ok)
	assert.Equal(t, 1, f.submitCount())
}

func TestResolve_Failures(t *testing.T) {
	t.Run("submit error", func(t *testing.T) {
		f := newFake()
		f.submitErr = errors.New("crawlbase: submit response has no rid")
		_, ok := newTestResolver(f).Resolve(context.Background(), janeURL)
		assert.False(t, ok)
	})

	t.Run("poll timeout", func(t *testing.T) {
		f := newFake()
		f.onSubmit = []outcome{pending}
		_, ok := newTestResolver(f).Resolve(context.Background(), janeURL)
		assert.False(t, ok)
	})

	t.Run("poll failure", func(t *testing.T) {
		f := newFake()
		f.onSubmit = []outcome{upstream}
		_, ok := newTestResolver(f).Resolve(context.Background(), janeURL)
		assert.False(t, ok)
	})
}

func TestResolve_LogsSubmittedJob(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	f := newFake()
	f.onSubmit = []outcome{pending}
	clk := newClock()
	p := NewPoller(f, WithClock(clk.Now), WithSleep(clk.Sleep), WithPollTimeout(3*time.Second))
	submittedAt := clk.Now()

	_, ok := NewResolver(f, NewScanner(f, p), p).Resolve(context.Background(), janeURL)
	require.False(t, ok)

	submitted := logs.FilterMessage("profile: job submitted").All()
	require.Len(t, submitted, 1)
	fields := submitted[0].ContextMap()
	assert.Equal(t, "rid-submitted-1", fields["job_id"])
	assert.Equal(t, janeURL, fields["target_url"])
	at, ok := fields["submitted_at"].(time.Time)
	require.True(t, ok)
	assert.True(t, submittedAt.Equal(at))

	failed := logs.FilterMessage("profile: poll failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, 3*time.Second, failed[0].ContextMap()["waited"])
}
