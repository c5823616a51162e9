package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sells-group/leadbio-cli/pkg/crawlbase"
)

// fakeCrawlbase is an in-memory provider. Each rid has a script of retrieve
// outcomes; the last one repeats.
type fakeCrawlbase struct {
	mu        sync.Mutex
	scripts   map[string][]outcome
	calls     map[string]int
	rids      []string
	listErr   error
	submitErr error
	submits   []string
	// onSubmit scripts the job created by Submit.
	onSubmit []outcome
}

type outcome struct {
	body   string
	status int
}

func ready(body string) outcome { return outcome{body: body, status: http.StatusOK} }

var (
	pending  = outcome{status: http.StatusNotFound}
	upstream = outcome{status: http.StatusInternalServerError, body: "boom"}
)

func newFake() *fakeCrawlbase {
	return &fakeCrawlbase{
		scripts: map[string][]outcome{},
		calls:   map[string]int{},
	}
}

func (f *fakeCrawlbase) addJob(rid string, script ...outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[rid] = script
	f.rids = append(f.rids, rid)
}

func (f *fakeCrawlbase) Submit(_ context.Context, targetURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submits = append(f.submits, targetURL)
	rid := fmt.Sprintf("rid-submitted-%d", len(f.submits))
	f.scripts[rid] = f.onSubmit
	f.rids = append([]string{rid}, f.rids...)
	return rid, nil
}

func (f *fakeCrawlbase) Retrieve(_ context.Context, rid string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	script := f.scripts[rid]
	if len(script) == 0 {
		return nil, &crawlbase.APIError{StatusCode: http.StatusNotFound}
	}
	n := f.calls[rid]
	f.calls[rid] = n + 1
	o := script[min(n, len(script)-1)]
	if o.status != http.StatusOK {
		return nil, &crawlbase.APIError{StatusCode: o.status, Body: o.body}
	}
	return json.RawMessage(o.body), nil
}

func (f *fakeCrawlbase) ListJobs(_ context.Context, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := append([]string(nil), f.rids...)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeCrawlbase) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

// fakeClock advances only when the poller sleeps.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []sleepCall
}

type sleepCall struct {
	wait time.Duration
	at   time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, sleepCall{wait: d, at: c.now})
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	for i, s := range c.sleeps {
		out[i] = s.wait
	}
	return out
}

func profileJSON(name, url string) string {
	b, _ := json.Marshal(map[string]any{
		"title":         name,
		"profileUrl":    url,
		"headline":      "VP Sales at Acme",
		"positionInfo":  map[string]any{"company": "Acme"},
		"educationInfo": map[string]any{"school": "State University"},
		"summary":       "Builds sales teams.",
	})
	return string(b)
}
