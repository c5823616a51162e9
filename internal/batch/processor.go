package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/leadbio-cli/internal/model"
	"github.com/sells-group/leadbio-cli/internal/workpool"
)

const defaultMaxConcurrentLeads = 5

// Runner enriches one lead.
type Runner interface {
	Run(ctx context.Context, lead model.Lead) model.LeadResult
}

// Result is the outcome of a batch run.
type Result struct {
	RunID        string             `json:"run_id" yaml:"run_id"`
	Results      []model.LeadResult `json:"results" yaml:"results"`
	SkippedCount int                `json:"skipped_count" yaml:"skipped_count"`
	ReportPath   string             `json:"report" yaml:"report"`
}

// Option configures a Processor.
type Option func(*Processor)

// WithMaxConcurrentLeads caps the number of leads in flight.
func WithMaxConcurrentLeads(n int) Option {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithRateLimit sets a pool-wide lead start rate. <=0 disables it.
func WithRateLimit(rps float64) Option {
	return func(p *Processor) {
		p.rps = rps
	}
}

// WithReportDir sets the directory for skip reports.
func WithReportDir(dir string) Option {
	return func(p *Processor) {
		p.reportDir = dir
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

// Processor runs batches of leads.
type Processor struct {
	runner    Runner
	workers   int
	rps       float64
	reportDir string
	now       func() time.Time
}

// NewProcessor creates a Processor. Defaults: 5 concurrent leads, no rate
// limit, reports in the working directory.
func NewProcessor(runner Runner, opts ...Option) *Processor {
	p := &Processor{
		runner:    runner,
		workers:   defaultMaxConcurrentLeads,
		reportDir: ".",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type job struct {
	row  int
	lead model.Lead
}

// Run processes rows. The first row fixes the layout and is data like every
// other row. Rows that do not fit the layout, and rows whose processing
// panics or errors at the pool level, become skip records; every valid row
// yields exactly one entry in Result.Results, in input order. An InputError
// means nothing was processed.
func (p *Processor) Run(ctx context.Context, rows [][]string) (*Result, error) {
	layout, err := DetectLayout(rows)
	if err != nil {
		return nil, err
	}

	started := p.now()
	runID := uuid.NewString()
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("batch: starting",
		zap.Int("rows", len(rows)),
		zap.String("layout", layout.String()),
		zap.Int("max_concurrent_leads", p.workers),
	)

	var skips SkipLog
	jobs := make([]job, 0, len(rows))
	for i, row := range rows {
		lead, reason := layout.Parse(row)
		if reason != "" {
			log.Debug("batch: row skipped", zap.Int("row", i), zap.String("reason", reason))
			skips.Add(i, row, reason)
			continue
		}
		jobs = append(jobs, job{row: i, lead: lead})
	}

	var done, failed int
	outcomes := workpool.Run(ctx, jobs, func(ctx context.Context, j job) (model.LeadResult, error) {
		return p.runner.Run(ctx, j.lead), nil
	}, workpool.Options{
		Workers:      p.workers,
		RateLimitRPS: p.rps,
		OnResult: func(_ int, err error) {
			done++
			if err != nil {
				failed++
			}
			log.Debug("batch: progress", zap.Int("done", done), zap.Int("total", len(jobs)))
		},
	})

	results := make([]model.LeadResult, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			log.Error("batch: row failed", zap.Int("row", o.Input.row), zap.Error(o.Err))
			skips.Add(o.Input.row, rows[o.Input.row], "processing failed: "+o.Err.Error())
			continue
		}
		results = append(results, o.Output)
	}

	res := &Result{
		RunID:        runID,
		Results:      results,
		SkippedCount: skips.Len(),
	}

	path, err := WriteReport(p.reportDir, started, skips.Records())
	if err != nil {
		log.Error("batch: write skip report", zap.Error(err))
	} else {
		res.ReportPath = path
	}

	var leadErrors int
	for _, r := range results {
		if r.Failed() {
			leadErrors++
		}
	}
	log.Info("batch: complete",
		zap.Int("results", len(results)),
		zap.Int("lead_errors", leadErrors),
		zap.Int("skipped", res.SkippedCount),
		zap.Int("pool_failures", failed),
		zap.String("report", res.ReportPath),
		zap.Duration("elapsed", p.now().Sub(started)),
	)
	return res, nil
}
