package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadbio-cli/internal/batch"
	"github.com/sells-group/leadbio-cli/internal/config"
	"github.com/sells-group/leadbio-cli/internal/contact"
	"github.com/sells-group/leadbio-cli/internal/pipeline"
	"github.com/sells-group/leadbio-cli/internal/profile"
	"github.com/sells-group/leadbio-cli/internal/summarize"
	"github.com/sells-group/leadbio-cli/pkg/crawlbase"
	"github.com/sells-group/leadbio-cli/pkg/hunter"
	"github.com/sells-group/leadbio-cli/pkg/serper"
)

// pipelineEnv holds the pipeline and batch processor used by the
// lead/batch/serve commands.
type pipelineEnv struct {
	Pipeline  *pipeline.Pipeline
	Processor *batch.Processor
}

// providers is the set of outbound clients one pipeline talks to.
type providers struct {
	Search     serper.Client
	Crawl      crawlbase.Client
	Hunter     hunter.Client
	Summarizer summarize.Summarizer
}

// initPipeline validates config for mode and wires the pipeline.
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode, offline); err != nil {
		return nil, err
	}

	p, err := buildProviders(ctx, cfg, offline)
	if err != nil {
		return nil, err
	}

	pl := newPipeline(cfg, p)
	return &pipelineEnv{
		Pipeline:  pl,
		Processor: newProcessor(cfg, pl),
	}, nil
}

// buildProviders creates the live API clients, or stubs when offline.
func buildProviders(ctx context.Context, c *config.Config, offline bool) (providers, error) {
	if offline {
		zap.L().Info("offline mode, using stub providers")
		return providers{
			Search:     &pipeline.StubSerperClient{},
			Crawl:      &pipeline.StubCrawlbaseClient{},
			Hunter:     &pipeline.StubHunterClient{},
			Summarizer: summarize.NewAnthropic(&pipeline.StubAnthropicClient{}, c.Anthropic.Model),
		}, nil
	}

	sum, err := summarize.New(ctx, summarize.Options{
		Provider:       c.LLM.Provider,
		AnthropicKey:   c.Anthropic.Key,
		AnthropicModel: c.Anthropic.Model,
		Gemini: summarize.GeminiConfig{
			APIKey:  c.Gemini.Key,
			Model:   c.Gemini.Model,
			BaseURL: c.Gemini.BaseURL,
		},
	})
	if err != nil {
		return providers{}, err
	}

	zap.L().Info("providers configured", zap.String("llm_provider", c.LLM.Provider))
	return providers{
		Search: serper.NewClient(c.Serper.Key, serper.WithBaseURL(c.Serper.BaseURL)),
		Crawl: crawlbase.NewClient(c.Crawlbase.Token,
			crawlbase.WithBaseURL(c.Crawlbase.BaseURL),
			crawlbase.WithScraper(c.Crawlbase.Scraper),
		),
		Hunter:     hunter.NewClient(c.Hunter.Key, hunter.WithBaseURL(c.Hunter.BaseURL)),
		Summarizer: sum,
	}, nil
}

// newPipeline builds the profile resolver chain and the lead pipeline.
func newPipeline(c *config.Config, p providers) *pipeline.Pipeline {
	poller := profile.NewPoller(p.Crawl,
		profile.WithPollInterval(c.Poll.Initial()),
		profile.WithPollCap(c.Poll.Cap()),
		profile.WithPollTimeout(c.Poll.Timeout()),
	)
	scanner := profile.NewScanner(p.Crawl, poller,
		profile.WithCacheLimit(c.Crawlbase.CacheLimit),
		profile.WithCacheWorkers(c.Crawlbase.CacheWorkers),
	)
	resolver := profile.NewResolver(p.Crawl, scanner, poller)
	finder := contact.NewHunterFinder(p.Hunter, c.Pipeline.PhoneRegion)

	return pipeline.New(p.Search, resolver, finder, p.Summarizer,
		pipeline.WithProfileDomains(c.Pipeline.ProfileDomains...),
	)
}

func newProcessor(c *config.Config, runner batch.Runner) *batch.Processor {
	return batch.NewProcessor(runner,
		batch.WithMaxConcurrentLeads(c.Batch.MaxConcurrentLeads),
		batch.WithRateLimit(c.Batch.RateLimitRPS),
		batch.WithReportDir(c.Batch.ReportDir),
	)
}
