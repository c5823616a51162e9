package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Serper    SerperConfig    `yaml:"serper" mapstructure:"serper"`
	Crawlbase CrawlbaseConfig `yaml:"crawlbase" mapstructure:"crawlbase"`
	Hunter    HunterConfig    `yaml:"hunter" mapstructure:"hunter"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Poll      PollConfig      `yaml:"poll" mapstructure:"poll"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SerperConfig holds Serper search API settings.
type SerperConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CrawlbaseConfig holds Crawlbase scraping API settings.
type CrawlbaseConfig struct {
	Token        string `yaml:"token" mapstructure:"token"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	Scraper      string `yaml:"scraper" mapstructure:"scraper"`
	CacheLimit   int    `yaml:"cache_limit" mapstructure:"cache_limit"`
	CacheWorkers int    `yaml:"cache_workers" mapstructure:"cache_workers"`
}

// HunterConfig holds Hunter.io API settings.
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LLMConfig selects the summarization provider.
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// PollConfig configures async job polling.
type PollConfig struct {
	InitialSecs int `yaml:"initial_secs" mapstructure:"initial_secs"`
	CapSecs     int `yaml:"cap_secs" mapstructure:"cap_secs"`
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Initial returns the initial poll interval.
func (p PollConfig) Initial() time.Duration { return time.Duration(p.InitialSecs) * time.Second }

// Cap returns the maximum poll interval.
func (p PollConfig) Cap() time.Duration { return time.Duration(p.CapSecs) * time.Second }

// Timeout returns the max duration of a single poll.
func (p PollConfig) Timeout() time.Duration { return time.Duration(p.TimeoutSecs) * time.Second }

// PipelineConfig configures the single-lead pipeline.
type PipelineConfig struct {
	ProfileDomains []string `yaml:"profile_domains" mapstructure:"profile_domains"`
	PhoneRegion    string   `yaml:"phone_region" mapstructure:"phone_region"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentLeads int     `yaml:"max_concurrent_leads" mapstructure:"max_concurrent_leads"`
	RateLimitRPS       float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	ReportDir          string  `yaml:"report_dir" mapstructure:"report_dir"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	MaxUploadMB int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADBIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("crawlbase.base_url", "https://api.crawlbase.com")
	v.SetDefault("crawlbase.scraper", "linkedin-profile")
	v.SetDefault("crawlbase.cache_limit", 100)
	v.SetDefault("crawlbase.cache_workers", 10)
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("poll.initial_secs", 1)
	v.SetDefault("poll.cap_secs", 60)
	v.SetDefault("poll.timeout_secs", 600)
	v.SetDefault("pipeline.profile_domains", []string{"linkedin.com"})
	v.SetDefault("pipeline.phone_region", "US")
	v.SetDefault("batch.max_concurrent_leads", 5)
	v.SetDefault("batch.rate_limit_rps", 0)
	v.SetDefault("batch.report_dir", ".")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings needed by a run mode: "lead", "batch" or
// "serve". Offline runs only need the structural checks.
func (c *Config) Validate(mode string, offline bool) error {
	var errs []string
	required := func(val, key string) {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, key+" is required")
		}
	}

	switch mode {
	case "lead", "batch":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if !offline {
		required(c.Serper.Key, "serper.key")
		required(c.Crawlbase.Token, "crawlbase.token")
		required(c.Hunter.Key, "hunter.key")
		switch c.LLM.Provider {
		case "anthropic", "":
			required(c.Anthropic.Key, "anthropic.key")
		case "gemini":
			required(c.Gemini.Key, "gemini.key")
		default:
			errs = append(errs, fmt.Sprintf("llm.provider %q is not supported", c.LLM.Provider))
		}
	}

	if c.Batch.MaxConcurrentLeads < 1 || c.Batch.MaxConcurrentLeads > 50 {
		errs = append(errs, "batch.max_concurrent_leads must be between 1 and 50")
	}
	if c.Batch.RateLimitRPS < 0 {
		errs = append(errs, "batch.rate_limit_rps must be >= 0")
	}
	if c.Crawlbase.CacheWorkers < 1 {
		errs = append(errs, "crawlbase.cache_workers must be >= 1")
	}
	if c.Poll.InitialSecs < 1 || c.Poll.CapSecs < c.Poll.InitialSecs {
		errs = append(errs, "poll.initial_secs must be >= 1 and <= poll.cap_secs")
	}
	if c.Poll.TimeoutSecs < 1 {
		errs = append(errs, "poll.timeout_secs must be >= 1")
	}
	if len(c.Pipeline.ProfileDomains) == 0 {
		errs = append(errs, "pipeline.profile_domains must not be empty")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
