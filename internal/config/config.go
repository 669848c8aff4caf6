package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store           StoreConfig           `yaml:"store" mapstructure:"store"`
	Serper          SerperConfig          `yaml:"serper" mapstructure:"serper"`
	Firecrawl       FirecrawlConfig       `yaml:"firecrawl" mapstructure:"firecrawl"`
	Anthropic       AnthropicConfig       `yaml:"anthropic" mapstructure:"anthropic"`
	Hunter          HunterConfig          `yaml:"hunter" mapstructure:"hunter"`
	Dropcontact     DropcontactConfig     `yaml:"dropcontact" mapstructure:"dropcontact"`
	Apollo          ApolloConfig          `yaml:"apollo" mapstructure:"apollo"`
	MillionVerifier MillionVerifierConfig `yaml:"millionverifier" mapstructure:"millionverifier"`
	Salesforce      SalesforceConfig      `yaml:"salesforce" mapstructure:"salesforce"`
	Retry           RetryConfig           `yaml:"retry" mapstructure:"retry"`
	Pipeline        PipelineConfig        `yaml:"pipeline" mapstructure:"pipeline"`
	Log             LogConfig             `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SerperConfig holds Serper.dev API settings.
type SerperConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// HunterConfig holds Hunter.io API settings.
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// DropcontactConfig holds Dropcontact API settings.
type DropcontactConfig struct {
	Key              string `yaml:"key" mapstructure:"key"`
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	PollIntervalSecs int    `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	WaitBudgetSecs   int    `yaml:"wait_budget_secs" mapstructure:"wait_budget_secs"`
}

// ApolloConfig holds Apollo.io API settings.
type ApolloConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// MillionVerifierConfig holds MillionVerifier API settings.
type MillionVerifierConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string  `yaml:"client_id" mapstructure:"client_id"`
	Username string  `yaml:"username" mapstructure:"username"`
	KeyPath  string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string  `yaml:"login_url" mapstructure:"login_url"`
	RPS      float64 `yaml:"rps" mapstructure:"rps"`
}

// RetryConfig tunes the shared call retry policy.
type RetryConfig struct {
	MaxAttempts        int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffSecs float64 `yaml:"initial_backoff_secs" mapstructure:"initial_backoff_secs"`
	MaxBackoffSecs     float64 `yaml:"max_backoff_secs" mapstructure:"max_backoff_secs"`
	BreakerThreshold   int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs   float64 `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// PipelineConfig configures run layout and pacing.
type PipelineConfig struct {
	WorkDir        string  `yaml:"work_dir" mapstructure:"work_dir"`
	DataFile       string  `yaml:"data_file" mapstructure:"data_file"`
	ExportPrefix   string  `yaml:"export_prefix" mapstructure:"export_prefix"`
	MaxLeads       int     `yaml:"max_leads" mapstructure:"max_leads"`
	LeadDelaySecs  float64 `yaml:"lead_delay_secs" mapstructure:"lead_delay_secs"`
	StepDelaySecs  float64 `yaml:"step_delay_secs" mapstructure:"step_delay_secs"`
	MinSyncScore   int     `yaml:"min_sync_score" mapstructure:"min_sync_score"`
	SkipVerify     bool    `yaml:"skip_verify" mapstructure:"skip_verify"`
	SkipCRM        bool    `yaml:"skip_crm" mapstructure:"skip_crm"`
	HistoryEnabled bool    `yaml:"history_enabled" mapstructure:"history_enabled"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file, and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys default to empty so AutomaticEnv can fill
	// them in; viper only unmarshals keys it already knows about.
	for _, key := range []string{
		"serper.key", "firecrawl.key", "anthropic.key", "hunter.key",
		"dropcontact.key", "apollo.key", "millionverifier.key",
		"salesforce.client_id", "salesforce.username", "salesforce.key_path",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("store.path", "leadgen.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("dropcontact.base_url", "https://api.dropcontact.com")
	v.SetDefault("dropcontact.poll_interval_secs", 5)
	v.SetDefault("dropcontact.wait_budget_secs", 120)
	v.SetDefault("apollo.base_url", "https://api.apollo.io/api/v1")
	v.SetDefault("millionverifier.base_url", "https://api.millionverifier.com")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rps", 5)
	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.initial_backoff_secs", 2)
	v.SetDefault("retry.max_backoff_secs", 60)
	v.SetDefault("retry.breaker_threshold", 8)
	v.SetDefault("retry.breaker_reset_secs", 60)
	v.SetDefault("pipeline.work_dir", ".")
	v.SetDefault("pipeline.data_file", "leads.json")
	v.SetDefault("pipeline.export_prefix", "leads")
	v.SetDefault("pipeline.max_leads", 50)
	v.SetDefault("pipeline.lead_delay_secs", 1)
	v.SetDefault("pipeline.step_delay_secs", 1)
	v.SetDefault("pipeline.min_sync_score", 40)
	v.SetDefault("pipeline.history_enabled", true)

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
