// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package config loads SignalDesk configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Security     SecurityConfig     `koanf:"security"`
	LLM          LLMConfig          `koanf:"llm"`
	Search       SearchConfig       `koanf:"search"`
	Intelligence IntelligenceConfig `koanf:"intelligence"`
	Opportunity  OpportunityConfig  `koanf:"opportunity"`
	CacheWarmer  CacheWarmerConfig  `koanf:"cache_warmer"`
	Events       EventsConfig       `koanf:"events"`
	Archive      ArchiveConfig      `koanf:"archive"`
	Tracing      TracingConfig      `koanf:"tracing"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig selects and tunes the row store.
//
// Driver is one of duckdb (embedded file), postgres (managed instance, DSN
// required) or memory (process-local, lost on restart).
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	Path            string        `koanf:"path"`
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// SecurityConfig holds authentication, authorization and HTTP hardening settings.
type SecurityConfig struct {
	// AuthMode is jwt or none. none injects a development admin identity
	// into every request and is refused in production.
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
	CasbinModelPath   string        `koanf:"casbin_model_path"`
	CasbinPolicyPath  string        `koanf:"casbin_policy_path"`
}

// ProviderConfig configures one LLM provider. A provider with no APIKey is
// not registered.
type ProviderConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// LLMCacheConfig selects the completion cache backend: none, memory, badger or redis.
type LLMCacheConfig struct {
	Backend       string        `koanf:"backend"`
	TTL           time.Duration `koanf:"ttl"`
	BadgerDir     string        `koanf:"badger_dir"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
}

// LLMConfig configures the completion providers.
type LLMConfig struct {
	DefaultProvider   string         `koanf:"default_provider"`
	Timeout           time.Duration  `koanf:"timeout"`
	MaxTokens         int            `koanf:"max_tokens"`
	RequestsPerSecond float64        `koanf:"requests_per_second"`
	Burst             int            `koanf:"burst"`
	Anthropic         ProviderConfig `koanf:"anthropic"`
	OpenAI            ProviderConfig `koanf:"openai"`
	Perplexity        ProviderConfig `koanf:"perplexity"`
	Gemini            ProviderConfig `koanf:"gemini"`
	Cache             LLMCacheConfig `koanf:"cache"`
}

// SourceConfig configures one search or scrape source. Reddit needs no key
// and is switched on with Enabled; every other source is enabled by its key.
type SourceConfig struct {
	Enabled   bool   `koanf:"enabled"`
	APIKey    string `koanf:"api_key"`
	BaseURL   string `koanf:"base_url"`
	EngineID  string `koanf:"engine_id"`
	UserAgent string `koanf:"user_agent"`
}

// SearchConfig configures the search and scrape sources.
type SearchConfig struct {
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	Firecrawl         SourceConfig  `koanf:"firecrawl"`
	NewsAPI           SourceConfig  `koanf:"newsapi"`
	Reddit            SourceConfig  `koanf:"reddit"`
	Twitter           SourceConfig  `koanf:"twitter"`
	Google            SourceConfig  `koanf:"google"`
	YouCom            SourceConfig  `koanf:"youcom"`
}

// IntelligenceConfig tunes the gather/synthesize pipeline.
type IntelligenceConfig struct {
	BatchSize         int           `koanf:"batch_size"`
	BatchDelay        time.Duration `koanf:"batch_delay"`
	SourceTimeout     time.Duration `koanf:"source_timeout"`
	SynthesisTimeout  time.Duration `koanf:"synthesis_timeout"`
	ResultsPerSource  int           `koanf:"results_per_source"`
	MaxFindings       int           `koanf:"max_findings"`
	DefaultSources    []string      `koanf:"default_sources"`
	SynthesisProvider string        `koanf:"synthesis_provider"`
	RealtimeWindow    time.Duration `koanf:"realtime_window"`
	SchedulerEnabled  bool          `koanf:"scheduler_enabled"`
	SchedulerInterval time.Duration `koanf:"scheduler_interval"`
}

// OpportunityRule is a CEL expression that boosts the score of findings it matches.
type OpportunityRule struct {
	Name       string  `koanf:"name"`
	Expression string  `koanf:"expression"`
	Boost      float64 `koanf:"boost"`
}

// OpportunityConfig tunes the opportunity detector.
type OpportunityConfig struct {
	MinScore   float64           `koanf:"min_score"`
	MaxResults int               `koanf:"max_results"`
	Rules      []OpportunityRule `koanf:"rules"`
}

// CacheWarmerConfig controls the brand snapshot warmer.
type CacheWarmerConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Interval   time.Duration `koanf:"interval"`
	BatchSize  int           `koanf:"batch_size"`
	BatchDelay time.Duration `koanf:"batch_delay"`
	TTL        time.Duration `koanf:"ttl"`
}

// EventsConfig selects the domain event backend: memory or nats.
type EventsConfig struct {
	Backend             string        `koanf:"backend"`
	NATSURL             string        `koanf:"nats_url"`
	EmbeddedServer      bool          `koanf:"embedded_server"`
	EmbeddedHost        string        `koanf:"embedded_host"`
	EmbeddedPort        int           `koanf:"embedded_port"`
	StoreDir            string        `koanf:"store_dir"`
	StreamName          string        `koanf:"stream_name"`
	StreamMaxAge        time.Duration `koanf:"stream_max_age"`
	ConsumerGroup       string        `koanf:"consumer_group"`
	RouterRetries       int           `koanf:"router_retries"`
	RouterRetryInterval time.Duration `koanf:"router_retry_interval"`
}

// ArchiveConfig selects where completed run reports are copied: none, s3 or gcs.
type ArchiveConfig struct {
	Backend  string `koanf:"backend"`
	Bucket   string `koanf:"bucket"`
	Prefix   string `koanf:"prefix"`
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
}

// TracingConfig controls OTLP trace export.
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	SampleRate  float64 `koanf:"sample_rate"`
	Insecure    bool    `koanf:"insecure"`
	ServiceName string  `koanf:"service_name"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
