// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/signaldesk/config.yaml",
	"/etc/signaldesk/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     60 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Driver:          "duckdb",
			Path:            "/data/signaldesk.duckdb",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			SessionTimeout:  24 * time.Hour,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
			TrustedProxies:  []string{},
		},
		LLM: LLMConfig{
			DefaultProvider:   "anthropic",
			Timeout:           60 * time.Second,
			MaxTokens:         4096,
			RequestsPerSecond: 2,
			Burst:             4,
			Anthropic:         ProviderConfig{Model: "claude-sonnet-4-5", BaseURL: "https://api.anthropic.com"},
			OpenAI:            ProviderConfig{Model: "gpt-4o-mini", BaseURL: "https://api.openai.com"},
			Perplexity:        ProviderConfig{Model: "sonar", BaseURL: "https://api.perplexity.ai"},
			Gemini:            ProviderConfig{Model: "gemini-2.5-flash"},
			Cache: LLMCacheConfig{
				Backend:   "memory",
				TTL:       30 * time.Minute,
				BadgerDir: "/data/llm-cache",
				RedisAddr: "127.0.0.1:6379",
			},
		},
		Search: SearchConfig{
			Timeout:           15 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
			Firecrawl:         SourceConfig{BaseURL: "https://api.firecrawl.dev"},
			NewsAPI:           SourceConfig{BaseURL: "https://newsapi.org"},
			Reddit:            SourceConfig{BaseURL: "https://www.reddit.com", UserAgent: "signaldesk/1.0"},
			Twitter:           SourceConfig{BaseURL: "https://api.twitter.com"},
			Google:            SourceConfig{BaseURL: "https://www.googleapis.com"},
			YouCom:            SourceConfig{BaseURL: "https://api.ydc-index.io"},
		},
		Intelligence: IntelligenceConfig{
			BatchSize:         3,
			BatchDelay:        time.Second,
			SourceTimeout:     20 * time.Second,
			SynthesisTimeout:  45 * time.Second,
			ResultsPerSource:  10,
			MaxFindings:       50,
			DefaultSources:    []string{"newsapi", "reddit", "google", "firecrawl", "twitter", "youcom"},
			RealtimeWindow:    24 * time.Hour,
			SchedulerEnabled:  false,
			SchedulerInterval: time.Hour,
		},
		Opportunity: OpportunityConfig{
			MinScore:   40,
			MaxResults: 20,
		},
		CacheWarmer: CacheWarmerConfig{
			Enabled:    true,
			Interval:   30 * time.Minute,
			BatchSize:  5,
			BatchDelay: 500 * time.Millisecond,
			TTL:        time.Hour,
		},
		Events: EventsConfig{
			Backend:             "memory",
			NATSURL:             "nats://127.0.0.1:4222",
			EmbeddedHost:        "127.0.0.1",
			EmbeddedPort:        4222,
			StoreDir:            "/data/nats",
			StreamName:          "SIGNALDESK",
			StreamMaxAge:        7 * 24 * time.Hour,
			ConsumerGroup:       "signaldesk",
			RouterRetries:       3,
			RouterRetryInterval: 100 * time.Millisecond,
		},
		Archive: ArchiveConfig{
			Backend: "none",
			Prefix:  "runs/",
			Region:  "us-east-1",
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4317",
			SampleRate:  1.0,
			ServiceName: "signaldesk",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers defaults, the config file and the environment, then validates.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
	"intelligence.default_sources",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := splitCSV(raw)
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func splitCSV(s string) []string {
	out := make([]string, 0, 4)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"database_driver": "database.driver",
	"duckdb_path":     "database.path",
	"database_url":    "database.dsn",
	"db_max_open":     "database.max_open_conns",
	"db_max_idle":     "database.max_idle_conns",

	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"admin_username":      "security.admin_username",
	"admin_password":      "security.admin_password",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"trusted_proxies":     "security.trusted_proxies",
	"casbin_model_path":   "security.casbin_model_path",
	"casbin_policy_path":  "security.casbin_policy_path",

	"llm_default_provider": "llm.default_provider",
	"llm_timeout":          "llm.timeout",
	"llm_max_tokens":       "llm.max_tokens",
	"llm_rps":              "llm.requests_per_second",
	"anthropic_api_key":    "llm.anthropic.api_key",
	"anthropic_model":      "llm.anthropic.model",
	"anthropic_base_url":   "llm.anthropic.base_url",
	"openai_api_key":       "llm.openai.api_key",
	"openai_model":         "llm.openai.model",
	"openai_base_url":      "llm.openai.base_url",
	"perplexity_api_key":   "llm.perplexity.api_key",
	"perplexity_model":     "llm.perplexity.model",
	"gemini_api_key":       "llm.gemini.api_key",
	"gemini_model":         "llm.gemini.model",
	"llm_cache_backend":    "llm.cache.backend",
	"llm_cache_ttl":        "llm.cache.ttl",
	"llm_cache_badger_dir": "llm.cache.badger_dir",
	"redis_addr":           "llm.cache.redis_addr",
	"redis_password":       "llm.cache.redis_password",

	"search_timeout":       "search.timeout",
	"firecrawl_api_key":    "search.firecrawl.api_key",
	"newsapi_api_key":      "search.newsapi.api_key",
	"news_api_key":         "search.newsapi.api_key",
	"reddit_enabled":       "search.reddit.enabled",
	"reddit_user_agent":    "search.reddit.user_agent",
	"twitter_bearer_token": "search.twitter.api_key",
	"google_api_key":       "search.google.api_key",
	"google_cse_id":        "search.google.engine_id",
	"youcom_api_key":       "search.youcom.api_key",

	"intel_batch_size":         "intelligence.batch_size",
	"intel_batch_delay":        "intelligence.batch_delay",
	"intel_source_timeout":     "intelligence.source_timeout",
	"intel_synthesis_timeout":  "intelligence.synthesis_timeout",
	"intel_max_findings":       "intelligence.max_findings",
	"intel_default_sources":    "intelligence.default_sources",
	"intel_synthesis_provider": "intelligence.synthesis_provider",
	"intel_scheduler_enabled":  "intelligence.scheduler_enabled",
	"intel_scheduler_interval": "intelligence.scheduler_interval",

	"opportunity_min_score":   "opportunity.min_score",
	"opportunity_max_results": "opportunity.max_results",

	"cache_warmer_enabled":  "cache_warmer.enabled",
	"cache_warmer_interval": "cache_warmer.interval",
	"cache_warmer_ttl":      "cache_warmer.ttl",

	"events_backend": "events.backend",
	"nats_url":       "events.nats_url",
	"nats_embedded":  "events.embedded_server",
	"nats_port":      "events.embedded_port",
	"nats_store_dir": "events.store_dir",
	"nats_stream":    "events.stream_name",

	"archive_backend":  "archive.backend",
	"archive_bucket":   "archive.bucket",
	"archive_prefix":   "archive.prefix",
	"archive_region":   "archive.region",
	"archive_endpoint": "archive.endpoint",

	"tracing_enabled":     "tracing.enabled",
	"otlp_endpoint":       "tracing.endpoint",
	"tracing_sample_rate": "tracing.sample_rate",
	"tracing_insecure":    "tracing.insecure",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps ANTHROPIC_API_KEY to llm.anthropic.api_key and so
// on. Returning "" tells koanf to skip the variable.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
