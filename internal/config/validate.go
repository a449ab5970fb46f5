// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package config

import (
	"fmt"
	"strings"
)

var (
	validDrivers        = map[string]bool{"duckdb": true, "postgres": true, "memory": true}
	validAuthModes      = map[string]bool{"jwt": true, "none": true}
	validCacheBackends  = map[string]bool{"none": true, "memory": true, "badger": true, "redis": true}
	validEventBackends  = map[string]bool{"memory": true, "nats": true}
	validArchiveBackend = map[string]bool{"none": true, "": true, "s3": true, "gcs": true}
	validLogLevels      = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	validLogFormats     = map[string]bool{"json": true, "console": true}
	validLLMProviders   = map[string]bool{"anthropic": true, "openai": true, "perplexity": true, "gemini": true}
)

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateSecurity,
		c.validateLLM,
		c.validateIntelligence,
		c.validateCacheWarmer,
		c.validateEvents,
		c.validateArchive,
		c.validateTracing,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must not be negative")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("DATABASE_DRIVER must be one of: duckdb, postgres, memory")
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
	case "duckdb":
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DATABASE_DRIVER=duckdb")
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: jwt, none")
	}
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
	}
	if c.Security.AuthMode == "jwt" {
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
	}
	if (c.Security.AdminUsername == "") != (c.Security.AdminPassword == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	if c.Security.AdminPassword != "" && len(c.Security.AdminPassword) < 12 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 12 characters")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS must not contain * when ENVIRONMENT=production")
	}
	return nil
}

func (c *Config) validateJWTSecret() error {
	secret := c.Security.JWTSecret
	if secret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if containsPlaceholder(secret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value, generate one with: openssl rand -base64 32")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.DefaultProvider != "" && !validLLMProviders[c.LLM.DefaultProvider] {
		return fmt.Errorf("LLM_DEFAULT_PROVIDER must be one of: anthropic, openai, perplexity, gemini")
	}
	if p := c.Intelligence.SynthesisProvider; p != "" && !validLLMProviders[p] {
		return fmt.Errorf("INTEL_SYNTHESIS_PROVIDER must be one of: anthropic, openai, perplexity, gemini")
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("LLM_TIMEOUT must not be negative")
	}
	if c.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("LLM_RPS must not be negative")
	}
	if !validCacheBackends[c.LLM.Cache.Backend] {
		return fmt.Errorf("LLM_CACHE_BACKEND must be one of: none, memory, badger, redis")
	}
	if c.LLM.Cache.Backend == "badger" && c.LLM.Cache.BadgerDir == "" {
		return fmt.Errorf("LLM_CACHE_BADGER_DIR is required when LLM_CACHE_BACKEND=badger")
	}
	if c.LLM.Cache.Backend == "redis" && c.LLM.Cache.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when LLM_CACHE_BACKEND=redis")
	}
	return nil
}

func (c *Config) validateIntelligence() error {
	in := c.Intelligence
	if in.BatchSize < 1 {
		return fmt.Errorf("INTEL_BATCH_SIZE must be at least 1")
	}
	if in.BatchDelay < 0 || in.SourceTimeout < 0 || in.SynthesisTimeout < 0 {
		return fmt.Errorf("intelligence delays and timeouts must not be negative")
	}
	if in.MaxFindings < 1 {
		return fmt.Errorf("INTEL_MAX_FINDINGS must be at least 1")
	}
	if in.SchedulerEnabled && in.SchedulerInterval <= 0 {
		return fmt.Errorf("INTEL_SCHEDULER_INTERVAL must be positive when the scheduler is enabled")
	}
	if c.Opportunity.MinScore < 0 || c.Opportunity.MinScore > 100 {
		return fmt.Errorf("OPPORTUNITY_MIN_SCORE must be between 0 and 100")
	}
	for i, r := range c.Opportunity.Rules {
		if strings.TrimSpace(r.Expression) == "" {
			return fmt.Errorf("opportunity.rules[%d] has an empty expression", i)
		}
	}
	return nil
}

func (c *Config) validateCacheWarmer() error {
	w := c.CacheWarmer
	if !w.Enabled {
		return nil
	}
	if w.Interval <= 0 {
		return fmt.Errorf("CACHE_WARMER_INTERVAL must be positive")
	}
	if w.BatchSize < 1 {
		return fmt.Errorf("cache_warmer.batch_size must be at least 1")
	}
	if w.TTL <= 0 {
		return fmt.Errorf("CACHE_WARMER_TTL must be positive")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !validEventBackends[c.Events.Backend] {
		return fmt.Errorf("EVENTS_BACKEND must be one of: memory, nats")
	}
	if c.Events.Backend == "nats" {
		if !c.Events.EmbeddedServer && c.Events.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required when EVENTS_BACKEND=nats without an embedded server")
		}
		if c.Events.StreamName == "" {
			return fmt.Errorf("NATS_STREAM is required when EVENTS_BACKEND=nats")
		}
	}
	return nil
}

func (c *Config) validateArchive() error {
	if !validArchiveBackend[c.Archive.Backend] {
		return fmt.Errorf("ARCHIVE_BACKEND must be one of: none, s3, gcs")
	}
	if (c.Archive.Backend == "s3" || c.Archive.Backend == "gcs") && c.Archive.Bucket == "" {
		return fmt.Errorf("ARCHIVE_BUCKET is required when ARCHIVE_BACKEND=%s", c.Archive.Backend)
	}
	return nil
}

func (c *Config) validateTracing() error {
	if !c.Tracing.Enabled {
		return nil
	}
	if c.Tracing.Endpoint == "" {
		return fmt.Errorf("OTLP_ENDPOINT is required when tracing is enabled")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production or prod.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment reports whether ENVIRONMENT is empty, development or dev.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

func (c *Config) hasWildcardCORS() bool {
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS is true when a wildcard origin is configured outside production.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS() && !c.IsProduction()
}

var placeholderPatterns = []string{
	"REPLACE", "CHANGEME", "CHANGE_ME", "YOUR_SECRET", "PLACEHOLDER", "EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
