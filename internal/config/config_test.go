// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef-test"

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testSecret
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "duckdb" {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}
	if cfg.Intelligence.BatchSize != 3 || cfg.Intelligence.BatchDelay != time.Second {
		t.Errorf("unexpected intelligence batching defaults: %+v", cfg.Intelligence)
	}
	if cfg.LLM.DefaultProvider != "anthropic" {
		t.Errorf("LLM.DefaultProvider = %q, want anthropic", cfg.LLM.DefaultProvider)
	}
	if cfg.Events.Backend != "memory" {
		t.Errorf("Events.Backend = %q, want memory", cfg.Events.Backend)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"missing jwt secret", func(c *Config) { c.Security.JWTSecret = "" }, "JWT_SECRET is required"},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "short" }, "at least 32"},
		{"placeholder secret", func(c *Config) { c.Security.JWTSecret = "CHANGEME-CHANGEME-CHANGEME-CHANGEME" }, "placeholder"},
		{"dev bypass needs no secret", func(c *Config) { c.Security.AuthMode = "none"; c.Security.JWTSecret = "" }, ""},
		{"dev bypass refused in production", func(c *Config) {
			c.Security.AuthMode = "none"
			c.Server.Environment = "production"
			c.Security.CORSOrigins = []string{"https://app.example.org"}
		}, "not allowed"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "DATABASE_DRIVER"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "DATABASE_URL"},
		{"memory driver", func(c *Config) { c.Database.Driver = "memory"; c.Database.Path = "" }, ""},
		{"zero batch size", func(c *Config) { c.Intelligence.BatchSize = 0 }, "INTEL_BATCH_SIZE"},
		{"negative batch delay", func(c *Config) { c.Intelligence.BatchDelay = -time.Second }, "must not be negative"},
		{"unknown llm provider", func(c *Config) { c.LLM.DefaultProvider = "cohere" }, "LLM_DEFAULT_PROVIDER"},
		{"unknown cache backend", func(c *Config) { c.LLM.Cache.Backend = "memcached" }, "LLM_CACHE_BACKEND"},
		{"nats without stream", func(c *Config) { c.Events.Backend = "nats"; c.Events.StreamName = "" }, "NATS_STREAM"},
		{"s3 without bucket", func(c *Config) { c.Archive.Backend = "s3" }, "ARCHIVE_BUCKET"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"wildcard cors in production", func(c *Config) { c.Server.Environment = "production" }, "CORS_ORIGINS"},
		{"admin password without username", func(c *Config) { c.Security.AdminPassword = "long-enough-password" }, "set together"},
		{"empty rule expression", func(c *Config) {
			c.Opportunity.Rules = []OpportunityRule{{Name: "empty", Expression: "  "}}
		}, "empty expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"ANTHROPIC_API_KEY":    "llm.anthropic.api_key",
		"INTEL_BATCH_SIZE":     "intelligence.batch_size",
		"TWITTER_BEARER_TOKEN": "search.twitter.api_key",
		"LOG_LEVEL":            "logging.level",
		"PATH":                 "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsProduction(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Fatal("default environment should be development")
	}
	cfg.Server.Environment = "PROD"
	if !cfg.IsProduction() {
		t.Fatal("PROD should count as production")
	}
	cfg.Server.Environment = "development"
	if !cfg.ShouldWarnAboutCORS() {
		t.Fatal("wildcard CORS in development should warn")
	}
}

// TestLoadWithKoanf touches process environment and must not run in parallel.
func TestLoadWithKoanf(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
intelligence:
  batch_size: 2
opportunity:
  rules:
    - name: crisis-on-reddit
      expression: 'finding.source == "reddit"'
      boost: 5
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("INTEL_BATCH_SIZE", "4")
	t.Setenv("INTEL_DEFAULT_SOURCES", "newsapi, reddit")
	t.Setenv("INTEL_BATCH_DELAY", "250ms")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("file should set port: got %d", cfg.Server.Port)
	}
	if cfg.Intelligence.BatchSize != 4 {
		t.Errorf("env should override file: batch size %d", cfg.Intelligence.BatchSize)
	}
	if cfg.Intelligence.BatchDelay != 250*time.Millisecond {
		t.Errorf("BatchDelay = %v, want 250ms", cfg.Intelligence.BatchDelay)
	}
	if got := strings.Join(cfg.Intelligence.DefaultSources, ","); got != "newsapi,reddit" {
		t.Errorf("DefaultSources = %q", got)
	}
	if len(cfg.Opportunity.Rules) != 1 || cfg.Opportunity.Rules[0].Boost != 5 {
		t.Errorf("rules not loaded: %+v", cfg.Opportunity.Rules)
	}
}
