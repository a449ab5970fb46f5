// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package llm proxies completions to Anthropic, OpenAI, Perplexity and
// Gemini behind one Provider interface.
//
// The Registry adds a circuit breaker, a token-bucket limiter, a per-call
// timeout, metrics, tracing and an optional response cache in front of each
// provider. CompleteJSON implements the prompt, extract, validate and
// fallback pattern used by every structured generation in the service.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/signaldesk/signaldesk/internal/httpjson"
)

// Provider names
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderPerplexity = "perplexity"
	ProviderGemini     = "gemini"
)

var (
	// ErrProviderNotConfigured is returned for unknown or keyless providers.
	ErrProviderNotConfigured = errors.New("llm provider not configured")

	// ErrEmptyCompletion is returned when a provider answers with no text.
	ErrEmptyCompletion = errors.New("llm returned an empty completion")
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// Request is a provider-neutral completion request. Prompt is appended as a
// final user message after Messages.
type Request struct {
	System      string    `json:"system,omitempty"`
	Prompt      string    `json:"prompt,omitempty" validate:"required_without=Messages,max=200000"`
	Messages    []Message `json:"messages,omitempty" validate:"omitempty,dive"`
	Model       string    `json:"model,omitempty" validate:"max=100"`
	MaxTokens   int       `json:"max_tokens,omitempty" validate:"gte=0,lte=64000"`
	Temperature *float64  `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

// Response is a provider-neutral completion.
type Response struct {
	Provider     string   `json:"provider"`
	Model        string   `json:"model"`
	Text         string   `json:"text"`
	Citations    []string `json:"citations,omitempty"`
	InputTokens  int      `json:"input_tokens"`
	OutputTokens int      `json:"output_tokens"`
	Cached       bool     `json:"cached,omitempty"`
}

// Provider completes prompts against one upstream API.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// clientError reports whether the provider rejected the request itself.
// Those do not count against the circuit breaker. 429 is not a client error.
func (e *APIError) clientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != 429
}

// messages flattens Request into the ordered user/assistant turns.
func (r Request) messages() []Message {
	out := make([]Message, 0, len(r.Messages)+1)
	out = append(out, r.Messages...)
	if r.Prompt != "" {
		out = append(out, Message{Role: "user", Content: r.Prompt})
	}
	return out
}

func wrapStatus(provider string, err error) error {
	var se *httpjson.StatusError
	if errors.As(err, &se) {
		return &APIError{Provider: provider, StatusCode: se.StatusCode, Body: se.Body}
	}
	return fmt.Errorf("%s: %w", provider, err)
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
