// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/httpjson"
)

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	// Perplexity only.
	Citations []string `json:"citations"`
}

// ChatCompletions talks to an OpenAI-compatible chat completions endpoint.
// OpenAI and Perplexity are both instances of it.
type ChatCompletions struct {
	name      string
	apiKey    string
	endpoint  string
	model     string
	maxTokens int
	client    *httpjson.Client
}

// NewOpenAI creates the OpenAI provider (POST {base}/v1/chat/completions).
func NewOpenAI(cfg config.ProviderConfig, maxTokens int, client *httpjson.Client) *ChatCompletions {
	base := strings.TrimRight(orDefault(cfg.BaseURL, "https://api.openai.com"), "/")
	return &ChatCompletions{
		name:      ProviderOpenAI,
		apiKey:    cfg.APIKey,
		endpoint:  base + "/v1/chat/completions",
		model:     orDefault(cfg.Model, "gpt-4o-mini"),
		maxTokens: maxTokens,
		client:    client,
	}
}

// NewPerplexity creates the Perplexity provider (POST {base}/chat/completions).
func NewPerplexity(cfg config.ProviderConfig, maxTokens int, client *httpjson.Client) *ChatCompletions {
	base := strings.TrimRight(orDefault(cfg.BaseURL, "https://api.perplexity.ai"), "/")
	return &ChatCompletions{
		name:      ProviderPerplexity,
		apiKey:    cfg.APIKey,
		endpoint:  base + "/chat/completions",
		model:     orDefault(cfg.Model, "sonar"),
		maxTokens: maxTokens,
		client:    client,
	}
}

func (c *ChatCompletions) Name() string { return c.name }

// Complete sends the system prompt as a leading system message.
func (c *ChatCompletions) Complete(ctx context.Context, req Request) (*Response, error) {
	msgs := req.messages()
	if req.System != "" {
		msgs = append([]Message{{Role: "system", Content: req.System}}, msgs...)
	}
	body := chatRequest{
		Model:       orDefault(req.Model, c.model),
		Messages:    msgs,
		MaxTokens:   orDefault(req.MaxTokens, c.maxTokens),
		Temperature: req.Temperature,
	}

	var out chatResponse
	headers := http.Header{"Authorization": {"Bearer " + c.apiKey}}
	if err := c.client.Post(ctx, c.endpoint, headers, body, &out); err != nil {
		return nil, wrapStatus(c.name, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyCompletion
	}

	return &Response{
		Provider:     c.name,
		Model:        orDefault(out.Model, body.Model),
		Text:         out.Choices[0].Message.Content,
		Citations:    out.Citations,
		InputTokens:  out.Usage.PromptTokens,
		OutputTokens: out.Usage.CompletionTokens,
	}, nil
}
