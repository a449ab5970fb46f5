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

const anthropicVersion = "2023-06-01"

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Anthropic calls the Messages API.
type Anthropic struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *httpjson.Client
}

// NewAnthropic creates the Anthropic provider.
func NewAnthropic(cfg config.ProviderConfig, maxTokens int, client *httpjson.Client) *Anthropic {
	return &Anthropic{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(orDefault(cfg.BaseURL, "https://api.anthropic.com"), "/"),
		model:     orDefault(cfg.Model, "claude-sonnet-4-5"),
		maxTokens: orDefault(maxTokens, 4096),
		client:    client,
	}
}

func (a *Anthropic) Name() string { return ProviderAnthropic }

// Complete posts to /v1/messages and joins the text blocks of the reply.
func (a *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	body := anthropicRequest{
		Model:       orDefault(req.Model, a.model),
		MaxTokens:   orDefault(req.MaxTokens, a.maxTokens),
		System:      req.System,
		Messages:    req.messages(),
		Temperature: req.Temperature,
	}
	headers := http.Header{
		"X-Api-Key":         {a.apiKey},
		"Anthropic-Version": {anthropicVersion},
	}

	var out anthropicResponse
	if err := a.client.Post(ctx, a.baseURL+"/v1/messages", headers, body, &out); err != nil {
		return nil, wrapStatus(ProviderAnthropic, err)
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, ErrEmptyCompletion
	}

	return &Response{
		Provider:     ProviderAnthropic,
		Model:        orDefault(out.Model, body.Model),
		Text:         text.String(),
		InputTokens:  out.Usage.InputTokens,
		OutputTokens: out.Usage.OutputTokens,
	}, nil
}
