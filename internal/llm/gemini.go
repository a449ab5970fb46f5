// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/signaldesk/signaldesk/internal/config"
)

// Gemini completes prompts through the Google GenAI SDK.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGemini creates the Gemini provider. A non-empty BaseURL points the SDK
// at a different endpoint.
func NewGemini(ctx context.Context, cfg config.ProviderConfig, maxTokens int, hc *http.Client) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrProviderNotConfigured
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{
		client:    client,
		model:     orDefault(cfg.Model, "gemini-2.5-flash"),
		maxTokens: maxTokens,
	}, nil
}

func (g *Gemini) Name() string { return ProviderGemini }

// Complete calls Models.GenerateContent. Assistant turns map to the model role.
func (g *Gemini) Complete(ctx context.Context, req Request) (*Response, error) {
	msgs := req.messages()
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	gc := &genai.GenerateContentConfig{}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if n := orDefault(req.MaxTokens, g.maxTokens); n > 0 {
		gc.MaxOutputTokens = int32(n)
	}
	if req.Temperature != nil {
		gc.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	model := orDefault(req.Model, g.model)
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, gc)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &APIError{Provider: ProviderGemini, StatusCode: apiErr.Code, Body: apiErr.Message}
		}
		return nil, fmt.Errorf("%s: %w", ProviderGemini, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCompletion
	}

	out := &Response{Provider: ProviderGemini, Model: orDefault(resp.ModelVersion, model), Text: text}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
