// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package search

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/httpjson"
)

type firecrawlSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
	Lang  string `json:"lang,omitempty"`
	TBS   string `json:"tbs,omitempty"`
}

type firecrawlSearchResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"data"`
	Error string `json:"error"`
}

type firecrawlScrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string         `json:"markdown"`
		Metadata map[string]any `json:"metadata"`
	} `json:"data"`
	Error string `json:"error"`
}

// Firecrawl searches the web and scrapes pages to markdown.
type Firecrawl struct {
	apiKey  string
	baseURL string
	client  *httpjson.Client
}

// NewFirecrawl creates the Firecrawl source.
func NewFirecrawl(cfg config.SourceConfig, client *httpjson.Client) *Firecrawl {
	return &Firecrawl{
		apiKey:  cfg.APIKey,
		baseURL: baseURL(cfg.BaseURL, "https://api.firecrawl.dev"),
		client:  client,
	}
}

func (f *Firecrawl) Name() string { return SourceFirecrawl }

func (f *Firecrawl) headers() http.Header {
	return http.Header{"Authorization": {"Bearer " + f.apiKey}}
}

// Search posts to /v1/search. A Since within the last day or week maps to
// the qdr time filter.
func (f *Firecrawl) Search(ctx context.Context, q Query) ([]Result, error) {
	body := firecrawlSearchRequest{
		Query: q.Text,
		Limit: clampLimit(q.Limit, 10, 50),
		Lang:  q.Language,
		TBS:   timeFilter(q),
	}

	var out firecrawlSearchResponse
	if err := f.client.Post(ctx, f.baseURL+"/v1/search", f.headers(), body, &out); err != nil {
		return nil, wrapErr(SourceFirecrawl, err)
	}
	if !out.Success && out.Error != "" {
		return nil, wrapErr(SourceFirecrawl, errors.New(out.Error))
	}

	results := make([]Result, 0, len(out.Data))
	for i, d := range out.Data {
		if d.URL == "" {
			continue
		}
		results = append(results, Result{
			Source:  SourceFirecrawl,
			Title:   d.Title,
			URL:     d.URL,
			Snippet: truncate(d.Description, 500),
			Score:   rankScore(i, len(out.Data)),
		})
	}
	return results, nil
}

// Scrape posts to /v1/scrape and returns the page as markdown.
func (f *Firecrawl) Scrape(ctx context.Context, url string) (*Page, error) {
	body := map[string]any{"url": url, "formats": []string{"markdown"}}

	var out firecrawlScrapeResponse
	if err := f.client.Post(ctx, f.baseURL+"/v1/scrape", f.headers(), body, &out); err != nil {
		return nil, wrapErr(SourceFirecrawl, err)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "scrape failed"
		}
		return nil, wrapErr(SourceFirecrawl, errors.New(msg))
	}

	page := &Page{URL: url, Markdown: out.Data.Markdown, Metadata: out.Data.Metadata}
	if title, ok := out.Data.Metadata["title"].(string); ok {
		page.Title = title
	}
	if desc, ok := out.Data.Metadata["description"].(string); ok {
		page.Description = desc
	}
	if code, ok := out.Data.Metadata["statusCode"].(float64); ok {
		page.StatusCode = int(code)
	}
	return page, nil
}

func timeFilter(q Query) string {
	if q.Since.IsZero() {
		return ""
	}
	age := timeNow().Sub(q.Since)
	switch {
	case age <= 24*time.Hour:
		return "qdr:d"
	case age <= 7*24*time.Hour:
		return "qdr:w"
	case age <= 31*24*time.Hour:
		return "qdr:m"
	default:
		return ""
	}
}
