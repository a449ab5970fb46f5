// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package search

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/httpjson"
)

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string    `json:"author"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// NewsAPI searches newsapi.org /v2/everything.
type NewsAPI struct {
	apiKey  string
	baseURL string
	client  *httpjson.Client
}

// NewNewsAPI creates the NewsAPI source.
func NewNewsAPI(cfg config.SourceConfig, client *httpjson.Client) *NewsAPI {
	return &NewsAPI{
		apiKey:  cfg.APIKey,
		baseURL: baseURL(cfg.BaseURL, "https://newsapi.org"),
		client:  client,
	}
}

func (n *NewsAPI) Name() string { return SourceNewsAPI }

func (n *NewsAPI) Search(ctx context.Context, q Query) ([]Result, error) {
	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("pageSize", strconv.Itoa(clampLimit(q.Limit, 20, 100)))
	params.Set("sortBy", "publishedAt")
	if !q.Since.IsZero() {
		params.Set("from", q.Since.UTC().Format(time.RFC3339))
	}
	if q.Language != "" {
		params.Set("language", q.Language)
	}

	var out newsAPIResponse
	headers := http.Header{"X-Api-Key": {n.apiKey}}
	if err := n.client.Get(ctx, n.baseURL+"/v2/everything?"+params.Encode(), headers, &out); err != nil {
		return nil, wrapErr(SourceNewsAPI, err)
	}
	if out.Status == "error" {
		return nil, wrapErr(SourceNewsAPI, errors.New(out.Message))
	}

	results := make([]Result, 0, len(out.Articles))
	for i, a := range out.Articles {
		// NewsAPI marks takedowns with a "[Removed]" placeholder.
		if a.URL == "" || a.Title == "[Removed]" {
			continue
		}
		author := a.Author
		if author == "" {
			author = a.Source.Name
		}
		results = append(results, Result{
			Source:      SourceNewsAPI,
			Title:       a.Title,
			URL:         a.URL,
			Snippet:     truncate(a.Description, 500),
			Author:      author,
			PublishedAt: a.PublishedAt,
			Score:       rankScore(i, len(out.Articles)),
		})
	}
	return results, nil
}
