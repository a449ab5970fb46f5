// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package search

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/httpjson"
)

type googleResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

// Google queries a Programmable Search Engine (Custom Search JSON API).
type Google struct {
	apiKey   string
	engineID string
	baseURL  string
	client   *httpjson.Client
}

// NewGoogle creates the Google Custom Search source.
func NewGoogle(cfg config.SourceConfig, client *httpjson.Client) *Google {
	return &Google{
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
		baseURL:  baseURL(cfg.BaseURL, "https://www.googleapis.com"),
		client:   client,
	}
}

func (g *Google) Name() string { return SourceGoogle }

// Search calls /customsearch/v1. The API returns at most 10 results per page.
func (g *Google) Search(ctx context.Context, q Query) ([]Result, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.engineID)
	params.Set("q", q.Text)
	params.Set("num", strconv.Itoa(clampLimit(q.Limit, 10, 10)))
	if !q.Since.IsZero() {
		days := int(math.Ceil(timeNow().Sub(q.Since).Hours() / 24))
		params.Set("dateRestrict", "d"+strconv.Itoa(max(days, 1)))
	}
	if q.Language != "" {
		params.Set("lr", "lang_"+q.Language)
	}

	var out googleResponse
	if err := g.client.Get(ctx, g.baseURL+"/customsearch/v1?"+params.Encode(), nil, &out); err != nil {
		return nil, wrapErr(SourceGoogle, err)
	}

	results := make([]Result, 0, len(out.Items))
	for i, item := range out.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			Source:  SourceGoogle,
			Title:   item.Title,
			URL:     item.Link,
			Snippet: truncate(item.Snippet, 500),
			Author:  item.DisplayLink,
			Score:   rankScore(i, len(out.Items)),
		})
	}
	return results, nil
}

type youComResponse struct {
	Hits []struct {
		URL         string   `json:"url"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Snippets    []string `json:"snippets"`
	} `json:"hits"`
}

// YouCom queries the You.com web search API.
type YouCom struct {
	apiKey  string
	baseURL string
	client  *httpjson.Client
}

// NewYouCom creates the You.com source.
func NewYouCom(cfg config.SourceConfig, client *httpjson.Client) *YouCom {
	return &YouCom{
		apiKey:  cfg.APIKey,
		baseURL: baseURL(cfg.BaseURL, "https://api.ydc-index.io"),
		client:  client,
	}
}

func (y *YouCom) Name() string { return SourceYouCom }

func (y *YouCom) Search(ctx context.Context, q Query) ([]Result, error) {
	params := url.Values{}
	params.Set("query", q.Text)
	params.Set("num_web_results", strconv.Itoa(clampLimit(q.Limit, 10, 20)))

	var out youComResponse
	headers := http.Header{"X-Api-Key": {y.apiKey}}
	if err := y.client.Get(ctx, y.baseURL+"/search?"+params.Encode(), headers, &out); err != nil {
		return nil, wrapErr(SourceYouCom, err)
	}

	results := make([]Result, 0, len(out.Hits))
	for i, h := range out.Hits {
		if h.URL == "" {
			continue
		}
		snippet := h.Description
		if len(h.Snippets) > 0 {
			snippet = h.Snippets[0]
		}
		results = append(results, Result{
			Source:  SourceYouCom,
			Title:   h.Title,
			URL:     h.URL,
			Snippet: truncate(snippet, 500),
			Score:   rankScore(i, len(out.Hits)),
		})
	}
	return results, nil
}
