// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package search

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/signaldesk/signaldesk/internal/config"
	"github.com/signaldesk/signaldesk/internal/httpjson"
)

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title      string  `json:"title"`
				Permalink  string  `json:"permalink"`
				URL        string  `json:"url"`
				Selftext   string  `json:"selftext"`
				Author     string  `json:"author"`
				Subreddit  string  `json:"subreddit"`
				CreatedUTC float64 `json:"created_utc"`
				Score      int     `json:"score"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Reddit searches public posts. It needs no key but Reddit rejects
// requests without a descriptive User-Agent.
type Reddit struct {
	baseURL   string
	userAgent string
	client    *httpjson.Client
}

// NewReddit creates the Reddit source.
func NewReddit(cfg config.SourceConfig, client *httpjson.Client) *Reddit {
	ua := cfg.UserAgent
	if ua == "" {
		ua = "signaldesk/1.0"
	}
	return &Reddit{
		baseURL:   baseURL(cfg.BaseURL, "https://www.reddit.com"),
		userAgent: ua,
		client:    client,
	}
}

func (r *Reddit) Name() string { return SourceReddit }

// Search calls /search.json sorted by new. Score is the upvote count.
func (r *Reddit) Search(ctx context.Context, q Query) ([]Result, error) {
	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("limit", strconv.Itoa(clampLimit(q.Limit, 25, 100)))
	params.Set("sort", "new")
	if !q.Since.IsZero() && timeNow().Sub(q.Since) <= 24*time.Hour {
		params.Set("t", "day")
	}

	var out redditListing
	headers := http.Header{"User-Agent": {r.userAgent}}
	if err := r.client.Get(ctx, r.baseURL+"/search.json?"+params.Encode(), headers, &out); err != nil {
		return nil, wrapErr(SourceReddit, err)
	}

	results := make([]Result, 0, len(out.Data.Children))
	for _, c := range out.Data.Children {
		p := c.Data
		var published time.Time
		if p.CreatedUTC > 0 {
			published = time.Unix(int64(p.CreatedUTC), 0).UTC()
		}
		if !q.admits(published) {
			continue
		}
		link := p.URL
		if p.Permalink != "" {
			link = "https://www.reddit.com" + p.Permalink
		}
		if link == "" {
			continue
		}
		snippet := p.Selftext
		if snippet == "" && p.Subreddit != "" {
			snippet = "r/" + p.Subreddit
		}
		results = append(results, Result{
			Source:      SourceReddit,
			Title:       p.Title,
			URL:         link,
			Snippet:     truncate(snippet, 500),
			Author:      p.Author,
			PublishedAt: published,
			Score:       float64(p.Score),
		})
	}
	return results, nil
}

type tweetSearchResponse struct {
	Data []struct {
		ID            string    `json:"id"`
		Text          string    `json:"text"`
		AuthorID      string    `json:"author_id"`
		CreatedAt     time.Time `json:"created_at"`
		PublicMetrics struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

// Twitter searches recent posts on X through the v2 API.
type Twitter struct {
	bearer  string
	baseURL string
	client  *httpjson.Client
}

// NewTwitter creates the Twitter/X source.
func NewTwitter(cfg config.SourceConfig, client *httpjson.Client) *Twitter {
	return &Twitter{
		bearer:  cfg.APIKey,
		baseURL: baseURL(cfg.BaseURL, "https://api.twitter.com"),
		client:  client,
	}
}

func (t *Twitter) Name() string { return SourceTwitter }

// Search calls /2/tweets/search/recent. The API accepts 10 to 100 results and
// only looks back seven days. Score is likes plus retweets.
func (t *Twitter) Search(ctx context.Context, q Query) ([]Result, error) {
	params := url.Values{}
	params.Set("query", q.Text)
	params.Set("max_results", strconv.Itoa(max(clampLimit(q.Limit, 10, 100), 10)))
	params.Set("tweet.fields", "created_at,public_metrics,author_id")
	params.Set("expansions", "author_id")
	params.Set("user.fields", "username")
	if !q.Since.IsZero() && timeNow().Sub(q.Since) < 7*24*time.Hour {
		params.Set("start_time", q.Since.UTC().Format(time.RFC3339))
	}

	var out tweetSearchResponse
	headers := http.Header{"Authorization": {"Bearer " + t.bearer}}
	if err := t.client.Get(ctx, t.baseURL+"/2/tweets/search/recent?"+params.Encode(), headers, &out); err != nil {
		return nil, wrapErr(SourceTwitter, err)
	}

	users := make(map[string]string, len(out.Includes.Users))
	for _, u := range out.Includes.Users {
		users[u.ID] = u.Username
	}

	results := make([]Result, 0, len(out.Data))
	for _, tw := range out.Data {
		handle := users[tw.AuthorID]
		path := "i"
		if handle != "" {
			path = handle
		}
		results = append(results, Result{
			Source:      SourceTwitter,
			Title:       truncate(tw.Text, 100),
			URL:         "https://twitter.com/" + path + "/status/" + tw.ID,
			Snippet:     tw.Text,
			Author:      handle,
			PublishedAt: tw.CreatedAt,
			Score:       float64(tw.PublicMetrics.LikeCount + tw.PublicMetrics.RetweetCount),
		})
	}
	return results, nil
}
