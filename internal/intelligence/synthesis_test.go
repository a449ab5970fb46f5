// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package intelligence

import (
	"fmt"
	"strings"
	"testing"

	"github.com/signaldesk/signaldesk/internal/models"
)

func TestFallbackSynthesisWithoutFindings(t *testing.T) {
	t.Parallel()
	s := fallbackSynthesis(&models.Organization{Name: "Acme"}, "Acme OR rockets", nil)
	if !s.Fallback || s.Sentiment != "neutral" {
		t.Errorf("synthesis = %+v", s)
	}
	if s.Summary != "No coverage found for Acme OR rockets." {
		t.Errorf("summary = %q", s.Summary)
	}
	if s.KeyThemes == nil || s.Risks == nil {
		t.Error("empty slices must be non-nil so they encode as []")
	}
}

func TestFallbackSynthesisSummarizesTopTitles(t *testing.T) {
	t.Parallel()
	org := &models.Organization{Name: "Acme", Keywords: []string{"rockets", "anvils"}, Competitors: []string{"Globex"}}
	findings := []models.Finding{
		{Source: "newsapi", Title: "Acme launches reusable rockets"},
		{Source: "reddit", Title: ""},
		{Source: "reddit", Title: "Globex responds", Snippet: "A statement from Globex"},
		{Source: "google", Title: "Third"},
		{Source: "google", Title: "Fourth"},
	}

	s := fallbackSynthesis(org, "Acme", findings)
	want := "5 findings from 3 sources for Acme. Top coverage: Acme launches reusable rockets; Globex responds; Third."
	if s.Summary != want {
		t.Errorf("summary = %q\nwant      %q", s.Summary, want)
	}
	if got := strings.Join(s.KeyThemes, ","); got != "rockets,Globex" {
		t.Errorf("themes = %s", got)
	}
	if !s.Fallback {
		t.Error("fallback flag not set")
	}
}

func TestSynthesisPromptTruncatesFindings(t *testing.T) {
	t.Parallel()
	findings := make([]models.Finding, promptFindings+5)
	for i := range findings {
		findings[i] = models.Finding{Source: "newsapi", Title: fmt.Sprintf("headline %d", i), Snippet: "snippet"}
	}
	p := synthesisPrompt(&models.Organization{Name: "Acme", Industry: "Aerospace", Competitors: []string{"Globex"}}, "Acme", findings)

	for _, want := range []string{"Organization: Acme", "Industry: Aerospace", "Competitors: Globex", "25. [newsapi] headline 24", "(5 more omitted)"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, "headline 25") {
		t.Error("prompt includes findings past the limit")
	}
}
