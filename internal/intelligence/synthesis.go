// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package intelligence

import (
	"fmt"
	"strings"

	"github.com/signaldesk/signaldesk/internal/llm"
	"github.com/signaldesk/signaldesk/internal/models"
)

const synthesisSystem = `You are a senior PR intelligence analyst. You read media and social coverage
about a brand and brief its communications team. Answer with a single JSON object and nothing else.`

var synthesisSchema = llm.MustCompileSchema("synthesis", `{
  "type": "object",
  "required": ["summary", "key_themes", "sentiment"],
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "key_themes": {"type": "array", "items": {"type": "string"}},
    "sentiment": {"enum": ["positive", "neutral", "negative", "mixed"]},
    "recommendations": {"type": "array", "items": {"type": "string"}},
    "risks": {"type": "array", "items": {"type": "string"}}
  }
}`)

// promptFindings is how many findings are quoted in the synthesis prompt.
const promptFindings = 25

func synthesisPrompt(org *models.Organization, query string, findings []models.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Organization: %s\n", org.Name)
	if org.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", org.Industry)
	}
	if len(org.Competitors) > 0 {
		fmt.Fprintf(&b, "Competitors: %s\n", strings.Join(org.Competitors, ", "))
	}
	fmt.Fprintf(&b, "Search query: %s\n\nFindings:\n", query)

	for i, f := range findings {
		if i == promptFindings {
			fmt.Fprintf(&b, "(%d more omitted)\n", len(findings)-promptFindings)
			break
		}
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, f.Source, f.Title)
		if f.PublishedAt != nil {
			fmt.Fprintf(&b, " (%s)", f.PublishedAt.Format("2006-01-02"))
		}
		b.WriteByte('\n')
		if f.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", f.Snippet)
		}
	}

	b.WriteString(`
Return JSON with these fields:
{"summary": "3-4 sentences", "key_themes": ["..."], "sentiment": "positive|neutral|negative|mixed",
 "recommendations": ["concrete next steps for the PR team"], "risks": ["reputational risks to watch"]}`)
	return b.String()
}

// fallbackSynthesis summarizes findings without a model: the top titles make
// the summary and the brand terms that appear in them make the themes.
func fallbackSynthesis(org *models.Organization, query string, findings []models.Finding) models.Synthesis {
	if len(findings) == 0 {
		return models.Synthesis{
			Summary:         fmt.Sprintf("No coverage found for %s.", query),
			KeyThemes:       []string{},
			Sentiment:       "neutral",
			Recommendations: []string{"Broaden the search terms or enable more sources."},
			Risks:           []string{},
			Fallback:        true,
		}
	}

	top := make([]string, 0, 3)
	for _, f := range findings {
		if len(top) == 3 {
			break
		}
		if f.Title != "" {
			top = append(top, f.Title)
		}
	}

	sources := map[string]bool{}
	for _, f := range findings {
		sources[f.Source] = true
	}

	return models.Synthesis{
		Summary: fmt.Sprintf("%d findings from %d sources for %s. Top coverage: %s.",
			len(findings), len(sources), org.Name, strings.Join(top, "; ")),
		KeyThemes:       themesFrom(org, findings),
		Sentiment:       "neutral",
		Recommendations: []string{"Review the top findings and decide whether a response is needed."},
		Risks:           []string{},
		Fallback:        true,
	}
}

func themesFrom(org *models.Organization, findings []models.Finding) []string {
	terms := append(append([]string{}, org.Keywords...), org.Competitors...)
	themes := []string{}
	for _, t := range terms {
		lt := strings.ToLower(strings.TrimSpace(t))
		if lt == "" {
			continue
		}
		for _, f := range findings {
			if strings.Contains(strings.ToLower(f.Title+" "+f.Snippet), lt) {
				themes = append(themes, t)
				break
			}
		}
	}
	return themes
}
