// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ErrNoJSON is returned when a completion contains no parseable JSON document.
var ErrNoJSON = errors.New("no JSON found in completion")

// ExtractJSON returns the JSON document embedded in an LLM completion.
//
// A fenced ```json block wins. Otherwise the first balanced {...} or [...]
// span that parses is returned; braces inside string literals are ignored.
func ExtractJSON(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrNoJSON
	}

	if fenced, ok := fencedBlock(text); ok {
		if json.Valid([]byte(fenced)) {
			return fenced, nil
		}
		if span, ok := balancedSpan(fenced); ok {
			return span, nil
		}
	}

	if span, ok := balancedSpan(text); ok {
		return span, nil
	}
	return "", ErrNoJSON
}

// DecodeJSON extracts the JSON document from text and unmarshals it into out.
func DecodeJSON(text string, out any) error {
	doc, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(doc), out); err != nil {
		return fmt.Errorf("decode completion JSON: %w", err)
	}
	return nil
}

// fencedBlock returns the body of the first ```json fence, or of the first
// unlabelled fence whose body starts like JSON.
func fencedBlock(text string) (string, bool) {
	rest := text
	for {
		open := strings.Index(rest, "```")
		if open < 0 {
			return "", false
		}
		rest = rest[open+3:]
		closing := strings.Index(rest, "```")
		if closing < 0 {
			return "", false
		}
		body := rest[:closing]
		rest = rest[closing+3:]

		label, content, found := strings.Cut(body, "\n")
		if !found {
			label, content = "", body
		}
		label = strings.ToLower(strings.TrimSpace(label))
		content = strings.TrimSpace(content)

		switch {
		case label == "json":
			return content, true
		case label == "" && (strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[")):
			return content, true
		}
	}
}

// balancedSpan tries every opening bracket in order and returns the first
// balanced span that is valid JSON.
func balancedSpan(text string) (string, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' && text[start] != '[' {
			continue
		}
		end, ok := matchBracket(text, start)
		if !ok {
			continue
		}
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// matchBracket returns the index closing the bracket at start. Mismatched
// bracket kinds abort the match.
func matchBracket(text string, start int) (int, bool) {
	stack := make([]byte, 0, 8)
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
