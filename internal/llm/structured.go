// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package llm

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"

	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/metrics"
)

// Completer is the part of Registry that CompleteJSON needs.
type Completer interface {
	Complete(ctx context.Context, name string, req Request) (*Response, error)
}

// Fallback reasons
const (
	FallbackLLMError = "llm_error"
	FallbackNoJSON   = "no_json"
	FallbackSchema   = "schema"
	FallbackDecode   = "decode"
)

// CompleteJSON asks provider for a JSON document and decodes it into out.
//
// The completion is extracted with ExtractJSON, validated against schema
// when one is given, and decoded into a fresh value of out's type. Any
// failure along the way stores fallback in out instead and returns
// fellBack=true with the cause. out must be a non-nil pointer; fallback must
// be assignable to *out (or be a pointer of out's type).
func CompleteJSON(ctx context.Context, c Completer, provider string, req Request, schema *SchemaValidator, out, fallback any) (fellBack bool, cause error) {
	dst := reflect.ValueOf(out)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return false, errors.New("CompleteJSON: out must be a non-nil pointer")
	}

	purpose := "unvalidated"
	if schema != nil {
		purpose = schema.Name()
	}

	fail := func(reason string, err error) (bool, error) {
		metrics.LLMJSONFallbacks.WithLabelValues(purpose, reason).Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("purpose", purpose).Str("reason", reason).
			Msg("Structured completion fell back to default")
		if ferr := assign(dst, fallback); ferr != nil {
			return true, errors.Join(err, ferr)
		}
		return true, err
	}

	resp, err := c.Complete(ctx, provider, req)
	if err != nil {
		return fail(FallbackLLMError, err)
	}

	doc, err := ExtractJSON(resp.Text)
	if err != nil {
		return fail(FallbackNoJSON, err)
	}

	if schema != nil {
		if err := schema.Validate(doc); err != nil {
			return fail(FallbackSchema, err)
		}
	}

	fresh := reflect.New(dst.Elem().Type())
	if err := json.Unmarshal([]byte(doc), fresh.Interface()); err != nil {
		return fail(FallbackDecode, fmt.Errorf("decode completion JSON: %w", err))
	}
	dst.Elem().Set(fresh.Elem())
	return false, nil
}

func assign(dst reflect.Value, fallback any) error {
	target := dst.Elem()
	if fallback == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	src := reflect.ValueOf(fallback)
	if src.Kind() == reflect.Pointer && src.Type() == dst.Type() {
		if src.IsNil() {
			target.Set(reflect.Zero(target.Type()))
			return nil
		}
		src = src.Elem()
	}
	if !src.Type().AssignableTo(target.Type()) {
		return fmt.Errorf("fallback of type %s is not assignable to %s", src.Type(), target.Type())
	}
	target.Set(src)
	return nil
}
