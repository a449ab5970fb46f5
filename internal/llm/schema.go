// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package llm

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator checks extracted completion JSON against a JSON Schema
// (draft 2020-12).
type SchemaValidator struct {
	name   string
	schema *jsonschema.Schema
}

// CompileSchema compiles schema under a synthetic resource name.
func CompileSchema(name, schema string) (*SchemaValidator, error) {
	url := "signaldesk://schemas/" + name + ".json"

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &SchemaValidator{name: name, schema: compiled}, nil
}

// MustCompileSchema is CompileSchema for package-level schemas.
func MustCompileSchema(name, schema string) *SchemaValidator {
	v, err := CompileSchema(name, schema)
	if err != nil {
		panic(err)
	}
	return v
}

// Name returns the schema name.
func (v *SchemaValidator) Name() string { return v.name }

// Validate parses doc and validates it.
func (v *SchemaValidator) Validate(doc string) error {
	var value any
	if err := json.Unmarshal([]byte(doc), &value); err != nil {
		return fmt.Errorf("schema %s: invalid JSON: %w", v.name, err)
	}
	if err := v.schema.Validate(value); err != nil {
		return fmt.Errorf("schema %s: %w", v.name, err)
	}
	return nil
}
