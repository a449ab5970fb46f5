// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package query builds WHERE and pagination clauses with numbered ($n)
// placeholders, which both DuckDB and Postgres accept.
package query

import (
	"fmt"
	"strings"
)

// WhereBuilder accumulates AND-ed conditions and their arguments.
type WhereBuilder struct {
	clauses []string
	args    []any
}

// NewWhereBuilder returns an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

func (wb *WhereBuilder) next() string {
	return fmt.Sprintf("$%d", len(wb.args)+1)
}

// Eq adds "column = $n" unless value is empty.
func (wb *WhereBuilder) Eq(column, value string) *WhereBuilder {
	if value == "" {
		return wb
	}
	wb.clauses = append(wb.clauses, column+" = "+wb.next())
	wb.args = append(wb.args, value)
	return wb
}

// In adds "column IN ($n, ...)" unless values is empty.
func (wb *WhereBuilder) In(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	ph := make([]string, len(values))
	for i, v := range values {
		ph[i] = wb.next()
		wb.args = append(wb.args, v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(ph, ", ")))
	return wb
}

// Build returns "WHERE ..." (or "") and the arguments.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.clauses) == 0 {
		return "", wb.args
	}
	return "WHERE " + strings.Join(wb.clauses, " AND "), wb.args
}

// Paginate appends "LIMIT $n OFFSET $m" and returns the full argument list.
func (wb *WhereBuilder) Paginate(limit, offset int) (string, []any) {
	where, args := wb.Build()
	n := len(args)
	clause := fmt.Sprintf("LIMIT $%d OFFSET $%d", n+1, n+2)
	if where != "" {
		clause = where + " " + clause
	}
	return clause, append(args, limit, offset)
}

// IsEmpty reports whether no condition was added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
