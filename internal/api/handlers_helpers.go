// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/signaldesk/signaldesk/internal/api/response"
	"github.com/signaldesk/signaldesk/internal/database"
	"github.com/signaldesk/signaldesk/internal/logging"
	"github.com/signaldesk/signaldesk/internal/models"
	"github.com/signaldesk/signaldesk/internal/validation"
)

const (
	defaultPageSize = database.DefaultListLimit
	maxPageSize     = 500
	maxBodyBytes    = 1 << 20
)

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// decodeBody reads a JSON body into dst and validates it. It writes the
// error response itself and reports whether the handler may continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	rw := response.New(w, r)
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rw.Error(http.StatusRequestEntityTooLarge, response.CodeBadRequest, "request body too large")
			return false
		}
		rw.BadRequest("could not read request body")
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		rw.BadRequest("request body is required")
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		rw.BadRequest("invalid JSON body: " + err.Error())
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		rw.ValidationError(verr.Error(), verr.Details())
		return false
	}
	return true
}

// getIntParam parses an integer query parameter, returning def when absent.
func getIntParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// listOptions reads limit, offset, organization_id and status. Limit is
// clamped to 1..500 and defaults to 50.
func listOptions(r *http.Request) (models.ListOptions, error) {
	limit, err := getIntParam(r, "limit", defaultPageSize)
	if err != nil {
		return models.ListOptions{}, err
	}
	offset, err := getIntParam(r, "offset", 0)
	if err != nil {
		return models.ListOptions{}, err
	}
	if offset < 0 {
		return models.ListOptions{}, errors.New("offset must not be negative")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	q := r.URL.Query()
	return models.ListOptions{
		OrganizationID: q.Get("organization_id"),
		Status:         q.Get("status"),
		Limit:          min(limit, maxPageSize),
		Offset:         offset,
	}, nil
}

// probe asks the store for one extra row so the page can report has_more.
func probe(opts models.ListOptions) models.ListOptions {
	opts.Limit++
	return opts
}

// respondList trims the probe row and writes the page with pagination meta.
func respondList[T any](w http.ResponseWriter, r *http.Request, items []T, opts models.ListOptions) {
	hasMore := len(items) > opts.Limit
	if hasMore {
		items = items[:opts.Limit]
	}
	if items == nil {
		items = []T{}
	}
	response.New(w, r).SuccessWithPagination(items, &response.Pagination{
		Count:   len(items),
		Offset:  opts.Offset,
		Limit:   opts.Limit,
		HasMore: hasMore,
	})
}

// respondStoreError maps store errors onto the envelope.
func respondStoreError(w http.ResponseWriter, r *http.Request, what string, err error) {
	rw := response.New(w, r)
	switch {
	case errors.Is(err, database.ErrNotFound):
		rw.NotFound(what + " not found")
	case errors.Is(err, database.ErrConflict):
		rw.Conflict(what + " already exists")
	default:
		logging.CtxErr(r.Context(), err).Str("entity", what).Msg("Store operation failed")
		rw.DatabaseError(err)
	}
}

// requireOrganization checks that a child entity points at a real
// organization, answering 400 when it does not.
func (h *Handler) requireOrganization(w http.ResponseWriter, r *http.Request, orgID string) bool {
	if _, err := h.store.GetOrganization(r.Context(), orgID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			response.New(w, r).ValidationError("organization_id does not exist", map[string]any{
				"fields": []validation.FieldError{{Field: "organization_id", Tag: "exists", Message: "organization_id does not exist"}},
			})
			return false
		}
		respondStoreError(w, r, "organization", err)
		return false
	}
	return true
}

// unavailable answers 503 for endpoints whose backing service is not wired.
func unavailable(w http.ResponseWriter, r *http.Request, what string) {
	response.New(w, r).ServiceUnavailable(what + " is not configured")
}
