// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

// Package response writes the JSON envelope shared by every HTTP surface.
// It lives outside package api so that auth and authz middleware can
// answer with the same shape without an import cycle.
package response

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/signaldesk/signaldesk/internal/logging"
)

// Envelope is the standardized response wrapper for all API endpoints.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Error represents an error response.
type Error struct {
	// Code is a machine-readable error code
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Details contains additional error details (optional)
	Details any `json:"details,omitempty"`

	RequestID string `json:"request_id,omitempty"`
}

// Meta contains response metadata.
type Meta struct {
	RequestID  string      `json:"request_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	DurationMs int64       `json:"duration_ms,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination contains offset pagination information for list responses.
type Pagination struct {
	Count   int  `json:"count"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// Error codes for API responses
const (
	CodeBadRequest          = "BAD_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeExternalServiceFail = "EXTERNAL_SERVICE_FAILED"
)

// Writer provides methods for writing standardized API responses.
type Writer struct {
	w         http.ResponseWriter
	r         *http.Request
	startTime time.Time
}

// New creates a new response writer.
func New(w http.ResponseWriter, r *http.Request) *Writer {
	return &Writer{w: w, r: r, startTime: time.Now()}
}

// Success writes a 200 response with data.
func (rw *Writer) Success(data any) {
	rw.SuccessWithMeta(data, nil)
}

// SuccessWithMeta writes a 200 response with data and metadata.
func (rw *Writer) SuccessWithMeta(data any, meta *Meta) {
	rw.write(http.StatusOK, Envelope{Success: true, Data: data, Meta: rw.meta(meta)})
}

// SuccessWithPagination writes a paginated list response.
func (rw *Writer) SuccessWithPagination(data any, p *Pagination) {
	rw.SuccessWithMeta(data, &Meta{Pagination: p})
}

// Created writes a 201 Created response.
func (rw *Writer) Created(data any) {
	rw.write(http.StatusCreated, Envelope{Success: true, Data: data, Meta: rw.meta(nil)})
}

// NoContent writes a 204 No Content response.
func (rw *Writer) NoContent() {
	rw.w.WriteHeader(http.StatusNoContent)
}

// Error writes an error response with the given status code.
func (rw *Writer) Error(statusCode int, code, message string) {
	rw.ErrorWithDetails(statusCode, code, message, nil)
}

// ErrorWithDetails writes an error response with additional details.
func (rw *Writer) ErrorWithDetails(statusCode int, code, message string, details any) {
	meta := rw.meta(nil)
	rw.write(statusCode, Envelope{
		Error: &Error{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: meta.RequestID,
		},
		Meta: meta,
	})
}

func (rw *Writer) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, CodeBadRequest, message)
}

func (rw *Writer) Unauthorized(message string) {
	rw.Error(http.StatusUnauthorized, CodeUnauthorized, message)
}

func (rw *Writer) Forbidden(message string) {
	rw.Error(http.StatusForbidden, CodeForbidden, message)
}

func (rw *Writer) NotFound(message string) {
	rw.Error(http.StatusNotFound, CodeNotFound, message)
}

func (rw *Writer) Conflict(message string) {
	rw.Error(http.StatusConflict, CodeConflict, message)
}

// TooManyRequests writes a 429 with the RATE_LIMIT_EXCEEDED code.
func (rw *Writer) TooManyRequests(message string) {
	rw.Error(http.StatusTooManyRequests, CodeRateLimitExceeded, message)
}

func (rw *Writer) InternalError(message string) {
	rw.Error(http.StatusInternalServerError, CodeInternalError, message)
}

func (rw *Writer) ServiceUnavailable(message string) {
	rw.Error(http.StatusServiceUnavailable, CodeServiceUnavailable, message)
}

// ValidationError writes a 400 error with per-field details.
func (rw *Writer) ValidationError(message string, details any) {
	rw.ErrorWithDetails(http.StatusBadRequest, CodeValidationError, message, details)
}

// DatabaseError logs err and writes a generic 500.
func (rw *Writer) DatabaseError(err error) {
	logging.CtxErr(rw.r.Context(), err).Msg("Database error")
	rw.Error(http.StatusInternalServerError, CodeDatabaseError, "A database error occurred")
}

// ExternalServiceError writes a 502 for outbound provider failures.
func (rw *Writer) ExternalServiceError(service string, err error) {
	logging.CtxErr(rw.r.Context(), err).Str("service", service).Msg("External service error")
	rw.Error(http.StatusBadGateway, CodeExternalServiceFail, "External service failed: "+service)
}

func (rw *Writer) meta(m *Meta) *Meta {
	if m == nil {
		m = &Meta{}
	}
	m.Timestamp = time.Now().UTC()
	m.DurationMs = time.Since(rw.startTime).Milliseconds()
	m.RequestID = logging.RequestIDFromContext(rw.r.Context())
	return m
}

func (rw *Writer) write(statusCode int, body Envelope) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(statusCode)

	if err := json.NewEncoder(rw.w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
