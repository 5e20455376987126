// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses.
// It keeps status codes, persistence warnings and error bodies consistent
// across handlers.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"denaro/internal/core"
)

// PersistenceWarningHeader is set when a change was applied in memory but
// could not be written to the backend.
const PersistenceWarningHeader = "X-Persistence-Warning"

// Error codes returned in the "error.code" field.
const (
	CodeValidation  = "validation_failed"
	CodeFormat      = "bad_format"
	CodeNotFound    = "not_found"
	CodeConflict    = "version_conflict"
	CodeBadRequest  = "bad_request"
	CodeRateLimited = "rate_limited"
	CodeInternal    = "internal_error"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type envelope struct {
	Data    any        `json:"data,omitempty"`
	Warning string     `json:"warning,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       envelope
	raw        []byte
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the payload.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.body.Data = v
	return b
}

// Raw sends pre-encoded JSON instead of an envelope.
func (b *JSONResponseBuilder) Raw(content []byte) *JSONResponseBuilder {
	b.raw = content
	return b
}

// Warning attaches a persistence warning. A nil error is ignored.
func (b *JSONResponseBuilder) Warning(err error) *JSONResponseBuilder {
	if err == nil {
		return b
	}
	b.body.Warning = err.Error()
	b.headers[PersistenceWarningHeader] = "true"
	return b
}

// Error sets the error body.
func (b *JSONResponseBuilder) Error(code, message, field string) *JSONResponseBuilder {
	b.body.Error = &ErrorBody{Code: code, Message: message, Field: field}
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)

	if b.raw != nil {
		_, _ = w.Write(b.raw)
		return
	}
	if b.statusCode == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Error(code, message, "")
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeBadRequest, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeInternal, message)
}

// FromError maps a store error to its response. Persistence failures other
// than version conflicts are not errors at this layer and return nil.
func FromError(err error) *JSONResponseBuilder {
	var (
		ve *core.ValidationError
		fe *core.FormatError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ve):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Error(CodeValidation, ve.Error(), ve.Field)
	case errors.Is(err, core.ErrNotFound):
		return ErrorResponse(http.StatusNotFound, CodeNotFound, err.Error())
	case errors.As(err, &fe):
		return ErrorResponse(http.StatusBadRequest, CodeFormat, fe.Error())
	case errors.Is(err, core.ErrVersionConflict):
		return ErrorResponse(http.StatusConflict, CodeConflict, "store changed by another writer; reload and retry")
	case core.IsPersistence(err):
		return nil
	default:
		return InternalServerError("internal error")
	}
}
