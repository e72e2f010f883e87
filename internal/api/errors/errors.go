// Package errors provides structured error types and response helpers for the API.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/narvanalabs/domain-registry/internal/domains"
	"github.com/narvanalabs/domain-registry/internal/models"
)

// Error codes for structured API responses.
const (
	CodeInvalidRequest = "invalid_request"
	CodeNotFound       = "not_found"
	CodeConflict       = "conflict"
	CodeUnauthorized   = "unauthorized"
	CodeForbidden      = "forbidden"
	CodeInternalError  = "internal_error"
)

// APIError represents a structured API error response.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails returns a copy of the error with additional details.
func (e *APIError) WithDetails(details any) *APIError {
	c := *e
	c.Details = details
	return &c
}

// WithRequestID returns a copy of the error with the request ID set.
func (e *APIError) WithRequestID(requestID string) *APIError {
	c := *e
	c.RequestID = requestID
	return &c
}

// New creates a new APIError with the given code and message.
func New(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

func NewInvalidRequestError(message string) *APIError { return New(CodeInvalidRequest, message) }
func NewNotFoundError(message string) *APIError       { return New(CodeNotFound, message) }
func NewConflictError(message string) *APIError       { return New(CodeConflict, message) }
func NewUnauthorizedError(message string) *APIError   { return New(CodeUnauthorized, message) }
func NewForbiddenError(message string) *APIError      { return New(CodeForbidden, message) }
func NewInternalError(message string) *APIError       { return New(CodeInternalError, message) }

// HTTPStatusCode returns the appropriate HTTP status code for the error.
func (e *APIError) HTTPStatusCode() int {
	switch e.Code {
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// FieldError is a field-level validation failure carried in Details.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FromDomainError translates a domain service error. Errors outside the
// service taxonomy become internal errors with a generic message; the caller
// is responsible for logging the original.
func FromDomainError(err error) *APIError {
	switch {
	case stderrors.Is(err, domains.ErrValidation):
		apiErr := NewInvalidRequestError(err.Error())
		var ve *models.ValidationError
		if stderrors.As(err, &ve) {
			apiErr.Message = ve.Message
			apiErr = apiErr.WithDetails(map[string]any{
				"fields": []FieldError{{Field: ve.Field, Message: ve.Message}},
			})
		}
		return apiErr
	case stderrors.Is(err, domains.ErrConflict):
		return NewConflictError(err.Error())
	case stderrors.Is(err, domains.ErrNotFound):
		return NewNotFoundError("not found")
	case stderrors.Is(err, domains.ErrForbidden):
		return NewForbiddenError("you do not have permission to perform this action")
	default:
		return NewInternalError("an unexpected error occurred")
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes an APIError as a JSON response.
func WriteError(w http.ResponseWriter, err *APIError) {
	WriteJSON(w, err.HTTPStatusCode(), err)
}
