package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/narvanalabs/domain-registry/internal/api/errors"
)

// ListResponse is the envelope for collection responses.
type ListResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// NewListResponse wraps results, never encoding a null list.
func NewListResponse[T any](results []T) ListResponse[T] {
	if results == nil {
		results = []T{}
	}
	return ListResponse[T]{Count: len(results), Results: results}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	apierrors.WriteJSON(w, status, data)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeAPIError(w, r, apierrors.NewInvalidRequestError(message))
}

// WriteServiceError maps a domain service error to its HTTP response. Errors
// without a client-facing meaning are logged and reported as internal errors.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	apiErr := apierrors.FromDomainError(err)
	if apiErr.Code == apierrors.CodeInternalError {
		logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
	}
	writeAPIError(w, r, apiErr)
}

func writeAPIError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	apierrors.WriteError(w, apiErr.WithRequestID(middleware.GetReqID(r.Context())))
}
