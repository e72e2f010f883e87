// Package handlers implements the HTTP handlers of the domain API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/narvanalabs/domain-registry/internal/api/middleware"
	"github.com/narvanalabs/domain-registry/internal/domains"
)

// maxRequestBody bounds create request bodies.
const maxRequestBody = 64 << 10

// DomainHandler handles domain-related HTTP requests.
type DomainHandler struct {
	service *domains.Service
	logger  *slog.Logger
}

// NewDomainHandler creates a new domain handler.
func NewDomainHandler(service *domains.Service, logger *slog.Logger) *DomainHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DomainHandler{
		service: service,
		logger:  logger,
	}
}

// CreateDomainRequest represents the request body for adding a domain.
type CreateDomainRequest struct {
	Domain string `json:"domain"`
}

// Create handles POST /v1/apps/{appID}/domains - binds a custom domain.
func (h *DomainHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDomainRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		WriteBadRequest(w, r, "Invalid request body")
		return
	}

	domain, err := h.service.CreateDomain(r.Context(), middleware.GetCaller(r.Context()), chi.URLParam(r, "appID"), req.Domain)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, domain)
}

// List handles GET /v1/apps/{appID}/domains - primary hostname first.
func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListDomains(r.Context(), middleware.GetCaller(r.Context()), chi.URLParam(r, "appID"))
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, NewListResponse(result))
}

// Delete handles DELETE /v1/apps/{appID}/domains/{hostname}.
func (h *DomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteDomain(r.Context(), middleware.GetCaller(r.Context()), chi.URLParam(r, "appID"), chi.URLParam(r, "hostname"))
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAll handles GET /v1/domains - every custom domain, admin only.
func (h *DomainHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListAllDomains(r.Context(), middleware.GetCaller(r.Context()))
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, NewListResponse(result))
}
