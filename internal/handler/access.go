package handler

import (
	"log/slog"
	"net/http"

	"privydocs/internal/domain/services"
	"privydocs/internal/httputil"
)

// AccessHandler handles collaborator management HTTP requests
type AccessHandler struct {
	registry services.RegistryService
	logger   *slog.Logger
}

// NewAccessHandler creates a new access handler
func NewAccessHandler(registry services.RegistryService, logger *slog.Logger) *AccessHandler {
	return &AccessHandler{
		registry: registry,
		logger:   logger,
	}
}

// ListCollaborators returns the granted principals in grant order
// GET /api/documents/{id}/collaborators
func (h *AccessHandler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	id, ok := DocumentIDParam(w, r)
	if !ok {
		return
	}

	collaborators, err := h.registry.GetCollaborators(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, collaborators)
}

// GrantAccess adds a collaborator; caller must own the document
// POST /api/documents/{id}/collaborators
func (h *AccessHandler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	id, ok := DocumentIDParam(w, r)
	if !ok {
		return
	}
	caller := httputil.GetPrincipal(r)

	var req services.GrantAccessRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleParseError(w, err)
		return
	}

	if err := h.registry.GrantDocumentAccess(r.Context(), caller, id, req.Collaborator); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RevokeAccess removes a collaborator; caller must own the document
// DELETE /api/documents/{id}/collaborators/{principal}
func (h *AccessHandler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	id, ok := DocumentIDParam(w, r)
	if !ok {
		return
	}
	collaborator, ok := PrincipalParam(w, r)
	if !ok {
		return
	}
	caller := httputil.GetPrincipal(r)

	if err := h.registry.RevokeDocumentAccess(r.Context(), caller, id, collaborator); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HasAccess reports whether a principal may edit the document
// GET /api/documents/{id}/access/{principal}
func (h *AccessHandler) HasAccess(w http.ResponseWriter, r *http.Request) {
	id, ok := DocumentIDParam(w, r)
	if !ok {
		return
	}
	principal, ok := PrincipalParam(w, r)
	if !ok {
		return
	}

	allowed, err := h.registry.HasAccess(r.Context(), id, principal)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"has_access": allowed})
}
