package handler

import (
	"net/http"
	"strconv"

	models "privydocs/internal/domain/models/registry"
	"privydocs/internal/httputil"
)

// DocumentIDParam extracts a document id path parameter.
// Writes a 400 and returns false if it is missing or not an unsigned integer;
// id 0 is passed through so the registry reports it as a missing document.
func DocumentIDParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document id is required")
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "document id must be an unsigned integer")
		return 0, false
	}
	return id, true
}

// PrincipalParam extracts a principal path parameter in canonical form
func PrincipalParam(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	principal := models.NormalizePrincipal(r.PathValue("principal"))
	if principal == "" {
		httputil.RespondError(w, http.StatusBadRequest, "principal is required")
		return "", false
	}
	return principal, true
}
