package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"privydocs/internal/domain"
	"privydocs/internal/httputil"
)

// handleError converts domain errors to HTTP responses.
// Registry errors carry their code and identifying fields as problem extras.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var registryErr domain.RegistryError
	if errors.As(err, &registryErr) {
		extras := map[string]interface{}{"code": registryErr.Code()}
		for k, v := range registryErr.Fields() {
			extras[k] = v
		}
		httputil.RespondErrorWithExtras(w, registryErr.StatusCode(), registryErr.Error(), extras)
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// handleParseError responds to a request body that could not be decoded
func handleParseError(w http.ResponseWriter, err error) {
	if errors.Is(err, httputil.ErrBodyTooLarge) {
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	httputil.RespondError(w, http.StatusBadRequest, err.Error())
}
