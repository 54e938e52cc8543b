package httputil

import (
	"context"
	"net/http"

	models "privydocs/internal/domain/models/registry"
)

// Context key type to avoid collisions
type contextKey string

const (
	principalKey contextKey = "principal"
	requestIDKey contextKey = "requestID"
)

// WithPrincipal adds the authenticated principal to the request context
func WithPrincipal(r *http.Request, principal models.Principal) *http.Request {
	ctx := context.WithValue(r.Context(), principalKey, principal)
	return r.WithContext(ctx)
}

// GetPrincipal retrieves the principal from context, returns the empty principal if not found
func GetPrincipal(r *http.Request) models.Principal {
	principal, _ := r.Context().Value(principalKey).(models.Principal)
	return principal
}

// WithRequestID adds the request id to the request context
func WithRequestID(r *http.Request, requestID string) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDKey, requestID)
	return r.WithContext(ctx)
}

// GetRequestID retrieves the request id from context
func GetRequestID(r *http.Request) string {
	requestID, _ := r.Context().Value(requestIDKey).(string)
	return requestID
}
