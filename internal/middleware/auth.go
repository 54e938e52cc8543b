package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"privydocs/internal/auth"
	models "privydocs/internal/domain/models/registry"
	"privydocs/internal/httputil"
)

// publicPaths skip authentication
var publicPaths = map[string]bool{
	"/health": true,
}

// AuthMiddleware verifies the bearer token and stores the caller principal in
// the request context. Browsers cannot set headers on a websocket handshake,
// so the events route also accepts the token as an access_token query parameter.
func AuthMiddleware(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("authentication failed",
					"path", r.URL.Path,
					"request_id", httputil.GetRequestID(r),
					"error", err,
				)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			principal := models.Principal(claims.GetPrincipal())
			if principal.IsZero() {
				httputil.RespondError(w, http.StatusUnauthorized, "token does not identify a principal")
				return
			}

			next.ServeHTTP(w, httputil.WithPrincipal(r, principal))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if r.URL.Path == "/api/events" {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
