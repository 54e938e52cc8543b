package auth

import (
	"errors"
	"log/slog"

	"privydocs/internal/domain"
	"privydocs/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier implements JWTVerifier for HS256 tokens signed with a shared secret.
// Intended for dev and test environments where no JWKS endpoint exists.
type HMACVerifier struct {
	secret []byte
	logger *slog.Logger
}

// NewHMACVerifier creates a shared-secret verifier
func NewHMACVerifier(secret string, logger *slog.Logger) (JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	return &HMACVerifier{secret: []byte(secret), logger: logger}, nil
}

// VerifyToken validates an HS256 token and extracts the claims.
func (v *HMACVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		v.logger.Debug("token parse failed", "error", err)
		return nil, domain.ErrUnauthorized
	}
	return claimsFromToken(token, v.logger)
}

// SignToken issues an HS256 token for principal; used by tests and local tooling
func (v *HMACVerifier) SignToken(claims *models.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *HMACVerifier) Close() error {
	return nil
}
