package auth

import "privydocs/internal/domain/models"

// JWTVerifier defines the interface for JWT token verification.
// The middleware only needs the parsed claims; key management stays in the implementation.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
