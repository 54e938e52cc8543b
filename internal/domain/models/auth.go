package models

import (
	"privydocs/internal/domain/models/registry"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims accepted by the registry.
// The subject is the calling principal; for wallet-backed sessions it is the account address.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Address              string `json:"address,omitempty"` // Optional wallet address, preferred over sub when present
	Role                 string `json:"role,omitempty"`
}

// GetPrincipal returns the identity the registry should act as, in canonical form.
func (c *Claims) GetPrincipal() string {
	if c.Address != "" {
		return string(registry.NormalizePrincipal(c.Address))
	}
	return string(registry.NormalizePrincipal(c.Subject))
}
