package registry

import (
	"encoding/json"
	"strings"
)

// ZeroAddress is the all-zero 20-byte address, treated the same as an empty principal.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// addressHexLength is the number of hex digits in a 20-byte address
const addressHexLength = 40

// Principal is an authenticated identity making a call (owner, collaborator or outsider).
// Hex addresses are held in lowercase so that one wallet is one principal regardless
// of checksum casing; any other identity is compared verbatim.
type Principal string

// NormalizePrincipal returns the canonical form of raw. A 0x-prefixed 20-byte
// hex address is lowercased; anything else is returned unchanged.
func NormalizePrincipal(raw string) Principal {
	if !isHexAddress(raw) {
		return Principal(raw)
	}
	return Principal(strings.ToLower(raw))
}

// Normalize returns the canonical form of p
func (p Principal) Normalize() Principal {
	return NormalizePrincipal(string(p))
}

// IsZero reports whether p is the null principal
func (p Principal) IsZero() bool {
	return p == "" || p.Normalize() == ZeroAddress
}

func (p Principal) String() string {
	return string(p)
}

// UnmarshalJSON decodes a principal and normalizes it
func (p *Principal) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = NormalizePrincipal(raw)
	return nil
}

func isHexAddress(s string) bool {
	if len(s) != 2+addressHexLength || (s[:2] != "0x" && s[:2] != "0X") {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
