package registry

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// KeyHandleLength is the size of a wrapped document key handle in bytes.
const KeyHandleLength = 32

// KeyHandle is the opaque ciphertext handle of a document's wrapped key.
// The registry stores it verbatim and never inspects it.
type KeyHandle [KeyHandleLength]byte

// Ciphertext is an opaque, variable-length encrypted document body.
// A zero-length Ciphertext means no content has been written yet.
type Ciphertext []byte

// ParseKeyHandle decodes a 0x-prefixed hex string of exactly KeyHandleLength bytes
func ParseKeyHandle(s string) (KeyHandle, error) {
	var k KeyHandle
	raw, err := decodeHex(s)
	if err != nil {
		return k, err
	}
	if len(raw) != KeyHandleLength {
		return k, fmt.Errorf("key handle must be %d bytes, got %d", KeyHandleLength, len(raw))
	}
	copy(k[:], raw)
	return k, nil
}

// ParseCiphertext decodes a 0x-prefixed hex string; "0x" yields an empty body
func ParseCiphertext(s string) (Ciphertext, error) {
	raw, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return Ciphertext{}, nil
	}
	return Ciphertext(raw), nil
}

func (k KeyHandle) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

// IsZero reports whether the handle is all zero bytes
func (k KeyHandle) IsZero() bool {
	return k == KeyHandle{}
}

func (k KeyHandle) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *KeyHandle) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKeyHandle(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (c Ciphertext) String() string {
	return "0x" + hex.EncodeToString(c)
}

// IsEmpty reports whether no body bytes are present
func (c Ciphertext) IsEmpty() bool {
	return len(c) == 0
}

// Clone returns a copy that does not alias c
func (c Ciphertext) Clone() Ciphertext {
	if c == nil {
		return Ciphertext{}
	}
	out := make(Ciphertext, len(c))
	copy(out, c)
	return out
}

func (c Ciphertext) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Ciphertext) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCiphertext(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, fmt.Errorf("hex value must start with 0x")
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, fmt.Errorf("invalid hex value: %w", err)
	}
	return raw, nil
}
