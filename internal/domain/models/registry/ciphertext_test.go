package registry

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyHandle(t *testing.T) {
	valid := "0x" + strings.Repeat("ab", KeyHandleLength)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: valid},
		{name: "uppercase prefix", input: "0X" + strings.Repeat("AB", KeyHandleLength)},
		{name: "missing prefix", input: strings.Repeat("ab", KeyHandleLength), wantErr: true},
		{name: "too short", input: "0x" + strings.Repeat("ab", KeyHandleLength-1), wantErr: true},
		{name: "too long", input: valid + "ab", wantErr: true},
		{name: "not hex", input: "0x" + strings.Repeat("zz", KeyHandleLength), wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := ParseKeyHandle(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, byte(0xab), k[0])
			assert.Equal(t, byte(0xab), k[KeyHandleLength-1])
		})
	}
}

func TestParseCiphertext(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Ciphertext
		wantErr bool
	}{
		{name: "bytes", input: "0xdeadbeef", want: Ciphertext{0xde, 0xad, 0xbe, 0xef}},
		{name: "empty body", input: "0x", want: Ciphertext{}},
		{name: "odd length", input: "0xabc", wantErr: true},
		{name: "missing prefix", input: "dead", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCiphertext(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocumentJSONUsesHex(t *testing.T) {
	doc := Document{
		ID:            3,
		Name:          "plan",
		Owner:         "0xA11CE",
		EncryptedBody: Ciphertext{0x0f},
	}
	doc.EncryptedKey[0] = 0x01

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "0x0f", raw["encrypted_body"])
	assert.True(t, strings.HasPrefix(raw["encrypted_key"].(string), "0x01"))
	assert.Len(t, raw["encrypted_key"], 2+2*KeyHandleLength)
}

func TestCiphertextClone(t *testing.T) {
	var nilBody Ciphertext
	assert.NotNil(t, nilBody.Clone())
	assert.True(t, nilBody.Clone().IsEmpty())

	body := Ciphertext{1, 2, 3}
	clone := body.Clone()
	clone[0] = 9
	assert.Equal(t, byte(1), body[0])
}

func TestPrincipalIsZero(t *testing.T) {
	tests := []struct {
		principal Principal
		want      bool
	}{
		{principal: "", want: true},
		{principal: ZeroAddress, want: true},
		{principal: Principal(strings.ToUpper(ZeroAddress[2:])), want: false},
		{principal: "0X0000000000000000000000000000000000000000", want: true},
		{principal: "0xA11CE00000000000000000000000000000000001", want: false},
		{principal: "0x00000000000000000000000000000000000000", want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.principal), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.principal.IsZero())
		})
	}
}

func TestNormalizePrincipal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Principal
	}{
		{name: "checksummed address", raw: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", want: "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"},
		{name: "uppercase prefix", raw: "0XA11CE00000000000000000000000000000000001", want: "0xa11ce00000000000000000000000000000000001"},
		{name: "already canonical", raw: "0xa11ce00000000000000000000000000000000001", want: "0xa11ce00000000000000000000000000000000001"},
		{name: "short hex kept verbatim", raw: "0xA11CE", want: "0xA11CE"},
		{name: "non-hex address kept verbatim", raw: "0xZZ1CE00000000000000000000000000000000001", want: "0xZZ1CE00000000000000000000000000000000001"},
		{name: "opaque subject kept verbatim", raw: "User-123", want: "User-123"},
		{name: "empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePrincipal(tt.raw))
			assert.Equal(t, tt.want, NormalizePrincipal(string(tt.want)))
		})
	}
}

func TestPrincipalUnmarshalJSON(t *testing.T) {
	var req struct {
		Collaborator Principal `json:"collaborator"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"collaborator":"0xB0B0000000000000000000000000000000000002"}`), &req))
	assert.Equal(t, Principal("0xb0b0000000000000000000000000000000000002"), req.Collaborator)

	assert.Error(t, json.Unmarshal([]byte(`{"collaborator":42}`), &req))
}
