package registry

import (
	"testing"
	"time"

	models "privydocs/internal/domain/models/registry"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePayload(t *testing.T) {
	var key models.KeyHandle
	key[0], key[31] = 0xaa, 0xbb

	tests := []struct {
		name     string
		event    models.Event
		expected *eventPayload
	}{
		{
			name: "created carries name and key",
			event: models.Event{
				Seq:          1,
				Kind:         models.EventDocumentCreated,
				DocumentID:   1,
				Name:         "Doc Alpha",
				EncryptedKey: key,
			},
			expected: &eventPayload{Name: "Doc Alpha", EncryptedKey: key[:]},
		},
		{
			name: "updated carries only the body size",
			event: models.Event{
				Seq:           2,
				Kind:          models.EventDocumentUpdated,
				DocumentID:    1,
				EncryptedBody: models.Ciphertext{0x12, 0x34},
			},
			expected: &eventPayload{BodyBytes: 2},
		},
		{
			name: "grants have no payload",
			event: models.Event{
				Seq:        3,
				Kind:       models.EventDocumentAccessGranted,
				DocumentID: 1,
				Subject:    "0xC",
				OccurredAt: time.Now(),
			},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := encodePayload(tt.event)
			require.NoError(t, err)

			if tt.expected == nil {
				assert.Nil(t, data)
				return
			}

			var decoded eventPayload
			require.NoError(t, cbor.Unmarshal(data, &decoded))
			assert.Equal(t, *tt.expected, decoded)
		})
	}
}

func TestEncodePayload_NeverStoresBody(t *testing.T) {
	body := models.Ciphertext("secret-ciphertext-bytes")
	data, err := encodePayload(models.Event{Kind: models.EventDocumentUpdated, EncryptedBody: body})
	require.NoError(t, err)
	assert.NotContains(t, string(data), string(body))
}

func TestEncodePayload_Deterministic(t *testing.T) {
	var key models.KeyHandle
	for i := range key {
		key[i] = byte(i)
	}
	event := models.Event{Seq: 1, Kind: models.EventDocumentCreated, DocumentID: 1, Name: "Doc", EncryptedKey: key}

	first, err := encodePayload(event)
	require.NoError(t, err)
	second, err := encodePayload(event)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// map(2) {1: "Doc", 2: bytes(32)} with integer keys in ascending order
	expected := append([]byte{0xa2, 0x01, 0x63, 'D', 'o', 'c', 0x02, 0x58, 0x20}, key[:]...)
	assert.Equal(t, expected, first)
}
