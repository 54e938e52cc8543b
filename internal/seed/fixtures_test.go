package seed

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"privydocs/internal/domain"
	models "privydocs/internal/domain/models/registry"
	"privydocs/internal/service/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = "0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"

const validFixture = `
documents:
  - owner: "0xA11CE"
    name: "Quarterly plan"
    encrypted_key: "` + key + `"
    collaborators: ["0xB0B"]
    editor: "0xB0B"
    body: "0xc0ffee"
  - owner: "0xB0B"
    name: "Notes"
    encrypted_key: "` + key + `"
`

func TestParseFixture(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "valid", yaml: validFixture},
		{name: "missing owner", yaml: "documents:\n  - name: x\n    encrypted_key: \"" + key + "\"\n", wantErr: "Owner"},
		{name: "short key", yaml: "documents:\n  - owner: a\n    name: x\n    encrypted_key: \"0x01\"\n", wantErr: "EncryptedKey"},
		{name: "body not hex", yaml: "documents:\n  - owner: a\n    name: x\n    encrypted_key: \"" + key + "\"\n    body: plain\n", wantErr: "Body"},
		{name: "unknown field", yaml: "documents:\n  - owner: a\n    title: x\n", wantErr: "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture, err := ParseFixture(strings.NewReader(tt.yaml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, fixture.Documents, 2)
		})
	}
}

func newRegistry() *registry.Service {
	return registry.NewService(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSeeder_Seed(t *testing.T) {
	ctx := context.Background()
	fixture, err := ParseFixture(strings.NewReader(validFixture))
	require.NoError(t, err)

	svc := newRegistry()
	ids, err := NewSeeder(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Seed(ctx, fixture)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids)

	doc, err := svc.GetDocumentDetails(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.Principal("0xA11CE"), doc.Owner)
	assert.Equal(t, models.Ciphertext{0xc0, 0xff, 0xee}, doc.EncryptedBody)

	collaborators, err := svc.GetCollaborators(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.Principal{"0xB0B"}, collaborators)

	previews, err := svc.GetDocumentsFor(ctx, "0xB0B")
	require.NoError(t, err)
	assert.Len(t, previews, 2)
}

func TestSeeder_StopsAtRegistryError(t *testing.T) {
	ctx := context.Background()
	fixture := &Fixture{Documents: []DocumentFixture{
		{Owner: "0xA11CE", Name: "one", EncryptedKey: key},
		{Owner: "0xA11CE", Name: "two", EncryptedKey: key, Editor: "0xEVE", Body: "0x01"},
		{Owner: "0xA11CE", Name: "three", EncryptedKey: key},
	}}

	svc := newRegistry()
	ids, err := NewSeeder(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Seed(ctx, fixture)

	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, []uint64{1}, ids)
	assert.Equal(t, uint64(2), svc.TotalDocuments(ctx))
}

func TestLoadFixture_SampleFile(t *testing.T) {
	fixture, err := LoadFixture("../../fixtures/documents.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, fixture.Documents)
}
