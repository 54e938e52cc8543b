package registry

import (
	"context"
	"testing"
	"time"

	"privydocs/internal/domain"
	models "privydocs/internal/domain/models/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotDoc(id uint64, owner models.Principal, name string) models.Document {
	return models.Document{
		ID:            id,
		Name:          name,
		Owner:         owner,
		EncryptedKey:  keyHandle(byte(id)),
		EncryptedBody: models.Ciphertext{byte(id)},
		CreatedAt:     testEpoch.Add(time.Duration(id) * time.Minute),
		UpdatedAt:     testEpoch.Add(time.Duration(id) * time.Hour),
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	snapshot := &models.Snapshot{
		Documents: []models.Document{
			snapshotDoc(1, alice, "one"),
			snapshotDoc(2, bob, "two"),
		},
		// Out of order on purpose; positions decide grant order
		Access: []models.AccessEntry{
			{DocumentID: 1, Principal: carol, Position: 9},
			{DocumentID: 2, Principal: alice, Position: 4},
			{DocumentID: 1, Principal: bob, Position: 5},
		},
		LastSeq: 7,
	}

	log := &eventLog{}
	svc := newTestService(log)
	require.NoError(t, svc.Restore(snapshot))

	assert.Equal(t, uint64(2), svc.TotalDocuments(ctx))
	assert.Empty(t, log.all(), "restore must not emit events")

	collaborators, err := svc.GetCollaborators(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.Principal{bob, carol}, collaborators)

	previews, err := svc.GetDocumentsFor(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, previewIDs(previews))

	doc, err := svc.GetDocumentDetails(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Documents[1], *doc)

	// New ids and sequence numbers continue after the snapshot
	created := mustCreate(t, svc, dave, "five")
	assert.Equal(t, uint64(3), created.ID)
	assert.False(t, created.CreatedAt.Before(snapshot.Documents[1].UpdatedAt))

	events := log.all()
	require.Len(t, events, 1)
	assert.Equal(t, uint64(10), events[0].Seq)
}

func TestRestore_CorruptSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		snapshot *models.Snapshot
	}{
		{
			name: "gap in ids",
			snapshot: &models.Snapshot{Documents: []models.Document{
				snapshotDoc(1, alice, "one"),
				snapshotDoc(3, alice, "three"),
			}},
		},
		{
			name:     "ids not starting at one",
			snapshot: &models.Snapshot{Documents: []models.Document{snapshotDoc(2, alice, "two")}},
		},
		{
			name: "empty name",
			snapshot: &models.Snapshot{Documents: []models.Document{
				snapshotDoc(1, alice, ""),
			}},
		},
		{
			name: "updated before created",
			snapshot: func() *models.Snapshot {
				doc := snapshotDoc(1, alice, "one")
				doc.UpdatedAt = doc.CreatedAt.Add(-time.Second)
				return &models.Snapshot{Documents: []models.Document{doc}}
			}(),
		},
		{
			name: "grant on missing document",
			snapshot: &models.Snapshot{
				Documents: []models.Document{snapshotDoc(1, alice, "one")},
				Access:    []models.AccessEntry{{DocumentID: 2, Principal: bob, Position: 1}},
			},
		},
		{
			name: "owner listed as collaborator",
			snapshot: &models.Snapshot{
				Documents: []models.Document{snapshotDoc(1, alice, "one")},
				Access:    []models.AccessEntry{{DocumentID: 1, Principal: alice, Position: 1}},
			},
		},
		{
			name: "duplicate grant",
			snapshot: &models.Snapshot{
				Documents: []models.Document{snapshotDoc(1, alice, "one")},
				Access: []models.AccessEntry{
					{DocumentID: 1, Principal: bob, Position: 1},
					{DocumentID: 1, Principal: bob, Position: 2},
				},
			},
		},
		{
			name: "zero principal granted",
			snapshot: &models.Snapshot{
				Documents: []models.Document{snapshotDoc(1, alice, "one")},
				Access:    []models.AccessEntry{{DocumentID: 1, Principal: models.ZeroAddress, Position: 1}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := newTestService()

			err := svc.Restore(tt.snapshot)

			var corrupt *domain.CorruptSnapshotError
			require.ErrorAs(t, err, &corrupt)
			assert.Zero(t, svc.TotalDocuments(ctx), "failed restore must leave the registry empty")
		})
	}
}

func TestRestore_RejectsNonEmptyRegistry(t *testing.T) {
	svc := newTestService()
	mustCreate(t, svc, alice, "one")

	err := svc.Restore(&models.Snapshot{})
	require.Error(t, err)
	assert.Equal(t, uint64(1), svc.TotalDocuments(context.Background()))
}
