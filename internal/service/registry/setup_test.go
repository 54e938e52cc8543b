package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"privydocs/internal/domain"
	models "privydocs/internal/domain/models/registry"
	"privydocs/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshotJournal serves a fixed snapshot or load error
type snapshotJournal struct {
	*memory.Journal
	snapshot *models.Snapshot
	loadErr  error
}

func (j *snapshotJournal) Load(context.Context) (*models.Snapshot, error) {
	return j.snapshot, j.loadErr
}

func TestSetup_RestoresFromJournal(t *testing.T) {
	ctx := context.Background()
	journal := memory.NewJournal()

	first, err := Setup(ctx, journal, newStepClock(), idleInterval, discardLogger())
	require.NoError(t, err)
	mustCreate(t, first.Registry, alice, "plan")
	mustGrant(t, first.Registry, alice, 1, bob)
	require.NoError(t, first.Outbox.Close(ctx))

	second, err := Setup(ctx, journal, newStepClock(), idleInterval, discardLogger())
	require.NoError(t, err)
	defer second.Outbox.Close(ctx)

	assert.Equal(t, uint64(1), second.Registry.TotalDocuments(ctx))
	ok, err := second.Registry.HasAccess(ctx, 1, bob)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetup_HubReceivesEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := Setup(ctx, memory.NewJournal(), newStepClock(), idleInterval, discardLogger())
	require.NoError(t, err)
	defer components.Outbox.Close(context.Background())
	require.NotNil(t, components.Hub)

	sub := components.Hub.Subscribe(alice)
	go components.Hub.Run(ctx)

	mustCreate(t, components.Registry, alice, "plan")

	select {
	case event := <-sub.C:
		assert.Equal(t, models.EventDocumentCreated, event.Kind)
		assert.Equal(t, uint64(1), event.DocumentID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestSetup_WithoutHub(t *testing.T) {
	ctx := context.Background()
	journal := memory.NewJournal()

	components, err := Setup(ctx, journal, newStepClock(), idleInterval, discardLogger(), WithoutHub())
	require.NoError(t, err)
	assert.Nil(t, components.Hub)

	for i := 0; i < 300; i++ {
		mustCreate(t, components.Registry, alice, "doc")
	}
	require.NoError(t, components.Outbox.Close(ctx))
	assert.Equal(t, uint64(300), journal.LastSeq())
}

func TestSetup_Failures(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		journal *snapshotJournal
		check   func(t *testing.T, err error)
	}{
		{
			name:    "load error",
			journal: &snapshotJournal{Journal: memory.NewJournal(), loadErr: errors.New("connection refused")},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "load journal")
				assert.ErrorContains(t, err, "connection refused")
			},
		},
		{
			name: "corrupt snapshot",
			journal: &snapshotJournal{
				Journal: memory.NewJournal(),
				snapshot: &models.Snapshot{
					Documents: []models.Document{{ID: 2, Name: "gap", Owner: alice, CreatedAt: now, UpdatedAt: now}},
				},
			},
			check: func(t *testing.T, err error) {
				var corrupt *domain.CorruptSnapshotError
				assert.ErrorAs(t, err, &corrupt)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			components, err := Setup(context.Background(), tt.journal, newStepClock(), idleInterval, discardLogger())
			require.Error(t, err)
			assert.Nil(t, components)
			tt.check(t, err)
		})
	}
}
