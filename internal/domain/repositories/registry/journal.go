package registry

import (
	"context"

	models "privydocs/internal/domain/models/registry"
)

// Journal persists registry events and returns the materialized state on load.
type Journal interface {
	// Append persists events in order. Events with a Seq already persisted are skipped,
	// so redelivering a batch after a partial failure is safe.
	Append(ctx context.Context, events []models.Event) error

	// Load returns the persisted documents and access entries
	Load(ctx context.Context) (*models.Snapshot, error)
}
