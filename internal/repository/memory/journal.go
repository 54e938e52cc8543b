package memory

import (
	"context"
	"fmt"
	"sync"

	models "privydocs/internal/domain/models/registry"
	registryRepo "privydocs/internal/domain/repositories/registry"
)

// Journal is an in-memory Journal. It materializes events the same way the
// Postgres journal does, so a registry restored from it matches the live one.
type Journal struct {
	mu      sync.RWMutex
	docs    []models.Document
	access  []models.AccessEntry
	lastSeq uint64
}

var _ registryRepo.Journal = (*Journal)(nil)

func NewJournal() *Journal {
	return &Journal{}
}

// Append applies events in order, skipping any already applied
func (j *Journal) Append(_ context.Context, events []models.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, event := range events {
		if event.Seq <= j.lastSeq {
			continue
		}
		if err := j.apply(event); err != nil {
			return fmt.Errorf("apply event %d: %w", event.Seq, err)
		}
		j.lastSeq = event.Seq
	}
	return nil
}

// Load returns a copy of the materialized state
func (j *Journal) Load(_ context.Context) (*models.Snapshot, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	snapshot := &models.Snapshot{
		Documents: make([]models.Document, len(j.docs)),
		Access:    make([]models.AccessEntry, len(j.access)),
		LastSeq:   j.lastSeq,
	}
	for i, doc := range j.docs {
		snapshot.Documents[i] = *doc.Clone()
	}
	copy(snapshot.Access, j.access)
	return snapshot, nil
}

// LastSeq returns the sequence number of the last applied event
func (j *Journal) LastSeq() uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.lastSeq
}

func (j *Journal) apply(event models.Event) error {
	switch event.Kind {
	case models.EventDocumentCreated:
		if event.DocumentID != uint64(len(j.docs))+1 {
			return fmt.Errorf("document %d created out of order", event.DocumentID)
		}
		j.docs = append(j.docs, models.Document{
			ID:            event.DocumentID,
			Name:          event.Name,
			Owner:         event.Actor,
			EncryptedKey:  event.EncryptedKey,
			EncryptedBody: models.Ciphertext{},
			CreatedAt:     event.OccurredAt,
			UpdatedAt:     event.OccurredAt,
		})
	case models.EventDocumentUpdated:
		doc, err := j.document(event.DocumentID)
		if err != nil {
			return err
		}
		doc.EncryptedBody = event.EncryptedBody.Clone()
		doc.UpdatedAt = event.OccurredAt
	case models.EventDocumentAccessGranted:
		if _, err := j.document(event.DocumentID); err != nil {
			return err
		}
		j.access = append(j.access, models.AccessEntry{
			DocumentID: event.DocumentID,
			Principal:  event.Subject,
			Position:   event.Seq,
		})
	case models.EventDocumentAccessRevoked:
		for i, entry := range j.access {
			if entry.DocumentID == event.DocumentID && entry.Principal == event.Subject {
				j.access = append(j.access[:i], j.access[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("no access entry for %s on document %d", event.Subject, event.DocumentID)
	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}
	return nil
}

func (j *Journal) document(id uint64) (*models.Document, error) {
	if id == 0 || id > uint64(len(j.docs)) {
		return nil, fmt.Errorf("document %d not journaled", id)
	}
	return &j.docs[id-1], nil
}
