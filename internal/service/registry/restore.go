package registry

import (
	"fmt"
	"sort"

	"privydocs/internal/domain"
	models "privydocs/internal/domain/models/registry"
)

// Restore rebuilds the registry from a persisted snapshot. The reverse index is
// recomputed from documents and grants rather than loaded. Restore only runs on
// an empty registry and leaves it untouched if the snapshot breaks an invariant.
func (s *Service) Restore(snapshot *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docs.count() != 0 || s.seq != 0 {
		return fmt.Errorf("restore into non-empty registry (%d documents)", s.docs.count())
	}

	docs := newDocumentStore()
	acl := newAccessControlList()
	index := newReverseIndex()
	var lastTime = s.lastTime

	for i := range snapshot.Documents {
		doc := snapshot.Documents[i]
		if doc.ID != uint64(i)+1 {
			return &domain.CorruptSnapshotError{Reason: fmt.Sprintf("document id %d at position %d breaks the dense id sequence", doc.ID, i+1)}
		}
		if doc.Name == "" {
			return &domain.CorruptSnapshotError{Reason: fmt.Sprintf("document %d has an empty name", doc.ID)}
		}
		if doc.UpdatedAt.Before(doc.CreatedAt) {
			return &domain.CorruptSnapshotError{Reason: fmt.Sprintf("document %d updated before it was created", doc.ID)}
		}
		doc.Owner = doc.Owner.Normalize()
		doc.EncryptedBody = doc.EncryptedBody.Clone()
		docs.docs = append(docs.docs, &doc)
		index.addOwnership(doc.Owner, doc.ID)
		if doc.UpdatedAt.After(lastTime) {
			lastTime = doc.UpdatedAt
		}
	}

	access := make([]models.AccessEntry, len(snapshot.Access))
	copy(access, snapshot.Access)
	sort.SliceStable(access, func(i, j int) bool {
		if access[i].DocumentID != access[j].DocumentID {
			return access[i].DocumentID < access[j].DocumentID
		}
		return access[i].Position < access[j].Position
	})

	lastSeq := snapshot.LastSeq
	for _, entry := range access {
		entry.Principal = entry.Principal.Normalize()
		if entry.Position > lastSeq {
			lastSeq = entry.Position
		}
		doc, err := docs.get(entry.DocumentID)
		if err != nil {
			return &domain.CorruptSnapshotError{Reason: fmt.Sprintf("access entry for %s references missing document %d", entry.Principal, entry.DocumentID)}
		}
		if err := acl.grant(entry.DocumentID, doc.Owner, entry.Principal, entry.Position); err != nil {
			return &domain.CorruptSnapshotError{Reason: err.Error()}
		}
		index.addGrant(entry.Principal, entry.DocumentID)
	}

	s.docs = docs
	s.acl = acl
	s.index = index
	s.seq = lastSeq
	s.lastTime = lastTime

	s.logger.Info("registry restored",
		"documents", docs.count(),
		"access_entries", len(access),
		"last_seq", lastSeq,
	)

	return nil
}
