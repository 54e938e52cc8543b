package registry

import (
	"time"

	"privydocs/internal/domain"
	models "privydocs/internal/domain/models/registry"
)

// documentStore is the canonical document table. Ids are dense and start at 1,
// so a document lives at docs[id-1]. Rows are never removed.
type documentStore struct {
	docs []*models.Document
}

func newDocumentStore() *documentStore {
	return &documentStore{}
}

// create allocates the next id and stores a document with an empty body
func (s *documentStore) create(name string, key models.KeyHandle, owner models.Principal, now time.Time) (uint64, error) {
	if name == "" {
		return 0, &domain.NameRequiredError{}
	}

	id := uint64(len(s.docs)) + 1
	s.docs = append(s.docs, &models.Document{
		ID:            id,
		Name:          name,
		Owner:         owner,
		EncryptedKey:  key,
		EncryptedBody: models.Ciphertext{},
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	return id, nil
}

// get returns the stored row; callers must Clone before letting it escape the lock
func (s *documentStore) get(id uint64) (*models.Document, error) {
	if id == 0 || id > uint64(len(s.docs)) {
		return nil, &domain.DocumentNotFoundError{DocumentID: id}
	}
	return s.docs[id-1], nil
}

// setBody overwrites the body wholesale and advances updatedAt
func (s *documentStore) setBody(id uint64, body models.Ciphertext, now time.Time) error {
	doc, err := s.get(id)
	if err != nil {
		return err
	}
	doc.EncryptedBody = body.Clone()
	doc.UpdatedAt = now
	return nil
}

func (s *documentStore) count() uint64 {
	return uint64(len(s.docs))
}
