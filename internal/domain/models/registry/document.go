package registry

import (
	"time"
)

// Document is a registry row. ID, Name, Owner, EncryptedKey and CreatedAt never change
// after creation; EncryptedBody and UpdatedAt change on every body update.
type Document struct {
	ID            uint64     `json:"id"`
	Name          string     `json:"name"`
	Owner         Principal  `json:"owner"`
	EncryptedKey  KeyHandle  `json:"encrypted_key"`
	EncryptedBody Ciphertext `json:"encrypted_body"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Clone returns a deep copy safe to hand out of the registry lock
func (d *Document) Clone() *Document {
	out := *d
	out.EncryptedBody = d.EncryptedBody.Clone()
	return &out
}

// DocumentPreview is a listing row for a principal's visible documents
type DocumentPreview struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Owner     Principal `json:"owner"`
	UpdatedAt time.Time `json:"updated_at"`
	CanEdit   bool      `json:"can_edit"`
}

// AccessEntry grants Principal the right to update the body of DocumentID.
// Position orders grants of the same document by insertion.
type AccessEntry struct {
	DocumentID uint64    `json:"document_id"`
	Principal  Principal `json:"principal"`
	Position   uint64    `json:"position"`
}
