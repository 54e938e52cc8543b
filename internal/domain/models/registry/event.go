package registry

import "time"

// EventKind names a registry state transition
type EventKind string

const (
	EventDocumentCreated       EventKind = "DocumentCreated"
	EventDocumentUpdated       EventKind = "DocumentUpdated"
	EventDocumentAccessGranted EventKind = "DocumentAccessGranted"
	EventDocumentAccessRevoked EventKind = "DocumentAccessRevoked"
)

// Event records one successful mutation. Seq is strictly increasing across the registry.
//
// Actor is the owner for create/grant/revoke and the editor for updates.
// Subject is the collaborator for grant/revoke.
// Name and EncryptedKey are set on DocumentCreated, EncryptedBody on DocumentUpdated.
type Event struct {
	Seq           uint64     `json:"seq"`
	Kind          EventKind  `json:"kind"`
	DocumentID    uint64     `json:"document_id"`
	Actor         Principal  `json:"actor"`
	Subject       Principal  `json:"subject,omitempty"`
	Name          string     `json:"name,omitempty"`
	EncryptedKey  KeyHandle  `json:"-"`
	EncryptedBody Ciphertext `json:"-"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// Snapshot is the persisted registry state: documents ordered by id and
// access entries ordered by (document id, position).
type Snapshot struct {
	Documents []Document
	Access    []AccessEntry
	LastSeq   uint64
}
