package services

import (
	"context"

	"privydocs/internal/domain/models/registry"
)

// RegistryService is the access-controlled document registry.
// Every operation is atomic: it either fully applies or leaves the registry unchanged.
type RegistryService interface {
	// CreateDocument creates a document owned by caller with an empty body
	CreateDocument(ctx context.Context, caller registry.Principal, req *CreateDocumentRequest) (*registry.Document, error)

	// UpdateDocumentBody replaces the encrypted body; caller must be the owner or a collaborator
	UpdateDocumentBody(ctx context.Context, caller registry.Principal, id uint64, body registry.Ciphertext) (*registry.Document, error)

	// GrantDocumentAccess adds a collaborator; caller must be the owner
	GrantDocumentAccess(ctx context.Context, caller registry.Principal, id uint64, collaborator registry.Principal) error

	// RevokeDocumentAccess removes a collaborator; caller must be the owner
	RevokeDocumentAccess(ctx context.Context, caller registry.Principal, id uint64, collaborator registry.Principal) error

	// GetDocumentDetails returns the full document including opaque ciphertext fields
	GetDocumentDetails(ctx context.Context, id uint64) (*registry.Document, error)

	// GetDocumentsFor lists documents principal owns or collaborates on, ascending by id
	GetDocumentsFor(ctx context.Context, principal registry.Principal) ([]registry.DocumentPreview, error)

	// GetCollaborators lists granted principals in grant order (owner excluded)
	GetCollaborators(ctx context.Context, id uint64) ([]registry.Principal, error)

	// HasAccess reports whether principal may update the body of id
	HasAccess(ctx context.Context, id uint64, principal registry.Principal) (bool, error)

	// TotalDocuments returns the number of documents ever created (also the last issued id)
	TotalDocuments(ctx context.Context) uint64
}

// CreateDocumentRequest represents a document creation request.
// EncryptedKey is nil when the field was absent.
type CreateDocumentRequest struct {
	Name         string              `json:"name"`
	EncryptedKey *registry.KeyHandle `json:"encrypted_key"`
}

// UpdateBodyRequest represents a body replacement request.
// EncryptedBody is nil when the field was absent; "0x" is an explicit empty body.
type UpdateBodyRequest struct {
	EncryptedBody *registry.Ciphertext `json:"encrypted_body"`
}

// GrantAccessRequest represents a collaborator grant request
type GrantAccessRequest struct {
	Collaborator registry.Principal `json:"collaborator"`
}
