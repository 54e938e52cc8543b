package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// RegistryError is implemented by every failure the document registry can return.
// Code is stable and safe to expose to clients; Fields carries the identifying
// data (document ids, principals) for auditability.
type RegistryError interface {
	HTTPError
	Code() string
	Fields() map[string]interface{}
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Registry error codes
const (
	CodeDocumentNotFound     = "DocumentNotFound"
	CodeNotDocumentOwner     = "NotDocumentOwner"
	CodeNotAuthorizedEditor  = "NotAuthorizedEditor"
	CodeNameRequired         = "NameRequired"
	CodeNameTooLong          = "NameTooLong"
	CodeEncryptedKeyRequired = "EncryptedKeyRequired"
	CodeInvalidCollaborator  = "InvalidCollaborator"
	CodeAlreadyAuthorized    = "AlreadyAuthorized"
	CodeCollaboratorNotFound = "CollaboratorNotFound"
)

// Not-found class
type (
	// DocumentNotFoundError indicates the referenced document id has no row
	DocumentNotFoundError struct {
		DocumentID uint64
	}
)

// Authorization class
type (
	// NotDocumentOwnerError indicates a management call by someone other than the owner
	NotDocumentOwnerError struct {
		DocumentID uint64
		Caller     string
	}

	// NotAuthorizedEditorError indicates a body update by a principal that is
	// neither the owner nor a collaborator
	NotAuthorizedEditorError struct {
		DocumentID uint64
		Caller     string
	}
)

// Validation class
type (
	// NameRequiredError indicates an empty document name
	NameRequiredError struct{}

	// NameTooLongError indicates a document name over the length cap
	NameTooLongError struct {
		Length int
		Max    int
	}

	// EncryptedKeyRequiredError indicates a create request without a key handle
	EncryptedKeyRequiredError struct{}

	// InvalidCollaboratorError indicates the zero principal was supplied as collaborator
	InvalidCollaboratorError struct {
		Collaborator string
	}
)

// State-conflict class
type (
	// AlreadyAuthorizedError indicates the collaborator already has edit rights,
	// either through a grant or by owning the document
	AlreadyAuthorizedError struct {
		DocumentID   uint64
		Collaborator string
	}

	// CollaboratorNotFoundError indicates a revoke for a principal without a grant
	CollaboratorNotFoundError struct {
		DocumentID   uint64
		Collaborator string
	}
)

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("document %d does not exist", e.DocumentID)
}
func (e *NotDocumentOwnerError) Error() string {
	return fmt.Sprintf("%s is not the owner of document %d", e.Caller, e.DocumentID)
}
func (e *NotAuthorizedEditorError) Error() string {
	return fmt.Sprintf("%s is not authorized to edit document %d", e.Caller, e.DocumentID)
}
func (e *NameRequiredError) Error() string { return "document name is required" }
func (e *NameTooLongError) Error() string {
	return fmt.Sprintf("document name is %d characters, maximum is %d", e.Length, e.Max)
}
func (e *EncryptedKeyRequiredError) Error() string { return "encrypted key is required" }
func (e *InvalidCollaboratorError) Error() string {
	return fmt.Sprintf("invalid collaborator %q", e.Collaborator)
}
func (e *AlreadyAuthorizedError) Error() string {
	return fmt.Sprintf("%s is already authorized on document %d", e.Collaborator, e.DocumentID)
}
func (e *CollaboratorNotFoundError) Error() string {
	return fmt.Sprintf("%s is not a collaborator on document %d", e.Collaborator, e.DocumentID)
}

func (e *DocumentNotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *NotDocumentOwnerError) StatusCode() int     { return http.StatusForbidden }
func (e *NotAuthorizedEditorError) StatusCode() int  { return http.StatusForbidden }
func (e *NameRequiredError) StatusCode() int         { return http.StatusBadRequest }
func (e *NameTooLongError) StatusCode() int          { return http.StatusBadRequest }
func (e *EncryptedKeyRequiredError) StatusCode() int { return http.StatusBadRequest }
func (e *InvalidCollaboratorError) StatusCode() int  { return http.StatusBadRequest }
func (e *AlreadyAuthorizedError) StatusCode() int    { return http.StatusConflict }
func (e *CollaboratorNotFoundError) StatusCode() int { return http.StatusConflict }

func (e *DocumentNotFoundError) Code() string     { return CodeDocumentNotFound }
func (e *NotDocumentOwnerError) Code() string     { return CodeNotDocumentOwner }
func (e *NotAuthorizedEditorError) Code() string  { return CodeNotAuthorizedEditor }
func (e *NameRequiredError) Code() string         { return CodeNameRequired }
func (e *NameTooLongError) Code() string          { return CodeNameTooLong }
func (e *EncryptedKeyRequiredError) Code() string { return CodeEncryptedKeyRequired }
func (e *InvalidCollaboratorError) Code() string  { return CodeInvalidCollaborator }
func (e *AlreadyAuthorizedError) Code() string    { return CodeAlreadyAuthorized }
func (e *CollaboratorNotFoundError) Code() string { return CodeCollaboratorNotFound }

// Is allows errors.Is() to match the taxonomy sentinels
func (e *DocumentNotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *NotDocumentOwnerError) Is(target error) bool     { return target == ErrForbidden }
func (e *NotAuthorizedEditorError) Is(target error) bool  { return target == ErrForbidden }
func (e *NameRequiredError) Is(target error) bool         { return target == ErrValidation }
func (e *NameTooLongError) Is(target error) bool          { return target == ErrValidation }
func (e *EncryptedKeyRequiredError) Is(target error) bool { return target == ErrValidation }
func (e *InvalidCollaboratorError) Is(target error) bool  { return target == ErrValidation }
func (e *AlreadyAuthorizedError) Is(target error) bool    { return target == ErrConflict }
func (e *CollaboratorNotFoundError) Is(target error) bool { return target == ErrConflict }

func (e *DocumentNotFoundError) Fields() map[string]interface{} {
	return map[string]interface{}{"document_id": e.DocumentID}
}
func (e *NotDocumentOwnerError) Fields() map[string]interface{} {
	return map[string]interface{}{"document_id": e.DocumentID, "caller": e.Caller}
}
func (e *NotAuthorizedEditorError) Fields() map[string]interface{} {
	return map[string]interface{}{"document_id": e.DocumentID, "caller": e.Caller}
}
func (e *NameRequiredError) Fields() map[string]interface{} {
	return map[string]interface{}{"field": "name"}
}
func (e *NameTooLongError) Fields() map[string]interface{} {
	return map[string]interface{}{"field": "name", "length": e.Length, "max": e.Max}
}
func (e *EncryptedKeyRequiredError) Fields() map[string]interface{} {
	return map[string]interface{}{"field": "encrypted_key"}
}
func (e *InvalidCollaboratorError) Fields() map[string]interface{} {
	return map[string]interface{}{"collaborator": e.Collaborator}
}
func (e *AlreadyAuthorizedError) Fields() map[string]interface{} {
	return map[string]interface{}{"document_id": e.DocumentID, "collaborator": e.Collaborator}
}
func (e *CollaboratorNotFoundError) Fields() map[string]interface{} {
	return map[string]interface{}{"document_id": e.DocumentID, "collaborator": e.Collaborator}
}

// CorruptSnapshotError indicates persisted registry state that violates a registry invariant.
// It is only returned while restoring state, never by an operation.
type CorruptSnapshotError struct {
	Reason string
}

func (e *CorruptSnapshotError) Error() string {
	return "corrupt registry snapshot: " + e.Reason
}
