package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"privydocs/internal/config"
	"privydocs/internal/domain"
	models "privydocs/internal/domain/models/registry"
	"privydocs/internal/domain/services"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// EventRecorder receives events produced by successful mutations.
// Record is called while the registry lock is held and must not block.
type EventRecorder interface {
	Record(events ...models.Event)
}

// Service composes the document store, ACL and reverse index into the registry
// operations. A single mutex serializes every operation: invariants span all
// three tables, so per-document locking would let getDocumentsFor observe a
// grant half applied.
type Service struct {
	mu       sync.Mutex
	docs     *documentStore
	acl      *accessControlList
	index    *reverseIndex
	seq      uint64
	lastTime time.Time

	clock     Clock
	recorders []EventRecorder
	logger    *slog.Logger
}

var _ services.RegistryService = (*Service)(nil)

// NewService creates an empty registry
func NewService(clock Clock, logger *slog.Logger, recorders ...EventRecorder) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{
		docs:      newDocumentStore(),
		acl:       newAccessControlList(),
		index:     newReverseIndex(),
		clock:     clock,
		recorders: recorders,
		logger:    logger,
	}
}

// CreateDocument creates a new document owned by caller
func (s *Service) CreateDocument(ctx context.Context, caller models.Principal, req *services.CreateDocumentRequest) (*models.Document, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}
	caller = caller.Normalize()

	s.mu.Lock()
	doc, err := s.createLocked(caller, req)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "document created",
		"id", doc.ID,
		"name", doc.Name,
		"owner", doc.Owner,
	)

	return doc, nil
}

func (s *Service) createLocked(caller models.Principal, req *services.CreateDocumentRequest) (*models.Document, error) {
	now := s.now()
	id, err := s.docs.create(req.Name, *req.EncryptedKey, caller, now)
	if err != nil {
		return nil, err
	}
	s.index.addOwnership(caller, id)

	doc, err := s.docs.get(id)
	if err != nil {
		return nil, err
	}
	s.emit(models.Event{
		Kind:         models.EventDocumentCreated,
		DocumentID:   id,
		Actor:        caller,
		Name:         doc.Name,
		EncryptedKey: doc.EncryptedKey,
		OccurredAt:   now,
	})
	return doc.Clone(), nil
}

// UpdateDocumentBody replaces the encrypted body of a document
func (s *Service) UpdateDocumentBody(ctx context.Context, caller models.Principal, id uint64, body models.Ciphertext) (*models.Document, error) {
	caller = caller.Normalize()

	s.mu.Lock()
	doc, err := s.updateBodyLocked(caller, id, body)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "document body updated",
		"id", id,
		"editor", caller,
		"body_bytes", len(doc.EncryptedBody),
	)

	return doc, nil
}

func (s *Service) updateBodyLocked(caller models.Principal, id uint64, body models.Ciphertext) (*models.Document, error) {
	doc, err := s.docs.get(id)
	if err != nil {
		return nil, err
	}
	if !s.acl.isAuthorized(id, caller, doc.Owner) {
		return nil, &domain.NotAuthorizedEditorError{DocumentID: id, Caller: string(caller)}
	}

	now := s.now()
	if err := s.docs.setBody(id, body, now); err != nil {
		return nil, err
	}
	s.emit(models.Event{
		Kind:          models.EventDocumentUpdated,
		DocumentID:    id,
		Actor:         caller,
		EncryptedBody: doc.EncryptedBody,
		OccurredAt:    now,
	})
	return doc.Clone(), nil
}

// GrantDocumentAccess lets collaborator edit the document
func (s *Service) GrantDocumentAccess(ctx context.Context, caller models.Principal, id uint64, collaborator models.Principal) error {
	caller, collaborator = caller.Normalize(), collaborator.Normalize()

	s.mu.Lock()
	err := s.grantLocked(caller, id, collaborator)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "document access granted",
		"id", id,
		"owner", caller,
		"collaborator", collaborator,
	)

	return nil
}

func (s *Service) grantLocked(caller models.Principal, id uint64, collaborator models.Principal) error {
	doc, err := s.docs.get(id)
	if err != nil {
		return err
	}
	if caller != doc.Owner {
		return &domain.NotDocumentOwnerError{DocumentID: id, Caller: string(caller)}
	}

	seq := s.seq + 1
	if err := s.acl.grant(id, doc.Owner, collaborator, seq); err != nil {
		return err
	}
	s.index.addGrant(collaborator, id)
	s.emit(models.Event{
		Kind:       models.EventDocumentAccessGranted,
		DocumentID: id,
		Actor:      caller,
		Subject:    collaborator,
		OccurredAt: s.now(),
	})
	return nil
}

// RevokeDocumentAccess removes a collaborator from the document
func (s *Service) RevokeDocumentAccess(ctx context.Context, caller models.Principal, id uint64, collaborator models.Principal) error {
	caller, collaborator = caller.Normalize(), collaborator.Normalize()

	s.mu.Lock()
	err := s.revokeLocked(caller, id, collaborator)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "document access revoked",
		"id", id,
		"owner", caller,
		"collaborator", collaborator,
	)

	return nil
}

func (s *Service) revokeLocked(caller models.Principal, id uint64, collaborator models.Principal) error {
	doc, err := s.docs.get(id)
	if err != nil {
		return err
	}
	if caller != doc.Owner {
		return &domain.NotDocumentOwnerError{DocumentID: id, Caller: string(caller)}
	}

	if err := s.acl.revoke(id, collaborator); err != nil {
		return err
	}
	s.index.removeGrant(collaborator, id)
	s.emit(models.Event{
		Kind:       models.EventDocumentAccessRevoked,
		DocumentID: id,
		Actor:      caller,
		Subject:    collaborator,
		OccurredAt: s.now(),
	})
	return nil
}

// GetDocumentDetails returns a copy of the document
func (s *Service) GetDocumentDetails(ctx context.Context, id uint64) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.docs.get(id)
	if err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

// GetDocumentsFor lists the documents principal can see, joined with display fields
func (s *Service) GetDocumentsFor(ctx context.Context, principal models.Principal) ([]models.DocumentPreview, error) {
	principal = principal.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.index.listFor(principal)
	previews := make([]models.DocumentPreview, 0, len(entries))
	for _, entry := range entries {
		doc, err := s.docs.get(entry.ID)
		if err != nil {
			return nil, fmt.Errorf("reverse index references document %d: %w", entry.ID, err)
		}
		previews = append(previews, models.DocumentPreview{
			ID:        doc.ID,
			Name:      doc.Name,
			Owner:     doc.Owner,
			UpdatedAt: doc.UpdatedAt,
			CanEdit:   entry.CanEdit,
		})
	}
	return previews, nil
}

// GetCollaborators lists the document's collaborators in grant order
func (s *Service) GetCollaborators(ctx context.Context, id uint64) ([]models.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.docs.get(id); err != nil {
		return nil, err
	}
	return s.acl.listFor(id), nil
}

// HasAccess reports whether principal is the owner or a collaborator
func (s *Service) HasAccess(ctx context.Context, id uint64, principal models.Principal) (bool, error) {
	principal = principal.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.docs.get(id)
	if err != nil {
		return false, err
	}
	return s.acl.isAuthorized(id, principal, doc.Owner), nil
}

// TotalDocuments returns the number of created documents
func (s *Service) TotalDocuments(ctx context.Context) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.docs.count()
}

// now returns a timestamp that never goes backwards, even if the clock does
func (s *Service) now() time.Time {
	t := s.clock.Now()
	if t.Before(s.lastTime) {
		t = s.lastTime
	}
	s.lastTime = t
	return t
}

// emit assigns the next sequence number and hands the event to every recorder
func (s *Service) emit(event models.Event) {
	s.seq++
	event.Seq = s.seq
	for _, r := range s.recorders {
		r.Record(event)
	}
}

// validateCreateRequest validates a document creation request.
// A name failure is reported before a missing key.
func validateCreateRequest(req *services.CreateDocumentRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.RuneLength(1, config.MaxDocumentNameLength),
		),
		validation.Field(&req.EncryptedKey, validation.NotNil),
	)
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate create request: %w", err)
	}

	if nameErr, ok := fieldErrs["name"]; ok {
		var ruleErr validation.Error
		if !errors.As(nameErr, &ruleErr) {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if ruleErr.Code() == validation.ErrRequired.Code() {
			return &domain.NameRequiredError{}
		}
		return &domain.NameTooLongError{
			Length: utf8.RuneCountInString(req.Name),
			Max:    config.MaxDocumentNameLength,
		}
	}
	if _, ok := fieldErrs["encrypted_key"]; ok {
		return &domain.EncryptedKeyRequiredError{}
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}
