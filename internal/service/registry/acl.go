package registry

import (
	"privydocs/internal/domain"
	models "privydocs/internal/domain/models/registry"
)

type grant struct {
	principal models.Principal
	position  uint64
}

// accessControlList holds the collaborators of each document in grant order.
// The owner is never stored here; ownership is checked separately.
type accessControlList struct {
	grants map[uint64][]grant
}

func newAccessControlList() *accessControlList {
	return &accessControlList{grants: make(map[uint64][]grant)}
}

// grant appends principal to the document's collaborators.
// Granting the owner is rejected as AlreadyAuthorized since the owner can always edit.
func (a *accessControlList) grant(id uint64, owner, principal models.Principal, position uint64) error {
	if principal.IsZero() {
		return &domain.InvalidCollaboratorError{Collaborator: string(principal)}
	}
	if principal == owner || a.contains(id, principal) {
		return &domain.AlreadyAuthorizedError{DocumentID: id, Collaborator: string(principal)}
	}
	a.grants[id] = append(a.grants[id], grant{principal: principal, position: position})
	return nil
}

// revoke removes principal, keeping the relative order of the remaining grants
func (a *accessControlList) revoke(id uint64, principal models.Principal) error {
	entries := a.grants[id]
	for i, g := range entries {
		if g.principal != principal {
			continue
		}
		remaining := append(entries[:i:i], entries[i+1:]...)
		if len(remaining) == 0 {
			delete(a.grants, id)
		} else {
			a.grants[id] = remaining
		}
		return nil
	}
	return &domain.CollaboratorNotFoundError{DocumentID: id, Collaborator: string(principal)}
}

func (a *accessControlList) contains(id uint64, principal models.Principal) bool {
	for _, g := range a.grants[id] {
		if g.principal == principal {
			return true
		}
	}
	return false
}

// listFor returns the surviving collaborators in insertion order
func (a *accessControlList) listFor(id uint64) []models.Principal {
	entries := a.grants[id]
	out := make([]models.Principal, 0, len(entries))
	for _, g := range entries {
		out = append(out, g.principal)
	}
	return out
}

func (a *accessControlList) isAuthorized(id uint64, principal, owner models.Principal) bool {
	return principal == owner || a.contains(id, principal)
}
