package registry

import (
	"sort"

	models "privydocs/internal/domain/models/registry"
)

// visibility records why a principal can see a document
type visibility uint8

const (
	visibleOwned visibility = 1 << iota
	visibleGranted
)

type indexEntry struct {
	ID      uint64
	CanEdit bool
}

// reverseIndex maps a principal to the documents it owns or collaborates on.
// It is derived from the document table and the ACL and is mutated only
// together with them, under the registry lock.
type reverseIndex struct {
	byPrincipal map[models.Principal]map[uint64]visibility
}

func newReverseIndex() *reverseIndex {
	return &reverseIndex{byPrincipal: make(map[models.Principal]map[uint64]visibility)}
}

func (r *reverseIndex) addOwnership(principal models.Principal, id uint64) {
	r.set(principal, id, visibleOwned)
}

func (r *reverseIndex) addGrant(principal models.Principal, id uint64) {
	r.set(principal, id, visibleGranted)
}

func (r *reverseIndex) removeGrant(principal models.Principal, id uint64) {
	ids, ok := r.byPrincipal[principal]
	if !ok {
		return
	}
	reason := ids[id] &^ visibleGranted
	if reason == 0 {
		delete(ids, id)
	} else {
		ids[id] = reason
	}
	if len(ids) == 0 {
		delete(r.byPrincipal, principal)
	}
}

// listFor returns the visible documents ascending by id. Every visible
// document is editable: there is no view-only relation.
func (r *reverseIndex) listFor(principal models.Principal) []indexEntry {
	ids := r.byPrincipal[principal]
	out := make([]indexEntry, 0, len(ids))
	for id := range ids {
		out = append(out, indexEntry{ID: id, CanEdit: true})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *reverseIndex) set(principal models.Principal, id uint64, reason visibility) {
	ids, ok := r.byPrincipal[principal]
	if !ok {
		ids = make(map[uint64]visibility)
		r.byPrincipal[principal] = ids
	}
	ids[id] |= reason
}
