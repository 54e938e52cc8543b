package registry

import (
	"context"
	"log/slog"
	"sync"

	models "privydocs/internal/domain/models/registry"
)

const (
	hubBufferSize          = 256
	subscriptionBufferSize = 64
)

// accessChecker is the slice of the registry the hub needs for visibility
type accessChecker interface {
	HasAccess(ctx context.Context, id uint64, principal models.Principal) (bool, error)
}

// Subscription receives the registry events visible to one principal
type Subscription struct {
	Principal models.Principal
	C         chan models.Event
}

// Hub fans registry events out to live subscribers. Visibility is evaluated
// when an event is dispatched, so a collaborator stops receiving updates as
// soon as their grant is revoked (they still receive the revoke itself).
type Hub struct {
	access accessChecker
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}

	events chan models.Event
}

// NewHub creates a hub; call Run to start dispatching
func NewHub(access accessChecker, logger *slog.Logger) *Hub {
	return &Hub{
		access:      access,
		logger:      logger,
		subscribers: make(map[*Subscription]struct{}),
		events:      make(chan models.Event, hubBufferSize),
	}
}

// SetAccessChecker wires the registry after construction, since the registry
// itself is built with the hub as a recorder
func (h *Hub) SetAccessChecker(access accessChecker) {
	h.mu.Lock()
	h.access = access
	h.mu.Unlock()
}

// Record queues events for dispatch; events are dropped if the hub is saturated
func (h *Hub) Record(events ...models.Event) {
	for _, event := range events {
		select {
		case h.events <- event:
		default:
			h.logger.Warn("event hub saturated, dropping event",
				"seq", event.Seq,
				"kind", event.Kind,
				"document_id", event.DocumentID,
			)
		}
	}
}

// Run dispatches events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case event := <-h.events:
			h.dispatch(ctx, event)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Subscribe registers a principal for live events
func (h *Hub) Subscribe(principal models.Principal) *Subscription {
	sub := &Subscription{
		Principal: principal.Normalize(),
		C:         make(chan models.Event, subscriptionBufferSize),
	}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription and closes its channel
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.C)
	}
}

// Subscribers returns the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) dispatch(ctx context.Context, event models.Event) {
	// Ciphertext never leaves through the feed
	event.EncryptedKey = models.KeyHandle{}
	event.EncryptedBody = nil

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		if !h.visible(ctx, sub.Principal, event) {
			continue
		}
		select {
		case sub.C <- event:
		default:
			h.logger.Warn("subscriber too slow, dropping event",
				"principal", sub.Principal,
				"seq", event.Seq,
			)
		}
	}
}

func (h *Hub) visible(ctx context.Context, principal models.Principal, event models.Event) bool {
	if event.Subject == principal {
		return true
	}
	if h.access == nil {
		return false
	}
	ok, err := h.access.HasAccess(ctx, event.DocumentID, principal)
	if err != nil {
		h.logger.Error("visibility check failed",
			"document_id", event.DocumentID,
			"principal", principal,
			"error", err,
		)
		return false
	}
	return ok
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		delete(h.subscribers, sub)
		close(sub.C)
	}
}
