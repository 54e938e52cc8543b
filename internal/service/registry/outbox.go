package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	models "privydocs/internal/domain/models/registry"
	registryRepo "privydocs/internal/domain/repositories/registry"
)

// Outbox queues registry events and delivers them to a Journal in sequence order
// from a background loop, keeping journal I/O out of the registry critical section.
// Failed deliveries stay queued and are retried on the next tick.
type Outbox struct {
	journal  registryRepo.Journal
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending []models.Event

	flushMu sync.Mutex
	kick    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewOutbox creates an Outbox and starts its flush loop
func NewOutbox(journal registryRepo.Journal, interval time.Duration, logger *slog.Logger) *Outbox {
	o := &Outbox{
		journal:  journal,
		interval: interval,
		logger:   logger,
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go o.flushLoop()
	return o
}

// Record queues events for delivery. It never blocks on the journal.
func (o *Outbox) Record(events ...models.Event) {
	o.mu.Lock()
	o.pending = append(o.pending, events...)
	o.mu.Unlock()

	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// Pending returns the number of events not yet persisted
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// Flush delivers every queued event. Events recorded while a flush is in
// progress are picked up by the next one.
func (o *Outbox) Flush(ctx context.Context) error {
	o.flushMu.Lock()
	defer o.flushMu.Unlock()

	o.mu.Lock()
	batch := make([]models.Event, len(o.pending))
	copy(batch, o.pending)
	o.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := o.journal.Append(ctx, batch); err != nil {
		return fmt.Errorf("append %d events: %w", len(batch), err)
	}

	o.mu.Lock()
	o.pending = o.pending[len(batch):]
	o.mu.Unlock()

	o.logger.Debug("journal flushed",
		"events", len(batch),
		"last_seq", batch[len(batch)-1].Seq,
	)

	return nil
}

// Close stops the flush loop and performs a final flush
func (o *Outbox) Close(ctx context.Context) error {
	o.once.Do(func() { close(o.stop) })
	<-o.done
	return o.Flush(ctx)
}

func (o *Outbox) flushLoop() {
	defer close(o.done)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-o.kick:
		case <-o.stop:
			return
		}

		if err := o.Flush(context.Background()); err != nil {
			o.logger.Error("journal flush failed",
				"error", err,
				"pending", o.Pending(),
			)
		}
	}
}
