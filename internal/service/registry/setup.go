package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	registryRepo "privydocs/internal/domain/repositories/registry"
)

// Components groups the registry and the recorders feeding off it
type Components struct {
	Registry *Service
	Outbox   *Outbox
	Hub      *Hub // nil when built WithoutHub
}

type setupOptions struct {
	withHub bool
}

// SetupOption customizes Setup
type SetupOption func(*setupOptions)

// WithoutHub skips the live event hub, for processes that never serve the feed
func WithoutHub() SetupOption {
	return func(o *setupOptions) { o.withHub = false }
}

// Setup restores the registry from journal and wires the write-behind outbox
// and event hub as recorders. The caller runs Hub.Run and closes the Outbox.
func Setup(ctx context.Context, journal registryRepo.Journal, clock Clock, flushInterval time.Duration, logger *slog.Logger, opts ...SetupOption) (*Components, error) {
	options := setupOptions{withHub: true}
	for _, opt := range opts {
		opt(&options)
	}

	snapshot, err := journal.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}

	outbox := NewOutbox(journal, flushInterval, logger)
	recorders := []EventRecorder{outbox}

	var hub *Hub
	if options.withHub {
		hub = NewHub(nil, logger)
		recorders = append(recorders, hub)
	}

	svc := NewService(clock, logger, recorders...)
	if hub != nil {
		hub.SetAccessChecker(svc)
	}

	if err := svc.Restore(snapshot); err != nil {
		if closeErr := outbox.Close(ctx); closeErr != nil {
			return nil, errors.Join(err, fmt.Errorf("close outbox: %w", closeErr))
		}
		return nil, err
	}

	return &Components{
		Registry: svc,
		Outbox:   outbox,
		Hub:      hub,
	}, nil
}
