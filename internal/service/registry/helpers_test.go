package registry

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	models "privydocs/internal/domain/models/registry"
	"privydocs/internal/domain/services"

	"github.com/stretchr/testify/require"
)

const (
	alice models.Principal = "0xa11ce00000000000000000000000000000000001"
	bob   models.Principal = "0xb0b0000000000000000000000000000000000002"
	carol models.Principal = "0xca20100000000000000000000000000000000003"
	dave  models.Principal = "0xda7e000000000000000000000000000000000004"
)

var testEpoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// stepClock advances by step on every reading
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock() *stepClock {
	return &stepClock{now: testEpoch, step: time.Second}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// eventLog is an EventRecorder that keeps everything it receives
type eventLog struct {
	mu     sync.Mutex
	events []models.Event
}

func (l *eventLog) Record(events ...models.Event) {
	l.mu.Lock()
	l.events = append(l.events, events...)
	l.mu.Unlock()
}

func (l *eventLog) all() []models.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *eventLog) kinds() []models.EventKind {
	var kinds []models.EventKind
	for _, e := range l.all() {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(recorders ...EventRecorder) *Service {
	return NewService(newStepClock(), discardLogger(), recorders...)
}

func keyHandle(b byte) models.KeyHandle {
	var k models.KeyHandle
	for i := range k {
		k[i] = b
	}
	return k
}

// upperCase spells an address with uppercase hex digits
func upperCase(p models.Principal) models.Principal {
	return models.Principal("0x" + strings.ToUpper(string(p)[2:]))
}

func keyRef(b byte) *models.KeyHandle {
	k := keyHandle(b)
	return &k
}

func mustCreate(t *testing.T, svc *Service, owner models.Principal, name string) *models.Document {
	t.Helper()
	doc, err := svc.CreateDocument(context.Background(), owner, &services.CreateDocumentRequest{
		Name:         name,
		EncryptedKey: keyRef(byte(len(name))),
	})
	require.NoError(t, err)
	return doc
}

func mustGrant(t *testing.T, svc *Service, owner models.Principal, id uint64, collaborator models.Principal) {
	t.Helper()
	require.NoError(t, svc.GrantDocumentAccess(context.Background(), owner, id, collaborator))
}

func previewIDs(previews []models.DocumentPreview) []uint64 {
	ids := make([]uint64, 0, len(previews))
	for _, p := range previews {
		ids = append(ids, p.ID)
	}
	return ids
}
