package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	models "privydocs/internal/domain/models/registry"
	"privydocs/internal/domain/services"
	"privydocs/internal/httputil"
	"privydocs/internal/service/registry"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withPrincipalFromQuery stands in for the auth middleware
func withPrincipalFromQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, httputil.WithPrincipal(r, models.Principal(r.URL.Query().Get("as"))))
	})
}

func dialFeed(t *testing.T, server *httptest.Server, principal models.Principal) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/events?as=" + string(principal)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event map[string]interface{}
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestEventsStream(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := registry.NewHub(nil, logger)
	svc := registry.NewService(nil, logger, hub)
	hub.SetAccessChecker(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events", NewEventsHandler(hub, []string{"*"}, logger).Stream)
	server := httptest.NewServer(withPrincipalFromQuery(mux))
	defer server.Close()

	ownerConn := dialFeed(t, server, alice)
	collaboratorConn := dialFeed(t, server, bob)

	// Subscriptions are registered after the handshake completes
	require.Eventually(t, func() bool {
		return hub.Subscribers() == 2
	}, 2*time.Second, 10*time.Millisecond)

	key := models.KeyHandle{0x01}
	_, err := svc.CreateDocument(ctx, alice, &services.CreateDocumentRequest{Name: "plan", EncryptedKey: &key})
	require.NoError(t, err)
	require.NoError(t, svc.GrantDocumentAccess(ctx, alice, 1, bob))
	_, err = svc.UpdateDocumentBody(ctx, bob, 1, models.Ciphertext{0xca, 0xfe})
	require.NoError(t, err)

	created := readEvent(t, ownerConn)
	assert.Equal(t, "DocumentCreated", created["kind"])
	assert.Equal(t, "plan", created["name"])
	assert.NotContains(t, created, "encrypted_key")

	assert.Equal(t, "DocumentAccessGranted", readEvent(t, ownerConn)["kind"])
	updated := readEvent(t, ownerConn)
	assert.Equal(t, "DocumentUpdated", updated["kind"])
	assert.Equal(t, string(bob), updated["actor"])
	assert.NotContains(t, updated, "encrypted_body")

	granted := readEvent(t, collaboratorConn)
	assert.Equal(t, "DocumentAccessGranted", granted["kind"])
	assert.Equal(t, string(bob), granted["subject"])
	assert.Equal(t, "DocumentUpdated", readEvent(t, collaboratorConn)["kind"])
}
