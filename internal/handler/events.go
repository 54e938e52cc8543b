package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	models "privydocs/internal/domain/models/registry"
	"privydocs/internal/httputil"
	"privydocs/internal/service/registry"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1024
)

// EventSource is the slice of the event hub the feed needs
type EventSource interface {
	Subscribe(principal models.Principal) *registry.Subscription
	Unsubscribe(sub *registry.Subscription)
}

// EventsHandler streams registry events to websocket clients
type EventsHandler struct {
	source   EventSource
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewEventsHandler creates an events handler. Handshakes are accepted from
// allowedOrigins ("*" allows any) or from clients that send no Origin.
func NewEventsHandler(source EventSource, allowedOrigins []string, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		source: source,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// Stream upgrades to a websocket and forwards the caller's visible events as JSON
// GET /api/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Warn("websocket upgrade failed",
			"principal", principal,
			"error", err,
		)
		return
	}

	sub := h.source.Subscribe(principal)
	defer h.source.Unsubscribe(sub)

	h.logger.Info("event feed connected", "principal", principal)

	done := make(chan struct{})
	go h.readPump(conn, principal, done)
	h.writePump(conn, sub, done)

	h.logger.Info("event feed disconnected", "principal", principal)
}

// readPump discards client messages and keeps the read deadline fresh.
// It closes done when the connection fails.
func (h *EventsHandler) readPump(conn *websocket.Conn, principal models.Principal, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMsgSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("event feed read error",
					"principal", principal,
					"error", err,
				)
			}
			return
		}
	}
}

func (h *EventsHandler) writePump(conn *websocket.Conn, sub *registry.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
