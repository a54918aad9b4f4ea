// Package ws is the websocket transport for the realtime hub. Clients
// send watch/unwatch signals to join and leave poll rooms; everything
// the server pushes is a fanout frame produced by the hub.
package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/quickpoll/quickpoll/internal/core/ports"
	"github.com/quickpoll/quickpoll/internal/realtime"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames are small control signals only.
	maxMessageSize = 512

	SignalWatch   = "watch-poll"
	SignalUnwatch = "unwatch-poll"
)

// signal is the only inbound frame shape the server accepts. Mutation
// results are published server-side by the services, never relayed from
// clients.
type signal struct {
	Event  string    `json:"event"`
	PollID uuid.UUID `json:"poll_id"`
}

type Handler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHandler(hub *realtime.Hub, log *zap.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	session := h.hub.Register()
	h.log.Info("client connected", zap.Int("sessions", h.hub.Count()))

	go h.writePump(conn, session)
	h.readPump(conn, session)
}

// readPump handles inbound signals until the connection drops, then
// unregisters the session, which removes it from every joined room.
func (h *Handler) readPump(conn *websocket.Conn, session *realtime.Session) {
	defer func() {
		h.hub.Unregister(session)
		conn.Close()
		h.log.Info("client disconnected", zap.Int("sessions", h.hub.Count()))
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		var sig signal
		if err := json.Unmarshal(data, &sig); err != nil {
			h.log.Warn("ignoring malformed signal", zap.Error(err))
			continue
		}

		switch sig.Event {
		case SignalWatch:
			h.hub.Join(session, ports.PollRoom(sig.PollID))
		case SignalUnwatch:
			h.hub.Leave(session, ports.PollRoom(sig.PollID))
		default:
			h.log.Warn("ignoring unknown signal", zap.String("event", sig.Event))
		}
	}
}

// writePump drains the session's outbound frames and keeps the
// connection alive with pings. Exits when the hub closes the session.
func (h *Handler) writePump(conn *websocket.Conn, session *realtime.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-session.Out():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
