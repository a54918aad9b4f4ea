// Package realtime implements the broadcast fanout: an explicit
// connection registry partitioned into rooms, with a poll-scoped room per
// watched poll and a lobby feed every connection belongs to.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/quickpoll/quickpoll/internal/core/domain"
	"github.com/quickpoll/quickpoll/internal/core/ports"
	"go.uber.org/zap"
)

// sendBuffer bounds each session's outbound queue. A session that falls
// this far behind is dropped rather than blocking publishers.
const sendBuffer = 64

// Session is one subscriber connection. Out carries marshaled frames in
// publish order; the transport drains it until Close.
type Session struct {
	out   chan []byte
	rooms map[string]struct{}
}

// Out exposes the session's outbound frames to its transport.
func (s *Session) Out() <-chan []byte {
	return s.out
}

// Hub owns the connection registry. All access to sessions and rooms
// goes through its mutex; there is no ambient global state.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	rooms    map[string]map[*Session]struct{}
	log      *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[*Session]struct{}),
		rooms:    make(map[string]map[*Session]struct{}),
		log:      log,
	}
}

// Register creates a session and places it in the lobby feed.
func (h *Hub) Register() *Session {
	s := &Session{
		out:   make(chan []byte, sendBuffer),
		rooms: make(map[string]struct{}),
	}

	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.joinLocked(s, ports.Lobby)
	h.mu.Unlock()

	return s
}

// Unregister tears the session down, removing it from every room it
// joined and closing its outbound channel.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s]; !ok {
		return
	}
	delete(h.sessions, s)
	for room := range s.rooms {
		h.leaveLocked(s, room)
	}
	close(s.out)
}

// Join subscribes the session to a room.
func (h *Hub) Join(s *Session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s]; !ok {
		return
	}
	h.joinLocked(s, room)
}

// Leave unsubscribes the session from a room. Leaving the lobby is not
// supported; the lobby is implicit membership for the home feed.
func (h *Hub) Leave(s *Session, room string) {
	if room == ports.Lobby {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s, room)
}

// Publish marshals the event once and delivers the identical bytes to
// every session subscribed to any of the rooms, once per session even
// when it matches several rooms. Sessions whose buffers are full are
// skipped; delivery is best effort and never fails the caller.
func (h *Hub) Publish(event domain.Event, rooms ...string) {
	frame, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal fanout event", zap.String("event", event.Name), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := make(map[*Session]struct{})
	for _, room := range rooms {
		for s := range h.rooms[room] {
			if _, done := delivered[s]; done {
				continue
			}
			delivered[s] = struct{}{}
			select {
			case s.out <- frame:
			default:
				h.log.Warn("dropping fanout frame for slow subscriber", zap.String("event", event.Name))
			}
		}
	}
}

// Count reports the number of registered sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) joinLocked(s *Session, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Session]struct{})
		h.rooms[room] = members
	}
	members[s] = struct{}{}
	s.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(s *Session, room string) {
	delete(s.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}
