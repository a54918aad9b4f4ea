package ports

import (
	"github.com/google/uuid"
	"github.com/quickpoll/quickpoll/internal/core/domain"
)

// Lobby is the feed every connection joins on connect; poll-scoped rooms
// are joined on an explicit watch signal.
const Lobby = "lobby"

func PollRoom(id uuid.UUID) string {
	return "poll-" + id.String()
}

// Publisher relays mutation outcomes to observers. Best effort: a failed
// or slow delivery never surfaces to the publishing caller.
type Publisher interface {
	// Publish delivers the event once to every connection subscribed to
	// any of the named rooms.
	Publish(event domain.Event, rooms ...string)
}

// NopPublisher satisfies Publisher for wiring that has no fanout, such
// as batch jobs and unit tests that do not assert on broadcasts.
type NopPublisher struct{}

func (NopPublisher) Publish(domain.Event, ...string) {}
