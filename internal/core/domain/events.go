package domain

import "github.com/google/uuid"

// Fanout event names, shared between the hub, the websocket endpoint
// and the reconciler.
const (
	EventPollCreated = "poll-created"
	EventPollVoted   = "poll-voted"
	EventPollLiked   = "poll-liked"
)

// Event is a broadcast envelope. Data carries the payload exactly as the
// publisher produced it; the fanout never rewrites it.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// VoteResult is both the synchronous reply to the voting client and the
// payload relayed to observers.
type VoteResult struct {
	PollID     uuid.UUID `json:"poll_id"`
	OptionID   uuid.UUID `json:"option_id"`
	Votes      int       `json:"votes"`
	TotalVotes int       `json:"total_votes"`
}

type LikeResult struct {
	PollID    uuid.UUID `json:"poll_id"`
	LikeCount int       `json:"like_count"`
	Liked     bool      `json:"liked"`
}

// VoteStatus answers "has this user voted here, and for what".
type VoteStatus struct {
	HasVoted bool       `json:"has_voted"`
	OptionID *uuid.UUID `json:"option_id,omitempty"`
}
