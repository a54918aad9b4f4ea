package domain

import (
	"time"

	"github.com/google/uuid"
)

// Ballot records that a user voted on a poll. One per (poll, user);
// written once and never updated or deleted.
type Ballot struct {
	PollID    uuid.UUID `json:"poll_id"`
	OptionID  uuid.UUID `json:"option_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Like marks membership in a poll's liker set. Unlike a ballot it is
// deleted on unlike and re-created on re-like.
type Like struct {
	PollID    uuid.UUID `json:"poll_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
