package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/quickpoll/quickpoll/internal/core/domain"
)

// BallotLedger holds the authoritative "who did what" records. Its
// uniqueness constraints, not the poll document's counters, are what
// prevent duplicate actions.
type BallotLedger interface {
	// RecordVote inserts the ballot. The insertion itself is the guard:
	// a duplicate (poll, user) pair fails with domain.ErrAlreadyVoted,
	// with no check-then-insert window.
	RecordVote(ctx context.Context, ballot *domain.Ballot) error

	// GetVote returns the user's ballot for the poll, or nil if none.
	GetVote(ctx context.Context, pollID uuid.UUID, userID string) (*domain.Ballot, error)

	// ToggleLike flips the like record for (poll, user): deletes it if
	// present, inserts it otherwise. Returns the resulting liked state.
	// Deliberately not idempotent.
	ToggleLike(ctx context.Context, pollID uuid.UUID, userID string) (liked bool, err error)

	// CountVotes tallies ballots per option for the poll. Used to
	// reconcile cached counters against ledger truth.
	CountVotes(ctx context.Context, pollID uuid.UUID) (map[uuid.UUID]int, error)
}

type VoteInput struct {
	PollID   uuid.UUID
	OptionID uuid.UUID
	UserID   string
}

// MutationService validates and applies vote and like mutations, and
// publishes the outcome to the fanout on success.
type MutationService interface {
	Vote(ctx context.Context, input VoteInput) (*domain.VoteResult, error)
	ToggleLike(ctx context.Context, pollID uuid.UUID, userID string) (*domain.LikeResult, error)
	CheckVote(ctx context.Context, pollID uuid.UUID, userID string) (*domain.VoteStatus, error)
}
