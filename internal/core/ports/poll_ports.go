package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/quickpoll/quickpoll/internal/core/domain"
)

// PollRepository is the single source of truth for poll documents and
// their cached counters.
type PollRepository interface {
	Save(ctx context.Context, poll *domain.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	// GetAll returns every poll, newest first.
	GetAll(ctx context.Context) ([]*domain.Poll, error)

	// AddVote increments the option's vote count and the poll total by one
	// as atomic adds, never read-modify-write, and returns the new values.
	AddVote(ctx context.Context, pollID, optionID uuid.UUID) (votes, totalVotes int, err error)

	// ApplyLike adjusts the like counter and liker set to reflect the given
	// toggle outcome and returns the new like count.
	ApplyLike(ctx context.Context, pollID uuid.UUID, userID string, liked bool) (likeCount int, err error)

	// SetCounts overwrites the cached counters with ledger-derived truth.
	SetCounts(ctx context.Context, pollID uuid.UUID, perOption map[uuid.UUID]int, total int) error
}

type CreatePollInput struct {
	Title       string
	Description string
	Options     []string
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id string) (*domain.Poll, error)
	ListPolls(ctx context.Context) ([]*domain.Poll, error)
}
