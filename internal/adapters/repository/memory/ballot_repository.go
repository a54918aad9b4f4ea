package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/quickpoll/quickpoll/internal/core/domain"
	"github.com/quickpoll/quickpoll/internal/core/ports"
)

type ledgerKey struct {
	pollID uuid.UUID
	userID string
}

type ballotLedger struct {
	mu      sync.Mutex
	ballots map[ledgerKey]*domain.Ballot
	likes   map[ledgerKey]struct{}
}

func NewBallotLedger() ports.BallotLedger {
	return &ballotLedger{
		ballots: make(map[ledgerKey]*domain.Ballot),
		likes:   make(map[ledgerKey]struct{}),
	}
}

func (r *ballotLedger) RecordVote(ctx context.Context, ballot *domain.Ballot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ledgerKey{pollID: ballot.PollID, userID: ballot.UserID}
	if _, exists := r.ballots[key]; exists {
		return domain.ErrAlreadyVoted
	}
	stored := *ballot
	r.ballots[key] = &stored
	return nil
}

func (r *ballotLedger) GetVote(ctx context.Context, pollID uuid.UUID, userID string) (*domain.Ballot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ballot, ok := r.ballots[ledgerKey{pollID: pollID, userID: userID}]
	if !ok {
		return nil, nil
	}
	out := *ballot
	return &out, nil
}

func (r *ballotLedger) ToggleLike(ctx context.Context, pollID uuid.UUID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ledgerKey{pollID: pollID, userID: userID}
	if _, liked := r.likes[key]; liked {
		delete(r.likes, key)
		return false, nil
	}
	r.likes[key] = struct{}{}
	return true, nil
}

func (r *ballotLedger) CountVotes(ctx context.Context, pollID uuid.UUID) (map[uuid.UUID]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[uuid.UUID]int)
	for key, ballot := range r.ballots {
		if key.pollID == pollID {
			counts[ballot.OptionID]++
		}
	}
	return counts, nil
}
