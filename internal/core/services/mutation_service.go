package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quickpoll/quickpoll/internal/core/domain"
	"github.com/quickpoll/quickpoll/internal/core/ports"
	"go.uber.org/zap"
)

type mutationService struct {
	pollRepo  ports.PollRepository
	ledger    ports.BallotLedger
	publisher ports.Publisher
	log       *zap.Logger
}

func NewMutationService(pollRepo ports.PollRepository, ledger ports.BallotLedger, publisher ports.Publisher, log *zap.Logger) ports.MutationService {
	return &mutationService{
		pollRepo:  pollRepo,
		ledger:    ledger,
		publisher: publisher,
		log:       log,
	}
}

// Vote records the ballot and bumps the poll's counters. The ledger insert
// is the duplicate-vote guard; ledger and counters are not one transaction,
// so the ledger stays authoritative and cmd/recount can rebuild counters
// from it.
func (s *mutationService) Vote(ctx context.Context, input ports.VoteInput) (*domain.VoteResult, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if input.PollID == uuid.Nil || input.OptionID == uuid.Nil {
		return nil, fmt.Errorf("%w: poll id and option id are required", domain.ErrValidation)
	}

	// Fast duplicate check so a repeat vote reports AlreadyVoted no matter
	// which option it names. The ledger insert below stays the real guard.
	if existing, err := s.ledger.GetVote(ctx, input.PollID, input.UserID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrAlreadyVoted
	}

	poll, err := s.pollRepo.GetByID(ctx, input.PollID)
	if err != nil {
		return nil, err
	}
	if poll.Option(input.OptionID) == nil {
		return nil, domain.ErrOptionNotFound
	}

	ballot := &domain.Ballot{
		PollID:    input.PollID,
		OptionID:  input.OptionID,
		UserID:    input.UserID,
		CreatedAt: time.Now(),
	}
	if err := s.ledger.RecordVote(ctx, ballot); err != nil {
		return nil, err
	}

	votes, totalVotes, err := s.pollRepo.AddVote(ctx, input.PollID, input.OptionID)
	if err != nil {
		// The ballot exists but the counter update failed; the visible
		// count undercounts until the next recount.
		s.log.Error("counter update failed after ballot insert",
			zap.String("poll_id", input.PollID.String()),
			zap.Error(err))
		return nil, err
	}

	result := &domain.VoteResult{
		PollID:     input.PollID,
		OptionID:   input.OptionID,
		Votes:      votes,
		TotalVotes: totalVotes,
	}

	s.publisher.Publish(
		domain.Event{Name: domain.EventPollVoted, Data: result},
		ports.PollRoom(input.PollID), ports.Lobby,
	)

	return result, nil
}

func (s *mutationService) ToggleLike(ctx context.Context, pollID uuid.UUID, userID string) (*domain.LikeResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	if _, err := s.pollRepo.GetByID(ctx, pollID); err != nil {
		return nil, err
	}

	liked, err := s.ledger.ToggleLike(ctx, pollID, userID)
	if err != nil {
		return nil, err
	}

	likeCount, err := s.pollRepo.ApplyLike(ctx, pollID, userID, liked)
	if err != nil {
		return nil, err
	}

	result := &domain.LikeResult{
		PollID:    pollID,
		LikeCount: likeCount,
		Liked:     liked,
	}

	s.publisher.Publish(
		domain.Event{Name: domain.EventPollLiked, Data: result},
		ports.PollRoom(pollID), ports.Lobby,
	)

	return result, nil
}

func (s *mutationService) CheckVote(ctx context.Context, pollID uuid.UUID, userID string) (*domain.VoteStatus, error) {
	ballot, err := s.ledger.GetVote(ctx, pollID, userID)
	if err != nil {
		return nil, err
	}
	if ballot == nil {
		return &domain.VoteStatus{HasVoted: false}, nil
	}
	optionID := ballot.OptionID
	return &domain.VoteStatus{HasVoted: true, OptionID: &optionID}, nil
}
