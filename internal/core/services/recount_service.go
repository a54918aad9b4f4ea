package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/quickpoll/quickpoll/internal/core/ports"
)

type recountService struct {
	pollRepo ports.PollRepository
	ledger   ports.BallotLedger
}

// NewRecountService builds the job that rewrites cached poll counters
// from ledger counts. The ledger is the source of truth; counters only
// drift when a counter update fails after a ballot insert.
func NewRecountService(pollRepo ports.PollRepository, ledger ports.BallotLedger) ports.RecountService {
	return &recountService{
		pollRepo: pollRepo,
		ledger:   ledger,
	}
}

func (s *recountService) Recount(ctx context.Context, pollID uuid.UUID) error {
	perOption, err := s.ledger.CountVotes(ctx, pollID)
	if err != nil {
		return fmt.Errorf("failed to count ballots for poll %s: %w", pollID, err)
	}

	total := 0
	for _, n := range perOption {
		total += n
	}

	if err := s.pollRepo.SetCounts(ctx, pollID, perOption, total); err != nil {
		return fmt.Errorf("failed to set counts for poll %s: %w", pollID, err)
	}
	return nil
}

func (s *recountService) RecountAll(ctx context.Context) error {
	polls, err := s.pollRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch all polls: %w", err)
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(polls))

	for _, poll := range polls {
		wg.Add(1)
		go func(pID uuid.UUID) {
			defer wg.Done()
			if err := s.Recount(ctx, pID); err != nil {
				errChan <- err
			}
		}(poll.ID)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return err
		}
	}

	return nil
}
