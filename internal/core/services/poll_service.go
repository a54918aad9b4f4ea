package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quickpoll/quickpoll/internal/core/domain"
	"github.com/quickpoll/quickpoll/internal/core/ports"
)

type pollService struct {
	repo      ports.PollRepository
	publisher ports.Publisher
}

func NewPollService(repo ports.PollRepository, publisher ports.Publisher) ports.PollService {
	return &pollService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if len(input.Options) < 2 {
		return nil, fmt.Errorf("%w: at least two options are required", domain.ErrValidation)
	}

	pollID := uuid.New()
	now := time.Now()

	poll := &domain.Poll{
		ID:          pollID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		LikedBy:     []string{},
		CreatedAt:   now,
	}

	for _, optText := range input.Options {
		optText = strings.TrimSpace(optText)
		if optText == "" {
			continue
		}
		poll.Options = append(poll.Options, domain.Option{
			ID:     uuid.New(),
			PollID: pollID,
			Text:   optText,
		})
	}

	if len(poll.Options) < 2 {
		return nil, fmt.Errorf("%w: at least two non-empty options are required", domain.ErrValidation)
	}

	if err := s.repo.Save(ctx, poll); err != nil {
		return nil, err
	}

	s.publisher.Publish(domain.Event{Name: domain.EventPollCreated, Data: poll}, ports.Lobby)

	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id string) (*domain.Poll, error) {
	pollID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid poll id", domain.ErrValidation)
	}

	return s.repo.GetByID(ctx, pollID)
}

func (s *pollService) ListPolls(ctx context.Context) ([]*domain.Poll, error) {
	return s.repo.GetAll(ctx)
}
