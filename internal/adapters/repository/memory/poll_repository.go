// Package memory provides mutex-guarded in-process implementations of the
// repository ports, used by unit tests and the server's demo mode.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/quickpoll/quickpoll/internal/core/domain"
	"github.com/quickpoll/quickpoll/internal/core/ports"
)

type pollRepository struct {
	mu    sync.Mutex
	polls map[uuid.UUID]*domain.Poll
}

func NewPollRepository() ports.PollRepository {
	return &pollRepository{
		polls: make(map[uuid.UUID]*domain.Poll),
	}
}

func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls[poll.ID] = clonePoll(poll)
	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll, ok := r.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return clonePoll(poll), nil
}

func (r *pollRepository) GetAll(ctx context.Context) ([]*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	polls := make([]*domain.Poll, 0, len(r.polls))
	for _, poll := range r.polls {
		polls = append(polls, clonePoll(poll))
	}
	sort.Slice(polls, func(i, j int) bool {
		return polls[i].CreatedAt.After(polls[j].CreatedAt)
	})
	return polls, nil
}

func (r *pollRepository) AddVote(ctx context.Context, pollID, optionID uuid.UUID) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	poll, ok := r.polls[pollID]
	if !ok {
		return 0, 0, domain.ErrPollNotFound
	}
	opt := poll.Option(optionID)
	if opt == nil {
		return 0, 0, domain.ErrOptionNotFound
	}

	opt.Votes++
	poll.TotalVotes++
	return opt.Votes, poll.TotalVotes, nil
}

func (r *pollRepository) ApplyLike(ctx context.Context, pollID uuid.UUID, userID string, liked bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	poll, ok := r.polls[pollID]
	if !ok {
		return 0, domain.ErrPollNotFound
	}

	if liked {
		poll.LikeCount++
		poll.LikedBy = append(poll.LikedBy, userID)
	} else {
		poll.LikeCount--
		for i, id := range poll.LikedBy {
			if id == userID {
				poll.LikedBy = append(poll.LikedBy[:i], poll.LikedBy[i+1:]...)
				break
			}
		}
	}
	return poll.LikeCount, nil
}

func (r *pollRepository) SetCounts(ctx context.Context, pollID uuid.UUID, perOption map[uuid.UUID]int, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	poll, ok := r.polls[pollID]
	if !ok {
		return domain.ErrPollNotFound
	}
	for i := range poll.Options {
		poll.Options[i].Votes = perOption[poll.Options[i].ID]
	}
	poll.TotalVotes = total
	return nil
}

func clonePoll(p *domain.Poll) *domain.Poll {
	out := *p
	out.Options = append([]domain.Option(nil), p.Options...)
	out.LikedBy = append([]string{}, p.LikedBy...)
	return &out
}
