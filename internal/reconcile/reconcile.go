// Package reconcile merges an initially fetched poll snapshot with live
// fanout events. Events patch individual fields; they never replace a
// whole poll, so state applied locally but not yet broadcast survives.
package reconcile

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/quickpoll/quickpoll/internal/core/domain"
)

// PollView is the per-poll-card view model: the poll plus the current
// user's own vote/like status. The status fields come from an explicit
// CheckVote query, never from fanout events.
type PollView struct {
	Poll     domain.Poll
	HasVoted bool
	VotedFor *uuid.UUID
	Liked    bool
}

// Feed holds every displayed poll, newest first, deduplicated by id.
type Feed struct {
	mu    sync.Mutex
	order []uuid.UUID
	polls map[uuid.UUID]*PollView
}

func NewFeed() *Feed {
	return &Feed{
		polls: make(map[uuid.UUID]*PollView),
	}
}

// Seed replaces the feed with a fetched snapshot, preserving any
// already-known per-user vote/like status.
func (f *Feed) Seed(polls []*domain.Poll) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order := make([]uuid.UUID, 0, len(polls))
	views := make(map[uuid.UUID]*PollView, len(polls))
	for _, p := range polls {
		view := &PollView{Poll: *p}
		if prev, ok := f.polls[p.ID]; ok {
			view.HasVoted = prev.HasVoted
			view.VotedFor = prev.VotedFor
			view.Liked = prev.Liked
		}
		order = append(order, p.ID)
		views[p.ID] = view
	}
	f.order = order
	f.polls = views
}

// ApplyFrame dispatches one raw fanout frame.
func (f *Feed) ApplyFrame(frame []byte) error {
	var envelope struct {
		Name string          `json:"event"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return fmt.Errorf("malformed fanout frame: %w", err)
	}

	switch envelope.Name {
	case domain.EventPollCreated:
		var poll domain.Poll
		if err := json.Unmarshal(envelope.Data, &poll); err != nil {
			return fmt.Errorf("malformed %s payload: %w", envelope.Name, err)
		}
		f.ApplyCreated(&poll)
	case domain.EventPollVoted:
		var result domain.VoteResult
		if err := json.Unmarshal(envelope.Data, &result); err != nil {
			return fmt.Errorf("malformed %s payload: %w", envelope.Name, err)
		}
		f.ApplyVoted(&result)
	case domain.EventPollLiked:
		var result domain.LikeResult
		if err := json.Unmarshal(envelope.Data, &result); err != nil {
			return fmt.Errorf("malformed %s payload: %w", envelope.Name, err)
		}
		f.ApplyLiked(&result)
	default:
		// Unknown events are skipped, not errors; the feed tolerates
		// newer servers.
	}
	return nil
}

// ApplyCreated inserts the poll at the top of the feed. A poll already
// present is left untouched, which dedupes the creator's own echo.
func (f *Feed) ApplyCreated(poll *domain.Poll) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.polls[poll.ID]; exists {
		return
	}
	f.order = append([]uuid.UUID{poll.ID}, f.order...)
	f.polls[poll.ID] = &PollView{Poll: *poll}
}

// ApplyVoted replaces the matched option's vote count and the total.
// All other fields are untouched. Events for unknown polls or options
// are dropped.
func (f *Feed) ApplyVoted(result *domain.VoteResult) {
	f.mu.Lock()
	defer f.mu.Unlock()

	view, ok := f.polls[result.PollID]
	if !ok {
		return
	}
	opt := view.Poll.Option(result.OptionID)
	if opt == nil {
		return
	}
	opt.Votes = result.Votes
	view.Poll.TotalVotes = result.TotalVotes
}

// ApplyLiked replaces the like count only.
func (f *Feed) ApplyLiked(result *domain.LikeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()

	view, ok := f.polls[result.PollID]
	if !ok {
		return
	}
	view.Poll.LikeCount = result.LikeCount
}

// SetVoteStatus records the current user's own vote for a poll, as
// answered by the ledger query.
func (f *Feed) SetVoteStatus(pollID uuid.UUID, status *domain.VoteStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()

	view, ok := f.polls[pollID]
	if !ok {
		return
	}
	view.HasVoted = status.HasVoted
	view.VotedFor = status.OptionID
}

// SetLiked records the current user's own like state for a poll.
func (f *Feed) SetLiked(pollID uuid.UUID, liked bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if view, ok := f.polls[pollID]; ok {
		view.Liked = liked
	}
}

// Get returns a copy of one poll's view.
func (f *Feed) Get(pollID uuid.UUID) (PollView, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	view, ok := f.polls[pollID]
	if !ok {
		return PollView{}, false
	}
	return copyView(view), true
}

// Views returns copies of every poll view in feed order.
func (f *Feed) Views() []PollView {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]PollView, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, copyView(f.polls[id]))
	}
	return out
}

func copyView(v *PollView) PollView {
	out := *v
	out.Poll.Options = append([]domain.Option(nil), v.Poll.Options...)
	out.Poll.LikedBy = append([]string(nil), v.Poll.LikedBy...)
	return out
}
