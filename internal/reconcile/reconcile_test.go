package reconcile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickpoll/quickpoll/internal/core/domain"
)

func makePoll(title string, options ...string) *domain.Poll {
	poll := &domain.Poll{
		ID:        uuid.New(),
		Title:     title,
		LikedBy:   []string{},
		CreatedAt: time.Now(),
	}
	for _, text := range options {
		poll.Options = append(poll.Options, domain.Option{
			ID:     uuid.New(),
			PollID: poll.ID,
			Text:   text,
		})
	}
	return poll
}

func TestSeedAndViews(t *testing.T) {
	feed := NewFeed()
	a := makePoll("a", "x", "y")
	b := makePoll("b", "x", "y")
	feed.Seed([]*domain.Poll{b, a})

	views := feed.Views()
	require.Len(t, views, 2)
	assert.Equal(t, b.ID, views[0].Poll.ID)
	assert.Equal(t, a.ID, views[1].Poll.ID)
}

func TestApplyVotedMergesFieldsOnly(t *testing.T) {
	feed := NewFeed()
	poll := makePoll("fruit", "apple", "banana")
	poll.Description = "pick one"
	poll.LikeCount = 4
	feed.Seed([]*domain.Poll{poll})

	feed.ApplyVoted(&domain.VoteResult{
		PollID:     poll.ID,
		OptionID:   poll.Options[1].ID,
		Votes:      5,
		TotalVotes: 9,
	})

	view, ok := feed.Get(poll.ID)
	require.True(t, ok)
	assert.Equal(t, 5, view.Poll.Options[1].Votes)
	assert.Equal(t, 0, view.Poll.Options[0].Votes)
	assert.Equal(t, 9, view.Poll.TotalVotes)

	// Everything else stays as seeded.
	assert.Equal(t, "pick one", view.Poll.Description)
	assert.Equal(t, 4, view.Poll.LikeCount)
}

func TestApplyVotedUnknownPollIgnored(t *testing.T) {
	feed := NewFeed()
	poll := makePoll("fruit", "apple", "banana")
	feed.Seed([]*domain.Poll{poll})

	feed.ApplyVoted(&domain.VoteResult{PollID: uuid.New(), OptionID: uuid.New(), Votes: 1, TotalVotes: 1})
	feed.ApplyVoted(&domain.VoteResult{PollID: poll.ID, OptionID: uuid.New(), Votes: 1, TotalVotes: 1})

	view, _ := feed.Get(poll.ID)
	assert.Equal(t, 0, view.Poll.TotalVotes)
}

func TestApplyLikedReplacesLikeCountOnly(t *testing.T) {
	feed := NewFeed()
	poll := makePoll("fruit", "apple", "banana")
	poll.TotalVotes = 3
	feed.Seed([]*domain.Poll{poll})

	feed.ApplyLiked(&domain.LikeResult{PollID: poll.ID, LikeCount: 2, Liked: true})

	view, _ := feed.Get(poll.ID)
	assert.Equal(t, 2, view.Poll.LikeCount)
	assert.Equal(t, 3, view.Poll.TotalVotes)
	// The event carries no attribution for this user; own like state is
	// set only through SetLiked.
	assert.False(t, view.Liked)
}

func TestApplyCreatedDedupes(t *testing.T) {
	feed := NewFeed()
	existing := makePoll("old", "x", "y")
	feed.Seed([]*domain.Poll{existing})

	fresh := makePoll("new", "x", "y")
	feed.ApplyCreated(fresh)

	views := feed.Views()
	require.Len(t, views, 2)
	assert.Equal(t, fresh.ID, views[0].Poll.ID)

	// The creator's own echo must not duplicate the card.
	echo := *fresh
	echo.TotalVotes = 99
	feed.ApplyCreated(&echo)

	views = feed.Views()
	require.Len(t, views, 2)
	assert.Equal(t, 0, views[0].Poll.TotalVotes)
}

func TestApplyFrame(t *testing.T) {
	feed := NewFeed()
	poll := makePoll("fruit", "apple", "banana")
	feed.Seed([]*domain.Poll{poll})

	frame, err := json.Marshal(domain.Event{
		Name: domain.EventPollVoted,
		Data: &domain.VoteResult{
			PollID:     poll.ID,
			OptionID:   poll.Options[0].ID,
			Votes:      1,
			TotalVotes: 1,
		},
	})
	require.NoError(t, err)
	require.NoError(t, feed.ApplyFrame(frame))

	view, _ := feed.Get(poll.ID)
	assert.Equal(t, 1, view.Poll.Options[0].Votes)
	assert.Equal(t, 1, view.Poll.TotalVotes)

	// Unknown events are tolerated, garbage is not.
	assert.NoError(t, feed.ApplyFrame([]byte(`{"event":"poll-archived","data":{}}`)))
	assert.Error(t, feed.ApplyFrame([]byte(`not json`)))
}

func TestVoteStatusSurvivesReseed(t *testing.T) {
	feed := NewFeed()
	poll := makePoll("fruit", "apple", "banana")
	feed.Seed([]*domain.Poll{poll})

	optionID := poll.Options[0].ID
	feed.SetVoteStatus(poll.ID, &domain.VoteStatus{HasVoted: true, OptionID: &optionID})
	feed.SetLiked(poll.ID, true)

	feed.Seed([]*domain.Poll{poll})

	view, ok := feed.Get(poll.ID)
	require.True(t, ok)
	assert.True(t, view.HasVoted)
	require.NotNil(t, view.VotedFor)
	assert.Equal(t, optionID, *view.VotedFor)
	assert.True(t, view.Liked)
}
