package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickpoll/quickpoll/internal/core/domain"
)

func vote(t *testing.T, app *testApp, poll domain.Poll, optionIdx int, userID string) (*domain.VoteResult, int) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"option_id": poll.Options[optionIdx].ID,
		"user_id":   userID,
	})
	require.NoError(t, err)

	resp, err := http.Post(
		fmt.Sprintf("%s/api/polls/%s/votes", app.Server.URL, poll.ID),
		"application/json", bytes.NewReader(payload),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, resp.StatusCode
	}
	var result domain.VoteResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return &result, resp.StatusCode
}

func toggleLike(t *testing.T, app *testApp, poll domain.Poll, userID string) *domain.LikeResult {
	t.Helper()

	payload, err := json.Marshal(map[string]any{"user_id": userID})
	require.NoError(t, err)

	resp, err := http.Post(
		fmt.Sprintf("%s/api/polls/%s/likes", app.Server.URL, poll.ID),
		"application/json", bytes.NewReader(payload),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result domain.LikeResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return &result
}

func TestVoteScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	poll := createPoll(t, app, "Best fruit?", "Apple", "Banana")

	result, status := vote(t, app, poll, 0, "u1")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 1, result.Votes)
	assert.Equal(t, 1, result.TotalVotes)

	_, status = vote(t, app, poll, 1, "u1")
	assert.Equal(t, http.StatusConflict, status)

	result, status = vote(t, app, poll, 1, "u2")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 1, result.Votes)
	assert.Equal(t, 2, result.TotalVotes)

	// Stored counters must match the ledger.
	var total, sum, ballots int
	require.NoError(t, app.DB.QueryRow("SELECT total_votes FROM polls WHERE id = $1", poll.ID).Scan(&total))
	require.NoError(t, app.DB.QueryRow("SELECT SUM(votes) FROM poll_options WHERE poll_id = $1", poll.ID).Scan(&sum))
	require.NoError(t, app.DB.QueryRow("SELECT COUNT(*) FROM ballots WHERE poll_id = $1", poll.ID).Scan(&ballots))
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, sum)
	assert.Equal(t, 2, ballots)
}

func TestCheckVote(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	poll := createPoll(t, app, "Best fruit?", "Apple", "Banana")
	checkURL := fmt.Sprintf("%s/api/polls/%s/votes/u1", app.Server.URL, poll.ID)

	resp, err := http.Get(checkURL)
	require.NoError(t, err)
	var before domain.VoteStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&before))
	resp.Body.Close()
	assert.False(t, before.HasVoted)

	_, status := vote(t, app, poll, 0, "u1")
	require.Equal(t, http.StatusCreated, status)

	resp, err = http.Get(checkURL)
	require.NoError(t, err)
	var after domain.VoteStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&after))
	resp.Body.Close()
	assert.True(t, after.HasVoted)
	require.NotNil(t, after.OptionID)
	assert.Equal(t, poll.Options[0].ID, *after.OptionID)
}

func TestLikeToggleScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	poll := createPoll(t, app, "Best fruit?", "Apple", "Banana")

	liked := toggleLike(t, app, poll, "u1")
	assert.True(t, liked.Liked)
	assert.Equal(t, 1, liked.LikeCount)

	unliked := toggleLike(t, app, poll, "u1")
	assert.False(t, unliked.Liked)
	assert.Equal(t, 0, unliked.LikeCount)

	var likeRows int
	require.NoError(t, app.DB.QueryRow("SELECT COUNT(*) FROM likes WHERE poll_id = $1", poll.ID).Scan(&likeRows))
	assert.Equal(t, 0, likeRows)
}
