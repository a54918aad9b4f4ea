package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quickpoll/quickpoll/internal/adapters/handler/ws"
	"github.com/quickpoll/quickpoll/internal/adapters/repository/memory"
	"github.com/quickpoll/quickpoll/internal/core/domain"
	"github.com/quickpoll/quickpoll/internal/core/services"
	"github.com/quickpoll/quickpoll/internal/realtime"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := zap.NewNop()
	pollRepo := memory.NewPollRepository()
	ledger := memory.NewBallotLedger()
	hub := realtime.NewHub(log)

	handler := NewHandler(
		NewPollHandler(services.NewPollService(pollRepo, hub)),
		NewVoteHandler(services.NewMutationService(pollRepo, ledger, hub, log)),
		ws.NewHandler(hub, log),
	)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createPoll(t *testing.T, server *httptest.Server) domain.Poll {
	t.Helper()

	resp := postJSON(t, server.URL+"/api/polls", map[string]any{
		"title":   "Best fruit?",
		"options": []string{"Apple", "Banana"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[domain.Poll](t, resp)
}

func TestCreateAndGetPoll(t *testing.T) {
	server := newTestServer(t)
	poll := createPoll(t, server)

	assert.Equal(t, "Best fruit?", poll.Title)
	assert.Len(t, poll.Options, 2)

	resp, err := http.Get(server.URL + "/api/polls/" + poll.ID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[domain.Poll](t, resp)
	assert.Equal(t, poll.ID, got.ID)
}

func TestCreatePollRejectsSingleOption(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/polls", map[string]any{
		"title":   "Best fruit?",
		"options": []string{"Apple"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// The rejected poll must not appear in the listing.
	listResp, err := http.Get(server.URL + "/api/polls")
	require.NoError(t, err)
	polls := decode[[]domain.Poll](t, listResp)
	assert.Empty(t, polls)
}

func TestGetPollNotFound(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/polls/00000000-0000-0000-0000-000000000001")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/polls/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVoteFlow(t *testing.T) {
	server := newTestServer(t)
	poll := createPoll(t, server)
	voteURL := fmt.Sprintf("%s/api/polls/%s/votes", server.URL, poll.ID)

	resp := postJSON(t, voteURL, map[string]any{"option_id": poll.Options[0].ID, "user_id": "u1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	result := decode[domain.VoteResult](t, resp)
	assert.Equal(t, 1, result.Votes)
	assert.Equal(t, 1, result.TotalVotes)

	// Duplicate vote conflicts regardless of option.
	resp = postJSON(t, voteURL, map[string]any{"option_id": poll.Options[1].ID, "user_id": "u1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Unknown option.
	resp = postJSON(t, voteURL, map[string]any{"option_id": "00000000-0000-0000-0000-000000000001", "user_id": "u2"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Missing user id.
	resp = postJSON(t, voteURL, map[string]any{"option_id": poll.Options[0].ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestLikeFlow(t *testing.T) {
	server := newTestServer(t)
	poll := createPoll(t, server)
	likeURL := fmt.Sprintf("%s/api/polls/%s/likes", server.URL, poll.ID)

	resp := postJSON(t, likeURL, map[string]any{"user_id": "u1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[domain.LikeResult](t, resp)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.LikeCount)

	resp = postJSON(t, likeURL, map[string]any{"user_id": "u1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result = decode[domain.LikeResult](t, resp)
	assert.False(t, result.Liked)
	assert.Equal(t, 0, result.LikeCount)
}

func TestCheckVote(t *testing.T) {
	server := newTestServer(t)
	poll := createPoll(t, server)

	checkURL := fmt.Sprintf("%s/api/polls/%s/votes/u1", server.URL, poll.ID)

	resp, err := http.Get(checkURL)
	require.NoError(t, err)
	status := decode[domain.VoteStatus](t, resp)
	assert.False(t, status.HasVoted)

	voteURL := fmt.Sprintf("%s/api/polls/%s/votes", server.URL, poll.ID)
	voteResp := postJSON(t, voteURL, map[string]any{"option_id": poll.Options[0].ID, "user_id": "u1"})
	require.Equal(t, http.StatusCreated, voteResp.StatusCode)
	voteResp.Body.Close()

	resp, err = http.Get(checkURL)
	require.NoError(t, err)
	status = decode[domain.VoteStatus](t, resp)
	assert.True(t, status.HasVoted)
	require.NotNil(t, status.OptionID)
	assert.Equal(t, poll.Options[0].ID, *status.OptionID)
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
