// Watch is a terminal client for the live poll feed. It seeds from the
// REST snapshot, subscribes over websocket and prints each poll as
// fanout events are reconciled into the local view.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/quickpoll/quickpoll/internal/adapters/handler/ws"
	"github.com/quickpoll/quickpoll/internal/core/domain"
	"github.com/quickpoll/quickpoll/internal/identity"
	"github.com/quickpoll/quickpoll/internal/reconcile"
)

func main() {
	server := flag.String("server", "localhost:8080", "quickpoll server host:port")
	pollID := flag.String("poll", "", "poll id to watch closely (optional)")
	flag.Parse()

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatal(err)
	}
	token, err := identity.LoadOrCreate(filepath.Join(home, ".quickpoll", "identity"))
	if err != nil {
		log.Fatal(err)
	}

	feed := reconcile.NewFeed()

	polls, err := fetchPolls(*server)
	if err != nil {
		log.Fatalf("failed to fetch polls: %v", err)
	}
	feed.Seed(polls)

	if *pollID != "" {
		id, err := uuid.Parse(*pollID)
		if err != nil {
			log.Fatalf("invalid poll id: %v", err)
		}
		status, err := fetchVoteStatus(*server, id, token)
		if err != nil {
			log.Fatalf("failed to check vote: %v", err)
		}
		feed.SetVoteStatus(id, status)
	}

	wsURL := url.URL{Scheme: "ws", Host: *server, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	if *pollID != "" {
		id, _ := uuid.Parse(*pollID)
		watch := map[string]any{"event": ws.SignalWatch, "poll_id": id}
		if err := conn.WriteJSON(watch); err != nil {
			log.Fatalf("failed to send watch signal: %v", err)
		}
	}

	render(feed)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("connection lost: %v", err)
		}
		if err := feed.ApplyFrame(frame); err != nil {
			log.Printf("skipping frame: %v", err)
			continue
		}
		render(feed)
	}
}

func fetchPolls(server string) ([]*domain.Poll, error) {
	resp, err := http.Get(fmt.Sprintf("http://%s/api/polls", server))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var polls []*domain.Poll
	if err := json.NewDecoder(resp.Body).Decode(&polls); err != nil {
		return nil, err
	}
	return polls, nil
}

func fetchVoteStatus(server string, pollID uuid.UUID, token string) (*domain.VoteStatus, error) {
	resp, err := http.Get(fmt.Sprintf("http://%s/api/polls/%s/votes/%s", server, pollID, token))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status domain.VoteStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

func render(feed *reconcile.Feed) {
	fmt.Print("\033[H\033[2J")
	for _, view := range feed.Views() {
		marker := " "
		if view.Liked {
			marker = "*"
		}
		fmt.Printf("%s %s  [%d votes, %d likes]\n", marker, view.Poll.Title, view.Poll.TotalVotes, view.Poll.LikeCount)
		for _, opt := range view.Poll.Options {
			voted := " "
			if view.VotedFor != nil && *view.VotedFor == opt.ID {
				voted = ">"
			}
			fmt.Printf("  %s %-30s %d\n", voted, opt.Text, opt.Votes)
		}
		fmt.Println()
	}
}
