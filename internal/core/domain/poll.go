package domain

import (
	"time"

	"github.com/google/uuid"
)

type Poll struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Options     []Option  `json:"options"`
	LikeCount   int       `json:"like_count"`
	LikedBy     []string  `json:"liked_by"`
	TotalVotes  int       `json:"total_votes"`
	CreatedAt   time.Time `json:"created_at"`
}

type Option struct {
	ID     uuid.UUID `json:"id"`
	PollID uuid.UUID `json:"poll_id"`
	Text   string    `json:"text"`
	Votes  int       `json:"votes"`
}

// Option returns the embedded option with the given id, or nil.
func (p *Poll) Option(id uuid.UUID) *Option {
	for i := range p.Options {
		if p.Options[i].ID == id {
			return &p.Options[i]
		}
	}
	return nil
}

// LikedByUser reports membership in the poll's liker set.
func (p *Poll) LikedByUser(userID string) bool {
	for _, id := range p.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}
