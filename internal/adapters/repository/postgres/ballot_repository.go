package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/quickpoll/quickpoll/internal/core/domain"
	"github.com/quickpoll/quickpoll/internal/core/ports"
)

type ballotLedger struct {
	db *sql.DB
}

func NewBallotLedger(db *sql.DB) ports.BallotLedger {
	return &ballotLedger{
		db: db,
	}
}

// RecordVote relies on the (poll_id, user_id) primary key: the insert is
// the guard, there is no check-then-insert window.
func (r *ballotLedger) RecordVote(ctx context.Context, ballot *domain.Ballot) error {
	query := `
		INSERT INTO ballots (poll_id, option_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (poll_id, user_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, ballot.PollID, ballot.OptionID, ballot.UserID, ballot.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}
	if inserted == 0 {
		return domain.ErrAlreadyVoted
	}
	return nil
}

func (r *ballotLedger) GetVote(ctx context.Context, pollID uuid.UUID, userID string) (*domain.Ballot, error) {
	query := `
		SELECT poll_id, option_id, user_id, created_at
		FROM ballots
		WHERE poll_id = $1 AND user_id = $2
	`
	var ballot domain.Ballot
	err := r.db.QueryRowContext(ctx, query, pollID, userID).Scan(
		&ballot.PollID, &ballot.OptionID, &ballot.UserID, &ballot.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return &ballot, nil
}

// ToggleLike deletes the like record if present, inserts it otherwise.
// The delete's row count decides the direction, so two racing toggles
// resolve to opposite outcomes rather than both liking.
func (r *ballotLedger) ToggleLike(ctx context.Context, pollID uuid.UUID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM likes WHERE poll_id = $1 AND user_id = $2`,
		pollID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	if deleted > 0 {
		return false, nil
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO likes (poll_id, user_id) VALUES ($1, $2) ON CONFLICT (poll_id, user_id) DO NOTHING`,
		pollID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert like: %w", err)
	}
	return true, nil
}

func (r *ballotLedger) CountVotes(ctx context.Context, pollID uuid.UUID) (map[uuid.UUID]int, error) {
	query := `
		SELECT option_id, COUNT(*)
		FROM ballots
		WHERE poll_id = $1
		GROUP BY option_id
	`
	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to count ballots: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var optionID uuid.UUID
		var n int
		if err := rows.Scan(&optionID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan ballot count: %w", err)
		}
		counts[optionID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ballot counts: %w", err)
	}
	return counts, nil
}
