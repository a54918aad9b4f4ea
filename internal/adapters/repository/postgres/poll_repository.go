package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/quickpoll/quickpoll/internal/core/domain"
	"github.com/quickpoll/quickpoll/internal/core/ports"
)

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queryPoll := `
		INSERT INTO polls (id, title, description, like_count, total_votes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, queryPoll, poll.ID, poll.Title, poll.Description, poll.LikeCount, poll.TotalVotes, poll.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}

	queryOption := `
		INSERT INTO poll_options (id, poll_id, text, votes)
		VALUES ($1, $2, $3, $4)
	`
	stmt, err := tx.PrepareContext(ctx, queryOption)
	if err != nil {
		return fmt.Errorf("failed to prepare option statement: %w", err)
	}
	defer stmt.Close()

	for _, opt := range poll.Options {
		_, err = stmt.ExecContext(ctx, opt.ID, opt.PollID, opt.Text, opt.Votes)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	queryPoll := `
		SELECT id, title, description, like_count, total_votes, created_at
		FROM polls
		WHERE id = $1
	`

	var poll domain.Poll
	err := r.db.QueryRowContext(ctx, queryPoll, id).Scan(
		&poll.ID, &poll.Title, &poll.Description, &poll.LikeCount, &poll.TotalVotes, &poll.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	if err := r.fillPoll(ctx, &poll); err != nil {
		return nil, err
	}

	return &poll, nil
}

func (r *pollRepository) GetAll(ctx context.Context) ([]*domain.Poll, error) {
	query := `
		SELECT id, title, description, like_count, total_votes, created_at
		FROM polls
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all polls: %w", err)
	}
	defer rows.Close()

	var polls []*domain.Poll
	for rows.Next() {
		var poll domain.Poll
		if err := rows.Scan(&poll.ID, &poll.Title, &poll.Description, &poll.LikeCount, &poll.TotalVotes, &poll.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, &poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}

	for _, poll := range polls {
		if err := r.fillPoll(ctx, poll); err != nil {
			return nil, err
		}
	}

	return polls, nil
}

// AddVote bumps both counters with SQL-side adds so concurrent votes on
// the same option never lose updates to read-modify-write races.
func (r *pollRepository) AddVote(ctx context.Context, pollID, optionID uuid.UUID) (int, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var votes int
	queryOption := `
		UPDATE poll_options SET votes = votes + 1
		WHERE id = $1 AND poll_id = $2
		RETURNING votes
	`
	err = tx.QueryRowContext(ctx, queryOption, optionID, pollID).Scan(&votes)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, domain.ErrOptionNotFound
		}
		return 0, 0, fmt.Errorf("failed to increment option votes: %w", err)
	}

	var totalVotes int
	queryPoll := `
		UPDATE polls SET total_votes = total_votes + 1
		WHERE id = $1
		RETURNING total_votes
	`
	err = tx.QueryRowContext(ctx, queryPoll, pollID).Scan(&totalVotes)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, domain.ErrPollNotFound
		}
		return 0, 0, fmt.Errorf("failed to increment total votes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return votes, totalVotes, nil
}

func (r *pollRepository) ApplyLike(ctx context.Context, pollID uuid.UUID, userID string, liked bool) (int, error) {
	delta := -1
	if liked {
		delta = 1
	}

	// The likes table carries the liker set itself, so only the cached
	// counter needs adjusting here.
	var likeCount int
	query := `
		UPDATE polls SET like_count = like_count + $2
		WHERE id = $1
		RETURNING like_count
	`
	err := r.db.QueryRowContext(ctx, query, pollID, delta).Scan(&likeCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, domain.ErrPollNotFound
		}
		return 0, fmt.Errorf("failed to update like count: %w", err)
	}
	return likeCount, nil
}

func (r *pollRepository) SetCounts(ctx context.Context, pollID uuid.UUID, perOption map[uuid.UUID]int, total int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `UPDATE poll_options SET votes = 0 WHERE poll_id = $1`, pollID)
	if err != nil {
		return fmt.Errorf("failed to reset option votes: %w", err)
	}

	for optionID, votes := range perOption {
		_, err = tx.ExecContext(ctx,
			`UPDATE poll_options SET votes = $3 WHERE id = $2 AND poll_id = $1`,
			pollID, optionID, votes,
		)
		if err != nil {
			return fmt.Errorf("failed to set option votes: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `UPDATE polls SET total_votes = $2 WHERE id = $1`, pollID, total)
	if err != nil {
		return fmt.Errorf("failed to set total votes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *pollRepository) fillPoll(ctx context.Context, poll *domain.Poll) error {
	options, err := r.fetchOptions(ctx, poll.ID)
	if err != nil {
		return err
	}
	poll.Options = options

	likedBy, err := r.fetchLikedBy(ctx, poll.ID)
	if err != nil {
		return err
	}
	poll.LikedBy = likedBy

	return nil
}

func (r *pollRepository) fetchOptions(ctx context.Context, pollID uuid.UUID) ([]domain.Option, error) {
	queryOptions := `
		SELECT id, poll_id, text, votes
		FROM poll_options
		WHERE poll_id = $1
	`
	rows, err := r.db.QueryContext(ctx, queryOptions, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll options: %w", err)
	}
	defer rows.Close()

	var options []domain.Option
	for rows.Next() {
		var opt domain.Option
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Text, &opt.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", err)
	}
	return options, nil
}

func (r *pollRepository) fetchLikedBy(ctx context.Context, pollID uuid.UUID) ([]string, error) {
	query := `SELECT user_id FROM likes WHERE poll_id = $1`
	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get likers: %w", err)
	}
	defer rows.Close()

	likedBy := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan liker: %w", err)
		}
		likedBy = append(likedBy, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating likers: %w", err)
	}
	return likedBy, nil
}
