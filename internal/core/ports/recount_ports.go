package ports

import (
	"context"

	"github.com/google/uuid"
)

// RecountService rebuilds cached poll counters from ledger counts.
type RecountService interface {
	Recount(ctx context.Context, pollID uuid.UUID) error
	RecountAll(ctx context.Context) error
}
