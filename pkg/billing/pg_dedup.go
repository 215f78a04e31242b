package billing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGDedupStore implements DedupStore on a billing_events table. The unique
// constraint on transaction_id makes the insert the atomic claim.
type PGDedupStore struct {
	pool *pgxpool.Pool
}

// NewPGDedupStore creates a dedup store on the given connection pool.
// Panics if pool is nil to fail fast during initialization.
func NewPGDedupStore(pool *pgxpool.Pool) *PGDedupStore {
	if pool == nil {
		panic("billing: pgx pool is required")
	}
	return &PGDedupStore{pool: pool}
}

func (s *PGDedupStore) MarkProcessed(ctx context.Context, transactionID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO billing_events (transaction_id)
		VALUES ($1)
		ON CONFLICT (transaction_id) DO NOTHING`, transactionID)
	if err != nil {
		return false, errors.Join(ErrDedupStoreFailure, err)
	}
	return tag.RowsAffected() > 0, nil
}
