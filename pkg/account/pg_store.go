package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

// PGStore implements Store on a Postgres accounts table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates an account store on the given connection pool.
// Panics if pool is nil to fail fast during initialization.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	if pool == nil {
		panic("account: pgx pool is required")
	}
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.scanOne(s.pool.QueryRow(ctx, `
		SELECT id, email, tier, timezone, created_at, updated_at
		FROM accounts
		WHERE id = $1`, id))
}

func (s *PGStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return s.scanOne(s.pool.QueryRow(ctx, `
		SELECT id, email, tier, timezone, created_at, updated_at
		FROM accounts
		WHERE lower(email) = lower($1)`, email))
}

func (s *PGStore) Save(ctx context.Context, acct *Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, tier, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    tier = EXCLUDED.tier,
		    timezone = EXCLUDED.timezone,
		    updated_at = now()`,
		acct.ID, acct.Email, acct.Tier, acct.Timezone)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *PGStore) UpdateTier(ctx context.Context, id uuid.UUID, tier entitlement.Tier) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET tier = $2, updated_at = now()
		WHERE id = $1`, id, tier)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *PGStore) scanOne(row pgx.Row) (*Account, error) {
	var acct Account
	var tier string
	err := row.Scan(&acct.ID, &acct.Email, &tier, &acct.Timezone, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	acct.Tier = entitlement.Tier(tier)
	return &acct, nil
}
