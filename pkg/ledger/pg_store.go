package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

// categoryColumns whitelists the counter columns; category values never reach
// SQL as raw strings.
var categoryColumns = map[entitlement.Category]string{
	entitlement.CategoryPriceChecks:   "price_checks_used",
	entitlement.CategoryOptimizations: "optimizations_used",
	entitlement.CategoryPhotoStudio:   "photo_studio_used",
}

const pooledTotalExpr = "price_checks_used + optimizations_used + photo_studio_used"

// PGStore implements Store on a Postgres usage_ledgers table.
// The conditional increment is a single guarded UPDATE, so the ceiling check
// and the write are one atomic statement.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a ledger store on the given connection pool.
// Panics if pool is nil to fail fast during initialization.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	if pool == nil {
		panic("ledger: pgx pool is required")
	}
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, accountID uuid.UUID) (entitlement.Ledger, error) {
	var led entitlement.Ledger
	led.Used = make(map[entitlement.Category]int64, len(categoryColumns))

	var priceChecks, optimizations, photoStudio int64
	err := s.pool.QueryRow(ctx, `
		SELECT credit_limit, price_checks_used, optimizations_used, photo_studio_used, first_item_pass_used
		FROM usage_ledgers
		WHERE account_id = $1`, accountID,
	).Scan(&led.CreditLimit, &priceChecks, &optimizations, &photoStudio, &led.FirstItemPassUsed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entitlement.Ledger{}, ErrLedgerNotFound
		}
		return entitlement.Ledger{}, errors.Join(ErrStoreFailure, err)
	}

	led.Used[entitlement.CategoryPriceChecks] = priceChecks
	led.Used[entitlement.CategoryOptimizations] = optimizations
	led.Used[entitlement.CategoryPhotoStudio] = photoStudio
	return led, nil
}

func (s *PGStore) Create(ctx context.Context, accountID uuid.UUID, creditLimit int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO usage_ledgers (account_id, credit_limit)
		VALUES ($1, $2)`, accountID, creditLimit)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrLedgerAlreadyExists
		}
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *PGStore) IncrementUsage(ctx context.Context, accountID uuid.UUID, cat entitlement.Category, n int64) (int64, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}
	col, err := columnFor(cat)
	if err != nil {
		return 0, err
	}

	var total int64
	err = s.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE usage_ledgers
		SET %s = %s + $2, updated_at = now()
		WHERE account_id = $1
		RETURNING %s`, col, col, pooledTotalExpr),
		accountID, n,
	).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrLedgerNotFound
		}
		return 0, errors.Join(ErrStoreFailure, err)
	}
	return total, nil
}

func (s *PGStore) IncrementUsageWithCeiling(ctx context.Context, accountID uuid.UUID, cat entitlement.Category, n int64) (int64, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}
	col, err := columnFor(cat)
	if err != nil {
		return 0, err
	}

	var remaining int64
	err = s.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE usage_ledgers
		SET %s = %s + $2, updated_at = now()
		WHERE account_id = $1
		  AND (credit_limit >= $3 OR %s + $2 <= credit_limit)
		RETURNING GREATEST(0, credit_limit - (%s))`, col, col, pooledTotalExpr, pooledTotalExpr),
		accountID, n, entitlement.UnlimitedThreshold,
	).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, errors.Join(ErrStoreFailure, err)
	}

	// No row matched: either the account has no ledger or the ceiling held.
	led, getErr := s.Get(ctx, accountID)
	if getErr != nil {
		return 0, getErr
	}
	return led.Remaining(), ErrCeilingExceeded
}

func (s *PGStore) SetCreditLimit(ctx context.Context, accountID uuid.UUID, limit int64) error {
	return s.exec(ctx, `
		UPDATE usage_ledgers
		SET credit_limit = $2, updated_at = now()
		WHERE account_id = $1`, accountID, limit)
}

func (s *PGStore) AddCredits(ctx context.Context, accountID uuid.UUID, n int64) error {
	if n <= 0 {
		return ErrInvalidAmount
	}
	return s.exec(ctx, `
		UPDATE usage_ledgers
		SET credit_limit = credit_limit + $2, updated_at = now()
		WHERE account_id = $1`, accountID, n)
}

func (s *PGStore) ResetUsage(ctx context.Context, accountID uuid.UUID) error {
	return s.exec(ctx, `
		UPDATE usage_ledgers
		SET price_checks_used = 0, optimizations_used = 0, photo_studio_used = 0, updated_at = now()
		WHERE account_id = $1`, accountID)
}

func (s *PGStore) MarkFirstItemPassUsed(ctx context.Context, accountID uuid.UUID) error {
	return s.exec(ctx, `
		UPDATE usage_ledgers
		SET first_item_pass_used = true, updated_at = now()
		WHERE account_id = $1`, accountID)
}

func (s *PGStore) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLedgerNotFound
	}
	return nil
}

func columnFor(cat entitlement.Category) (string, error) {
	col, ok := categoryColumns[cat]
	if !ok {
		return "", fmt.Errorf("%w: %q", entitlement.ErrUnknownLedgerCategory, cat)
	}
	return col, nil
}
