package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

// Store defines usage-ledger persistence. One row per account, keyed by
// account ID. Implementations must make the increment operations atomic;
// callers never compose them from separate reads and writes.
type Store interface {
	// Get returns a snapshot of the account's ledger.
	// Returns ErrLedgerNotFound if no row exists.
	Get(ctx context.Context, accountID uuid.UUID) (entitlement.Ledger, error)

	// Create inserts a fresh ledger row with zero counters and the given
	// credit limit. Returns ErrLedgerAlreadyExists if a row exists.
	Create(ctx context.Context, accountID uuid.UUID, creditLimit int64) error

	// IncrementUsage adds n to a category counter unconditionally and
	// returns the new pooled total. Used for unlimited accounts where the
	// ceiling does not apply.
	IncrementUsage(ctx context.Context, accountID uuid.UUID, cat entitlement.Category, n int64) (total int64, err error)

	// IncrementUsageWithCeiling adds n to a category counter only if the
	// resulting pooled total stays within the credit limit, or the account
	// is unlimited. Returns the pooled credits remaining after the debit,
	// or ErrCeilingExceeded without modifying the row.
	IncrementUsageWithCeiling(ctx context.Context, accountID uuid.UUID, cat entitlement.Category, n int64) (remaining int64, err error)

	// SetCreditLimit overwrites the credit limit. Used by plan changes:
	// a downgrade must reduce the limit even when consumption already
	// exceeds the new value.
	SetCreditLimit(ctx context.Context, accountID uuid.UUID, limit int64) error

	// AddCredits increases the credit limit additively (credit packs,
	// promotions, referrals) without touching counters.
	AddCredits(ctx context.Context, accountID uuid.UUID, n int64) error

	// ResetUsage zeroes all category counters for a new billing period.
	ResetUsage(ctx context.Context, accountID uuid.UUID) error

	// MarkFirstItemPassUsed sets the one-shot sell-wizard pass flag.
	MarkFirstItemPassUsed(ctx context.Context, accountID uuid.UUID) error
}
