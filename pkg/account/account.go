// Package account holds the account record and its persistence interface.
// Accounts are created at signup; the tier field is mutated only by plan
// change reconciliation.
package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrStoreFailure         = errors.New("account store operation failed")
)

// Account identifies one reseller.
type Account struct {
	ID        uuid.UUID
	Email     string
	Tier      entitlement.Tier
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store defines account persistence. Email doubles as the external account
// reference carried by payment events.
type Store interface {
	// Get retrieves an account by ID. Returns ErrAccountNotFound if missing.
	Get(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByEmail retrieves an account by its email address.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// Save creates or updates an account, keyed by ID.
	Save(ctx context.Context, acct *Account) error

	// UpdateTier overwrites the tier of an existing account.
	UpdateTier(ctx context.Context, id uuid.UUID, tier entitlement.Tier) error
}
