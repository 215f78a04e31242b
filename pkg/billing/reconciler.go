package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sublimeanger/vintifi/pkg/account"
	"github.com/sublimeanger/vintifi/pkg/entitlement"
	"github.com/sublimeanger/vintifi/pkg/ledger"
)

// Notifier delivers plan change notices to the account owner. Delivery is
// fire-and-forget: a send failure never fails the event.
type Notifier interface {
	SendPlanChanged(ctx context.Context, acct account.Account, def entitlement.TierDefinition) error
}

// Reconciler applies normalized billing events to account and ledger state.
//
// The tier-setting events (activated, updated, cancelled) are idempotent by
// determinism: replaying one writes the same values again. The additive
// credit pack event is guarded by a transaction-id dedup record claimed
// before the grant.
type Reconciler struct {
	accounts account.Store
	ledgers  ledger.Store
	catalog  *entitlement.Catalog
	dedup    DedupStore
	notifier Notifier
	log      *slog.Logger
}

// ReconcilerOption configures optional reconciler collaborators.
type ReconcilerOption func(*Reconciler)

// WithNotifier enables plan change notices.
func WithNotifier(n Notifier) ReconcilerOption {
	return func(r *Reconciler) { r.notifier = n }
}

// WithLogger sets the reconciler's logger.
func WithLogger(log *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.log = log }
}

// NewReconciler creates a Reconciler. Panics if any required dependency is
// nil to fail fast during initialization.
func NewReconciler(accounts account.Store, ledgers ledger.Store, catalog *entitlement.Catalog, dedup DedupStore, opts ...ReconcilerOption) *Reconciler {
	if accounts == nil {
		panic("billing: account.Store is required")
	}
	if ledgers == nil {
		panic("billing: ledger.Store is required")
	}
	if catalog == nil {
		panic("billing: entitlement.Catalog is required")
	}
	if dedup == nil {
		panic("billing: DedupStore is required")
	}

	r := &Reconciler{
		accounts: accounts,
		ledgers:  ledgers,
		catalog:  catalog,
		dedup:    dedup,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply reconciles one event. An unmatched account reference is returned as
// ErrAccountUnmatched so the webhook ingress can signal redelivery; all
// state writes happen against the resolved account.
func (r *Reconciler) Apply(ctx context.Context, ev Event) error {
	acct, err := r.accounts.GetByEmail(ctx, ev.AccountRef)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			r.log.ErrorContext(ctx, "billing event references unknown account",
				"event_type", ev.Type, "account_ref", ev.AccountRef,
				"transaction_id", ev.TransactionID)
			return fmt.Errorf("%w: %s", ErrAccountUnmatched, ev.AccountRef)
		}
		return err
	}

	switch ev.Type {
	case EventSubscriptionActivated:
		return r.applySubscription(ctx, acct, ev, true)
	case EventSubscriptionUpdated:
		return r.applySubscription(ctx, acct, ev, false)
	case EventSubscriptionCancelled:
		return r.applyCancellation(ctx, acct)
	case EventCreditPackPurchased:
		return r.applyCreditPack(ctx, acct, ev)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, ev.Type)
	}
}

func (r *Reconciler) applySubscription(ctx context.Context, acct *account.Account, ev Event, resetCounters bool) error {
	def, known := r.catalog.TierForProduct(ev.ProductID)
	if !known {
		// A paying customer is never blocked on a catalog gap; the fallback
		// plan applies and the mismatch is surfaced for follow-up.
		r.log.ErrorContext(ctx, "subscription event references unknown product, applying fallback plan",
			"product_id", ev.ProductID, "account_id", acct.ID,
			"fallback_tier", def.Tier, "fallback_credits", def.MonthlyCredits)
	}

	if err := r.accounts.UpdateTier(ctx, acct.ID, def.Tier); err != nil {
		return err
	}
	if err := r.applyAllotment(ctx, acct.ID, def.MonthlyCredits, resetCounters); err != nil {
		return err
	}

	r.log.InfoContext(ctx, "subscription reconciled",
		"event_type", ev.Type, "account_id", acct.ID,
		"tier", def.Tier, "credit_limit", def.MonthlyCredits)
	r.notify(ctx, *acct, def)
	return nil
}

func (r *Reconciler) applyCancellation(ctx context.Context, acct *account.Account) error {
	def := r.catalog.LowestTier()

	if err := r.accounts.UpdateTier(ctx, acct.ID, def.Tier); err != nil {
		return err
	}
	if err := r.applyAllotment(ctx, acct.ID, def.MonthlyCredits, false); err != nil {
		return err
	}

	r.log.InfoContext(ctx, "subscription cancelled, account moved to lowest plan",
		"account_id", acct.ID, "tier", def.Tier)
	r.notify(ctx, *acct, def)
	return nil
}

func (r *Reconciler) applyCreditPack(ctx context.Context, acct *account.Account, ev Event) error {
	if ev.TransactionID == "" {
		return ErrMissingTransactionID
	}

	credits, ok := r.catalog.CreditPack(ev.ProductID)
	if !ok {
		// Unapplied and unclaimed: redelivery after a catalog fix succeeds.
		r.log.ErrorContext(ctx, "credit pack purchase references unknown product",
			"product_id", ev.ProductID, "account_id", acct.ID,
			"transaction_id", ev.TransactionID)
		return fmt.Errorf("%w: %q", ErrUnknownCreditPack, ev.ProductID)
	}

	first, err := r.dedup.MarkProcessed(ctx, ev.TransactionID)
	if err != nil {
		return err
	}
	if !first {
		r.log.InfoContext(ctx, "credit pack redelivery ignored",
			"transaction_id", ev.TransactionID, "account_id", acct.ID)
		return nil
	}

	if err := r.ledgers.AddCredits(ctx, acct.ID, credits); err != nil {
		return err
	}

	r.log.InfoContext(ctx, "credit pack applied",
		"account_id", acct.ID, "product_id", ev.ProductID,
		"credits", credits, "transaction_id", ev.TransactionID)
	return nil
}

// applyAllotment overwrites the credit limit, creating the ledger row when
// the account has none yet. A fresh row starts with zero counters, so the
// reset is only needed for existing rows.
func (r *Reconciler) applyAllotment(ctx context.Context, accountID uuid.UUID, credits int64, resetCounters bool) error {
	if err := r.ledgers.SetCreditLimit(ctx, accountID, credits); err != nil {
		if errors.Is(err, ledger.ErrLedgerNotFound) {
			return r.ledgers.Create(ctx, accountID, credits)
		}
		return err
	}
	if resetCounters {
		return r.ledgers.ResetUsage(ctx, accountID)
	}
	return nil
}

func (r *Reconciler) notify(ctx context.Context, acct account.Account, def entitlement.TierDefinition) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.SendPlanChanged(ctx, acct, def); err != nil {
		r.log.WarnContext(ctx, "plan change notice failed",
			"account_id", acct.ID, "tier", def.Tier, "error", err)
	}
}
