package metering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
	"github.com/sublimeanger/vintifi/pkg/ledger"
)

// WorkFunc performs the external paid work of a metered operation.
// It must respect ctx: returning nil after the deadline does not get billed.
type WorkFunc func(ctx context.Context) error

// Meter executes the debit protocol for metered features.
type Meter struct {
	evaluator *entitlement.Evaluator
	store     ledger.Store
	log       *slog.Logger
}

// NewMeter creates a Meter. Panics if catalog or store is nil to fail fast
// during initialization. A nil logger falls back to slog.Default.
func NewMeter(catalog *entitlement.Catalog, store ledger.Store, log *slog.Logger) *Meter {
	if catalog == nil {
		panic("metering: Catalog is required")
	}
	if store == nil {
		panic("metering: ledger.Store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Meter{
		evaluator: entitlement.NewEvaluator(catalog),
		store:     store,
		log:       log,
	}
}

// Catalog exposes the tier catalog behind the meter.
func (m *Meter) Catalog() *entitlement.Catalog {
	return m.evaluator.Catalog()
}

// Preview evaluates a feature without performing or billing anything.
// Used to render disabled states and upgrade prompts.
func (m *Meter) Preview(ctx context.Context, accountID uuid.UUID, tier entitlement.Tier, key entitlement.FeatureKey) (entitlement.Decision, error) {
	led, err := m.store.Get(ctx, accountID)
	if err != nil {
		return entitlement.Decision{}, err
	}
	return m.evaluator.Evaluate(key, tier, led)
}

// Charge runs a metered operation end to end: evaluate, work, debit.
//
// units is the debit multiplier; operations whose cost scales with input
// (translation bills one credit per target language) pass it explicitly.
// For unmetered features the work still runs behind the tier gate but no
// debit occurs.
//
// On denial the work is never started and ErrEntitlementDenied is returned
// alongside the decision so the caller can render the reason. On work
// failure the error is returned unchanged and nothing is billed.
func (m *Meter) Charge(ctx context.Context, accountID uuid.UUID, tier entitlement.Tier, key entitlement.FeatureKey, units int64, work WorkFunc) (entitlement.Decision, error) {
	if units < 1 {
		return entitlement.Decision{}, ErrInvalidUnits
	}
	if work == nil {
		panic("metering: WorkFunc is required")
	}

	cfg, err := m.evaluator.Catalog().Feature(key)
	if err != nil {
		// Deployment/config mismatch: fatal to this request, logged loudly.
		m.log.ErrorContext(ctx, "metered operation invoked with unknown feature key",
			"feature", key, "account_id", accountID)
		return entitlement.Decision{}, err
	}

	led, err := m.store.Get(ctx, accountID)
	if err != nil {
		return entitlement.Decision{}, err
	}

	dec, err := m.evaluator.Evaluate(key, tier, led)
	if err != nil {
		return entitlement.Decision{}, err
	}
	if !dec.Allowed {
		return dec, fmt.Errorf("%w: %s", ErrEntitlementDenied, dec.Reason)
	}

	// A multi-unit request needs all its units up front; partial delivery
	// is not a thing the debit protocol supports.
	if cfg.Metered && !dec.Unlimited && dec.Remaining < units {
		dec.Allowed = false
		dec.Reason = "monthly credits are exhausted for the current billing period"
		return dec, fmt.Errorf("%w: %s", ErrEntitlementDenied, dec.Reason)
	}

	if err := work(ctx); err != nil {
		return dec, err
	}

	// Work reported success after the deadline already passed: the response
	// was not delivered to the caller in time, so it is not billed.
	if ctxErr := ctx.Err(); ctxErr != nil {
		m.log.WarnContext(ctx, "metered work finished after deadline, skipping debit",
			"feature", key, "account_id", accountID)
		return dec, errors.Join(ErrNotDelivered, ctxErr)
	}

	if !cfg.Metered {
		return dec, nil
	}

	remaining, err := m.store.IncrementUsageWithCeiling(ctx, accountID, cfg.Category, units)
	if err != nil {
		// The caller already received the delivered work; a failed debit is
		// an anomaly for manual reconciliation, never a request failure.
		m.log.ErrorContext(ctx, "usage debit failed after successful work",
			"feature", key, "account_id", accountID,
			"category", cfg.Category, "units", units, "error", err)
		return dec, nil
	}

	dec.Remaining = remaining
	return dec, nil
}
