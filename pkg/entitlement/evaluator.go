package entitlement

import "fmt"

// Evaluator answers "may this account use this feature right now?".
// It is pure: no I/O, no mutation, safe to call speculatively.
type Evaluator struct {
	catalog *Catalog
}

// NewEvaluator creates an Evaluator backed by the given catalog.
// Panics if catalog is nil to fail fast during initialization.
func NewEvaluator(catalog *Catalog) *Evaluator {
	if catalog == nil {
		panic("entitlement: Catalog is required")
	}
	return &Evaluator{catalog: catalog}
}

// Catalog returns the catalog the evaluator reads from.
func (e *Evaluator) Catalog() *Catalog {
	return e.catalog
}

// Evaluate computes the entitlement decision for a feature given the
// account's tier and a ledger snapshot. An unknown feature key indicates a
// deployment/config mismatch and is returned as an error, never silently
// allowed.
//
// The tier check compares ordinal ranks. The credit check applies only to
// metered features, is skipped entirely for unlimited accounts, and is
// evaluated against the pooled total across all categories. When both checks
// fail the tier reason takes priority.
func (e *Evaluator) Evaluate(key FeatureKey, tier Tier, led Ledger) (Decision, error) {
	cfg, err := e.catalog.Feature(key)
	if err != nil {
		return Decision{}, err
	}

	dec := Decision{
		Remaining: led.Remaining(),
		Unlimited: led.Unlimited(),
	}

	tierOK := e.catalog.RankOf(tier) >= e.catalog.RankOf(cfg.MinTier)
	creditsOK := !cfg.Metered || led.Unlimited() || led.Remaining() > 0

	dec.Allowed = tierOK && creditsOK
	switch {
	case !tierOK:
		dec.Reason = fmt.Sprintf("%s requires the %s plan or higher; your current plan is %s",
			cfg.Label, cfg.MinTier, tier)
	case !creditsOK:
		dec.Reason = "monthly credits are exhausted for the current billing period"
	}

	if key == FeatureSellWizard {
		dec.FirstItemPassActive = e.catalog.RankOf(tier) == e.catalog.LowestTier().Rank &&
			!led.FirstItemPassUsed
	}

	return dec, nil
}
