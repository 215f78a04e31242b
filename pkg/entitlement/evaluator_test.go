package entitlement_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

func newTestCatalog(t *testing.T) *entitlement.Catalog {
	t.Helper()

	catalog, err := entitlement.NewCatalog(context.Background(),
		entitlement.NewInMemSource(entitlement.DefaultCatalogSpec()))
	require.NoError(t, err)
	return catalog
}

func freshLedger(limit int64) entitlement.Ledger {
	return entitlement.Ledger{
		CreditLimit: limit,
		Used:        map[entitlement.Category]int64{},
	}
}

func TestEvaluator_TierGating(t *testing.T) {
	t.Parallel()

	eval := entitlement.NewEvaluator(newTestCatalog(t))

	t.Run("tier below minimum is denied with named tiers", func(t *testing.T) {
		t.Parallel()

		dec, err := eval.Evaluate(entitlement.FeatureBulkOptimize, entitlement.TierStarter, freshLedger(50))
		require.NoError(t, err)
		assert.False(t, dec.Allowed)
		assert.Contains(t, dec.Reason, "pro")
		assert.Contains(t, dec.Reason, "starter")
	})

	t.Run("tier at minimum is allowed", func(t *testing.T) {
		t.Parallel()

		dec, err := eval.Evaluate(entitlement.FeatureBulkOptimize, entitlement.TierPro, freshLedger(200))
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
		assert.Empty(t, dec.Reason)
	})

	t.Run("unknown tier fails closed to lowest rank", func(t *testing.T) {
		t.Parallel()

		dec, err := eval.Evaluate(entitlement.FeatureTrendRadar, entitlement.Tier("scale"), freshLedger(5))
		require.NoError(t, err)
		assert.False(t, dec.Allowed)
	})

	t.Run("unknown feature key is a config error", func(t *testing.T) {
		t.Parallel()

		_, err := eval.Evaluate(entitlement.FeatureKey("time_travel"), entitlement.TierBusiness, freshLedger(600))
		assert.ErrorIs(t, err, entitlement.ErrUnknownFeature)
	})
}

// Monotonic entitlement: any feature allowed at a tier (ignoring credits)
// must be allowed at every higher tier.
func TestEvaluator_MonotonicEntitlement(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)
	eval := entitlement.NewEvaluator(catalog)

	tiers := []entitlement.Tier{
		entitlement.TierFree,
		entitlement.TierStarter,
		entitlement.TierPro,
		entitlement.TierBusiness,
	}
	led := freshLedger(entitlement.UnlimitedThreshold) // ignore credits

	for _, key := range catalog.FeatureKeys() {
		for i, lower := range tiers {
			lowerDec, err := eval.Evaluate(key, lower, led)
			require.NoError(t, err)
			if !lowerDec.Allowed {
				continue
			}
			for _, higher := range tiers[i+1:] {
				higherDec, err := eval.Evaluate(key, higher, led)
				require.NoError(t, err)
				assert.True(t, higherDec.Allowed,
					"feature %s allowed on %s but denied on %s", key, lower, higher)
			}
		}
	}
}

func TestEvaluator_CreditChecks(t *testing.T) {
	t.Parallel()

	eval := entitlement.NewEvaluator(newTestCatalog(t))

	t.Run("exhaustion boundary at exactly the limit", func(t *testing.T) {
		t.Parallel()

		const limit = 5
		led := freshLedger(limit)

		// Mix categories; exhaustion is pooled against one shared limit.
		for i := int64(0); i < limit; i++ {
			dec, err := eval.Evaluate(entitlement.FeaturePriceCheck, entitlement.TierPro, led)
			require.NoError(t, err)
			assert.True(t, dec.Allowed, "attempt %d of %d should pass", i+1, limit)

			if i%2 == 0 {
				led.Used[entitlement.CategoryPriceChecks]++
			} else {
				led.Used[entitlement.CategoryOptimizations]++
			}
		}

		dec, err := eval.Evaluate(entitlement.FeaturePriceCheck, entitlement.TierPro, led)
		require.NoError(t, err)
		assert.False(t, dec.Allowed)
		assert.Contains(t, dec.Reason, "credits")
		assert.Zero(t, dec.Remaining)
	})

	t.Run("unlimited accounts always pass regardless of usage", func(t *testing.T) {
		t.Parallel()

		led := freshLedger(entitlement.UnlimitedThreshold)
		led.Used[entitlement.CategoryOptimizations] = 5_000_000

		dec, err := eval.Evaluate(entitlement.FeatureListingOptimize, entitlement.TierPro, led)
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
		assert.True(t, dec.Unlimited)
	})

	t.Run("unmetered feature ignores exhausted credits", func(t *testing.T) {
		t.Parallel()

		led := freshLedger(5)
		led.Used[entitlement.CategoryPriceChecks] = 5

		dec, err := eval.Evaluate(entitlement.FeatureTrendRadar, entitlement.TierStarter, led)
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
	})

	t.Run("tier reason takes priority when both checks fail", func(t *testing.T) {
		t.Parallel()

		led := freshLedger(5)
		led.Used[entitlement.CategoryOptimizations] = 5

		dec, err := eval.Evaluate(entitlement.FeatureBulkOptimize, entitlement.TierFree, led)
		require.NoError(t, err)
		assert.False(t, dec.Allowed)
		assert.Contains(t, dec.Reason, "plan")
		assert.NotContains(t, dec.Reason, "exhausted")
	})

	t.Run("remaining clamps at zero after a downgrade", func(t *testing.T) {
		t.Parallel()

		led := freshLedger(5)
		led.Used[entitlement.CategoryOptimizations] = 50

		dec, err := eval.Evaluate(entitlement.FeatureTrendRadar, entitlement.TierStarter, led)
		require.NoError(t, err)
		assert.Equal(t, int64(0), dec.Remaining)
	})
}

func TestEvaluator_FirstItemPass(t *testing.T) {
	t.Parallel()

	eval := entitlement.NewEvaluator(newTestCatalog(t))

	t.Run("active for free tier with unused flag", func(t *testing.T) {
		t.Parallel()

		dec, err := eval.Evaluate(entitlement.FeatureSellWizard, entitlement.TierFree, freshLedger(5))
		require.NoError(t, err)
		assert.True(t, dec.FirstItemPassActive)
	})

	t.Run("inactive once the flag is set", func(t *testing.T) {
		t.Parallel()

		led := freshLedger(5)
		led.FirstItemPassUsed = true

		dec, err := eval.Evaluate(entitlement.FeatureSellWizard, entitlement.TierFree, led)
		require.NoError(t, err)
		assert.False(t, dec.FirstItemPassActive)
	})

	t.Run("inactive on paid tiers", func(t *testing.T) {
		t.Parallel()

		dec, err := eval.Evaluate(entitlement.FeatureSellWizard, entitlement.TierStarter, freshLedger(50))
		require.NoError(t, err)
		assert.False(t, dec.FirstItemPassActive)
	})

	t.Run("does not alter the allowed outcome", func(t *testing.T) {
		t.Parallel()

		led := freshLedger(5)
		led.Used[entitlement.CategoryOptimizations] = 5

		dec, err := eval.Evaluate(entitlement.FeatureSellWizard, entitlement.TierFree, led)
		require.NoError(t, err)
		assert.True(t, dec.FirstItemPassActive)
		assert.False(t, dec.Allowed, "pass signal is informational, caller decides the bypass")
	})
}
