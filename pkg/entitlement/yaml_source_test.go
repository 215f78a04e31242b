package entitlement_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

const catalogYAML = `
tiers:
  - tier: free
    rank: 0
    monthly_credits: 5
  - tier: starter
    rank: 1
    monthly_credits: 50
    price: {amount: 999, currency: EUR}
  - tier: pro
    rank: 2
    monthly_credits: 200
    price: {amount: 1999, currency: EUR}
  - tier: business
    rank: 3
    monthly_credits: 600
    price: {amount: 4999, currency: EUR}
features:
  price_check:
    min_tier: free
    metered: true
    category: price_checks
    label: Price check
  cross_post:
    min_tier: business
    label: Cross-platform publishing
products:
  pri_pro_monthly: pro
credit_packs:
  pri_credit_pack_50: 50
fallback_tier: pro
fallback_credits: 50
`

func TestYAMLSource(t *testing.T) {
	t.Parallel()

	t.Run("loads a valid catalog file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "plans.yaml")
		require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

		catalog, err := entitlement.NewCatalog(context.Background(), entitlement.NewYAMLSource(path))
		require.NoError(t, err)

		assert.Equal(t, 3, catalog.RankOf(entitlement.TierBusiness))
		cfg, err := catalog.Feature(entitlement.FeaturePriceCheck)
		require.NoError(t, err)
		assert.True(t, cfg.Metered)
		assert.Equal(t, entitlement.CategoryPriceChecks, cfg.Category)

		def, known := catalog.TierForProduct("pri_unknown")
		assert.False(t, known)
		assert.Equal(t, entitlement.TierPro, def.Tier)
		assert.Equal(t, int64(50), def.MonthlyCredits)
	})

	t.Run("malformed yaml is wrapped", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "plans.yaml")
		require.NoError(t, os.WriteFile(path, []byte("tiers: {not: [valid"), 0o600))

		_, err := entitlement.NewYAMLSource(path).Load(context.Background())
		assert.ErrorIs(t, err, entitlement.ErrFailedToLoadCatalog)
	})
}
