package entitlement_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

func TestCatalog_Lookups(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)

	t.Run("ranks form the canonical order", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, 0, catalog.RankOf(entitlement.TierFree))
		assert.Equal(t, 1, catalog.RankOf(entitlement.TierStarter))
		assert.Equal(t, 2, catalog.RankOf(entitlement.TierPro))
		assert.Equal(t, 3, catalog.RankOf(entitlement.TierBusiness))
	})

	t.Run("unknown tier resolves to lowest rank", func(t *testing.T) {
		t.Parallel()

		def := catalog.Definition(entitlement.Tier("scale"))
		assert.Equal(t, entitlement.TierFree, def.Tier)
		assert.Equal(t, 0, def.Rank)
	})

	t.Run("known product maps to its tier", func(t *testing.T) {
		t.Parallel()

		def, known := catalog.TierForProduct("pri_business_monthly")
		assert.True(t, known)
		assert.Equal(t, entitlement.TierBusiness, def.Tier)
		assert.Equal(t, int64(600), def.MonthlyCredits)
	})

	t.Run("unknown product resolves to the shared fallback", func(t *testing.T) {
		t.Parallel()

		def, known := catalog.TierForProduct("pri_mystery")
		assert.False(t, known)
		assert.Equal(t, entitlement.TierPro, def.Tier)
		assert.Equal(t, int64(50), def.MonthlyCredits)
	})

	t.Run("credit pack lookup", func(t *testing.T) {
		t.Parallel()

		n, ok := catalog.CreditPack("pri_credit_pack_200")
		assert.True(t, ok)
		assert.Equal(t, int64(200), n)

		_, ok = catalog.CreditPack("pri_mystery")
		assert.False(t, ok)
	})
}

func TestNewCatalog_Validation(t *testing.T) {
	t.Parallel()

	load := func(t *testing.T, mutate func(*entitlement.CatalogSpec)) error {
		t.Helper()
		spec := entitlement.DefaultCatalogSpec()
		mutate(&spec)
		_, err := entitlement.NewCatalog(context.Background(), entitlement.NewInMemSource(spec))
		return err
	}

	t.Run("duplicate ranks rejected", func(t *testing.T) {
		t.Parallel()

		err := load(t, func(spec *entitlement.CatalogSpec) {
			spec.Tiers[1].Rank = 0
		})
		assert.ErrorIs(t, err, entitlement.ErrInvalidCatalog)
	})

	t.Run("rank gaps rejected", func(t *testing.T) {
		t.Parallel()

		err := load(t, func(spec *entitlement.CatalogSpec) {
			spec.Tiers[3].Rank = 7
		})
		assert.ErrorIs(t, err, entitlement.ErrInvalidCatalog)
	})

	t.Run("feature referencing unknown tier rejected", func(t *testing.T) {
		t.Parallel()

		err := load(t, func(spec *entitlement.CatalogSpec) {
			spec.Features[entitlement.FeaturePriceCheck] = entitlement.FeatureConfig{
				MinTier: entitlement.Tier("scale"),
				Metered: true,
				Category: entitlement.CategoryPriceChecks,
			}
		})
		assert.ErrorIs(t, err, entitlement.ErrInvalidCatalog)
	})

	t.Run("metered feature with unknown category rejected", func(t *testing.T) {
		t.Parallel()

		err := load(t, func(spec *entitlement.CatalogSpec) {
			spec.Features[entitlement.FeaturePriceCheck] = entitlement.FeatureConfig{
				MinTier: entitlement.TierFree,
				Metered: true,
				Category: entitlement.Category("ai_tokens"),
			}
		})
		assert.ErrorIs(t, err, entitlement.ErrInvalidCatalog)
	})

	t.Run("undefined fallback tier rejected", func(t *testing.T) {
		t.Parallel()

		err := load(t, func(spec *entitlement.CatalogSpec) {
			spec.FallbackTier = entitlement.Tier("scale")
		})
		assert.ErrorIs(t, err, entitlement.ErrInvalidCatalog)
	})

	t.Run("failing source is wrapped", func(t *testing.T) {
		t.Parallel()

		_, err := entitlement.NewCatalog(context.Background(), entitlement.NewYAMLSource("testdata/missing.yaml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, entitlement.ErrFailedToLoadCatalog)
	})
}
