package entitlement

import (
	"context"
	"maps"
	"slices"
)

// inMemSource implements Source from an in-memory spec.
type inMemSource struct {
	spec CatalogSpec
}

// NewInMemSource returns a Source backed by a deep copy of the given spec.
func NewInMemSource(spec CatalogSpec) Source {
	return &inMemSource{spec: cloneSpec(spec)}
}

func (s *inMemSource) Load(ctx context.Context) (CatalogSpec, error) {
	return cloneSpec(s.spec), nil
}

func cloneSpec(spec CatalogSpec) CatalogSpec {
	return CatalogSpec{
		Tiers:           slices.Clone(spec.Tiers),
		Features:        maps.Clone(spec.Features),
		Products:        maps.Clone(spec.Products),
		CreditPacks:     maps.Clone(spec.CreditPacks),
		FallbackTier:    spec.FallbackTier,
		FallbackCredits: spec.FallbackCredits,
	}
}

// DefaultCatalogSpec returns the production catalog shipped with the service.
// Ranks: free(0) < starter(1) < pro(2) < business(3). Unknown subscription
// products fall back to pro with a conservative 50-credit allotment.
func DefaultCatalogSpec() CatalogSpec {
	return CatalogSpec{
		Tiers: []TierDefinition{
			{Tier: TierFree, Rank: 0, MonthlyCredits: 5},
			{Tier: TierStarter, Rank: 1, MonthlyCredits: 50, Price: Money{Amount: 999, Currency: "EUR"}},
			{Tier: TierPro, Rank: 2, MonthlyCredits: 200, Price: Money{Amount: 1999, Currency: "EUR"}},
			{Tier: TierBusiness, Rank: 3, MonthlyCredits: 600, Price: Money{Amount: 4999, Currency: "EUR"}},
		},
		Features: map[FeatureKey]FeatureConfig{
			FeaturePriceCheck:       {MinTier: TierFree, Metered: true, Category: CategoryPriceChecks, Label: "Price check"},
			FeatureTrendRadar:       {MinTier: TierStarter, Metered: false, Label: "Trend radar"},
			FeatureListingOptimize:  {MinTier: TierFree, Metered: true, Category: CategoryOptimizations, Label: "Listing optimisation"},
			FeatureBulkOptimize:     {MinTier: TierPro, Metered: true, Category: CategoryOptimizations, Label: "Bulk optimisation"},
			FeatureTranslateListing: {MinTier: TierStarter, Metered: true, Category: CategoryOptimizations, Label: "Listing translation"},
			FeaturePhotoEnhance:     {MinTier: TierStarter, Metered: true, Category: CategoryPhotoStudio, Label: "Photo enhancement"},
			FeatureBackgroundRemove: {MinTier: TierStarter, Metered: true, Category: CategoryPhotoStudio, Label: "Background removal"},
			FeatureSellWizard:       {MinTier: TierFree, Metered: true, Category: CategoryOptimizations, Label: "Sell wizard"},
			FeatureCrossPost:        {MinTier: TierBusiness, Metered: false, Label: "Cross-platform publishing"},
			FeatureCSVExport:        {MinTier: TierPro, Metered: false, Label: "CSV export"},
		},
		Products: map[string]Tier{
			"pri_starter_monthly":  TierStarter,
			"pri_pro_monthly":      TierPro,
			"pri_business_monthly": TierBusiness,
		},
		CreditPacks: map[string]int64{
			"pri_credit_pack_50":  50,
			"pri_credit_pack_200": 200,
		},
		FallbackTier:    TierPro,
		FallbackCredits: 50,
	}
}
