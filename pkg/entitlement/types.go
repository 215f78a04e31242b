package entitlement

// Tier is an ordinal-ranked plan name.
type Tier string

const (
	TierFree     Tier = "free"
	TierStarter  Tier = "starter"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

// Category labels a pool of consumed credits on the usage ledger.
// All categories share one credit limit; they exist for reporting only.
type Category string

const (
	CategoryPriceChecks   Category = "price_checks"
	CategoryOptimizations Category = "optimizations"
	CategoryPhotoStudio   Category = "photo_studio"
)

// Categories returns every ledger category in a stable order.
func Categories() []Category {
	return []Category{CategoryPriceChecks, CategoryOptimizations, CategoryPhotoStudio}
}

// FeatureKey identifies a gated dashboard capability.
type FeatureKey string

const (
	FeaturePriceCheck       FeatureKey = "price_check"
	FeatureTrendRadar       FeatureKey = "trend_radar"
	FeatureListingOptimize  FeatureKey = "listing_optimize"
	FeatureBulkOptimize     FeatureKey = "bulk_optimize"
	FeatureTranslateListing FeatureKey = "translate_listing"
	FeaturePhotoEnhance     FeatureKey = "photo_enhance"
	FeatureBackgroundRemove FeatureKey = "background_remove"
	FeatureSellWizard       FeatureKey = "sell_wizard"
	FeatureCrossPost        FeatureKey = "cross_post"
	FeatureCSVExport        FeatureKey = "csv_export"
)

// Money represents a monetary amount in the smallest currency unit.
type Money struct {
	Amount   int64  `yaml:"amount"`
	Currency string `yaml:"currency"`
}

// TierDefinition describes one plan in the catalog.
type TierDefinition struct {
	Tier           Tier  `yaml:"tier"`
	Rank           int   `yaml:"rank"`
	MonthlyCredits int64 `yaml:"monthly_credits"`
	Price          Money `yaml:"price"`
}

// FeatureConfig describes how a single feature is gated.
type FeatureConfig struct {
	MinTier  Tier     `yaml:"min_tier"`
	Metered  bool     `yaml:"metered"`
	Category Category `yaml:"category"`
	Label    string   `yaml:"label"`
}

// Decision is the outcome of an entitlement evaluation. It is derived state:
// never persisted, always recomputed from tier and ledger at decision time.
type Decision struct {
	Allowed   bool
	Reason    string // empty when allowed
	Remaining int64  // pooled credits remaining, max(0, limit-used)
	Unlimited bool

	// FirstItemPassActive signals that the free-tier one-shot sell-wizard
	// pass is still available. Informational only: it never changes Allowed,
	// the caller decides whether to bypass metering for that first use.
	FirstItemPassActive bool
}
