package entitlement

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// CatalogSpec is the raw catalog configuration as loaded from a Source.
type CatalogSpec struct {
	Tiers    []TierDefinition             `yaml:"tiers"`
	Features map[FeatureKey]FeatureConfig `yaml:"features"`

	// Products maps a payment-provider product ID to the tier it purchases.
	Products map[string]Tier `yaml:"products"`

	// CreditPacks maps a one-time purchase product ID to its credit count.
	CreditPacks map[string]int64 `yaml:"credit_packs"`

	// FallbackTier and FallbackCredits are applied when a subscription event
	// carries a product ID not present in Products. One shared fallback entry
	// replaces per-handler defaults so all call sites agree.
	FallbackTier    Tier  `yaml:"fallback_tier"`
	FallbackCredits int64 `yaml:"fallback_credits"`
}

// Source defines how the catalog configuration is loaded.
type Source interface {
	Load(ctx context.Context) (CatalogSpec, error)
}

// Catalog is the immutable tier catalog. Safe for concurrent use.
type Catalog struct {
	tiers       map[Tier]TierDefinition
	ranked      []TierDefinition // ascending by rank
	features    map[FeatureKey]FeatureConfig
	products    map[string]Tier
	creditPacks map[string]int64
	fallback    TierDefinition
}

// NewCatalog loads and validates the catalog from the given source.
// Panics if src is nil to fail fast during initialization.
func NewCatalog(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		panic("entitlement: catalog Source is required")
	}

	spec, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	c := &Catalog{
		tiers:       make(map[Tier]TierDefinition, len(spec.Tiers)),
		ranked:      slices.Clone(spec.Tiers),
		features:    maps.Clone(spec.Features),
		products:    maps.Clone(spec.Products),
		creditPacks: maps.Clone(spec.CreditPacks),
	}
	slices.SortFunc(c.ranked, func(a, b TierDefinition) int { return a.Rank - b.Rank })
	for _, def := range spec.Tiers {
		c.tiers[def.Tier] = def
	}

	c.fallback = c.tiers[spec.FallbackTier]
	if spec.FallbackCredits > 0 {
		c.fallback.MonthlyCredits = spec.FallbackCredits
	}

	return c, nil
}

// Definition returns the tier definition for a plan name. Unknown names
// resolve to the lowest-ranked tier: lookups fail closed, never error.
func (c *Catalog) Definition(t Tier) TierDefinition {
	if def, ok := c.tiers[t]; ok {
		return def
	}
	return c.ranked[0]
}

// RankOf returns the ordinal rank of a tier, fail-closed for unknown names.
func (c *Catalog) RankOf(t Tier) int {
	return c.Definition(t).Rank
}

// LowestTier returns the lowest-ranked plan, used on cancellation.
func (c *Catalog) LowestTier() TierDefinition {
	return c.ranked[0]
}

// Feature returns the config for a feature key. An unknown key is a
// deployment/config mismatch, reported as ErrUnknownFeature.
func (c *Catalog) Feature(key FeatureKey) (FeatureConfig, error) {
	cfg, ok := c.features[key]
	if !ok {
		return FeatureConfig{}, fmt.Errorf("%w: %q", ErrUnknownFeature, key)
	}
	return cfg, nil
}

// FeatureKeys returns all configured feature keys in a stable order.
func (c *Catalog) FeatureKeys() []FeatureKey {
	keys := slices.Collect(maps.Keys(c.features))
	slices.Sort(keys)
	return keys
}

// TierForProduct resolves a subscription product ID to its tier definition.
// Unknown products resolve to the shared fallback entry; the second return
// value reports whether the product was recognized so callers can log it.
func (c *Catalog) TierForProduct(productID string) (TierDefinition, bool) {
	if t, ok := c.products[productID]; ok {
		return c.Definition(t), true
	}
	return c.fallback, false
}

// CreditPack resolves a one-time purchase product ID to its credit count.
func (c *Catalog) CreditPack(productID string) (int64, bool) {
	n, ok := c.creditPacks[productID]
	return n, ok
}

func validateSpec(spec CatalogSpec) error {
	if len(spec.Tiers) == 0 {
		return errors.Join(ErrInvalidCatalog, errors.New("no tiers defined"))
	}

	// Ranks must form a total order starting at zero with no gaps, so
	// "at least tier X" comparisons are well defined.
	seen := make(map[int]Tier, len(spec.Tiers))
	names := make(map[Tier]struct{}, len(spec.Tiers))
	for _, def := range spec.Tiers {
		if def.Rank < 0 || def.Rank >= len(spec.Tiers) {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("tier %s has out-of-range rank %d", def.Tier, def.Rank))
		}
		if other, dup := seen[def.Rank]; dup {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("tiers %s and %s share rank %d", other, def.Tier, def.Rank))
		}
		if def.MonthlyCredits < 0 {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("tier %s has negative credit allotment", def.Tier))
		}
		seen[def.Rank] = def.Tier
		names[def.Tier] = struct{}{}
	}

	validCategories := make(map[Category]struct{})
	for _, cat := range Categories() {
		validCategories[cat] = struct{}{}
	}
	for key, cfg := range spec.Features {
		if _, ok := names[cfg.MinTier]; !ok {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("feature %s requires unknown tier %s", key, cfg.MinTier))
		}
		if cfg.Metered {
			if _, ok := validCategories[cfg.Category]; !ok {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("feature %s debits unknown category %s", key, cfg.Category))
			}
		}
	}

	for product, t := range spec.Products {
		if _, ok := names[t]; !ok {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("product %s maps to unknown tier %s", product, t))
		}
	}
	for product, n := range spec.CreditPacks {
		if n <= 0 {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("credit pack %s grants non-positive credits", product))
		}
	}

	if _, ok := names[spec.FallbackTier]; !ok {
		return errors.Join(ErrInvalidCatalog,
			fmt.Errorf("fallback tier %s is not defined", spec.FallbackTier))
	}

	return nil
}
