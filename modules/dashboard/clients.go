package dashboard

import (
	"context"

	"golang.org/x/text/language"
)

// ListingDraft is the seller's item as submitted to the AI features.
type ListingDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Brand       string   `json:"brand,omitempty"`
	CategoryID  string   `json:"category_id,omitempty"`
	Condition   string   `json:"condition,omitempty"`
	PhotoURLs   []string `json:"photo_urls,omitempty"`
}

// PriceCheckResult is the reconciled market price estimate for an item.
type PriceCheckResult struct {
	SuggestedPrice int64  `json:"suggested_price"` // cents
	Currency       string `json:"currency"`
	LowPrice       int64  `json:"low_price"`
	HighPrice      int64  `json:"high_price"`
	SampleSize     int    `json:"sample_size"`
}

// PriceChecker reconciles scraped marketplace data with reference prices.
type PriceChecker interface {
	Check(ctx context.Context, draft ListingDraft) (PriceCheckResult, error)
}

// OptimizedListing is the AI-rewritten listing copy.
type OptimizedListing struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags,omitempty"`
}

// ListingOptimizer rewrites listing copy for conversion.
type ListingOptimizer interface {
	Optimize(ctx context.Context, draft ListingDraft) (OptimizedListing, error)
}

// TranslatedListing is one localized rendition of a listing.
type TranslatedListing struct {
	Language    string `json:"language"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Translator localizes a listing into the target languages.
type Translator interface {
	Translate(ctx context.Context, draft ListingDraft, targets []language.Tag) ([]TranslatedListing, error)
}

// PhotoStudio produces processed listing images.
type PhotoStudio interface {
	// Enhance returns the processed image bytes and their content type.
	Enhance(ctx context.Context, imageURL string) (data []byte, contentType string, err error)
}

// WizardListing is the composed first-draft listing produced by the sell
// wizard: optimized copy plus a price estimate in one step.
type WizardListing struct {
	Listing OptimizedListing `json:"listing"`
	Price   PriceCheckResult `json:"price"`
}
