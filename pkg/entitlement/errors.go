package entitlement

import "errors"

var (
	ErrUnknownFeature        = errors.New("unknown feature key")
	ErrInvalidCatalog        = errors.New("invalid tier catalog configuration")
	ErrFailedToLoadCatalog   = errors.New("failed to load tier catalog")
	ErrTierTooLow            = errors.New("plan tier too low for feature")
	ErrCreditsExhausted      = errors.New("monthly credits exhausted")
	ErrUnknownProduct        = errors.New("unknown billing product")
	ErrUnknownLedgerCategory = errors.New("unknown ledger category")
)
