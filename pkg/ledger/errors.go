package ledger

import "errors"

var (
	ErrLedgerNotFound      = errors.New("usage ledger not found")
	ErrLedgerAlreadyExists = errors.New("usage ledger already exists")
	ErrCeilingExceeded     = errors.New("credit ceiling exceeded")
	ErrInvalidAmount       = errors.New("increment amount must be positive")
	ErrStoreFailure        = errors.New("ledger store operation failed")
)
