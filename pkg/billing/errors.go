package billing

import "errors"

var (
	// ErrAccountUnmatched means the event's account reference resolved to no
	// known account. The event must be surfaced for manual reconciliation.
	ErrAccountUnmatched = errors.New("billing event matches no account")

	// ErrUnknownEventType rejects event kinds the reconciler does not handle.
	ErrUnknownEventType = errors.New("unknown billing event type")

	// ErrUnknownCreditPack means a credit pack purchase referenced a product
	// absent from the catalog. Nothing is granted or marked processed, so
	// redelivery after a catalog fix applies cleanly.
	ErrUnknownCreditPack = errors.New("unknown credit pack product")

	// ErrMissingTransactionID rejects additive events that cannot be
	// deduplicated.
	ErrMissingTransactionID = errors.New("credit pack event without transaction id")

	// ErrVerificationFailed means the webhook signature did not validate.
	ErrVerificationFailed = errors.New("webhook signature verification failed")

	// ErrUnsupportedEvent marks provider events outside the reconciled set.
	// Webhook handlers acknowledge these without applying anything.
	ErrUnsupportedEvent = errors.New("unsupported provider event")

	// ErrDedupStoreFailure wraps storage errors from the dedup record.
	ErrDedupStoreFailure = errors.New("dedup store operation failed")
)
