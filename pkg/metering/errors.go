package metering

import "errors"

var (
	// ErrEntitlementDenied wraps a denial decision; the decision's Reason
	// carries the user-facing explanation.
	ErrEntitlementDenied = errors.New("entitlement denied")

	// ErrInvalidUnits indicates a caller bug: debit units below one.
	ErrInvalidUnits = errors.New("debit units must be at least one")

	// ErrNotDelivered marks work that completed only after the request
	// deadline; the result was not delivered in time, so it is not billed.
	ErrNotDelivered = errors.New("work finished after deadline, not billed")
)

// Upstream failure kinds. Thin API clients classify provider responses into
// these so callers can choose retry-with-backoff versus hard-fail messaging.
// None of them ever leads to a debit.
var (
	ErrRateLimited      = errors.New("upstream rate limited")
	ErrQuotaExhausted   = errors.New("upstream quota exhausted")
	ErrUpstreamFailure  = errors.New("upstream request failed")
	ErrMalformedPayload = errors.New("upstream returned malformed payload")
)
