// Package metering implements the credit debit protocol wrapped around every
// metered operation: read the ledger, evaluate entitlement, abort before the
// external paid work on denial, run the work, and debit on success only.
//
// Billing follows delivered value. Work that fails, or completes only after
// the request deadline, is never debited. A debit write that fails after the
// work already succeeded is logged as an anomaly and not surfaced to the
// caller; reconciliation of ledger drift is out of scope for request-time
// logic.
//
// The authoritative debit is the ledger store's atomic
// increment-with-ceiling, so recorded consumption can never exceed the
// credit limit even under concurrent requests from the same account. The
// pre-work evaluation is advisory: it exists to avoid wasted upstream spend,
// and bounds concurrent overspend of external work to the requests already
// in flight.
package metering
