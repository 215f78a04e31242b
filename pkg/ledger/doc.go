// Package ledger persists per-account usage ledgers: pooled credit counters,
// the credit limit, and the one-shot first-item pass flag.
//
// The ledger row is the only shared mutable state in the entitlement
// subsystem. It is scoped per account, so cross-account contention does not
// exist; within one account, concurrent metered requests are serialized by
// the storage layer through IncrementUsageWithCeiling, a single atomic
// "increment only if the resulting total stays within the limit" operation.
// Separate read-then-write steps would allow two concurrent requests to both
// observe one remaining credit and overspend.
//
// Four backends implement Store: an in-memory store for tests and local
// development, a Redis store using a Lua script for the conditional
// increment, a Postgres store using a single guarded UPDATE, and a MongoDB
// store using an $expr-guarded $inc.
package ledger
