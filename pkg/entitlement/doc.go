// Package entitlement implements the tier catalog, feature configuration, and
// the pure entitlement evaluator that gates every paid feature of the
// dashboard.
//
// The catalog is immutable after construction and safe to share without
// synchronization. Plans form a total order by rank (free < starter < pro <
// business); a feature is unlocked by every tier at or above its configured
// minimum, so entitlement is monotonic by construction.
//
// Credits are pooled: the usage ledger tracks one counter per consumption
// category, but exhaustion is always evaluated against the sum of all
// counters versus a single credit limit. Categories are accounting labels,
// not independent quotas.
//
// Evaluate is a pure decision function with no side effects. It is safe to
// call speculatively, e.g. to render disabled states in the dashboard,
// without touching the ledger.
package entitlement
