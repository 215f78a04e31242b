package entitlement

// UnlimitedThreshold marks an account as unlimited. A credit limit at or
// above this value exempts the account from the remaining-credits check.
const UnlimitedThreshold int64 = 999999

// Ledger is a point-in-time snapshot of one account's usage row.
// Counters are monotonically non-decreasing within a billing period and are
// pooled against a single credit limit.
type Ledger struct {
	CreditLimit       int64
	Used              map[Category]int64
	FirstItemPassUsed bool
}

// TotalUsed returns the sum of all category counters.
func (l Ledger) TotalUsed() int64 {
	var total int64
	for _, n := range l.Used {
		total += n
	}
	return total
}

// Remaining returns the pooled credits left for the period. A downgrade can
// push consumption above the limit; remaining is clamped at zero rather than
// reported negative.
func (l Ledger) Remaining() int64 {
	return max(0, l.CreditLimit-l.TotalUsed())
}

// Unlimited reports whether the account is exempt from credit checks.
func (l Ledger) Unlimited() bool {
	return l.CreditLimit >= UnlimitedThreshold
}
