package billing

import (
	"context"
	"sync"
)

// DedupStore records processed transaction IDs so additive events apply at
// most once across webhook redeliveries.
type DedupStore interface {
	// MarkProcessed records the transaction ID and reports whether this call
	// was the first to do so. A false return means the transaction was
	// already applied.
	MarkProcessed(ctx context.Context, transactionID string) (first bool, err error)
}

// MemoryDedupStore implements DedupStore in process memory. Suitable for
// tests and single-instance deployments.
type MemoryDedupStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryDedupStore creates an empty in-memory dedup store.
func NewMemoryDedupStore() *MemoryDedupStore {
	return &MemoryDedupStore{seen: make(map[string]struct{})}
}

func (s *MemoryDedupStore) MarkProcessed(ctx context.Context, transactionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[transactionID]; ok {
		return false, nil
	}
	s.seen[transactionID] = struct{}{}
	return true, nil
}
