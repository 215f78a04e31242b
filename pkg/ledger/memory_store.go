package ledger

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

type row struct {
	creditLimit       int64
	used              map[entitlement.Category]int64
	firstItemPassUsed bool
}

func (r *row) total() int64 {
	var total int64
	for _, n := range r.used {
		total += n
	}
	return total
}

// MemoryStore implements Store with a mutex-guarded map.
// Intended for tests and local development.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*row
}

// NewMemoryStore creates an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]*row)}
}

func (s *MemoryStore) Get(ctx context.Context, accountID uuid.UUID) (entitlement.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[accountID]
	if !ok {
		return entitlement.Ledger{}, ErrLedgerNotFound
	}

	return entitlement.Ledger{
		CreditLimit:       r.creditLimit,
		Used:              maps.Clone(r.used),
		FirstItemPassUsed: r.firstItemPassUsed,
	}, nil
}

func (s *MemoryStore) Create(ctx context.Context, accountID uuid.UUID, creditLimit int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[accountID]; ok {
		return ErrLedgerAlreadyExists
	}

	s.rows[accountID] = &row{
		creditLimit: creditLimit,
		used:        make(map[entitlement.Category]int64),
	}
	return nil
}

func (s *MemoryStore) IncrementUsage(ctx context.Context, accountID uuid.UUID, cat entitlement.Category, n int64) (int64, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[accountID]
	if !ok {
		return 0, ErrLedgerNotFound
	}

	r.used[cat] += n
	return r.total(), nil
}

func (s *MemoryStore) IncrementUsageWithCeiling(ctx context.Context, accountID uuid.UUID, cat entitlement.Category, n int64) (int64, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[accountID]
	if !ok {
		return 0, ErrLedgerNotFound
	}

	newTotal := r.total() + n
	if r.creditLimit < entitlement.UnlimitedThreshold && newTotal > r.creditLimit {
		return max(0, r.creditLimit-r.total()), ErrCeilingExceeded
	}

	r.used[cat] += n
	return max(0, r.creditLimit-newTotal), nil
}

func (s *MemoryStore) SetCreditLimit(ctx context.Context, accountID uuid.UUID, limit int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[accountID]
	if !ok {
		return ErrLedgerNotFound
	}

	r.creditLimit = limit
	return nil
}

func (s *MemoryStore) AddCredits(ctx context.Context, accountID uuid.UUID, n int64) error {
	if n <= 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[accountID]
	if !ok {
		return ErrLedgerNotFound
	}

	r.creditLimit += n
	return nil
}

func (s *MemoryStore) ResetUsage(ctx context.Context, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[accountID]
	if !ok {
		return ErrLedgerNotFound
	}

	r.used = make(map[entitlement.Category]int64)
	return nil
}

func (s *MemoryStore) MarkFirstItemPassUsed(ctx context.Context, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[accountID]
	if !ok {
		return ErrLedgerNotFound
	}

	r.firstItemPassUsed = true
	return nil
}
