package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

// MemoryStore implements Store with a mutex-guarded map.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]Account
	byEmail map[string]uuid.UUID
}

// NewMemoryStore creates an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[uuid.UUID]Account),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &acct, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	acct := s.byID[id]
	return &acct, nil
}

func (s *MemoryStore) Save(ctx context.Context, acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *acct
	stored.UpdatedAt = time.Now().UTC()
	if _, exists := s.byID[acct.ID]; !exists {
		stored.CreatedAt = stored.UpdatedAt
	}

	s.byID[acct.ID] = stored
	s.byEmail[normalizeEmail(acct.Email)] = acct.ID
	return nil
}

func (s *MemoryStore) UpdateTier(ctx context.Context, id uuid.UUID, tier entitlement.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byID[id]
	if !ok {
		return ErrAccountNotFound
	}

	acct.Tier = tier
	acct.UpdatedAt = time.Now().UTC()
	s.byID[id] = acct
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
