package billing

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// dedupRetention bounds the dedup keyspace. Providers stop redelivering
// webhooks long before this window closes.
const dedupRetention = 90 * 24 * time.Hour

// RedisDedupStore implements DedupStore on a single SETNX per transaction.
type RedisDedupStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisDedupStore creates a dedup store on the given Redis client.
// Panics if client is nil to fail fast during initialization.
func NewRedisDedupStore(client redis.UniversalClient) *RedisDedupStore {
	if client == nil {
		panic("billing: redis client is required")
	}
	return &RedisDedupStore{client: client, prefix: "billing:txn:"}
}

func (s *RedisDedupStore) MarkProcessed(ctx context.Context, transactionID string) (bool, error) {
	first, err := s.client.SetNX(ctx, s.prefix+transactionID, 1, dedupRetention).Result()
	if err != nil {
		return false, errors.Join(ErrDedupStoreFailure, err)
	}
	return first, nil
}
