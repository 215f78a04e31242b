package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
	vledger "github.com/sublimeanger/vintifi/pkg/ledger"
)

func newRedisStore(t *testing.T) *vledger.RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return vledger.NewRedisStore(client)
}

func TestRedisStore_Roundtrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newRedisStore(t)
	id := uuid.New()

	_, err := store.Get(ctx, id)
	assert.ErrorIs(t, err, vledger.ErrLedgerNotFound)

	require.NoError(t, store.Create(ctx, id, 50))
	assert.ErrorIs(t, store.Create(ctx, id, 50), vledger.ErrLedgerAlreadyExists)

	total, err := store.IncrementUsage(ctx, id, entitlement.CategoryPriceChecks, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	remaining, err := store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryOptimizations, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(45), remaining)

	led, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(50), led.CreditLimit)
	assert.Equal(t, int64(5), led.TotalUsed())
	assert.Equal(t, int64(2), led.Used[entitlement.CategoryPriceChecks])
	assert.Equal(t, int64(3), led.Used[entitlement.CategoryOptimizations])
	assert.False(t, led.FirstItemPassUsed)

	require.NoError(t, store.MarkFirstItemPassUsed(ctx, id))
	led, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, led.FirstItemPassUsed)
}

func TestRedisStore_Ceiling(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("denies at the boundary without modifying counters", func(t *testing.T) {
		t.Parallel()

		store := newRedisStore(t)
		id := uuid.New()
		require.NoError(t, store.Create(ctx, id, 3))

		for range 3 {
			_, err := store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryPriceChecks, 1)
			require.NoError(t, err)
		}

		remaining, err := store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryPriceChecks, 1)
		assert.ErrorIs(t, err, vledger.ErrCeilingExceeded)
		assert.Equal(t, int64(0), remaining)

		led, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(3), led.TotalUsed())
	})

	t.Run("pooled across categories", func(t *testing.T) {
		t.Parallel()

		store := newRedisStore(t)
		id := uuid.New()
		require.NoError(t, store.Create(ctx, id, 4))

		_, err := store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryPriceChecks, 2)
		require.NoError(t, err)
		_, err = store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryPhotoStudio, 2)
		require.NoError(t, err)

		_, err = store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryOptimizations, 1)
		assert.ErrorIs(t, err, vledger.ErrCeilingExceeded)
	})

	t.Run("unlimited bypasses the ceiling", func(t *testing.T) {
		t.Parallel()

		store := newRedisStore(t)
		id := uuid.New()
		require.NoError(t, store.Create(ctx, id, entitlement.UnlimitedThreshold))

		_, err := store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryOptimizations, 2_000_000)
		require.NoError(t, err)
	})

	t.Run("missing ledger", func(t *testing.T) {
		t.Parallel()

		store := newRedisStore(t)
		_, err := store.IncrementUsageWithCeiling(ctx, uuid.New(), entitlement.CategoryPriceChecks, 1)
		assert.ErrorIs(t, err, vledger.ErrLedgerNotFound)
	})
}

func TestRedisStore_PlanChangeWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newRedisStore(t)
	id := uuid.New()
	require.NoError(t, store.Create(ctx, id, 600))

	_, err := store.IncrementUsage(ctx, id, entitlement.CategoryOptimizations, 50)
	require.NoError(t, err)

	require.NoError(t, store.SetCreditLimit(ctx, id, 5))
	led, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(5), led.CreditLimit)
	assert.Equal(t, int64(0), led.Remaining())

	require.NoError(t, store.AddCredits(ctx, id, 200))
	led, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(205), led.CreditLimit)

	require.NoError(t, store.ResetUsage(ctx, id))
	led, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, led.TotalUsed())
}

// The Lua script makes check-and-increment one atomic server-side operation.
func TestRedisStore_ConcurrentDebitSafety(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newRedisStore(t)
	id := uuid.New()
	require.NoError(t, store.Create(ctx, id, 1))

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryOptimizations, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes)

	led, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), led.TotalUsed())
}
