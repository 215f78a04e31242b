package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublimeanger/vintifi/pkg/entitlement"
	"github.com/sublimeanger/vintifi/pkg/ledger"
)

func TestMemoryStore_Basics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("get missing ledger", func(t *testing.T) {
		t.Parallel()

		store := ledger.NewMemoryStore()
		_, err := store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, ledger.ErrLedgerNotFound)
	})

	t.Run("create is not repeatable", func(t *testing.T) {
		t.Parallel()

		store := ledger.NewMemoryStore()
		id := uuid.New()
		require.NoError(t, store.Create(ctx, id, 50))
		assert.ErrorIs(t, store.Create(ctx, id, 50), ledger.ErrLedgerAlreadyExists)
	})

	t.Run("increment updates pooled total", func(t *testing.T) {
		t.Parallel()

		store := ledger.NewMemoryStore()
		id := uuid.New()
		require.NoError(t, store.Create(ctx, id, 50))

		total, err := store.IncrementUsage(ctx, id, entitlement.CategoryPriceChecks, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		total, err = store.IncrementUsage(ctx, id, entitlement.CategoryPhotoStudio, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)

		led, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(45), led.Remaining())
	})

	t.Run("non-positive amounts rejected", func(t *testing.T) {
		t.Parallel()

		store := ledger.NewMemoryStore()
		id := uuid.New()
		require.NoError(t, store.Create(ctx, id, 50))

		_, err := store.IncrementUsage(ctx, id, entitlement.CategoryPriceChecks, 0)
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
		_, err = store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryPriceChecks, -1)
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	})

	t.Run("limit overwrite and additive credits", func(t *testing.T) {
		t.Parallel()

		store := ledger.NewMemoryStore()
		id := uuid.New()
		require.NoError(t, store.Create(ctx, id, 600))
		_, err := store.IncrementUsage(ctx, id, entitlement.CategoryOptimizations, 50)
		require.NoError(t, err)

		// Downgrade overwrites even though consumption exceeds the new limit.
		require.NoError(t, store.SetCreditLimit(ctx, id, 5))
		led, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(0), led.Remaining())
		assert.Equal(t, int64(50), led.TotalUsed())

		require.NoError(t, store.AddCredits(ctx, id, 100))
		led, err = store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(105), led.CreditLimit)
	})

	t.Run("reset zeroes counters only", func(t *testing.T) {
		t.Parallel()

		store := ledger.NewMemoryStore()
		id := uuid.New()
		require.NoError(t, store.Create(ctx, id, 200))
		_, err := store.IncrementUsage(ctx, id, entitlement.CategoryOptimizations, 7)
		require.NoError(t, err)

		require.NoError(t, store.ResetUsage(ctx, id))
		led, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, led.TotalUsed())
		assert.Equal(t, int64(200), led.CreditLimit)
	})

	t.Run("first item pass flag", func(t *testing.T) {
		t.Parallel()

		store := ledger.NewMemoryStore()
		id := uuid.New()
		require.NoError(t, store.Create(ctx, id, 5))
		require.NoError(t, store.MarkFirstItemPassUsed(ctx, id))

		led, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, led.FirstItemPassUsed)
	})
}

func TestMemoryStore_Ceiling(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("denies past the limit without modifying the row", func(t *testing.T) {
		t.Parallel()

		store := ledger.NewMemoryStore()
		id := uuid.New()
		require.NoError(t, store.Create(ctx, id, 3))

		remaining, err := store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryOptimizations, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(0), remaining)

		_, err = store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryOptimizations, 1)
		assert.ErrorIs(t, err, ledger.ErrCeilingExceeded)

		led, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(3), led.TotalUsed(), "denied debit must not change counters")
	})

	t.Run("multi-unit debit is all or nothing", func(t *testing.T) {
		t.Parallel()

		store := ledger.NewMemoryStore()
		id := uuid.New()
		require.NoError(t, store.Create(ctx, id, 5))
		_, err := store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryOptimizations, 3)
		require.NoError(t, err)

		_, err = store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryOptimizations, 3)
		assert.ErrorIs(t, err, ledger.ErrCeilingExceeded)

		led, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(3), led.TotalUsed())
	})

	t.Run("unlimited accounts bypass the ceiling", func(t *testing.T) {
		t.Parallel()

		store := ledger.NewMemoryStore()
		id := uuid.New()
		require.NoError(t, store.Create(ctx, id, entitlement.UnlimitedThreshold))

		for range 10 {
			_, err := store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryPhotoStudio, 500_000)
			require.NoError(t, err)
		}
	})
}

// Two simultaneous debits against one remaining credit: at most one may
// succeed, and the recorded total never exceeds the limit.
func TestMemoryStore_ConcurrentDebitSafety(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := ledger.NewMemoryStore()
	id := uuid.New()
	require.NoError(t, store.Create(ctx, id, 5))
	_, err := store.IncrementUsage(ctx, id, entitlement.CategoryOptimizations, 4)
	require.NoError(t, err)

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
		} else {
			assert.ErrorIs(t, err, ledger.ErrCeilingExceeded)
		}
	}
	assert.Equal(t, 1, successes)

	led, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(5), led.TotalUsed())
}

// Hammer the ceiling from many goroutines; consumption must land exactly at
// the limit, never above it.
func TestMemoryStore_ConcurrentNeverOverspends(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := ledger.NewMemoryStore()
	id := uuid.New()
	const limit = 25
	require.NoError(t, store.Create(ctx, id, limit))

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.IncrementUsageWithCeiling(ctx, id, entitlement.CategoryPriceChecks, 1)
		}()
	}
	wg.Wait()

	led, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(limit), led.TotalUsed())
}
