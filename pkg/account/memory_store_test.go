package account_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublimeanger/vintifi/pkg/account"
	"github.com/sublimeanger/vintifi/pkg/entitlement"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("save and fetch by id and email", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		id := uuid.New()
		require.NoError(t, store.Save(ctx, &account.Account{
			ID:    id,
			Email: "seller@example.com",
			Tier:  entitlement.TierStarter,
		}))

		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, entitlement.TierStarter, got.Tier)
		assert.False(t, got.CreatedAt.IsZero())

		byEmail, err := store.GetByEmail(ctx, "Seller@Example.COM")
		require.NoError(t, err)
		assert.Equal(t, id, byEmail.ID)
	})

	t.Run("missing account", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		_, err := store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, account.ErrAccountNotFound)

		_, err = store.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
	})

	t.Run("update tier overwrites", func(t *testing.T) {
		t.Parallel()

		store := account.NewMemoryStore()
		id := uuid.New()
		require.NoError(t, store.Save(ctx, &account.Account{
			ID:    id,
			Email: "seller@example.com",
			Tier:  entitlement.TierBusiness,
		}))

		require.NoError(t, store.UpdateTier(ctx, id, entitlement.TierFree))

		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, entitlement.TierFree, got.Tier)

		assert.ErrorIs(t, store.UpdateTier(ctx, uuid.New(), entitlement.TierPro),
			account.ErrAccountNotFound)
	})
}
