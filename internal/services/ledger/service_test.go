package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cleanbage/internal/models"
	"cleanbage/internal/repositories"
	"cleanbage/internal/repositories/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Award(t *testing.T) {
	ctx := context.Background()

	t.Run("credits balance and appends ledger entry", func(t *testing.T) {
		store := repotest.NewStore()
		store.Seed(models.User{ID: "user_1", Email: "a@b.com", Points: 10})
		svc := NewService(store)

		result, err := svc.Award(ctx, "user_1", 3, models.SourceWasteCollection)
		require.NoError(t, err)

		assert.Equal(t, 13, result.User.Points)
		assert.Equal(t, 3, result.Transaction.Amount)
		assert.Equal(t, models.TransactionTypeEarn, result.Transaction.Type)
		assert.Equal(t, models.SourceWasteCollection, result.Transaction.Source)
		assert.Equal(t, 13, result.Transaction.BalanceAfter)

		assert.Equal(t, 13, store.User("user_1").Points)
		require.Len(t, store.Transactions(), 1)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		store := repotest.NewStore()
		store.Seed(models.User{ID: "user_1", Email: "a@b.com"})
		svc := NewService(store)

		for _, amount := range []int{0, -5} {
			_, err := svc.Award(ctx, "user_1", amount, models.SourceWasteCollection)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		}
		assert.Empty(t, store.Transactions())
	})

	t.Run("unknown user", func(t *testing.T) {
		store := repotest.NewStore()
		svc := NewService(store)

		_, err := svc.Award(ctx, "user_missing", 3, models.SourceWasteCollection)
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	})

	t.Run("failed ledger write rolls back the balance", func(t *testing.T) {
		store := repotest.NewStore()
		store.Seed(models.User{ID: "user_1", Email: "a@b.com", Points: 10})
		store.FailWith("ledger.create", errors.New("db down"))
		svc := NewService(store)

		_, err := svc.Award(ctx, "user_1", 3, models.SourceWasteCollection)
		require.Error(t, err)

		assert.Equal(t, 10, store.User("user_1").Points, "balance must not move without a ledger entry")
		assert.Empty(t, store.Transactions())
	})

	t.Run("concurrent awards all apply", func(t *testing.T) {
		store := repotest.NewStore()
		store.Seed(models.User{ID: "user_1", Email: "a@b.com"})
		svc := NewService(store)

		const workers = 20
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				_, err := svc.Award(ctx, "user_1", 1, models.SourceWasteCollection)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, workers, store.User("user_1").Points)
		assert.Len(t, store.Transactions(), workers)

		// BalanceAfter values must form a permutation of 1..workers: every
		// award saw a fresh balance, none applied against a stale read.
		seen := make(map[int]bool)
		for _, txn := range store.Transactions() {
			assert.False(t, seen[txn.BalanceAfter], "duplicate balanceAfter %d", txn.BalanceAfter)
			seen[txn.BalanceAfter] = true
		}
	})
}

func TestService_Adjust(t *testing.T) {
	ctx := context.Background()

	t.Run("positive and negative deltas", func(t *testing.T) {
		store := repotest.NewStore()
		store.Seed(models.User{ID: "user_1", Email: "a@b.com", Points: 10})
		svc := NewService(store)

		result, err := svc.Adjust(ctx, "user_1", 5, "manual correction")
		require.NoError(t, err)
		assert.Equal(t, 15, result.User.Points)
		assert.Equal(t, models.TransactionTypeAdjustment, result.Transaction.Type)

		result, err = svc.Adjust(ctx, "user_1", -8, "manual correction")
		require.NoError(t, err)
		assert.Equal(t, 7, result.User.Points)
		assert.Equal(t, -8, result.Transaction.Amount)
	})

	t.Run("zero delta is rejected", func(t *testing.T) {
		store := repotest.NewStore()
		store.Seed(models.User{ID: "user_1", Email: "a@b.com"})
		svc := NewService(store)

		_, err := svc.Adjust(ctx, "user_1", 0, "noop")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("balance cannot go below zero", func(t *testing.T) {
		store := repotest.NewStore()
		store.Seed(models.User{ID: "user_1", Email: "a@b.com", Points: 5})
		svc := NewService(store)

		_, err := svc.Adjust(ctx, "user_1", -6, "too much")
		assert.ErrorIs(t, err, ErrBalanceBelowZero)
		assert.Equal(t, 5, store.User("user_1").Points)
		assert.Empty(t, store.Transactions())
	})
}

func TestService_History(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	store.Seed(models.User{ID: "user_1", Email: "a@b.com"})
	svc := NewService(store)

	for i := 0; i < 25; i++ {
		_, err := svc.Award(ctx, "user_1", 1, models.SourceWasteCollection)
		require.NoError(t, err)
	}

	t.Run("default limit", func(t *testing.T) {
		history, err := svc.History(ctx, "user_1", 0)
		require.NoError(t, err)
		assert.Len(t, history, DefaultHistoryLimit)
	})

	t.Run("newest first", func(t *testing.T) {
		history, err := svc.History(ctx, "user_1", 5)
		require.NoError(t, err)
		require.Len(t, history, 5)
		assert.Equal(t, 25, history[0].BalanceAfter)
		assert.Equal(t, 21, history[4].BalanceAfter)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.History(ctx, "user_missing", 5)
		assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	})
}

func TestService_Balance(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	store.Seed(models.User{ID: "user_1", Email: "a@b.com", Points: 42})
	svc := NewService(store)

	balance, err := svc.Balance(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 42, balance)

	_, err = svc.Balance(ctx, "user_missing")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}
