package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cleanbage/internal/models"
	"cleanbage/internal/repositories/repotest"
	"cleanbage/internal/services/ledger"
	"cleanbage/internal/services/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store *repotest.Store, now time.Time) *Service {
	svc := NewService(store, ledger.NewService(store), notification.NewService(store))
	svc.now = func() time.Time { return now }
	return svc
}

func seedPair(store *repotest.Store) {
	store.Seed(models.User{ID: "user_res", Name: "Resident", Email: "res@b.com", Points: 10, Role: models.RoleUser})
	store.Seed(models.User{ID: "user_col", Name: "Collector", Email: "col@b.com", Role: models.RoleCollector})
}

func TestService_Process(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("successful scan", func(t *testing.T) {
		store := repotest.NewStore()
		seedPair(store)
		svc := newTestService(store, now)

		result, err := svc.Process(ctx, Request{UserID: "user_res", CollectorID: "user_col", Points: 3})
		require.NoError(t, err)

		assert.Equal(t, 13, result.User.Points)
		assert.True(t, result.QRDeactivated)
		assert.Equal(t, now.Add(20*time.Hour).Format(time.RFC3339), result.ReactivateAt)

		require.NotNil(t, result.Transaction)
		assert.Equal(t, 3, result.Transaction.Amount)
		assert.Equal(t, models.TransactionTypeEarn, result.Transaction.Type)
		assert.Equal(t, models.SourceWasteCollection, result.Transaction.Source)
		assert.Equal(t, 13, result.Transaction.BalanceAfter)

		require.NotNil(t, result.ScanRecord)
		assert.Equal(t, "user_res", result.ScanRecord.UserID)
		assert.Equal(t, "user_col", result.ScanRecord.CollectorID)
		assert.Equal(t, 3, result.ScanRecord.PointsAwarded)

		stored := store.User("user_res")
		assert.Equal(t, 13, stored.Points)
		assert.Equal(t, 1, stored.ScanCount)
		assert.Equal(t, "user_col", stored.LastScannedBy)
		require.NotNil(t, stored.QRReactivateAt)
		assert.Equal(t, now.Add(20*time.Hour), *stored.QRReactivateAt)

		// Both parties are notified.
		userNotifs := store.NotificationsFor("user_res")
		require.Len(t, userNotifs, 1)
		assert.Equal(t, models.NotificationTypeReward, userNotifs[0].Type)
		assert.Equal(t, "EcoCoins Earned!", userNotifs[0].Title)

		colNotifs := store.NotificationsFor("user_col")
		require.Len(t, colNotifs, 1)
		assert.Equal(t, models.NotificationTypeInfo, colNotifs[0].Type)
	})

	t.Run("second scan inside the window is rejected", func(t *testing.T) {
		store := repotest.NewStore()
		seedPair(store)
		svc := newTestService(store, now)

		_, err := svc.Process(ctx, Request{UserID: "user_res", CollectorID: "user_col", Points: 3})
		require.NoError(t, err)

		_, err = svc.Process(ctx, Request{UserID: "user_res", CollectorID: "user_col", Points: 3})
		var deactivated *QRDeactivatedError
		require.ErrorAs(t, err, &deactivated)
		assert.Equal(t, now.Add(20*time.Hour), deactivated.ReactivateAt)
		assert.Equal(t, 20, deactivated.HoursRemaining)

		// The rejection must not award or record anything.
		assert.Equal(t, 13, store.User("user_res").Points)
		assert.Len(t, store.Transactions(), 1)
		assert.Len(t, store.ScanRecords(), 1)
	})

	t.Run("scan succeeds again after the window elapses", func(t *testing.T) {
		store := repotest.NewStore()
		seedPair(store)
		svc := newTestService(store, now)

		_, err := svc.Process(ctx, Request{UserID: "user_res", CollectorID: "user_col", Points: 3})
		require.NoError(t, err)

		svc.now = func() time.Time { return now.Add(20 * time.Hour) }
		result, err := svc.Process(ctx, Request{UserID: "user_res", CollectorID: "user_col", Points: 3})
		require.NoError(t, err)
		assert.Equal(t, 16, result.User.Points)
		assert.Equal(t, 2, store.User("user_res").ScanCount)
	})

	t.Run("unknown user", func(t *testing.T) {
		store := repotest.NewStore()
		seedPair(store)
		svc := newTestService(store, now)

		_, err := svc.Process(ctx, Request{UserID: "user_missing", CollectorID: "user_col", Points: 3})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unknown collector", func(t *testing.T) {
		store := repotest.NewStore()
		seedPair(store)
		svc := newTestService(store, now)

		_, err := svc.Process(ctx, Request{UserID: "user_res", CollectorID: "user_missing", Points: 3})
		assert.ErrorIs(t, err, ErrInvalidCollector)
	})

	t.Run("collector role is enforced", func(t *testing.T) {
		store := repotest.NewStore()
		seedPair(store)
		store.Seed(models.User{ID: "user_plain", Email: "p@b.com", Role: models.RoleUser})
		svc := newTestService(store, now)

		_, err := svc.Process(ctx, Request{UserID: "user_res", CollectorID: "user_plain", Points: 3})
		assert.ErrorIs(t, err, ErrInvalidCollector)
		assert.Equal(t, 10, store.User("user_res").Points)
	})

	t.Run("non-positive points are rejected", func(t *testing.T) {
		store := repotest.NewStore()
		seedPair(store)
		svc := newTestService(store, now)

		for _, points := range []int{0, -3} {
			_, err := svc.Process(ctx, Request{UserID: "user_res", CollectorID: "user_col", Points: points})
			assert.ErrorIs(t, err, ErrInvalidAmount)
		}
	})

	t.Run("storage failure surfaces as opaque error and rolls back", func(t *testing.T) {
		store := repotest.NewStore()
		seedPair(store)
		store.FailWith("scans.create", errors.New("disk full"))
		svc := newTestService(store, now)

		_, err := svc.Process(ctx, Request{UserID: "user_res", CollectorID: "user_col", Points: 3})
		require.ErrorIs(t, err, ErrInternal)
		assert.NotContains(t, err.Error(), "disk full", "storage detail must not leak to callers")

		stored := store.User("user_res")
		assert.Equal(t, 10, stored.Points)
		assert.Nil(t, stored.QRReactivateAt)
		assert.Empty(t, store.Transactions())
		assert.Empty(t, store.NotificationsFor("user_res"))
	})

	t.Run("notification failure does not fail the scan", func(t *testing.T) {
		store := repotest.NewStore()
		seedPair(store)
		store.FailWith("notifications.create", errors.New("mailbox down"))
		svc := newTestService(store, now)

		result, err := svc.Process(ctx, Request{UserID: "user_res", CollectorID: "user_col", Points: 3})
		require.NoError(t, err)
		assert.Equal(t, 13, result.User.Points)
		assert.Nil(t, result.Notification)
	})

	t.Run("bypass skips the activation gate", func(t *testing.T) {
		store := repotest.NewStore()
		seedPair(store)
		svc := newTestService(store, now)

		_, err := svc.Process(ctx, Request{UserID: "user_res", CollectorID: "user_col", Points: 3})
		require.NoError(t, err)

		result, err := svc.Process(ctx, Request{UserID: "user_res", CollectorID: "user_col", Points: 3, BypassCooldown: true})
		require.NoError(t, err)
		assert.Equal(t, 16, result.User.Points)
	})
}

func TestService_Process_ConcurrentScans(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	store := repotest.NewStore()
	seedPair(store)
	store.Seed(models.User{ID: "user_col2", Name: "Collector 2", Email: "col2@b.com", Role: models.RoleCollector})
	svc := newTestService(store, now)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejects   int
	)
	for _, collector := range []string{"user_col", "user_col2"} {
		wg.Add(1)
		go func(collector string) {
			defer wg.Done()
			_, err := svc.Process(ctx, Request{UserID: "user_res", CollectorID: collector, Points: 3})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			var deactivated *QRDeactivatedError
			if assert.ErrorAs(t, err, &deactivated) {
				rejects++
			}
		}(collector)
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one concurrent scan must win")
	assert.Equal(t, 1, rejects, "the loser must observe the closed window")
	assert.Equal(t, 13, store.User("user_res").Points, "points awarded exactly once")
	assert.Len(t, store.Transactions(), 1)
	assert.Len(t, store.ScanRecords(), 1)
}
