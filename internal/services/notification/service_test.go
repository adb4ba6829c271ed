package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cleanbage/internal/models"
	"cleanbage/internal/repositories/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Push(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the notification", func(t *testing.T) {
		store := repotest.NewStore()
		svc := NewService(store)

		n, err := svc.Push(ctx, "user_1", Input{
			Title:   "EcoCoins Earned!",
			Message: "You received 3 EcoCoins",
			Type:    models.NotificationTypeReward,
			Data:    map[string]interface{}{"points": 3},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, n.ID)
		assert.False(t, n.Read)

		stored := store.NotificationsFor("user_1")
		require.Len(t, stored, 1)
		assert.Equal(t, models.NotificationTypeReward, stored[0].Type)
	})

	t.Run("empty type defaults to info", func(t *testing.T) {
		store := repotest.NewStore()
		svc := NewService(store)

		n, err := svc.Push(ctx, "user_1", Input{Title: "hello"})
		require.NoError(t, err)
		assert.Equal(t, models.NotificationTypeInfo, n.Type)
	})

	t.Run("retention cap keeps the newest entries", func(t *testing.T) {
		store := repotest.NewStore()
		svc := NewService(store)

		for i := 0; i < MaxPerUser+10; i++ {
			_, err := svc.Push(ctx, "user_1", Input{Title: fmt.Sprintf("n%d", i)})
			require.NoError(t, err)
		}

		stored := store.NotificationsFor("user_1")
		require.Len(t, stored, MaxPerUser)
		assert.Equal(t, "n10", stored[0].Title, "oldest surviving entry")
		assert.Equal(t, fmt.Sprintf("n%d", MaxPerUser+9), stored[len(stored)-1].Title)
	})

	t.Run("cap is per user", func(t *testing.T) {
		store := repotest.NewStore()
		svc := NewService(store)

		for i := 0; i < MaxPerUser; i++ {
			_, err := svc.Push(ctx, "user_1", Input{Title: "a"})
			require.NoError(t, err)
		}
		_, err := svc.Push(ctx, "user_2", Input{Title: "b"})
		require.NoError(t, err)

		assert.Len(t, store.NotificationsFor("user_1"), MaxPerUser)
		assert.Len(t, store.NotificationsFor("user_2"), 1)
	})

	t.Run("prune failure does not fail the push", func(t *testing.T) {
		store := repotest.NewStore()
		store.FailWith("notifications.prune", errors.New("db down"))
		svc := NewService(store)

		n, err := svc.Push(ctx, "user_1", Input{Title: "hello"})
		require.NoError(t, err)
		assert.NotNil(t, n)
	})
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	svc := NewService(store)

	first, err := svc.Push(ctx, "user_1", Input{Title: "first"})
	require.NoError(t, err)
	_, err = svc.Push(ctx, "user_1", Input{Title: "second"})
	require.NoError(t, err)
	_, err = svc.Push(ctx, "user_2", Input{Title: "other"})
	require.NoError(t, err)

	t.Run("newest first, scoped to the user", func(t *testing.T) {
		notifications, err := svc.List(ctx, "user_1", false)
		require.NoError(t, err)
		require.Len(t, notifications, 2)
		assert.Equal(t, "second", notifications[0].Title)
		assert.Equal(t, "first", notifications[1].Title)
	})

	t.Run("unread filter", func(t *testing.T) {
		ok, err := svc.MarkReadOwned(ctx, "user_1", first.ID)
		require.NoError(t, err)
		require.True(t, ok)

		unread, err := svc.List(ctx, "user_1", true)
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, "second", unread[0].Title)
	})
}

func TestService_MarkReadOwned(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	svc := NewService(store)

	n, err := svc.Push(ctx, "user_1", Input{Title: "hello"})
	require.NoError(t, err)

	t.Run("marks own notification", func(t *testing.T) {
		ok, err := svc.MarkReadOwned(ctx, "user_1", n.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, store.NotificationsFor("user_1")[0].Read)
	})

	t.Run("marking again is a no-op that reports true", func(t *testing.T) {
		ok, err := svc.MarkReadOwned(ctx, "user_1", n.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown id", func(t *testing.T) {
		ok, err := svc.MarkReadOwned(ctx, "user_1", "notif_missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cannot mark another user's notification", func(t *testing.T) {
		ok, err := svc.MarkReadOwned(ctx, "user_2", n.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
