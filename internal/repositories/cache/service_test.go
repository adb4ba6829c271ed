package cache

import (
	"encoding/json"
	"testing"
	"time"

	"cleanbage/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cache entries travel through encoding/json. The API model hides Password
// and TokenVersion, so the storage shape has to carry them explicitly or a
// cache hit would return a user that fails auth.
func TestCachedUserRoundTrip(t *testing.T) {
	reactivate := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	lastScan := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	original := &models.User{
		ID:                "user_1",
		Name:              "Jane Doe",
		Email:             "jane@example.com",
		Password:          "$2a$10$bcrypt-hash",
		Phone:             "+1234567890",
		Society:           "Green Valley Society",
		Role:              models.RoleUser,
		Points:            42,
		QRReactivateAt:    &reactivate,
		ScanCount:         7,
		LastScanAt:        &lastScan,
		LastScannedBy:     "user_collector",
		LastPointsAwarded: 3,
		TokenVersion:      1,
		CreatedAt:         lastScan.Add(-24 * time.Hour),
		UpdatedAt:         lastScan,
	}

	data, err := json.Marshal(newCachedUser(original))
	require.NoError(t, err)

	var entry cachedUser
	require.NoError(t, json.Unmarshal(data, &entry))
	cached := entry.user()

	assert.Equal(t, original, cached, "every persisted field must survive the cache")

	t.Run("auth-critical fields survive", func(t *testing.T) {
		assert.Equal(t, 1, cached.TokenVersion, "token version lost in cache round-trip")
		assert.Equal(t, "$2a$10$bcrypt-hash", cached.Password, "password hash lost in cache round-trip")
	})

	t.Run("api model still hides the sensitive fields", func(t *testing.T) {
		raw, err := json.Marshal(original)
		require.NoError(t, err)
		var exposed map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &exposed))
		assert.NotContains(t, exposed, "password")
		assert.NotContains(t, exposed, "tokenVersion")
	})
}
