package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cleanbage/internal/models"
	"cleanbage/internal/repositories/repotest"
	"cleanbage/internal/services/ledger"
	"cleanbage/internal/services/qr"
	"cleanbage/internal/services/user"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminApp(store *repotest.Store, claims *models.UserClaims) *fiber.App {
	handler := NewAdminHandler(user.NewService(store.Users()), ledger.NewService(store), qr.NewService(store))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if claims != nil {
			c.Locals("claims", claims)
		}
		return c.Next()
	})
	app.Post("/admin/users/adjust", handler.AdjustBalance)
	return app
}

func postAdjust(t *testing.T, app *fiber.App, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/admin/users/adjust", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAdminHandler_AdjustBalance(t *testing.T) {
	adminClaims := &models.UserClaims{UserID: "user_adm", Role: models.RoleAdmin}

	t.Run("missing claims are rejected, not dereferenced", func(t *testing.T) {
		store := repotest.NewStore()
		store.Seed(models.User{ID: "user_res", Email: "res@b.com", Points: 10, Role: models.RoleUser})
		app := newAdminApp(store, nil)

		resp := postAdjust(t, app, fiber.Map{"userId": "user_res", "delta": 5, "reason": "correction"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, 10, store.User("user_res").Points)
	})

	t.Run("adjustment is applied", func(t *testing.T) {
		store := repotest.NewStore()
		store.Seed(models.User{ID: "user_res", Email: "res@b.com", Points: 10, Role: models.RoleUser})
		app := newAdminApp(store, adminClaims)

		resp := postAdjust(t, app, fiber.Map{"userId": "user_res", "delta": 5, "reason": "correction"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 15, store.User("user_res").Points)

		txns := store.Transactions()
		require.Len(t, txns, 1)
		assert.Equal(t, models.TransactionTypeAdjustment, txns[0].Type)
		assert.Equal(t, "correction", txns[0].Source)
	})

	t.Run("unknown user", func(t *testing.T) {
		store := repotest.NewStore()
		app := newAdminApp(store, adminClaims)

		resp := postAdjust(t, app, fiber.Map{"userId": "user_missing", "delta": 5, "reason": "correction"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
