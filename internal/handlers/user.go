package handlers

import (
	"errors"
	"strconv"

	"cleanbage/internal/models"
	"cleanbage/internal/repositories"
	"cleanbage/internal/services/ledger"
	"cleanbage/internal/services/user"
	"cleanbage/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService   user.Service
	ledgerService *ledger.Service
}

func NewUserHandler(userService user.Service, ledgerService *ledger.Service) *UserHandler {
	return &UserHandler{
		userService:   userService,
		ledgerService: ledgerService,
	}
}

// GetProfile returns the authenticated user's account.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	u, err := h.userService.GetByID(claims.UserID)
	if err != nil {
		return utils.NotFound(c, "user not found")
	}

	return utils.Success(c, fiber.Map{"user": u})
}

// GetBalance returns a user's authoritative balance with recent ledger
// entries. Users may only read their own balance; admins may read any.
func (h *UserHandler) GetBalance(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	userID := c.Params("id")
	if userID != claims.UserID && claims.Role != models.RoleAdmin {
		return utils.Forbidden(c, "insufficient permissions")
	}

	balance, err := h.ledgerService.Balance(c.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return utils.NotFound(c, "user not found")
		}
		return utils.InternalError(c, "failed to load balance")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "0"))
	history, err := h.ledgerService.History(c.Context(), userID, limit)
	if err != nil {
		return utils.InternalError(c, "failed to load balance history")
	}

	return utils.Success(c, fiber.Map{
		"userId":       userID,
		"points":       balance,
		"transactions": history,
	})
}
