package handlers

import (
	"errors"
	"strconv"

	"cleanbage/internal/repositories"
	"cleanbage/internal/services/ledger"
	"cleanbage/internal/services/qr"
	"cleanbage/internal/services/user"
	"cleanbage/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	userService   user.Service
	ledgerService *ledger.Service
	qrService     *qr.Service
	log           *logrus.Entry
}

func NewAdminHandler(userService user.Service, ledgerService *ledger.Service, qrService *qr.Service) *AdminHandler {
	return &AdminHandler{
		userService:   userService,
		ledgerService: ledgerService,
		qrService:     qrService,
		log:           logrus.WithField("component", "admin-handler"),
	}
}

// ListUsers returns a paginated user listing.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	users, total, err := h.userService.List(limit, offset)
	if err != nil {
		return utils.InternalError(c, "failed to list users")
	}

	return utils.Success(c, fiber.Map{
		"users": users,
		"total": total,
	})
}

// AdjustBalance applies a signed manual correction to a user's balance.
func (h *AdminHandler) AdjustBalance(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		UserID string `json:"userId"`
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if input.UserID == "" {
		return utils.BadRequest(c, "userId is required")
	}
	if input.Reason == "" {
		return utils.BadRequest(c, "reason is required")
	}

	result, err := h.ledgerService.Adjust(c.Context(), input.UserID, input.Delta, input.Reason)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return utils.NotFound(c, "user not found")
		case errors.Is(err, ledger.ErrInvalidAmount):
			return utils.BadRequest(c, "delta must be non-zero")
		case errors.Is(err, ledger.ErrBalanceBelowZero):
			return utils.BadRequest(c, "adjustment would take balance below zero")
		default:
			return utils.InternalError(c, "adjustment failed")
		}
	}

	h.log.WithFields(logrus.Fields{
		"admin_id": claims.UserID,
		"user_id":  input.UserID,
		"delta":    input.Delta,
		"reason":   input.Reason,
	}).Info("admin balance adjustment")

	return utils.Success(c, fiber.Map{
		"user":        result.User,
		"transaction": result.Transaction,
	})
}

// ReactivateQR force-clears a user's QR deactivation window.
func (h *AdminHandler) ReactivateQR(c *fiber.Ctx) error {
	var input struct {
		UserID string `json:"userId"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if input.UserID == "" {
		return utils.BadRequest(c, "userId is required")
	}

	if err := h.qrService.ForceReactivate(c.Context(), input.UserID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return utils.NotFound(c, "user not found")
		}
		return utils.InternalError(c, "failed to reactivate QR")
	}

	return utils.Success(c, fiber.Map{
		"message": "QR reactivated",
		"userId":  input.UserID,
	})
}
