package handlers

import (
	"errors"

	"cleanbage/internal/repositories"
	"cleanbage/internal/services/qr"
	"cleanbage/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type QRHandler struct {
	qrService *qr.Service
}

func NewQRHandler(qrService *qr.Service) *QRHandler {
	return &QRHandler{
		qrService: qrService,
	}
}

// GetStatus reports whether the caller's QR is scannable, and if not, when
// it reactivates.
func (h *QRHandler) GetStatus(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	status, err := h.qrService.Status(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return utils.NotFound(c, "user not found")
		}
		return utils.InternalError(c, "failed to load QR status")
	}

	return utils.Success(c, status)
}

// GetPayload returns the caller's QR payload, the JSON a rendered QR image
// encodes.
func (h *QRHandler) GetPayload(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	payload, err := h.qrService.Payload(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return utils.NotFound(c, "user not found")
		}
		return utils.InternalError(c, "failed to build QR payload")
	}

	return utils.Success(c, payload)
}
