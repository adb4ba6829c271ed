package handlers

import (
	"errors"
	"time"

	"cleanbage/internal/models"
	"cleanbage/internal/services/ledger"
	"cleanbage/internal/services/qr"
	"cleanbage/internal/services/scan"
	"cleanbage/internal/utils"
	"cleanbage/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type ScanHandler struct {
	scanService *scan.Service
}

func NewScanHandler(scanService *scan.Service) *ScanHandler {
	return &ScanHandler{
		scanService: scanService,
	}
}

type scanRequest struct {
	UserID         string `json:"userId" validate:"required"`
	PointsAwarded  *int   `json:"pointsAwarded" validate:"omitempty,gt=0"`
	BypassCooldown bool   `json:"bypassCooldown"`
}

// ProcessScan handles a collector scanning a resident's QR code. The
// collector identity comes from the session, never the request body.
func (h *ScanHandler) ProcessScan(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input scanRequest
	if err := validation.ParseAndValidate(c, &input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	points := qr.DefaultPointsAwarded
	if input.PointsAwarded != nil {
		points = *input.PointsAwarded
	}

	result, err := h.scanService.Process(c.Context(), scan.Request{
		UserID:      input.UserID,
		CollectorID: claims.UserID,
		Points:      points,
		// Only admins may skip the activation window; anyone else sending
		// the flag is ignored.
		BypassCooldown: input.BypassCooldown && claims.Role == models.RoleAdmin,
	})
	if err != nil {
		return h.mapScanError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message": "scan processed",
		"user": fiber.Map{
			"id":      result.User.ID,
			"name":    result.User.Name,
			"points":  result.User.Points,
			"society": result.User.Society,
		},
		"collectorInfo": fiber.Map{
			"id":   result.Collector.ID,
			"name": result.Collector.Name,
		},
		"transaction":    result.Transaction,
		"scanRecord":     result.ScanRecord,
		"notification":   result.Notification,
		"qrDeactivated":  result.QRDeactivated,
		"reactivateTime": result.ReactivateAt,
	})
}

// GetScanHistory returns scans visible to the caller: collectors see scans
// they performed, residents see scans of their own QR.
func (h *ScanHandler) GetScanHistory(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var records []models.ScanRecord
	if claims.Role == models.RoleCollector {
		records, err = h.scanService.HistoryByCollector(c.Context(), claims.UserID)
	} else {
		records, err = h.scanService.HistoryByUser(c.Context(), claims.UserID)
	}
	if err != nil {
		return utils.InternalError(c, "failed to load scan history")
	}

	return utils.Success(c, fiber.Map{
		"scans": records,
	})
}

func (h *ScanHandler) mapScanError(c *fiber.Ctx, err error) error {
	var deactivated *scan.QRDeactivatedError
	switch {
	case errors.Is(err, scan.ErrUserNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, scan.ErrInvalidCollector),
		errors.Is(err, scan.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidAmount):
		return utils.BadRequest(c, err.Error())
	case errors.As(err, &deactivated):
		return utils.Conflict(c, err.Error(), fiber.Map{
			"qrDeactivated":  true,
			"reactivateTime": deactivated.ReactivateAt.UTC().Format(time.RFC3339),
			"hoursRemaining": deactivated.HoursRemaining,
		})
	default:
		return utils.InternalError(c, "scan failed")
	}
}
