package handlers

import (
	"cleanbage/internal/services/notification"
	"cleanbage/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	service *notification.Service
}

func NewNotificationHandler(service *notification.Service) *NotificationHandler {
	return &NotificationHandler{
		service: service,
	}
}

// ListNotifications returns the caller's notifications newest-first.
// ?unread=true filters to unread only.
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.service.List(c.Context(), claims.UserID, unreadOnly)
	if err != nil {
		return utils.InternalError(c, "failed to load notifications")
	}

	return utils.Success(c, fiber.Map{
		"notifications": notifications,
	})
}

// MarkRead flags one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	id := c.Params("id")
	ok, err := h.service.MarkReadOwned(c.Context(), claims.UserID, id)
	if err != nil {
		return utils.InternalError(c, "failed to update notification")
	}
	if !ok {
		return utils.NotFound(c, "notification not found")
	}

	return utils.Success(c, fiber.Map{
		"message": "notification marked as read",
	})
}
