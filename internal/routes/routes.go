// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"cleanbage/internal/handlers"
	"cleanbage/internal/middleware"
	"cleanbage/internal/repositories"
	"cleanbage/internal/services/auth"
	"cleanbage/internal/services/ledger"
	"cleanbage/internal/services/notification"
	"cleanbage/internal/services/qr"
	"cleanbage/internal/services/scan"
	"cleanbage/internal/services/user"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, store repositories.Store) {
	userRepo := store.Users()

	// Services
	authService := auth.NewService(userRepo)
	userService := user.NewService(userRepo)
	qrService := qr.NewService(store)
	ledgerService := ledger.NewService(store)
	notificationService := notification.NewService(store)
	scanService := scan.NewService(store, ledgerService, notificationService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService, ledgerService)
	qrHandler := handlers.NewQRHandler(qrService)
	scanHandler := handlers.NewScanHandler(scanService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(userService, ledgerService, qrService)

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")

	// Public endpoints (no auth required)
	api.Post("/register", authHandler.RegisterUser)
	api.Post("/login", authHandler.LoginUser)
	api.Post("/refresh", authHandler.RefreshToken)

	authMiddleware := middleware.NewAuthMiddleware(userRepo)
	protected := api.Use(authMiddleware.Handler)

	// Session
	protected.Post("/logout", authHandler.LogoutUser)
	protected.Post("/change-password", authHandler.ChangePassword)

	// Profile and balance
	protected.Get("/me", userHandler.GetProfile)
	protected.Get("/users/:id/balance", middleware.HasPermission("balance:read"), userHandler.GetBalance)

	// QR identity
	protected.Get("/qr/status", middleware.HasPermission("qr:read"), qrHandler.GetStatus)
	protected.Get("/qr/payload", middleware.HasPermission("qr:read"), qrHandler.GetPayload)

	// Scanning
	protected.Post("/scan/qr", middleware.HasPermission("scan:write"), scanHandler.ProcessScan)
	protected.Get("/scans", middleware.HasPermission("scan:read"), scanHandler.GetScanHistory)

	// Notifications
	protected.Get("/notifications", middleware.HasPermission("notification:read"), notificationHandler.ListNotifications)
	protected.Post("/notifications/:id/read", middleware.HasPermission("notification:read"), notificationHandler.MarkRead)

	// Admin
	admin := protected.Group("/admin", middleware.AdminOnly)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Post("/adjust", adminHandler.AdjustBalance)
	admin.Post("/qr/reactivate", adminHandler.ReactivateQR)
}
