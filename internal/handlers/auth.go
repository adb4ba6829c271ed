package handlers

import (
	"errors"
	"time"

	"cleanbage/internal/config"
	"cleanbage/internal/models"
	"cleanbage/internal/repositories"
	"cleanbage/internal/services/auth"
	"cleanbage/internal/services/user"
	"cleanbage/internal/utils"
	"cleanbage/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	authService auth.Service
	userService user.Service
	log         *logrus.Entry
}

func NewAuthHandler(authService auth.Service, userService user.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		log:         logrus.WithField("component", "auth-handler"),
	}
}

// RegisterUser creates a new account and returns it with a fresh token pair
func (h *AuthHandler) RegisterUser(c *fiber.Ctx) error {
	var input models.CreateUserInput
	if err := validation.ParseAndValidate(c, &input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	// Admin accounts are seeded, never self-registered.
	if input.Role == models.RoleAdmin {
		return utils.BadRequest(c, "invalid role")
	}

	created, err := h.userService.Create(&input)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateIdentity) {
			return utils.Conflict(c, "an account with this email already exists", nil)
		}
		h.log.WithError(err).Error("registration failed")
		return utils.InternalError(c, "failed to create account")
	}

	accessToken, refreshToken, err := utils.GenerateTokens(&models.UserClaims{
		UserID:       created.ID,
		Email:        created.Email,
		Role:         created.Role,
		TokenVersion: created.TokenVersion,
		Permissions:  models.GetDefaultPermissions(created.Role),
	})
	if err != nil {
		h.log.WithError(err).Error("token generation failed after registration")
		return utils.InternalError(c, "failed to create session")
	}

	return utils.Created(c, fiber.Map{
		"user":          created,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// LoginUser handles user authentication and returns JWT tokens
func (h *AuthHandler) LoginUser(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	if input.Email == "" || input.Password == "" {
		return utils.BadRequest(c, "email and password are required")
	}

	loggedIn, accessToken, refreshToken, err := h.authService.Login(input.Email, input.Password)
	if err != nil {
		if err.Error() == "invalid credentials" {
			return utils.Unauthorized(c, "invalid email or password")
		}
		return utils.InternalError(c, "authentication failed")
	}

	h.setAuthCookies(c, accessToken, refreshToken)

	return utils.Success(c, fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": fiber.Map{
			"id":          loggedIn.ID,
			"name":        loggedIn.Name,
			"email":       loggedIn.Email,
			"role":        loggedIn.Role,
			"points":      loggedIn.Points,
			"permissions": models.GetDefaultPermissions(loggedIn.Role),
		},
	})
}

// RefreshToken handles token refresh requests
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	// Cookie first, body as fallback for non-browser clients.
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		var input struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.BodyParser(&input); err != nil {
			return utils.Unauthorized(c, "refresh token not provided")
		}
		refreshToken = input.RefreshToken
	}

	if refreshToken == "" {
		return utils.Unauthorized(c, "refresh token not provided")
	}

	newAccessToken, newRefreshToken, err := h.authService.RefreshTokens(refreshToken)
	if err != nil {
		h.log.WithError(err).Warn("token refresh failed")
		return utils.Unauthorized(c, "invalid refresh token")
	}

	h.setAuthCookies(c, newAccessToken, newRefreshToken)

	return utils.Success(c, fiber.Map{
		"access_token":  newAccessToken,
		"refresh_token": newRefreshToken,
	})
}

// LogoutUser handles user logout
func (h *AuthHandler) LogoutUser(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	// Increment token version to invalidate all existing tokens
	if err := h.authService.Logout(claims.UserID); err != nil {
		return utils.InternalError(c, "failed to logout")
	}

	h.clearAuthCookies(c)

	return utils.Success(c, fiber.Map{
		"message": "successfully logged out",
	})
}

// ChangePassword handles password change requests
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var input struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	if err := h.authService.ChangePassword(claims.UserID, input.OldPassword, input.NewPassword); err != nil {
		h.log.WithField("user_id", claims.UserID).WithError(err).Warn("password change failed")
		return utils.BadRequest(c, err.Error())
	}

	return utils.Success(c, fiber.Map{
		"message": "password changed successfully",
	})
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		HTTPOnly: true,
		Secure:   config.IsProduction(),
		Path:     "/",
		SameSite: "Strict",
		MaxAge:   15 * 60, // 15 minutes
	})

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		HTTPOnly: true,
		Secure:   config.IsProduction(),
		Path:     "/",
		SameSite: "Strict",
		MaxAge:   7 * 24 * 60 * 60, // 7 days
	})
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	for _, name := range []string{"access_token", "refresh_token"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   config.IsProduction(),
			Path:     "/",
		})
	}
}
