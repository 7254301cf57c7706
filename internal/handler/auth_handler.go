package handler

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/pothole-service/internal/handler/middleware"
	"github.com/roadwatch/pothole-service/internal/service"
	"github.com/roadwatch/pothole-service/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewAuthHandler(authService *service.AuthService, validator *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
	}
}

// Register creates a credentialed account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	userID, err := h.authService.Register(c.Context(), req, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		if errors.Is(err, service.ErrDuplicateUser) {
			return respondError(c, fiber.StatusConflict, "duplicate_user", err.Error())
		}
		log.Printf("[AUTH] register failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to register user")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user_id": userID,
	})
}

// Login verifies credentials and sets the http-only session cookie.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", "invalid request body")
	}

	if err := h.validator.Validate(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	result, err := h.authService.Login(c.Context(), req, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return respondError(c, fiber.StatusUnauthorized, "invalid_credentials", err.Error())
		case errors.Is(err, service.ErrAccountDeactivated):
			return respondError(c, fiber.StatusUnauthorized, "account_deactivated", err.Error())
		default:
			log.Printf("[AUTH] login failed: %v", err)
			return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to log in")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    result.Token,
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	return c.JSON(fiber.Map{
		"success":    true,
		"user":       result.User,
		"expires_at": result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout deletes the server-side session and clears the cookie. Logging out
// without a session still succeeds.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := c.Cookies(middleware.SessionCookieName)
	if err := h.authService.Logout(c.Context(), token); err != nil {
		log.Printf("[AUTH] logout failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to log out")
	}

	h.clearCookie(c, middleware.SessionCookieName)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "logged out",
	})
}

// Me returns the identity behind the session cookie, or a null user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	ident, err := h.authService.ValidateSession(c.Context(), c.Cookies(middleware.SessionCookieName))
	if err != nil {
		log.Printf("[AUTH] session lookup failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to resolve session")
	}
	if ident == nil {
		return c.JSON(fiber.Map{
			"success": true,
			"user":    nil,
		})
	}

	stats, err := h.authService.UserStatistics(c.Context(), ident.UserID)
	if err != nil {
		log.Printf("[AUTH] statistics lookup failed for %s: %v", ident.UserID, err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to load user statistics")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"user":       ident,
		"statistics": stats,
	})
}

// DeleteMe erases every record tied to the authenticated user.
func (h *AuthHandler) DeleteMe(c *fiber.Ctx) error {
	ident, err := h.authService.ValidateSession(c.Context(), c.Cookies(middleware.SessionCookieName))
	if err != nil {
		log.Printf("[AUTH] session lookup failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to resolve session")
	}
	if ident == nil {
		return respondError(c, fiber.StatusUnauthorized, "not_authenticated", "valid session required")
	}

	if err := h.authService.EraseUser(c.Context(), ident.UserID); err != nil {
		log.Printf("[AUTH] erase failed for %s: %v", ident.UserID, err)
		return respondError(c, fiber.StatusInternalServerError, "internal_error", "failed to delete user data")
	}

	h.clearCookie(c, middleware.SessionCookieName)
	h.clearCookie(c, middleware.AnonymousCookieName)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "user data deleted",
	})
}

func (h *AuthHandler) clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
}
