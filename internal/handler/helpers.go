package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/pothole-service/internal/handler/middleware"
	"github.com/roadwatch/pothole-service/internal/service"
)

// respondError writes the shared error envelope with a machine-readable code.
func respondError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   true,
		"code":    code,
		"message": message,
	})
}

// currentIdentity returns the identity the middleware resolved, or nil on
// routes that run without it.
func currentIdentity(c *fiber.Ctx) *service.Identity {
	ident, _ := c.Locals(middleware.IdentityKey).(*service.Identity)
	return ident
}
