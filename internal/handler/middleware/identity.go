package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/pothole-service/internal/service"
)

const (
	// SessionCookieName carries the opaque session token for logged-in users.
	SessionCookieName = "session_token"
	// AnonymousCookieName carries the durable anonymous user id.
	AnonymousCookieName = "user_id"
	// IdentityKey is the locals key the resolved identity is stored under.
	IdentityKey = "identity"
)

// Identity resolves the caller to a user before detection endpoints run.
// A valid session cookie wins; otherwise an anonymous identity is minted or
// reused from the user_id cookie, so detections are always attributable.
func Identity(authService *service.AuthService, anonymousTTL time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := c.Cookies(SessionCookieName); token != "" {
			ident, err := authService.ValidateSession(c.Context(), token)
			if err != nil {
				log.Printf("[AUTH] session validation failed: %v", err)
			}
			if ident != nil {
				c.Locals(IdentityKey, ident)
				return c.Next()
			}
		}

		ident, err := authService.EnsureAnonymous(
			c.Context(),
			c.Cookies(AnonymousCookieName),
			c.IP(),
			c.Get(fiber.HeaderUserAgent),
		)
		if err != nil {
			log.Printf("[AUTH] failed to resolve anonymous identity: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   true,
				"code":    "internal_error",
				"message": "failed to resolve identity",
			})
		}

		c.Cookie(&fiber.Cookie{
			Name:     AnonymousCookieName,
			Value:    ident.UserID,
			Expires:  time.Now().Add(anonymousTTL),
			HTTPOnly: true,
			SameSite: "Lax",
			Path:     "/",
		})

		c.Locals(IdentityKey, ident)
		return c.Next()
	}
}
