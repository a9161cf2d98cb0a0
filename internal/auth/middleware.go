package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionMiddleware accepts a session token from the Authorization header or
// the "token" query parameter (browsers cannot set headers on websocket
// upgrades) and requires it to match the route parameter named param.
func SessionMiddleware(svc *Service, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing session token")
		}

		sessionID, err := svc.ValidateSessionToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if sessionID != c.Params(param) {
			return fiber.NewError(fiber.StatusForbidden, "token does not match session")
		}

		c.Locals("session_id", sessionID)
		return c.Next()
	}
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
