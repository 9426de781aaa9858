package middleware

import (
	"strings"

	"go-cms/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// Identity injected when SKIP_AUTH is enabled
const devUsername = "dev"

// AuthMiddleware validates JWT tokens and injects user claims into context
func AuthMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			c.Locals(utils.UserClaimsKey, &utils.UserClaims{
				ID:         "dev-id",
				Username:   devUsername,
				Email:      "dev@localhost",
				Role:       utils.NotImplemented,
				Permission: utils.NotImplemented,
			})
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(utils.UserClaimsKey, claims)
		return c.Next()
	}
}

// QueryTokenMiddleware authenticates from the ?token= parameter, for clients
// such as browsers opening a websocket that cannot set headers.
func QueryTokenMiddleware(skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			return AuthMiddleware(true)(c)
		}

		claims, err := utils.ValidateToken(c.Query("token"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(utils.UserClaimsKey, claims)
		return c.Next()
	}
}

// CurrentUser returns the claims stored by AuthMiddleware
func CurrentUser(c *fiber.Ctx) (*utils.UserClaims, bool) {
	claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	return claims, ok && claims != nil
}

// CurrentUsername is a shorthand for CurrentUser(c).Username
func CurrentUsername(c *fiber.Ctx) string {
	if claims, ok := CurrentUser(c); ok {
		return claims.Username
	}
	return ""
}
