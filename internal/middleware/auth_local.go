package middleware

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"sshmate/pkg/auth"
)

// LocalAuthMiddleware verifies local JWT tokens.
// Supports both Authorization header and query parameter (for WebSocket connections)
func LocalAuthMiddleware(jwtAuth *auth.LocalJWTAuth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		environment := os.Getenv("ENVIRONMENT")

		if jwtAuth == nil {
			// Never allow auth bypass in production
			if environment == "production" {
				log.Fatal("❌ CRITICAL SECURITY ERROR: JWT auth not configured in production environment. Authentication is required.")
			}

			if environment != "development" && environment != "testing" && environment != "" {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "Authentication service unavailable",
				})
			}

			log.Println("⚠️  Auth skipped: JWT not configured (development mode)")
			c.Locals("user_id", "dev-user")
			c.Locals("user_role", "operator")
			return c.Next()
		}

		// Try to extract token from multiple sources
		var token string

		// 1. Try Authorization header first
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			extractedToken, err := auth.ExtractToken(authHeader)
			if err == nil {
				token = extractedToken
			}
		}

		// 2. Try query parameter (for WebSocket connections)
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid authorization token",
			})
		}

		user, err := jwtAuth.VerifyAccessToken(token)
		if err != nil {
			log.Printf("❌ Auth failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)
		return c.Next()
	}
}
