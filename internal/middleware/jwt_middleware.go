package middleware

import (
	"errors"
	"strings"

	"phonebook/internal/models"
	"phonebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

const userKey = "user"

// Authenticator resolves a bearer token to the user holding that session.
type Authenticator interface {
	Authenticate(token string) (*models.User, error)
}

// AuthRequired is a Fiber middleware that admits only requests carrying the
// session token currently stored on a user.
func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": services.ErrNotAuthorized.Message,
			})
		}

		user, err := auth.Authenticate(parts[1])
		if err != nil {
			status := fiber.StatusUnauthorized
			message := services.ErrNotAuthorized.Message
			if !errors.Is(err, services.ErrNotAuthorized) {
				status = fiber.StatusInternalServerError
				message = "Server error"
			}
			return c.Status(status).JSON(fiber.Map{"message": message})
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}
