package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"phonebook/internal/middleware"
	"phonebook/internal/models"
	"phonebook/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFunc func(token string) (*models.User, error)

func (f authFunc) Authenticate(token string) (*models.User, error) { return f(token) }

func newApp(auth middleware.Authenticator) *fiber.App {
	app := fiber.New()
	app.Get("/me", middleware.AuthRequired(auth), func(c *fiber.Ctx) error {
		return c.SendString(middleware.CurrentUser(c).Email)
	})
	return app
}

func call(t *testing.T, app *fiber.App, header string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestAuthRequired(t *testing.T) {
	app := newApp(authFunc(func(token string) (*models.User, error) {
		switch token {
		case "good":
			return &models.User{Email: "dora@example.com"}, nil
		case "broken":
			return nil, errors.New("database down")
		}
		return nil, services.ErrNotAuthorized
	}))

	assert.Equal(t, http.StatusOK, call(t, app, "Bearer good"))
	assert.Equal(t, http.StatusUnauthorized, call(t, app, ""))
	assert.Equal(t, http.StatusUnauthorized, call(t, app, "Bearer"))
	assert.Equal(t, http.StatusUnauthorized, call(t, app, "Basic good"))
	assert.Equal(t, http.StatusUnauthorized, call(t, app, "Bearer stale"))
	assert.Equal(t, http.StatusInternalServerError, call(t, app, "Bearer broken"))
}
