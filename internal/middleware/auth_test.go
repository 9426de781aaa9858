package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"go-cms/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthApp(skipAuth bool) *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthMiddleware(skipAuth), func(c *fiber.Ctx) error {
		return c.SendString(CurrentUsername(c))
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	utils.SetSecret("middleware-test")
	token, err := utils.GenerateToken("1", "alice", "alice@example.com")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "Bearer nope", fiber.StatusUnauthorized},
		{"valid token", "Bearer " + token, fiber.StatusOK},
	}

	app := newAuthApp(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestAuthMiddlewareSkipAuthInjectsDevIdentity(t *testing.T) {
	app := newAuthApp(true)

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, devUsername, string(body))
}
