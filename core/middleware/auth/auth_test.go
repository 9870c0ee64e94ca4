package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"feedsync/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	app := fiber.New()
	app.Use(auth.New(auth.Config{ApiKey: "secret", Public: []string{"/swagger"}}))
	app.Get("/feeds", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/swagger/index.html", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	tests := []struct {
		name   string
		path   string
		header string
		value  string
		want   int
	}{
		{"Missing", "/feeds", "", "", http.StatusUnauthorized},
		{"Wrong", "/feeds", auth.Header, "nope", http.StatusUnauthorized},
		{"Header", "/feeds", auth.Header, "secret", http.StatusOK},
		{"Bearer", "/feeds", "Authorization", "Bearer secret", http.StatusOK},
		{"Public", "/swagger/index.html", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestNew_EmptyKeyDisablesAuth(t *testing.T) {
	app := fiber.New()
	app.Use(auth.New(auth.Config{}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
