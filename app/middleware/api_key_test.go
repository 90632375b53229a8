package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuardedApp(keys []string) *fiber.App {
	app := fiber.New()
	app.Use(NewAPIKeyMiddleware("X-API-Key", keys, "/health").Authenticate())
	app.Get("/health", func(c fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/prices", func(c fiber.Ctx) error { return c.SendString("prices") })
	return app
}

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		path   string
		header string
		want   int
	}{
		{name: "disabled without keys", path: "/prices", want: http.StatusOK},
		{name: "missing key", keys: []string{"k1"}, path: "/prices", want: http.StatusUnauthorized},
		{name: "wrong key", keys: []string{"k1"}, path: "/prices", header: "nope", want: http.StatusUnauthorized},
		{name: "second key accepted", keys: []string{"k1", "k2"}, path: "/prices", header: "k2", want: http.StatusOK},
		{name: "skipped path", keys: []string{"k1"}, path: "/health", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			resp, err := newGuardedApp(tt.keys).Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/records/:id", func(c fiber.Ctx) error { return c.Status(http.StatusTeapot).SendString("x") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/records/12", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
