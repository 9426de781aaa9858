package system

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"go-cms/internal/config"
	"go-cms/internal/features/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(checks ...Check) *fiber.App {
	app := fiber.New()
	ctrl := NewSystemController(checks, &config.Config{AppId: "go-cms"}, zap.NewNop())
	NewSystemApi(ctrl).Setup(app)
	return app
}

func ok(ctx context.Context) error { return nil }

func TestHealthOK(t *testing.T) {
	app := newTestApp(Check{Name: "mongodb", Ping: ok}, Check{Name: "credentials", Ping: ok})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var report HealthReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, "go-cms", report.App)
	assert.Equal(t, map[string]string{"mongodb": "ok", "credentials": "ok"}, report.Checks)
}

func TestHealthDegraded(t *testing.T) {
	down := func(ctx context.Context) error { return errors.New("connection refused") }
	app := newTestApp(Check{Name: "mongodb", Ping: down}, Check{Name: "credentials", Ping: ok})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var report HealthReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, "connection refused", report.Checks["mongodb"])
	assert.Equal(t, "ok", report.Checks["credentials"])
}

func TestMetricsExposed(t *testing.T) {
	app := newTestApp()
	storage.CompletedSessionsTotal.Add(0)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "cms_upload_sessions_completed_total")
	assert.Contains(t, string(body), "go_goroutines")
}
