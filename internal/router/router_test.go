package router_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peer-review-dashboard/internal/bootstrap"
	"github.com/noah-isme/peer-review-dashboard/internal/config"
	"github.com/noah-isme/peer-review-dashboard/internal/handler"
	"github.com/noah-isme/peer-review-dashboard/internal/middleware"
	"github.com/noah-isme/peer-review-dashboard/internal/router"
	"github.com/noah-isme/peer-review-dashboard/pkg/backend"
)

const jwtSecret = "router-secret"

type unavailableTransport struct{}

func (unavailableTransport) Do(context.Context, backend.Request) (backend.Response, error) {
	return backend.Response{}, backend.ErrUnavailable
}

func newTestApp(t *testing.T, withAuth bool) *fiber.App {
	t.Helper()
	cfg := config.Config{
		AppName:        "Peer Review Dashboard",
		AppEnv:         "test",
		BackendBaseURL: "http://backend.test/api",
		BackendTimeout: time.Second,
		SnapshotDriver: config.SnapshotDriverFile,
		SnapshotPath:   "/data",
		SnapshotKey:    "peerReview_platformData",
	}
	logger := zerolog.New(io.Discard)

	container, err := bootstrap.New(cfg, logger, bootstrap.Options{Fs: afero.NewMemMapFs(), Transport: unavailableTransport{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	deps := router.Dependencies{
		DashboardHandler: handler.NewDashboardHandler(container.Sync, container.Validator, logger),
		ReportHandler:    handler.NewReportHandler(container.Sync, logger),
	}
	if withAuth {
		deps.JWTMiddleware = middleware.JWTProtected(jwtSecret)
	}

	app := fiber.New()
	router.Register(app, cfg, deps)
	return app
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name": "Dr. Chen",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRegisterHealthAndMetrics(t *testing.T) {
	app := newTestApp(t, true)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Peer Review Dashboard", resp.Header.Get("X-Application"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRegisterOpenDashboardWithoutJWT(t *testing.T) {
	app := newTestApp(t, false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/state", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/projects/1/feedback", strings.NewReader(`{"action":"approve","comment":"ok","finalScore":150,"completionPercentage":80}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRegisterGuardsTeacherRoutes(t *testing.T) {
	app := newTestApp(t, true)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/state", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/state", nil)
	req.Header.Set("Authorization", bearer(t, "student"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/reports/projects.pdf", nil)
	req.Header.Set("Authorization", bearer(t, "student"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/reports/projects.pdf", nil)
	req.Header.Set("Authorization", bearer(t, "teacher"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get(handler.HeaderSnapshotStale))
}

func TestRegisterMutationsReportUnavailableBackend(t *testing.T) {
	app := newTestApp(t, false)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/dashboard/notifications/1/read", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
