package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orchestration-agent/internal/bootstrap"
	"orchestration-agent/internal/config"
	"orchestration-agent/internal/controller"
	"orchestration-agent/internal/dto"
	"orchestration-agent/internal/handler"
	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/internal/pkg/serverutils"
	"orchestration-agent/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "s3cret"

type idleService struct{}

func (idleService) Orchestrate(ctx context.Context, req *dto.OrchestrationRequest) (*dto.OrchestrationResponse, error) {
	return &dto.OrchestrationResponse{Success: true, ExecutionID: req.ExecutionID}, nil
}

func (idleService) GetResult(ctx context.Context, executionID string) (*dto.OrchestrationResponse, error) {
	return nil, serverutils.NewNotFoundError("No result for execution " + executionID)
}

func (idleService) GetStatus(executionID string) (*dto.ExecutionStatusResponse, bool) {
	return nil, false
}

func (idleService) ListRuns(ctx context.Context, req *dto.ListRunsRequest) ([]*dto.OrchestrationRunSummary, error) {
	return nil, nil
}

func (idleService) Health() dto.HealthResponse {
	return dto.HealthResponse{Status: "healthy"}
}

func newTestServer() *Server {
	hub := websocket.NewHub(nil, logger.NewNopLogger())
	container := &bootstrap.Container{
		OrchestrationController: controller.NewOrchestrationController(idleService{}),
		ProgressHandler:         handler.NewProgressHandler(hub, secret, logger.NewNopLogger()),
		WebSocketHub:            hub,
		JwtMiddleware:           serverutils.NewJwtMiddleware(secret),
		Logger:                  logger.NewNopLogger(),
	}
	cfg := &config.Config{App: config.AppConfig{Port: "0", CorsAllowedOrigins: "*"}}
	return New(cfg, container)
}

func signed(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestRoutes_ProgressStreamAcceptsQueryToken(t *testing.T) {
	app := newTestServer().GetApp()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orchestrations/exec-1/ws?token="+signed(t), nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.NotEqual(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orchestrations/exec-1/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoutes_OrchestrationRequiresBearer(t *testing.T) {
	app := newTestServer().GetApp()
	body := `{"document_ids":["u_p_d1"],"prompt":"q"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orchestrate?token="+signed(t), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/orchestrate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signed(t))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RecoversFromHandlerPanic(t *testing.T) {
	app := newTestServer().GetApp()
	app.Get("/panics", func(ctx *fiber.Ctx) error {
		var m map[string]int
		m["boom"] = 1
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
