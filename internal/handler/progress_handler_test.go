package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"orchestration-agent/internal/pkg/logger"
	internalWS "orchestration-agent/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(secret string) *fiber.App {
	app := fiber.New()
	NewProgressHandler(internalWS.NewHub(nil, logger.NewNopLogger()), secret, logger.NewNopLogger()).RegisterRoutes(app)
	return app
}

func wsRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	return req
}

func TestServeWs_RequiresUpgrade(t *testing.T) {
	resp, err := newApp("").Test(httptest.NewRequest(http.MethodGet, "/api/v1/orchestrations/exec-1/ws", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestServeWs_Authorization(t *testing.T) {
	const secret = "s3cret"
	valid, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		header string
		code   int
	}{
		{"missing token", "/api/v1/orchestrations/exec-1/ws", "", http.StatusUnauthorized},
		{"bad token", "/api/v1/orchestrations/exec-1/ws?token=garbage", "", http.StatusUnauthorized},
		{"wrong secret header", "/api/v1/orchestrations/exec-1/ws", "Bearer " + mustSign(t, "other"), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := wsRequest(tt.target)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := newApp(secret).Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}

	assert.NoError(t, (&ProgressHandler{jwtSecret: secret}).authorizeToken(valid))
}

func mustSign(t *testing.T, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u1"}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}
