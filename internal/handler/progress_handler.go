package handler

import (
	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/internal/pkg/serverutils"
	internalWS "orchestration-agent/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ProgressHandler streams progress events of one execution over a websocket.
type ProgressHandler struct {
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewProgressHandler(hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *ProgressHandler {
	return &ProgressHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *ProgressHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	if err := h.authorize(c); err != nil {
		h.logger.Warn("PROGRESS", "Rejected websocket handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, err.Error()))
	}

	executionID := c.Params("executionId")
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("PROGRESS", "Starting WebSocket session", map[string]interface{}{"execution_id": executionID})
		internalWS.ServeWs(h.hub, conn, executionID)
		h.logger.Info("PROGRESS", "WebSocket session ended", map[string]interface{}{"execution_id": executionID})
	})(c)
}

// authorize accepts the token from the query (browsers cannot set headers on
// a websocket handshake) or the Authorization header. No secret, no check.
func (h *ProgressHandler) authorize(c *fiber.Ctx) error {
	if h.jwtSecret == "" {
		return nil
	}

	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')")
	}
	return h.authorizeToken(tokenStr)
}

func (h *ProgressHandler) authorizeToken(tokenStr string) error {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}
	return nil
}

// RegisterRoutes registers the progress stream route.
func (h *ProgressHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/api/v1/orchestrations/:executionId/ws", h.ServeWs)
}
