package handler

import (
	"learnly-chat-be/internal/pkg/logger"
	"learnly-chat-be/internal/pkg/serverutils"
	"learnly-chat-be/internal/service"
	internalWS "learnly-chat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type ChatSocketHandler struct {
	service   service.IChatService
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewChatSocketHandler(svc service.IChatService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *ChatSocketHandler {
	return &ChatSocketHandler{
		service:   svc,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs authenticates the handshake and upgrades to a tutor connection.
func (h *ChatSocketHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on a websocket handshake, so the query
	// parameter comes first.
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

	userId, err := serverutils.ParseUserId(tokenStr, h.jwtSecret)
	if err != nil {
		h.logger.Warn("ChatSocketHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ChatSocketHandler", "Starting tutor session", map[string]interface{}{"user_id": userId})
		internalWS.ServeWs(h.hub, h.service, conn, userId)
		h.logger.Info("ChatSocketHandler", "Tutor session ended", map[string]interface{}{"user_id": userId})
	})(c)
}

func (h *ChatSocketHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/chat/v1/ws", h.ServeWs)
}
