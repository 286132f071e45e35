package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"learnly-chat-be/internal/pkg/logger"
	"learnly-chat-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler})
	NewChatSocketHandler(nil, nil, "secret", logger.NewNopLogger()).RegisterRoutes(app.Group("/api"))
	return app
}

func TestServeWs_Handshake(t *testing.T) {
	valid, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u1"}).SignedString([]byte("other"))
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "missing token", path: "/api/chat/v1/ws", want: http.StatusUnauthorized},
		{name: "forged token", path: "/api/chat/v1/ws?token=" + forged, want: http.StatusUnauthorized},
		{name: "plain http", path: "/api/chat/v1/ws?token=" + valid, want: http.StatusUpgradeRequired},
	}

	app := newApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
