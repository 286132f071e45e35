package websocket

import (
	"context"

	"learnly-chat-be/internal/dto"
	"learnly-chat-be/internal/service"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs runs one tutor connection until the peer goes away.
func ServeWs(hub *Hub, svc service.IChatService, c *websocket.Conn, userId string) {
	client := &Client{
		Hub:          hub,
		Conn:         c,
		Id:           uuid.NewString(),
		UserId:       userId,
		Send:         make(chan []byte, 256),
		conversation: NewConversation(userId, svc),
		inbox:        make(chan dto.WsInboundFrame, inboxSize),
	}
	if !client.Hub.registerClient(client) {
		c.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.writePump()
	go client.dispatch(ctx)
	client.readPump() // Run readPump in current goroutine (handler)
}
