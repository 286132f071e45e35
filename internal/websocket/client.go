package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"learnly-chat-be/internal/dto"
	"learnly-chat-be/internal/service"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	inboxSize      = 8
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn

	Id     string
	UserId string

	// Buffered channel of outbound messages.
	Send chan []byte

	conversation *Conversation
	inbox        chan dto.WsInboundFrame

	mu     sync.Mutex
	closed bool
}

// enqueue queues data without blocking. It reports false when the buffer is
// full; a closed client silently drops data.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) push(frames ...dto.WsOutboundFrame) {
	for _, f := range frames {
		data, err := json.Marshal(f)
		if err != nil {
			c.Hub.logger.Error("Client", "Failed to encode frame", map[string]interface{}{"error": err.Error()})
			continue
		}
		if !c.enqueue(data) {
			c.Hub.logger.Warn("Client", "Send buffer full, dropping frame", map[string]interface{}{"client_id": c.Id, "type": f.Type})
		}
	}
}

// readPump decodes inbound frames and hands them to dispatch in order.
func (c *Client) readPump() {
	defer func() {
		close(c.inbox)
		c.Hub.unregisterClient(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{"user_id": c.UserId, "error": err.Error()})
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame dto.WsInboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.push(errorFrame("", "malformed frame"))
			continue
		}

		select {
		case c.inbox <- frame:
		default:
			c.push(errorFrame(frame.ChatId, "too many pending requests"))
		}
	}
}

// dispatch runs frames through the conversation one at a time, so a
// connection never has two exchanges in flight.
func (c *Client) dispatch(ctx context.Context) {
	ctx = service.WithOrigin(ctx, c.Id)
	c.push(c.conversation.Open(ctx)...)

	for frame := range c.inbox {
		c.push(c.conversation.Handle(ctx, frame)...)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One frame per websocket message; clients parse each as JSON.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
