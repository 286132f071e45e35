package dto

import "time"

const (
	ChatActivitySessionCreated = "CHAT_SESSION_CREATED"
	ChatActivitySessionRenamed = "CHAT_SESSION_RENAMED"
	ChatActivitySessionDeleted = "CHAT_SESSION_DELETED"
	ChatActivityExchange       = "CHAT_EXCHANGE_COMPLETED"
)

// ChatActivityMessage is the payload published on the activity topic.
type ChatActivityMessage struct {
	Type         string    `json:"type"`
	UserId       string    `json:"user_id"`
	ChatId       string    `json:"chat_id"`
	Title        string    `json:"title,omitempty"`
	MessageCount int       `json:"message_count"`
	UsedFallback bool      `json:"used_fallback,omitempty"`
	// Origin is the websocket client that caused the change, if any.
	Origin       string    `json:"origin,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Websocket frame types.
const (
	WsFrameSend    = "send"
	WsFrameSelect  = "select"
	WsFrameNewChat = "new_chat"
	WsFrameDelete  = "delete"
	WsFrameRename  = "rename"
	WsFrameRefresh = "refresh"

	WsFrameSessions       = "sessions"
	WsFrameMessages       = "messages"
	WsFrameReply          = "reply"
	WsFrameError          = "error"
	WsFrameSessionTouched = "session_touched"
)

type WsInboundFrame struct {
	Type   string `json:"type"`
	ChatId string `json:"chat_id,omitempty"`
	Text   string `json:"text,omitempty"`
	Title  string `json:"title,omitempty"`
	// Tutor selects the pedagogical mode for send frames.
	Tutor bool `json:"tutor,omitempty"`
}

type WsOutboundFrame struct {
	Type    string      `json:"type"`
	ChatId  string      `json:"chat_id,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
