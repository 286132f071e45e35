package dto

import "time"

type ChatSessionResponse struct {
	Id           string     `json:"id"`
	Title        string     `json:"title"`
	MessageCount int        `json:"message_count"`
	CreatedAt    *time.Time `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

type ChatMessageResponse struct {
	Id        string    `json:"id"`
	ChatId    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type CreateSessionRequest struct {
	Title string `json:"title" validate:"max=200"`
}

type RenameSessionRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type DeleteSessionResponse struct {
	Id              string `json:"id"`
	RemovedMessages int    `json:"removed_messages"`
}

// HistoryMessage is a transcript entry supplied by the caller. When a send
// request carries no history the stored transcript is used.
type HistoryMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type SendChatRequest struct {
	ChatId  *string          `json:"chat_id"`
	Text    string           `json:"text" validate:"max=8000"`
	History []HistoryMessage `json:"history,omitempty" validate:"dive"`
}

// SendChatResponse carries only Skipped when the text was blank.
type SendChatResponse struct {
	Session        *ChatSessionResponse `json:"session,omitempty"`
	Sent           *ChatMessageResponse `json:"sent,omitempty"`
	Reply          *ChatMessageResponse `json:"reply,omitempty"`
	CreatedSession bool                 `json:"created_session"`
	UsedFallback   bool                 `json:"used_fallback"`
	Skipped        bool                 `json:"skipped"`
}
