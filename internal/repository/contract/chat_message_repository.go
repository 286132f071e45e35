package contract

import (
	"context"

	"learnly-chat-be/internal/entity"
	"learnly-chat-be/internal/repository/specification"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	DeleteByChatId(ctx context.Context, chatId string) (int, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
}
