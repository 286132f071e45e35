package specification

import (
	"learnly-chat-be/internal/mapper"
	"learnly-chat-be/pkg/docstore"
)

// UserOwnedBy matches sessions whose owner field equals UserID.
type UserOwnedBy struct {
	UserID string
}

func (s UserOwnedBy) IsSatisfiedBy(doc docstore.Document) bool {
	return FilterBy{Field: mapper.FieldUserId, Value: s.UserID}.IsSatisfiedBy(doc)
}

// ByChatID matches messages joined to one session.
type ByChatID struct {
	ChatID string
}

func (s ByChatID) IsSatisfiedBy(doc docstore.Document) bool {
	return FilterBy{Field: mapper.FieldChatId, Value: s.ChatID}.IsSatisfiedBy(doc)
}
