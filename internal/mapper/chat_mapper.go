package mapper

import (
	"fmt"
	"strings"
	"time"

	"learnly-chat-be/internal/entity"
	"learnly-chat-be/pkg/docstore"
	"learnly-chat-be/pkg/timestamp"
)

// Document field names shared with the web client.
const (
	FieldUserId       = "userId"
	FieldTitle        = "title"
	FieldMessageCount = "messageCount"
	FieldCreatedAt    = "createdAt"
	FieldUpdatedAt    = "updatedAt"

	FieldChatId    = "chatId"
	FieldRole      = "role"
	FieldContent   = "content"
	FieldTimestamp = "timestamp"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) DocumentToChatSession(doc docstore.Document) *entity.ChatSession {
	s := &entity.ChatSession{
		Id:           doc.Id,
		UserId:       stringField(doc.Get(FieldUserId)),
		Title:        stringField(doc.Get(FieldTitle)),
		MessageCount: intField(doc.Get(FieldMessageCount)),
		CreatedAt:    TimeFromMillis(timestamp.FieldMillis(doc.Get(FieldCreatedAt))),
	}
	if ms := timestamp.FieldMillis(doc.Get(FieldUpdatedAt)); ms != 0 {
		t := TimeFromMillis(ms)
		s.UpdatedAt = &t
	}
	return s
}

func (m *ChatMapper) ChatSessionToFields(s *entity.ChatSession) map[string]interface{} {
	fields := map[string]interface{}{
		FieldUserId:       s.UserId,
		FieldTitle:        s.Title,
		FieldMessageCount: s.MessageCount,
		FieldCreatedAt:    EncodeTime(s.CreatedAt),
	}
	if s.UpdatedAt != nil {
		fields[FieldUpdatedAt] = EncodeTime(*s.UpdatedAt)
	}
	return fields
}

// Message Mappers

func (m *ChatMapper) DocumentToChatMessage(doc docstore.Document) *entity.ChatMessage {
	return &entity.ChatMessage{
		Id:        doc.Id,
		ChatId:    stringField(doc.Get(FieldChatId)),
		Role:      stringField(doc.Get(FieldRole)),
		Content:   stringField(doc.Get(FieldContent)),
		Timestamp: TimeFromMillis(timestamp.FieldMillis(doc.Get(FieldTimestamp))),
	}
}

func (m *ChatMapper) ChatMessageToFields(msg *entity.ChatMessage) map[string]interface{} {
	return map[string]interface{}{
		FieldChatId:    msg.ChatId,
		FieldRole:      msg.Role,
		FieldContent:   msg.Content,
		FieldTimestamp: EncodeTime(msg.Timestamp),
	}
}

// EncodeTime writes t in the {seconds, nanoseconds} server-timestamp shape.
func EncodeTime(t time.Time) map[string]interface{} {
	return map[string]interface{}{
		"seconds":     t.Unix(),
		"nanoseconds": int64(t.Nanosecond()),
	}
}

// TimeFromMillis maps 0 to the zero time so "absent" survives the round trip.
func TimeFromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func stringField(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func intField(raw interface{}) int {
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	default:
		return 0
	}
}

func (m *ChatMapper) ChatSessionPatchToFields(p entity.ChatSessionPatch) map[string]interface{} {
	fields := make(map[string]interface{}, 3)
	if p.Title != nil {
		fields[FieldTitle] = *p.Title
	}
	if p.MessageCount != nil {
		fields[FieldMessageCount] = *p.MessageCount
	}
	if p.UpdatedAt != nil {
		fields[FieldUpdatedAt] = EncodeTime(*p.UpdatedAt)
	}
	return fields
}
