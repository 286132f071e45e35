package mapper

import (
	"learnly-chat-be/internal/dto"
	"learnly-chat-be/internal/entity"
)

func ToChatSessionResponse(s *entity.ChatSession) dto.ChatSessionResponse {
	res := dto.ChatSessionResponse{
		Id:           s.Id,
		Title:        s.Title,
		MessageCount: s.MessageCount,
		UpdatedAt:    s.UpdatedAt,
	}
	if !s.CreatedAt.IsZero() {
		createdAt := s.CreatedAt
		res.CreatedAt = &createdAt
	}
	return res
}

func ToChatSessionResponses(sessions []*entity.ChatSession) []dto.ChatSessionResponse {
	out := make([]dto.ChatSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, ToChatSessionResponse(s))
	}
	return out
}

func ToChatMessageResponse(m *entity.ChatMessage) *dto.ChatMessageResponse {
	if m == nil {
		return nil
	}
	return &dto.ChatMessageResponse{
		Id:        m.Id,
		ChatId:    m.ChatId,
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

func ToChatMessageResponses(messages []*entity.ChatMessage) []dto.ChatMessageResponse {
	out := make([]dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, *ToChatMessageResponse(m))
	}
	return out
}

// FromHistoryMessages converts caller-supplied history. A nil slice stays nil
// so the stored transcript is used instead.
func FromHistoryMessages(history []dto.HistoryMessage) []*entity.ChatMessage {
	if history == nil {
		return nil
	}
	out := make([]*entity.ChatMessage, 0, len(history))
	for _, h := range history {
		out = append(out, &entity.ChatMessage{Role: h.Role, Content: h.Content})
	}
	return out
}
