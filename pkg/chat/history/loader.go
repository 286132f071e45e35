package history

import (
	"context"
	"sort"
	"strings"

	"learnly-chat-be/internal/constant"
	"learnly-chat-be/internal/entity"
	"learnly-chat-be/internal/pkg/logger"
	"learnly-chat-be/internal/repository/contract"
	"learnly-chat-be/internal/repository/specification"
	"learnly-chat-be/pkg/llm"
)

// LoadResult mirrors session.LoadResult for transcripts.
type LoadResult struct {
	Success  bool
	Message  string
	Messages []*entity.ChatMessage
}

// Loader produces the chronological transcript of one session.
type Loader struct {
	repo   contract.ChatMessageRepository
	logger logger.ILogger
}

func NewLoader(repo contract.ChatMessageRepository, log logger.ILogger) *Loader {
	return &Loader{repo: repo, logger: log}
}

// Load returns an empty success without touching the store when chatId is
// nil or blank.
func (l *Loader) Load(ctx context.Context, chatId *string) LoadResult {
	if chatId == nil || strings.TrimSpace(*chatId) == "" {
		return LoadResult{Success: true, Messages: []*entity.ChatMessage{}}
	}

	messages, err := l.repo.FindAll(ctx, specification.ByChatID{ChatID: *chatId})
	if err != nil {
		l.logger.Warn("CHAT", "Failed to load chat messages", map[string]interface{}{
			"chat_id": *chatId,
			"error":   err.Error(),
		})
		return LoadResult{Message: "failed to load chat messages", Messages: []*entity.ChatMessage{}}
	}
	if messages == nil {
		messages = []*entity.ChatMessage{}
	}

	SortChronologically(messages)
	return LoadResult{Success: true, Messages: messages}
}

// SortChronologically orders messages by timestamp ascending, stable on ties.
func SortChronologically(messages []*entity.ChatMessage) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].TimestampMillis() < messages[j].TimestampMillis()
	})
}

// ToLLMMessages converts the last HistoryWindow messages to provider messages.
func ToLLMMessages(messages []*entity.ChatMessage) []llm.Message {
	if len(messages) > constant.HistoryWindow {
		messages = messages[len(messages)-constant.HistoryWindow:]
	}

	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		if m == nil || strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := llm.RoleUser
		if m.Role == constant.ChatMessageRoleAssistant || m.Role == "model" {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}
