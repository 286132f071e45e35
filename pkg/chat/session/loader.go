package session

import (
	"context"
	"sort"
	"strings"

	"learnly-chat-be/internal/entity"
	"learnly-chat-be/internal/pkg/logger"
	"learnly-chat-be/internal/repository/contract"
	"learnly-chat-be/internal/repository/specification"
)

// LoadResult carries a soft failure: on error Success is false, Message
// says why and Sessions is empty, never nil.
type LoadResult struct {
	Success  bool
	Message  string
	Sessions []*entity.ChatSession
}

// Loader produces a user's sessions, most recently active first.
type Loader struct {
	repo   contract.ChatSessionRepository
	logger logger.ILogger
}

func NewLoader(repo contract.ChatSessionRepository, log logger.ILogger) *Loader {
	return &Loader{repo: repo, logger: log}
}

func (l *Loader) Load(ctx context.Context, ownerId string) LoadResult {
	if strings.TrimSpace(ownerId) == "" {
		return LoadResult{Message: "owner id is required", Sessions: []*entity.ChatSession{}}
	}

	sessions, err := l.repo.FindAll(ctx, specification.UserOwnedBy{UserID: ownerId})
	if err != nil {
		l.logger.Warn("CHAT", "Failed to load chat sessions", map[string]interface{}{
			"user_id": ownerId,
			"error":   err.Error(),
		})
		return LoadResult{Message: "failed to load chat sessions", Sessions: []*entity.ChatSession{}}
	}
	if sessions == nil {
		sessions = []*entity.ChatSession{}
	}

	SortByActivity(sessions)
	return LoadResult{Success: true, Sessions: sessions}
}

// SortByActivity orders sessions by effective timestamp descending. Ties keep
// their input order.
func SortByActivity(sessions []*entity.ChatSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].EffectiveMillis() > sessions[j].EffectiveMillis()
	})
}
