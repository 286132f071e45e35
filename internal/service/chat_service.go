package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"learnly-chat-be/internal/dto"
	"learnly-chat-be/internal/entity"
	"learnly-chat-be/internal/metrics"
	"learnly-chat-be/internal/pkg/logger"
	"learnly-chat-be/internal/repository/contract"
	"learnly-chat-be/pkg/chat/exchange"
	"learnly-chat-be/pkg/chat/history"
	"learnly-chat-be/pkg/chat/session"
	"learnly-chat-be/pkg/llm"
)

// ExchangeInput is one user message. A nil History makes the service use the
// stored transcript of ChatId.
type ExchangeInput struct {
	ChatId  *string
	Text    string
	History []*entity.ChatMessage
	// Tutor selects the pedagogical prompt and the fallback failure policy.
	Tutor bool
}

type IChatService interface {
	LoadSessions(ctx context.Context, userId string) session.LoadResult
	LoadMessages(ctx context.Context, userId string, chatId *string) (history.LoadResult, error)
	CreateSession(ctx context.Context, userId, title string) (*entity.ChatSession, error)
	RenameSession(ctx context.Context, userId, chatId, title string) (*entity.ChatSession, error)
	DeleteSession(ctx context.Context, userId, chatId string) (int, error)
	SendExchange(ctx context.Context, userId string, in ExchangeInput) (*exchange.Outcome, error)
}

type chatService struct {
	manager       *session.Manager
	sessionLoader *session.Loader
	historyLoader *history.Loader
	orchestrator  *exchange.Orchestrator
	publisher     IPublisherService
	metrics       *metrics.Metrics
	logger        logger.ILogger
	now           func() time.Time
}

func NewChatService(
	sessions contract.ChatSessionRepository,
	messages contract.ChatMessageRepository,
	provider llm.LLMProvider,
	publisher IPublisherService,
	m *metrics.Metrics,
	log logger.ILogger,
	fallbackReply string,
) IChatService {
	manager := session.NewManager(sessions, messages)
	orchestrator := exchange.NewOrchestrator(manager, sessions, messages, provider, log).
		WithFallbackReply(fallbackReply)

	return &chatService{
		manager:       manager,
		sessionLoader: session.NewLoader(sessions, log),
		historyLoader: history.NewLoader(messages, log),
		orchestrator:  orchestrator,
		publisher:     publisher,
		metrics:       m,
		logger:        log,
		now:           time.Now,
	}
}

func (s *chatService) LoadSessions(ctx context.Context, userId string) session.LoadResult {
	res := s.sessionLoader.Load(ctx, userId)
	s.metrics.RecordListLoad("sessions", res.Success)
	return res
}

func (s *chatService) LoadMessages(ctx context.Context, userId string, chatId *string) (history.LoadResult, error) {
	if chatId != nil && strings.TrimSpace(*chatId) != "" {
		if _, err := s.manager.Find(ctx, userId, *chatId); err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				return history.LoadResult{Messages: []*entity.ChatMessage{}}, err
			}
			s.logger.Error("CHAT", "Ownership lookup failed", map[string]interface{}{
				"chat_id": *chatId,
				"error":   err.Error(),
			})
			s.metrics.RecordListLoad("messages", false)
			return history.LoadResult{
				Success:  false,
				Message:  "failed to load chat messages",
				Messages: []*entity.ChatMessage{},
			}, nil
		}
	}

	res := s.historyLoader.Load(ctx, chatId)
	s.metrics.RecordListLoad("messages", res.Success)
	return res, nil
}

func (s *chatService) CreateSession(ctx context.Context, userId, title string) (*entity.ChatSession, error) {
	created, err := s.manager.Create(ctx, userId, title)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, dto.ChatActivitySessionCreated, userId, created, false)
	return created, nil
}

func (s *chatService) RenameSession(ctx context.Context, userId, chatId, title string) (*entity.ChatSession, error) {
	if _, err := s.manager.Find(ctx, userId, chatId); err != nil {
		return nil, err
	}
	if err := s.manager.Rename(ctx, chatId, title); err != nil {
		return nil, err
	}
	renamed, err := s.manager.Find(ctx, userId, chatId)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, dto.ChatActivitySessionRenamed, userId, renamed, false)
	return renamed, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId, chatId string) (int, error) {
	existing, err := s.manager.Find(ctx, userId, chatId)
	if err != nil {
		return 0, err
	}
	removed, err := s.manager.Delete(ctx, chatId)
	if err != nil {
		return removed, err
	}
	s.logger.Info("CHAT", "Session deleted", map[string]interface{}{
		"chat_id":          chatId,
		"removed_messages": removed,
	})
	s.publish(ctx, dto.ChatActivitySessionDeleted, userId, existing, false)
	return removed, nil
}

func (s *chatService) SendExchange(ctx context.Context, userId string, in ExchangeInput) (*exchange.Outcome, error) {
	start := s.now()
	mode, policy := "chat", exchange.PolicyPropagate
	if in.Tutor {
		mode, policy = "tutor", exchange.PolicyFallback
	}

	hist := in.History
	if hist == nil && in.ChatId != nil && strings.TrimSpace(*in.ChatId) != "" && strings.TrimSpace(in.Text) != "" {
		loaded, err := s.LoadMessages(ctx, userId, in.ChatId)
		if err != nil {
			s.metrics.RecordExchange(mode, "failed", time.Since(start))
			return &exchange.Outcome{Phase: exchange.PhaseFailed}, err
		}
		hist = loaded.Messages
	}

	out, err := s.orchestrator.Send(ctx, exchange.Request{
		ChatId:      in.ChatId,
		OwnerId:     userId,
		Text:        in.Text,
		History:     hist,
		Policy:      policy,
		Pedagogical: in.Tutor,
	})
	elapsed := time.Since(start)

	switch {
	case err != nil:
		s.metrics.RecordExchange(mode, "failed", elapsed)
		// The session outlives a failed completion; announce it so clients
		// can retry into it instead of creating another one.
		if out != nil && out.CreatedSession {
			s.publish(ctx, dto.ChatActivitySessionCreated, userId, out.Session, false)
		}
		return out, err
	case out.Skipped:
		s.metrics.RecordExchange(mode, "skipped", elapsed)
		return out, nil
	case out.UsedFallback:
		s.metrics.RecordExchange(mode, "fallback", elapsed)
	default:
		s.metrics.RecordExchange(mode, "succeeded", elapsed)
	}

	if out.CreatedSession {
		s.publish(ctx, dto.ChatActivitySessionCreated, userId, out.Session, false)
	}
	s.publish(ctx, dto.ChatActivityExchange, userId, out.Session, out.UsedFallback)
	return out, nil
}

func (s *chatService) publish(ctx context.Context, typ, userId string, chat *entity.ChatSession, usedFallback bool) {
	if s.publisher == nil || chat == nil {
		return
	}
	msg := dto.ChatActivityMessage{
		Type:         typ,
		UserId:       userId,
		ChatId:       chat.Id,
		Title:        chat.Title,
		MessageCount: chat.MessageCount,
		UsedFallback: usedFallback,
		Origin:       OriginFromContext(ctx),
		OccurredAt:   s.now().UTC(),
	}
	if err := s.publisher.SendChatActivity(ctx, msg); err != nil {
		s.logger.Warn("CHAT", "Failed to publish chat activity", map[string]interface{}{
			"type":    typ,
			"chat_id": chat.Id,
			"error":   err.Error(),
		})
	}
}

type originKey struct{}

// WithOrigin tags ctx with the id of the websocket client issuing a request,
// so the resulting activity is not echoed back to it.
func WithOrigin(ctx context.Context, clientId string) context.Context {
	return context.WithValue(ctx, originKey{}, clientId)
}

func OriginFromContext(ctx context.Context) string {
	origin, _ := ctx.Value(originKey{}).(string)
	return origin
}
