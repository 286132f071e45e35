package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"learnly-chat-be/internal/constant"
	"learnly-chat-be/internal/entity"
	"learnly-chat-be/internal/pkg/logger"
	"learnly-chat-be/internal/repository/contract"
	"learnly-chat-be/pkg/chat/history"
	"learnly-chat-be/pkg/chat/session"
	"learnly-chat-be/pkg/llm"
)

// Policy decides what a failed completion does to the exchange.
type Policy int

const (
	// PolicyPropagate aborts the exchange and returns ErrCompletionFailed.
	// Nothing is persisted for the exchange.
	PolicyPropagate Policy = iota
	// PolicyFallback substitutes the canned reply and persists the pair.
	PolicyFallback
)

func (p Policy) String() string {
	if p == PolicyFallback {
		return "fallback"
	}
	return "propagate"
}

var (
	ErrCompletionFailed  = errors.New("completion failed")
	ErrPersistenceFailed = errors.New("persisting exchange failed")
)

type Request struct {
	ChatId  *string
	OwnerId string
	Text    string
	// History is the transcript shown to the user before this exchange.
	History     []*entity.ChatMessage
	Policy      Policy
	Pedagogical bool
}

type Outcome struct {
	Phase   Phase
	Skipped bool
	Reply   string
	// Session is the updated summary, ready to be moved to the head of the
	// caller's session list.
	Session          *entity.ChatSession
	CreatedSession   bool
	UsedFallback     bool
	UserMessage      *entity.ChatMessage
	AssistantMessage *entity.ChatMessage
}

// Orchestrator performs one user message / assistant reply exchange.
type Orchestrator struct {
	sessions *session.Manager
	sessRepo contract.ChatSessionRepository
	messages contract.ChatMessageRepository
	provider llm.LLMProvider
	logger   logger.ILogger
	fallback string
	now      func() time.Time
}

func NewOrchestrator(
	sessions *session.Manager,
	sessRepo contract.ChatSessionRepository,
	messages contract.ChatMessageRepository,
	provider llm.LLMProvider,
	log logger.ILogger,
) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		sessRepo: sessRepo,
		messages: messages,
		provider: provider,
		logger:   log,
		fallback: constant.FallbackReply,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// WithFallbackReply overrides the canned reply used by PolicyFallback.
func (o *Orchestrator) WithFallbackReply(reply string) *Orchestrator {
	if strings.TrimSpace(reply) != "" {
		o.fallback = reply
	}
	return o
}

// Send runs the exchange. Blank text is a no-op reported through
// Outcome.Skipped. The returned Outcome is never nil.
func (o *Orchestrator) Send(ctx context.Context, req Request) (*Outcome, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return &Outcome{Phase: PhaseIdle, Skipped: true}, nil
	}

	x := newTracker()
	x.to(PhaseSending)
	out := &Outcome{}
	fail := func(err error) (*Outcome, error) {
		x.to(PhaseFailed)
		out.Phase = x.phase
		return out, err
	}

	// Step 1: ensure a session exists.
	var chat *entity.ChatSession
	if req.ChatId == nil || strings.TrimSpace(*req.ChatId) == "" {
		created, err := o.sessions.Create(ctx, req.OwnerId, session.TitleFromText(text))
		if err != nil {
			return fail(err)
		}
		chat = created
		out.CreatedSession = true
	} else {
		found, err := o.sessions.Find(ctx, req.OwnerId, *req.ChatId)
		if err != nil {
			return fail(err)
		}
		chat = found
	}
	out.Session = chat

	// Step 2: completion.
	conversation := append(history.ToLLMMessages(req.History), llm.Message{Role: llm.RoleUser, Content: text})
	var opts []llm.Option
	if req.Pedagogical {
		opts = append(opts, llm.WithSystemInstruction(constant.TutorSystemInstruction))
	}

	reply, err := o.provider.Chat(ctx, conversation, opts...)
	if err != nil {
		o.logger.Warn("CHAT", "Completion failed", map[string]interface{}{
			"chat_id": chat.Id,
			"policy":  req.Policy.String(),
			"error":   err.Error(),
		})
		if req.Policy != PolicyFallback {
			return fail(fmt.Errorf("%w: %v", ErrCompletionFailed, err))
		}
		reply = o.fallback
		out.UsedFallback = true
	}

	// Step 3: persist user then assistant message, then the session counters.
	sentAt := o.now().UTC()
	userMsg := &entity.ChatMessage{
		ChatId:    chat.Id,
		Role:      constant.ChatMessageRoleUser,
		Content:   text,
		Timestamp: sentAt,
	}
	if err := o.messages.Create(ctx, userMsg); err != nil {
		return fail(fmt.Errorf("%w: user message: %v", ErrPersistenceFailed, err))
	}
	out.UserMessage = userMsg

	assistantMsg := &entity.ChatMessage{
		ChatId:    chat.Id,
		Role:      constant.ChatMessageRoleAssistant,
		Content:   reply,
		Timestamp: sentAt.Add(time.Millisecond),
	}
	if err := o.messages.Create(ctx, assistantMsg); err != nil {
		return fail(fmt.Errorf("%w: assistant message: %v", ErrPersistenceFailed, err))
	}
	out.AssistantMessage = assistantMsg

	updatedAt := o.now().UTC()
	count := chat.MessageCount + 2
	patch := entity.ChatSessionPatch{MessageCount: &count, UpdatedAt: &updatedAt}
	if chat.MessageCount == 0 && chat.Title == constant.DefaultChatTitle {
		title := session.TitleFromText(text)
		patch.Title = &title
	}
	if err := o.sessRepo.Patch(ctx, chat.Id, patch); err != nil {
		return fail(fmt.Errorf("%w: session update: %v", ErrPersistenceFailed, err))
	}

	// Step 4: hand back the refreshed summary for the caller's reorder.
	updated := *chat
	patch.Apply(&updated)
	out.Session = &updated
	out.Reply = reply

	x.to(PhaseSucceeded)
	out.Phase = x.phase
	return out, nil
}
