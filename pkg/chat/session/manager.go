package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"learnly-chat-be/internal/constant"
	"learnly-chat-be/internal/entity"
	"learnly-chat-be/internal/repository/contract"
	"learnly-chat-be/internal/repository/specification"
	"learnly-chat-be/pkg/docstore"
)

var (
	ErrSessionNotFound = errors.New("chat session not found or access denied")
	ErrEmptyTitle      = errors.New("title must not be empty")
)

// Manager handles session lifecycle operations
type Manager struct {
	sessions contract.ChatSessionRepository
	messages contract.ChatMessageRepository
	now      func() time.Time
}

func NewManager(sessions contract.ChatSessionRepository, messages contract.ChatMessageRepository) *Manager {
	return &Manager{
		sessions: sessions,
		messages: messages,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Create stores a new empty session. A blank title falls back to the
// placeholder title.
func (m *Manager) Create(ctx context.Context, ownerId, title string) (*entity.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = constant.DefaultChatTitle
	}

	s := &entity.ChatSession{
		UserId:       ownerId,
		Title:        title,
		MessageCount: 0,
		CreatedAt:    m.now().UTC(),
	}
	if err := m.sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	return s, nil
}

// Find returns the session with id. When ownerId is not empty the session
// must belong to it.
func (m *Manager) Find(ctx context.Context, ownerId, id string) (*entity.ChatSession, error) {
	specs := []specification.Specification{specification.ByID{ID: id}}
	if ownerId != "" {
		specs = append(specs, specification.UserOwnedBy{UserID: ownerId})
	}

	s, err := m.sessions.FindOne(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Rename overwrites the title only.
func (m *Manager) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	err := m.sessions.Patch(ctx, id, entity.ChatSessionPatch{Title: &title})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// Delete removes the session's messages and then the session itself. A
// failure part way leaves the session in place so the delete can be retried.
func (m *Manager) Delete(ctx context.Context, id string) (int, error) {
	removed, err := m.messages.DeleteByChatId(ctx, id)
	if err != nil {
		return removed, fmt.Errorf("delete messages of session %s: %w", id, err)
	}
	if err := m.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return removed, ErrSessionNotFound
		}
		return removed, fmt.Errorf("delete session %s: %w", id, err)
	}
	return removed, nil
}

// TitleFromText derives a session title from the first user message: at most
// TitleMaxRunes runes, with an ellipsis when truncated.
func TitleFromText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return constant.DefaultChatTitle
	}
	if utf8.RuneCountInString(text) <= constant.TitleMaxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:constant.TitleMaxRunes]) + constant.TitleEllipsis
}
