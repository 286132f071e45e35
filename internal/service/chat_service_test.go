package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"learnly-chat-be/internal/dto"
	"learnly-chat-be/internal/metrics"
	"learnly-chat-be/internal/pkg/logger"
	"learnly-chat-be/internal/repository/implementation"
	"learnly-chat-be/pkg/chat/exchange"
	"learnly-chat-be/pkg/chat/session"
	"learnly-chat-be/pkg/docstore"
	"learnly-chat-be/pkg/llm"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	args := m.Called(ctx, history, options)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	args := m.Called(ctx, prompt, options)
	return args.String(0), args.Error(1)
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []dto.ChatActivityMessage
}

func (p *recordingPublisher) SendChatActivity(_ context.Context, msg dto.ChatActivityMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.sent))
	for i, m := range p.sent {
		out[i] = m.Type
	}
	return out
}

type serviceFixture struct {
	store     *docstore.MemoryStore
	provider  *mockProvider
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	svc       IChatService
}

func newServiceFixture() *serviceFixture {
	store := docstore.NewMemoryStore()
	f := &serviceFixture{
		store:     store,
		provider:  &mockProvider{},
		publisher: &recordingPublisher{},
		metrics:   metrics.NewMetrics(prometheus.NewRegistry()),
	}
	f.svc = NewChatService(
		implementation.NewChatSessionRepository(store),
		implementation.NewChatMessageRepository(store),
		f.provider,
		f.publisher,
		f.metrics,
		logger.NewNopLogger(),
		"",
	)
	return f
}

func TestChatService_LoadMessagesChecksOwnership(t *testing.T) {
	f := newServiceFixture()
	f.store.Put(docstore.CollectionChatSessions, "S", map[string]interface{}{"userId": "owner"})
	f.store.Put(docstore.CollectionChatMessages, "m1", map[string]interface{}{"chatId": "S", "role": "user", "content": "hi"})

	chatId := "S"
	res, err := f.svc.LoadMessages(context.Background(), "owner", &chatId)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, res.Messages, 1)

	_, err = f.svc.LoadMessages(context.Background(), "intruder", &chatId)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	res, err = f.svc.LoadMessages(context.Background(), "owner", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Messages)
}

func TestChatService_SessionLifecycleIsPublished(t *testing.T) {
	f := newServiceFixture()
	ctx := WithOrigin(context.Background(), "client-1")

	created, err := f.svc.CreateSession(ctx, "u1", "")
	require.NoError(t, err)

	renamed, err := f.svc.RenameSession(ctx, "u1", created.Id, "Geometry")
	require.NoError(t, err)
	assert.Equal(t, "Geometry", renamed.Title)

	_, err = f.svc.RenameSession(ctx, "u2", created.Id, "Stolen")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = f.svc.DeleteSession(ctx, "u2", created.Id)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	removed, err := f.svc.DeleteSession(ctx, "u1", created.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	assert.Equal(t, []string{
		dto.ChatActivitySessionCreated,
		dto.ChatActivitySessionRenamed,
		dto.ChatActivitySessionDeleted,
	}, f.publisher.types())
	assert.Equal(t, "client-1", f.publisher.sent[0].Origin)

	res := f.svc.LoadSessions(context.Background(), "u1")
	assert.True(t, res.Success)
	assert.Empty(t, res.Sessions)
}

func TestChatService_SendUsesStoredHistory(t *testing.T) {
	f := newServiceFixture()
	f.store.Put(docstore.CollectionChatSessions, "S", map[string]interface{}{"userId": "u1", "title": "Physics", "messageCount": 2})
	f.store.Put(docstore.CollectionChatMessages, "m1", map[string]interface{}{
		"chatId": "S", "role": "user", "content": "what is force?", "timestamp": "2024-01-01T10:00:00Z",
	})
	f.store.Put(docstore.CollectionChatMessages, "m2", map[string]interface{}{
		"chatId": "S", "role": "assistant", "content": "mass times acceleration", "timestamp": "2024-01-01T10:00:01Z",
	})

	f.provider.On("Chat", mock.Anything, []llm.Message{
		{Role: llm.RoleUser, Content: "what is force?"},
		{Role: llm.RoleAssistant, Content: "mass times acceleration"},
		{Role: llm.RoleUser, Content: "and weight?"},
	}, mock.Anything).Return("mass times gravity", nil).Once()

	chatId := "S"
	out, err := f.svc.SendExchange(context.Background(), "u1", ExchangeInput{ChatId: &chatId, Text: "and weight?"})

	require.NoError(t, err)
	assert.Equal(t, 4, out.Session.MessageCount)
	assert.Equal(t, []string{dto.ChatActivityExchange}, f.publisher.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ExchangesTotal.WithLabelValues("chat", "succeeded")))
	f.provider.AssertExpectations(t)
}

func TestChatService_SendPolicies(t *testing.T) {
	t.Run("chat mode propagates", func(t *testing.T) {
		f := newServiceFixture()
		f.provider.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota"))

		out, err := f.svc.SendExchange(context.Background(), "u1", ExchangeInput{Text: "hello"})

		assert.ErrorIs(t, err, exchange.ErrCompletionFailed)
		assert.Equal(t, exchange.PhaseFailed, out.Phase)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ExchangesTotal.WithLabelValues("chat", "failed")))

		msgs, err := f.store.GetCollection(context.Background(), docstore.CollectionChatMessages)
		require.NoError(t, err)
		assert.Empty(t, msgs)

		require.True(t, out.CreatedSession)
		require.NotNil(t, out.Session)
		assert.Equal(t, []string{dto.ChatActivitySessionCreated}, f.publisher.types())
		assert.Equal(t, out.Session.Id, f.publisher.sent[0].ChatId)
	})

	t.Run("tutor mode falls back", func(t *testing.T) {
		f := newServiceFixture()
		f.provider.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota"))

		out, err := f.svc.SendExchange(context.Background(), "u1", ExchangeInput{Text: "hello", Tutor: true})

		require.NoError(t, err)
		assert.True(t, out.UsedFallback)
		assert.True(t, out.CreatedSession)
		assert.Equal(t, []string{dto.ChatActivitySessionCreated, dto.ChatActivityExchange}, f.publisher.types())
		assert.True(t, f.publisher.sent[1].UsedFallback)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ExchangesTotal.WithLabelValues("tutor", "fallback")))
	})

	t.Run("blank text is skipped", func(t *testing.T) {
		f := newServiceFixture()

		out, err := f.svc.SendExchange(context.Background(), "u1", ExchangeInput{Text: "   "})

		require.NoError(t, err)
		assert.True(t, out.Skipped)
		assert.Empty(t, f.publisher.types())
		f.provider.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything)
	})
}
