package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"learnly-chat-be/internal/dto"
	"learnly-chat-be/internal/metrics"
	"learnly-chat-be/internal/pkg/logger"
	"learnly-chat-be/internal/repository/implementation"
	"learnly-chat-be/internal/service"
	"learnly-chat-be/pkg/docstore"
	"learnly-chat-be/pkg/llm"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	replies []string
	err     error
}

func (p *stubProvider) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	reply := p.replies[0]
	if len(p.replies) > 1 {
		p.replies = p.replies[1:]
	}
	return reply, nil
}

func (p *stubProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, nil, opts...)
}

func newChatService(store *docstore.MemoryStore, provider llm.LLMProvider) service.IChatService {
	return service.NewChatService(
		implementation.NewChatSessionRepository(store),
		implementation.NewChatMessageRepository(store),
		provider,
		nil,
		metrics.NewMetrics(prometheus.NewRegistry()),
		logger.NewNopLogger(),
		"",
	)
}

func frameTypes(frames []dto.WsOutboundFrame) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.Type
	}
	return out
}

func sessionIds(c *Conversation) []string {
	items := c.Sessions().Items()
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = s.Id
	}
	return out
}

func TestConversation_SendMovesSessionToFront(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	store.Put(docstore.CollectionChatSessions, "A", map[string]interface{}{"userId": "u1", "title": "A", "messageCount": 2, "updatedAt": "2024-01-01T00:00:00Z"})
	store.Put(docstore.CollectionChatSessions, "B", map[string]interface{}{"userId": "u1", "title": "B", "updatedAt": "2024-01-05T00:00:00Z"})

	conv := NewConversation("u1", newChatService(store, &stubProvider{replies: []string{"sure"}}))

	frames := conv.Open(ctx)
	require.Equal(t, []string{dto.WsFrameSessions}, frameTypes(frames))
	assert.Equal(t, []string{"B", "A"}, sessionIds(conv))

	frames = conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameSelect, ChatId: "A"})
	require.Equal(t, []string{dto.WsFrameMessages}, frameTypes(frames))
	assert.Equal(t, "A", conv.Selected())

	frames = conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameSend, Text: "one more question"})
	require.Equal(t, []string{dto.WsFrameReply, dto.WsFrameSessions}, frameTypes(frames))

	assert.Equal(t, []string{"A", "B"}, sessionIds(conv))
	assert.Equal(t, 4, conv.Sessions().At(0).MessageCount)
	assert.Len(t, conv.Transcript().Messages(), 2)
	assert.Equal(t, 0, conv.Transcript().Pending())
}

func TestConversation_NewChatIsCreatedOnFirstSend(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	conv := NewConversation("u1", newChatService(store, &stubProvider{replies: []string{"hello!"}}))
	conv.Open(ctx)

	frames := conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameNewChat})
	require.Equal(t, []string{dto.WsFrameMessages}, frameTypes(frames))
	assert.Equal(t, "", conv.Selected())

	assert.Nil(t, conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameSend, Text: "   "}))

	conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameSend, Text: "Teach me about cells"})
	require.NotEmpty(t, conv.Selected())
	require.Equal(t, 1, conv.Sessions().Len())
	assert.Equal(t, conv.Selected(), conv.Sessions().At(0).Id)
	assert.Equal(t, "Teach me about cells", conv.Sessions().At(0).Title)
}

func TestConversation_FailedSendRevertsTentativeMessage(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	store.Put(docstore.CollectionChatSessions, "A", map[string]interface{}{"userId": "u1", "title": "A"})
	store.Put(docstore.CollectionChatMessages, "m1", map[string]interface{}{"chatId": "A", "role": "user", "content": "earlier"})

	conv := NewConversation("u1", newChatService(store, &stubProvider{err: errors.New("503")}))
	conv.Open(ctx)
	conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameSelect, ChatId: "A"})

	frames := conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameSend, Text: "will fail"})

	require.Equal(t, []string{dto.WsFrameError, dto.WsFrameMessages}, frameTypes(frames))
	msgs := conv.Transcript().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].Id)
}

func TestConversation_FailedFirstSendAdoptsCreatedSession(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	conv := NewConversation("u1", newChatService(store, &stubProvider{err: errors.New("503")}))
	conv.Open(ctx)

	frames := conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameSend, Text: "first try"})
	require.Equal(t, []string{dto.WsFrameError, dto.WsFrameSessions, dto.WsFrameMessages}, frameTypes(frames))
	require.NotEmpty(t, conv.Selected())
	require.Equal(t, 1, conv.Sessions().Len())
	assert.Equal(t, conv.Selected(), conv.Sessions().At(0).Id)
	assert.Empty(t, conv.Transcript().Messages())

	conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameSend, Text: "first try"})

	docs, err := store.GetCollection(ctx, docstore.CollectionChatSessions)
	require.NoError(t, err)
	assert.Len(t, docs, 1, "the retry reuses the adopted session")
	assert.Equal(t, 1, conv.Sessions().Len())
}

func TestConversation_TutorModeKeepsExchangeOnFailure(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	conv := NewConversation("u1", newChatService(store, &stubProvider{err: errors.New("503")}))
	conv.Open(ctx)

	frames := conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameSend, Text: "help", Tutor: true})

	require.Equal(t, []string{dto.WsFrameReply, dto.WsFrameSessions}, frameTypes(frames))
	reply := frames[0].Data.(dto.SendChatResponse)
	assert.True(t, reply.UsedFallback)
	assert.Len(t, conv.Transcript().Messages(), 2)
}

func TestConversation_RenameAndDelete(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	store.Put(docstore.CollectionChatSessions, "A", map[string]interface{}{"userId": "u1", "title": "A"})
	store.Put(docstore.CollectionChatSessions, "X", map[string]interface{}{"userId": "u2", "title": "X"})
	conv := NewConversation("u1", newChatService(store, &stubProvider{replies: []string{"ok"}}))
	conv.Open(ctx)
	conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameSelect, ChatId: "A"})

	frames := conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameRename, ChatId: "A", Title: "Biology"})
	require.Equal(t, []string{dto.WsFrameSessions}, frameTypes(frames))
	assert.Equal(t, "Biology", conv.Sessions().At(0).Title)

	frames = conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameRename, ChatId: "X", Title: "Mine"})
	require.Equal(t, []string{dto.WsFrameError}, frameTypes(frames))
	assert.Equal(t, "chat session not found", frames[0].Message)

	frames = conv.Handle(ctx, dto.WsInboundFrame{Type: dto.WsFrameDelete, ChatId: "A"})
	require.Equal(t, []string{dto.WsFrameSessions, dto.WsFrameMessages}, frameTypes(frames))
	assert.Equal(t, 0, conv.Sessions().Len())
	assert.Equal(t, "", conv.Selected())

	frames = conv.Handle(ctx, dto.WsInboundFrame{Type: "bogus"})
	assert.Equal(t, []string{dto.WsFrameError}, frameTypes(frames))
}

func newTestClient(hub *Hub, userId, id string) *Client {
	return &Client{Hub: hub, Id: id, UserId: userId, Send: make(chan []byte, 4)}
}

func TestHub_SendToUserSkipsOriginAndDeliversOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, metrics.NewMetrics(prometheus.NewRegistry()), logger.NewNopLogger())
	go hub.Run(ctx)

	phone := newTestClient(hub, "u1", "phone")
	laptop := newTestClient(hub, "u1", "laptop")
	other := newTestClient(hub, "u2", "other")
	for _, c := range []*Client{phone, laptop, other} {
		hub.register <- c
	}
	require.Eventually(t, func() bool { return hub.ConnectionCount("u1") == 2 }, time.Second, 5*time.Millisecond)

	hub.SendToUser("u1", dto.WsOutboundFrame{Type: dto.WsFrameSessionTouched, ChatId: "A"}, "phone")

	require.Len(t, laptop.Send, 1)
	assert.Len(t, phone.Send, 0)
	assert.Len(t, other.Send, 0)

	var frame dto.WsOutboundFrame
	require.NoError(t, json.Unmarshal(<-laptop.Send, &frame))
	assert.Equal(t, dto.WsFrameSessionTouched, frame.Type)
	assert.Equal(t, "A", frame.ChatId)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, nil, logger.NewNopLogger())
	go hub.Run(ctx)

	c := newTestClient(hub, "u1", "c1")
	hub.register <- c
	hub.unregister <- c
	require.Eventually(t, func() bool { return hub.ConnectionCount("u1") == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
	assert.True(t, c.enqueue([]byte("late")), "closed clients drop silently")
}

func TestHub_SendsAfterShutdownDoNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, nil, logger.NewNopLogger())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	c := newTestClient(hub, "u1", "c1")
	finished := make(chan bool)
	go func() {
		ok := hub.registerClient(c)
		hub.unregisterClient(c)
		finished <- ok
	}()

	select {
	case ok := <-finished:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("register/unregister blocked after the hub stopped")
	}
	_, open := <-c.Send
	assert.False(t, open)
}
