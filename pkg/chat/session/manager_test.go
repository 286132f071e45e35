package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"learnly-chat-be/internal/constant"
	"learnly-chat-be/internal/repository/implementation"
	"learnly-chat-be/pkg/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(store docstore.Store) *Manager {
	return NewManager(
		implementation.NewChatSessionRepository(store),
		implementation.NewChatMessageRepository(store),
	)
}

func TestTitleFromText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "short", text: "What is a derivative?", want: "What is a derivative?"},
		{name: "collapses whitespace", text: "  what \n is   pi ", want: "what is pi"},
		{name: "blank", text: "   ", want: constant.DefaultChatTitle},
		{name: "exactly fifty", text: strings.Repeat("a", 50), want: strings.Repeat("a", 50)},
		{name: "truncated", text: strings.Repeat("b", 51), want: strings.Repeat("b", 50) + "..."},
		{name: "multibyte", text: strings.Repeat("é", 60), want: strings.Repeat("é", 50) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TitleFromText(tt.text))
		})
	}
}

func TestManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	now := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	m := newManager(store).WithClock(func() time.Time { return now })

	s, err := m.Create(ctx, "u1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Id)
	assert.Equal(t, constant.DefaultChatTitle, s.Title)
	assert.Equal(t, 0, s.MessageCount)
	assert.Equal(t, now, s.CreatedAt)

	require.NoError(t, m.Rename(ctx, s.Id, "Algebra"))
	found, err := m.Find(ctx, "u1", s.Id)
	require.NoError(t, err)
	assert.Equal(t, "Algebra", found.Title)
	assert.Equal(t, now.UnixMilli(), found.CreatedAt.UnixMilli())

	_, err = m.Find(ctx, "u2", s.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	store.Put(docstore.CollectionChatMessages, "m1", map[string]interface{}{"chatId": s.Id})
	store.Put(docstore.CollectionChatMessages, "m2", map[string]interface{}{"chatId": s.Id})
	store.Put(docstore.CollectionChatMessages, "other", map[string]interface{}{"chatId": "x"})

	removed, err := m.Delete(ctx, s.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := store.GetCollection(ctx, docstore.CollectionChatMessages)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "other", left[0].Id)

	_, err = m.Find(ctx, "", s.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_RenameErrors(t *testing.T) {
	ctx := context.Background()
	m := newManager(docstore.NewMemoryStore())

	assert.Error(t, m.Rename(ctx, "missing", "  "))
	assert.ErrorIs(t, m.Rename(ctx, "missing", "Title"), ErrSessionNotFound)

	_, err := m.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
