package view

import (
	"fmt"

	"learnly-chat-be/internal/entity"
)

// Token identifies one pending optimistic operation.
type Token uint64

const pendingIdPrefix = "pending-"

// Transcript is a chronological message list with optimistic inserts. A
// tentative message is confirmed or reverted by its own token only, so a
// late failure never removes messages belonging to a newer operation.
type Transcript struct {
	messages []*entity.ChatMessage
	pending  map[Token]string // token -> temporary message id
	next     Token
}

func NewTranscript(messages []*entity.ChatMessage) *Transcript {
	t := &Transcript{pending: make(map[Token]string)}
	t.Reset(messages)
	return t
}

// Reset replaces the transcript and forgets every pending operation.
func (t *Transcript) Reset(messages []*entity.ChatMessage) {
	t.messages = make([]*entity.ChatMessage, len(messages))
	copy(t.messages, messages)
	t.pending = make(map[Token]string)
}

func (t *Transcript) Messages() []*entity.ChatMessage {
	out := make([]*entity.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// Confirmed returns the messages that are not tentative.
func (t *Transcript) Confirmed() []*entity.ChatMessage {
	tentative := make(map[string]bool, len(t.pending))
	for _, id := range t.pending {
		tentative[id] = true
	}
	out := make([]*entity.ChatMessage, 0, len(t.messages))
	for _, m := range t.messages {
		if !tentative[m.Id] {
			out = append(out, m)
		}
	}
	return out
}

func (t *Transcript) Pending() int {
	return len(t.pending)
}

// Tentative appends msg under a temporary id and returns its token.
func (t *Transcript) Tentative(msg entity.ChatMessage) Token {
	t.next++
	tok := t.next
	msg.Id = fmt.Sprintf("%s%d", pendingIdPrefix, tok)
	t.messages = append(t.messages, &msg)
	t.pending[tok] = msg.Id
	return tok
}

// Confirm swaps the tentative message of tok for the persisted messages.
// It returns false when tok is unknown or already resolved.
func (t *Transcript) Confirm(tok Token, persisted ...*entity.ChatMessage) bool {
	tempId, ok := t.pending[tok]
	if !ok {
		return false
	}
	delete(t.pending, tok)

	i := t.indexOf(tempId)
	if i < 0 {
		t.messages = append(t.messages, persisted...)
		return true
	}
	rest := append([]*entity.ChatMessage{}, t.messages[i+1:]...)
	t.messages = append(append(t.messages[:i], persisted...), rest...)
	return true
}

// Revert drops the tentative message of tok. It returns false when tok is
// unknown or already resolved.
func (t *Transcript) Revert(tok Token) bool {
	tempId, ok := t.pending[tok]
	if !ok {
		return false
	}
	delete(t.pending, tok)

	if i := t.indexOf(tempId); i >= 0 {
		t.messages = append(t.messages[:i], t.messages[i+1:]...)
	}
	return true
}

func (t *Transcript) indexOf(id string) int {
	for i, m := range t.messages {
		if m.Id == id {
			return i
		}
	}
	return -1
}
