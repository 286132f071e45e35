// Package view holds the caller-owned state of a chat screen: the ordered
// session list and the optimistic transcript. Nothing here is shared; each
// connection or screen owns its own values.
package view

import "learnly-chat-be/internal/entity"

// SessionList is an ordered, index-addressable list of session summaries.
type SessionList struct {
	items []*entity.ChatSession
}

func NewSessionList(sessions []*entity.ChatSession) *SessionList {
	items := make([]*entity.ChatSession, len(sessions))
	copy(items, sessions)
	return &SessionList{items: items}
}

func (l *SessionList) Len() int {
	return len(l.items)
}

func (l *SessionList) At(i int) *entity.ChatSession {
	return l.items[i]
}

// Items returns a copy of the current order.
func (l *SessionList) Items() []*entity.ChatSession {
	out := make([]*entity.ChatSession, len(l.items))
	copy(out, l.items)
	return out
}

func (l *SessionList) IndexOf(id string) int {
	for i, s := range l.items {
		if s.Id == id {
			return i
		}
	}
	return -1
}

// MoveToFront replaces the cached summary with s and reinserts it at index 0.
// A session not yet in the list is inserted at the head.
func (l *SessionList) MoveToFront(s *entity.ChatSession) {
	if s == nil {
		return
	}
	if i := l.IndexOf(s.Id); i >= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
	l.items = append([]*entity.ChatSession{s}, l.items...)
}

func (l *SessionList) Remove(id string) bool {
	i := l.IndexOf(id)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return true
}

// Rename updates the cached title in place without reordering.
func (l *SessionList) Rename(id, title string) bool {
	i := l.IndexOf(id)
	if i < 0 {
		return false
	}
	renamed := *l.items[i]
	renamed.Title = title
	l.items[i] = &renamed
	return true
}
