package entity

import "time"

type ChatSession struct {
	Id           string
	UserId       string
	Title        string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// EffectiveMillis is the ordering key of a session: last update, else
// creation, else 0.
func (s *ChatSession) EffectiveMillis() int64 {
	if s.UpdatedAt != nil && !s.UpdatedAt.IsZero() {
		return s.UpdatedAt.UnixMilli()
	}
	if !s.CreatedAt.IsZero() {
		return s.CreatedAt.UnixMilli()
	}
	return 0
}

// ChatSessionPatch lists the fields of a partial session update; nil fields
// are left untouched.
type ChatSessionPatch struct {
	Title        *string
	MessageCount *int
	UpdatedAt    *time.Time
}

// Apply copies the set fields of p onto s.
func (p ChatSessionPatch) Apply(s *ChatSession) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.MessageCount != nil {
		s.MessageCount = *p.MessageCount
	}
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		s.UpdatedAt = &t
	}
}
