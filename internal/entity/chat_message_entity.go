package entity

import "time"

type ChatMessage struct {
	Id        string
	ChatId    string
	Role      string
	Content   string
	Timestamp time.Time
}

// TimestampMillis returns 0 for a message without a timestamp.
func (m *ChatMessage) TimestampMillis() int64 {
	if m.Timestamp.IsZero() {
		return 0
	}
	return m.Timestamp.UnixMilli()
}
