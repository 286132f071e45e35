package main

import (
	"context"
	"os"
	"time"

	"learnly-chat-be/internal/config"
	"learnly-chat-be/internal/mapper"
	"learnly-chat-be/pkg/database"
	"learnly-chat-be/pkg/docstore"

	"github.com/fatih/color"
)

type seedSession struct {
	title     string
	updatedAt interface{}
	createdAt interface{}
	messages  []seedMessage
}

type seedMessage struct {
	role      string
	content   string
	timestamp interface{}
}

// Each session stores its timestamps in a different shape so the loaders
// can be exercised against one realistic dataset.
func seedSessions(now time.Time) []seedSession {
	return []seedSession{
		{
			title:     "Fractions",
			updatedAt: now.Add(-2 * time.Hour).UnixMilli(),
			messages: []seedMessage{
				{"user", "How do I add 1/3 and 1/4?", now.Add(-3 * time.Hour).UnixMilli()},
				{"assistant", "Start by finding a common denominator. What is the smallest number both 3 and 4 divide into?", now.Add(-2 * time.Hour).UnixMilli()},
			},
		},
		{
			title:     "Photosynthesis",
			updatedAt: now.Add(-26 * time.Hour).UTC().Format(time.RFC3339),
			messages: []seedMessage{
				{"user", "Why are leaves green?", now.Add(-27 * time.Hour).UTC().Format(time.RFC3339)},
				{"assistant", "Chlorophyll reflects green light. Which colours do you think it absorbs?", now.Add(-26 * time.Hour).UTC().Format(time.RFC3339)},
			},
		},
		{
			title: "Essay outline",
			createdAt: map[string]interface{}{
				"seconds":     now.Add(-72 * time.Hour).Unix(),
				"nanoseconds": 0,
			},
			messages: []seedMessage{
				{"user", "Can you help me outline an essay on the water cycle?", map[string]interface{}{
					"_seconds": now.Add(-72 * time.Hour).Unix(),
				}},
			},
		},
	}
}

func main() {
	cfg := config.Load()

	userId := os.Getenv("SEED_USER_ID")
	if len(os.Args) > 1 {
		userId = os.Args[1]
	}
	if userId == "" {
		color.Red("Usage: seed <user-id> (or set SEED_USER_ID)")
		os.Exit(1)
	}
	if cfg.Database.Connection == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDB(cfg.Database.GormOptions())
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}
	store := docstore.NewGormStore(db)

	ctx := context.Background()
	color.Cyan("🌱 Seeding chat sessions for user %s\n", userId)

	for _, s := range seedSessions(time.Now()) {
		fields := map[string]interface{}{
			mapper.FieldUserId:       userId,
			mapper.FieldTitle:        s.title,
			mapper.FieldMessageCount: len(s.messages),
		}
		if s.updatedAt != nil {
			fields[mapper.FieldUpdatedAt] = s.updatedAt
		}
		if s.createdAt != nil {
			fields[mapper.FieldCreatedAt] = s.createdAt
		}

		chatId, err := store.CreateDocument(ctx, docstore.CollectionChatSessions, fields)
		if err != nil {
			color.Red("Failed to create session %q: %v", s.title, err)
			continue
		}
		color.Green("Created session %s (%s)", chatId, s.title)

		for _, m := range s.messages {
			_, err := store.CreateDocument(ctx, docstore.CollectionChatMessages, map[string]interface{}{
				mapper.FieldChatId:    chatId,
				mapper.FieldRole:      m.role,
				mapper.FieldContent:   m.content,
				mapper.FieldTimestamp: m.timestamp,
			})
			if err != nil {
				color.Red("  Failed to create message: %v", err)
				continue
			}
			color.White("  + %s: %s", m.role, m.content)
		}
	}

	color.Yellow("\nSeeding completed!")
}
