package main

import (
	"log"

	"learnly-chat-be/internal/config"
	"learnly-chat-be/internal/model"
	"learnly-chat-be/pkg/database"
)

func main() {
	// 1. Load Configuration (.env included)
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDB(cfg.Database.GormOptions())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting document store migration...")

	// 3. Pre-Migration: gen_random_uuid() lives in pgcrypto
	log.Println("Step 1: Setting up Extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	// 4. AutoMigrate
	log.Println("Step 2: Running AutoMigrate for documents...")
	if err := db.AutoMigrate(&model.Document{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: lookups by owner and by session
	log.Println("Step 3: Creating JSONB indexes...")
	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents ((fields->>'userId')) WHERE collection = 'chat_sessions';`,
		`CREATE INDEX IF NOT EXISTS idx_documents_chat_id ON documents ((fields->>'chatId')) WHERE collection = 'chat_messages';`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
