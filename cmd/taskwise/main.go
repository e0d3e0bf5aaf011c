package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/taskwise-dev/taskwise/db"
	"github.com/taskwise-dev/taskwise/internal/auth"
	"github.com/taskwise-dev/taskwise/internal/config"
	"github.com/taskwise-dev/taskwise/internal/handlers"
	"github.com/taskwise-dev/taskwise/internal/llm"
	"github.com/taskwise-dev/taskwise/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	if err := db.ConnectDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	handlers.InitChatClient(llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel))

	r := router.NewRouter()

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
