package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/config"
	"github.com/quizgate/quizgate-backend/internal/database"
	"github.com/quizgate/quizgate-backend/internal/logger"
	"github.com/quizgate/quizgate-backend/internal/service"
)

// Clears a user's single-device login lock so they can sign in again after
// losing their session (crashed browser, replaced device).
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: reset-login <user-id>")
		os.Exit(1)
	}

	userID, err := uuid.Parse(os.Args[1])
	if err != nil {
		fmt.Printf("Error: %q is not a valid user ID\n", os.Args[1])
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	authService := service.NewAuthService(cfg, rdb)
	if err := authService.ResetLogin(ctx, userID); err != nil {
		log.Fatal().Err(err).Msg("Failed to reset login session")
	}

	fmt.Printf("Login session cleared for user %s\n", userID)
}
