package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"messenger-bot-demo/backend/internal/models"
	"messenger-bot-demo/backend/pkg/config"
	"messenger-bot-demo/backend/pkg/di"
	"messenger-bot-demo/backend/pkg/logger"
	"messenger-bot-demo/backend/pkg/router"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logConfig.Level = level
	}
	logConfig.JSON = os.Getenv("LOG_FORMAT") != "text"

	appLog := logger.New(logConfig)
	logger.SetGlobal(appLog)

	appLog.Info("Starting application", "version", os.Getenv("APP_VERSION"))

	// Load and validate configuration
	cfg := config.New()
	if missing := cfg.Validate(); len(missing) > 0 {
		if cfg.IsProduction() {
			appLog.Error("Missing required configuration", "vars", missing)
			os.Exit(1)
		}
		appLog.Warn("Missing configuration, platform calls will fail", "vars", missing)
	}

	// Initialize database
	db, err := config.NewDB()
	if err != nil {
		appLog.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(&models.BotUser{}, &models.BotMessage{}); err != nil {
		appLog.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Create indexes for better query performance
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_recipient_direction ON bot_messages(recipient_id, received, delivered_at)").Error; err != nil {
		appLog.LogError(err, "Failed to create message index", "index", "idx_messages_recipient_direction")
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_sender_seq ON bot_messages(sender_id, seq)").Error; err != nil {
		appLog.LogError(err, "Failed to create message index", "index", "idx_messages_sender_seq")
	}

	// Initialize dependency injection container
	container := di.New(db, cfg, appLog)

	// Initialize and setup router
	r := router.New(container)
	r.SetupRoutes()

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	// Start the server in a goroutine
	go func() {
		appLog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal
	<-quit
	appLog.Info("Shutting down server...")

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		appLog.LogError(err, "Server forced to shutdown")
	}

	appLog.Info("Server exited gracefully")
}
