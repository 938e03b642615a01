// Package app opens the shared runtime (database, publisher, generator and
// services) used by the API server and the operator CLI.
package app

import (
	"context"
	"fmt"

	"finjournal/internal/assistant"
	"finjournal/internal/config"
	"finjournal/internal/database"
	"finjournal/internal/events"
	"finjournal/internal/logger"
	"finjournal/internal/server"
	"finjournal/internal/services"
)

// App holds the opened runtime. Close releases it.
type App struct {
	Config    *config.Config
	DB        *database.Manager
	Publisher events.Publisher
	Services  *server.Services
}

// Open connects to the database, applies pending migrations and wires the
// services. A missing AMQP URL or Gemini key disables that collaborator.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.Named("app")

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.RunMigrations(); err != nil {
		dbManager.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	publisher := events.Nop()
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			dbManager.Close()
			return nil, fmt.Errorf("failed to connect publisher: %w", err)
		}
		publisher = amqpPublisher
		log.Infow("ledger stale signals enabled", "exchange", cfg.AMQPExchange)
	}

	var gen assistant.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := assistant.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Warnw("assistant disabled", "error", err)
		} else {
			gen = gemini
		}
	}

	opts := services.Options{Timeout: dbManager.Timeout(), Publisher: publisher}
	svc := server.NewServices(dbManager.DB(), opts,
		assistant.NewParser(gen), assistant.NewReporter(gen, cfg.Currency))

	return &App{Config: cfg, DB: dbManager, Publisher: publisher, Services: svc}, nil
}

// Close releases the publisher and the connection pool.
func (a *App) Close() {
	log := logger.Named("app")
	if err := a.Publisher.Close(); err != nil {
		log.Warnw("publisher close error", "error", err)
	}
	if err := a.DB.Close(); err != nil {
		log.Warnw("database close error", "error", err)
	}
}
