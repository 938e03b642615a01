package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finjournal/internal/app"
	"finjournal/internal/config"
	"finjournal/internal/logger"
	"finjournal/internal/server"
)

// @title           Finjournal API
// @version         1.0
// @description     Finjournal keeps a personal finance journal whose account balances always equal the sum of their transactions.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runtime, err := app.Open(ctx, appConfig)
	if err != nil {
		return err
	}
	defer runtime.Close()

	router := server.NewRouter(runtime.Services, server.Options{
		JWTSecret:     []byte(appConfig.JWTSecret),
		MetricsAPIKey: appConfig.MetricsAPIKey,
	})

	log.Infof("Starting Finjournal backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return server.Run(ctx, ":"+appConfig.Port, router, 10*time.Second)
}
