// Package server assembles the ledger services into the HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"finjournal/internal/assistant"
	_ "finjournal/internal/docs" // swagger docs
	"finjournal/internal/handlers"
	"finjournal/internal/logger"
	"finjournal/internal/middleware"
	"finjournal/internal/services"
	"finjournal/internal/validator"
)

// Services is the set of ledger services the API exposes.
type Services struct {
	Accounts     services.AccountServicer
	Transactions services.TransactionServicer
	Months       services.MonthServicer
	Reports      services.ReportServicer
	Migrations   services.MigrationServicer
	Audit        services.AuditServicer
	Parser       assistant.Parser
}

// NewServices wires the ledger services over db.
func NewServices(db *gorm.DB, opts services.Options, parser assistant.Parser, reporter assistant.Reporter) *Services {
	accounts := services.NewAccountService(db, opts)
	months := services.NewMonthService(db, opts)
	return &Services{
		Accounts:     accounts,
		Transactions: services.NewTransactionService(db, accounts, opts),
		Months:       months,
		Reports:      services.NewReportService(months, reporter),
		Migrations:   services.NewMigrationService(db, opts),
		Audit:        services.NewAuditService(db, opts),
		Parser:       parser,
	}
}

// Options configures the router.
type Options struct {
	// JWTSecret verifies bearer tokens issued by the identity provider.
	JWTSecret []byte
	// MetricsAPIKey guards /metrics. When empty the endpoint is not mounted.
	MetricsAPIKey string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc *Services, opts Options) *gin.Engine {
	validator.Register()

	accountHandler := handlers.NewAccountHandler(svc.Accounts, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit, svc.Parser)
	monthHandler := handlers.NewMonthHandler(svc.Months, svc.Reports, svc.Audit)
	migrationHandler := handlers.NewMigrationHandler(svc.Migrations, svc.Audit)

	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if opts.MetricsAPIKey != "" {
		router.GET("/metrics", middleware.OperatorAuthMiddleware(opts.MetricsAPIKey), gin.WrapH(promhttp.Handler()))
	}

	// Protected routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(opts.JWTSecret))

	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.POST("/parse", transactionHandler.ParseTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	months := v1.Group("/months")
	months.POST("/onboard", monthHandler.Onboard)
	months.GET("/active", monthHandler.GetActiveMonth)
	months.PUT("/:id/opening-balance", monthHandler.UpdateOpeningBalance)
	months.GET("/:id/summary", monthHandler.GetMonthSummary)
	months.POST("/:id/report", monthHandler.GenerateReport)

	v1.POST("/migrate/accounts", migrationHandler.MigrateToAccounts)

	return router
}

// Run serves handler on addr until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func Run(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	log := logger.Named("server")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
