// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	router "parkledger/internal/api"
	"parkledger/internal/api/handler"
	"parkledger/internal/cache"
	"parkledger/internal/config"
	"parkledger/internal/repository"
	"parkledger/internal/repository/postgres"
	"parkledger/internal/service"
	"parkledger/internal/util"
	"parkledger/pkg/db"
)

// Application holds all the initialized components of the service.
type Application struct {
	Config      *config.AppConfig
	Logger      *slog.Logger
	DB          *sqlx.DB
	RedisClient *redis.Client

	// Repositories
	WalletRepository      repository.WalletRepository
	TransactionRepository repository.TransactionRepository
	SessionRepository     repository.SessionRepository
	PricingRuleRepository repository.PricingRuleRepository

	// Services
	LedgerService     service.LedgerService
	PricingResolver   service.PricingResolver
	SettlementService service.SettlementService
	SessionService    service.SessionService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// Redis is optional; without it the active-session cache is disabled and
	// gate lookups fall through to Postgres.
	var activeStore *cache.ActiveSessionStore
	if cfg.RedisAddr != "" {
		app.RedisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := app.RedisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		activeStore = cache.NewActiveSessionStore(app.RedisClient, cfg.SessionCacheTTL)
		app.Logger.Info("Redis connection established.")
	}

	app.WalletRepository = postgres.NewWalletRepository(app.DB)
	app.TransactionRepository = postgres.NewTransactionRepository(app.DB)
	app.SessionRepository = postgres.NewSessionRepository(app.DB)
	app.PricingRuleRepository = postgres.NewPricingRuleRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	app.LedgerService = service.NewLedgerService(
		app.DB,
		app.DB,
		app.WalletRepository,
		app.TransactionRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.PricingResolver = service.NewPricingResolver(app.PricingRuleRepository)
	app.SettlementService = service.NewSettlementService(
		app.DB,
		app.DB,
		app.SessionRepository,
		app.TransactionRepository,
		app.PricingResolver,
		app.LedgerService,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Logger,
	)
	app.SessionService = service.NewSessionService(app.DB, app.SessionRepository, activeStore, app.Logger)
	app.Logger.Info("Services initialized.")

	sessionHandler := handler.NewSessionHandler(app.SessionService, app.Logger)
	settlementHandler := handler.NewSettlementHandler(app.SettlementService, app.Logger)
	walletHandler := handler.NewWalletHandler(app.LedgerService, app.Logger)
	app.HTTPHandler = router.NewRouter(sessionHandler, settlementHandler, walletHandler)
	app.Logger.Info("HTTP handlers initialized.")

	return nil
}

// Shutdown closes application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Logger.Error("Failed to close redis connection", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
