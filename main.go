package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/appstore"
	"github.com/yuantang/AppReviewMontior/pkg/classifier"
	"github.com/yuantang/AppReviewMontior/pkg/config"
	"github.com/yuantang/AppReviewMontior/pkg/database"
	"github.com/yuantang/AppReviewMontior/pkg/handlers"
	"github.com/yuantang/AppReviewMontior/pkg/llm"
	"github.com/yuantang/AppReviewMontior/pkg/notify"
	"github.com/yuantang/AppReviewMontior/pkg/repositories"
	"github.com/yuantang/AppReviewMontior/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("pagination_policy", cfg.Sync.PaginationPolicy),
		zap.Int("default_window_days", cfg.Sync.DefaultWindowDays))

	ctx := context.Background()

	// Run migrations via database/sql, then open the pgx pool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, "migrations", logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	accountRepo := repositories.NewAccountRepository(db)
	appRepo := repositories.NewAppRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	syncLogRepo := repositories.NewSyncLogRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)

	// Vendor transport
	storeClient := appstore.NewClient(&appstore.Config{
		BaseURL:  cfg.AppStore.BaseURL,
		PageSize: cfg.AppStore.PageSize,
	}, logger)

	tokenTTL := time.Duration(cfg.AppStore.TokenTTLMinutes) * time.Minute
	newTokens := func() services.TokenSource {
		return appstore.NewTokenProvider(tokenTTL, logger)
	}

	// Classifier
	llmClient, err := llm.NewClient(&llm.Config{
		Provider: cfg.AI.Provider,
		Endpoint: cfg.AI.Endpoint,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	if !cfg.AI.IsConfigured() {
		logger.Warn("AI classifier not fully configured, reviews will fall back to neutral")
	}
	reviewClassifier := classifier.New(llmClient, logger)

	// Services
	syncService := services.NewSyncService(
		accountRepo, appRepo, reviewRepo, syncLogRepo, settingsRepo,
		storeClient, reviewClassifier, notify.NewWebhookNotifier(logger),
		newTokens,
		services.SyncPolicy{
			DefaultWindowDays: cfg.Sync.DefaultWindowDays,
			PaginationPolicy:  cfg.Sync.PaginationPolicy,
			NotifyThreshold:   cfg.Sync.NotifyThreshold,
			EscalationTopics:  cfg.Sync.EscalationTopics,
		},
		logger,
	)
	accountService := services.NewAccountService(accountRepo, storeClient, newTokens, logger)

	// Handlers
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSyncHandler(cfg, syncService, syncLogRepo, logger).RegisterRoutes(mux)
	handlers.NewAdminHandler(cfg, accountService, logger).RegisterRoutes(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting app-review-monitor",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
