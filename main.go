package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver for migrations
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ichooserx/rxsync-engine/pkg/config"
	"github.com/ichooserx/rxsync-engine/pkg/database"
	"github.com/ichooserx/rxsync-engine/pkg/handlers"
	"github.com/ichooserx/rxsync-engine/pkg/logging"
	"github.com/ichooserx/rxsync-engine/pkg/middleware"
	"github.com/ichooserx/rxsync-engine/pkg/repositories"
	"github.com/ichooserx/rxsync-engine/pkg/services"
	"github.com/ichooserx/rxsync-engine/pkg/summaryapi"
	"github.com/ichooserx/rxsync-engine/pkg/watcher"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// A local .env is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("watch_dir", cfg.Watcher.Dir),
		zap.Duration("debounce", cfg.Watcher.Cooldown()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.String("error", logging.SanitizeError(err)))
	}

	pharmacyRepo := repositories.NewPharmacyRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	resolver := services.NewPharmacyResolver(pharmacyRepo, logger)
	ingestCfg := services.IngestConfig{
		Cooldown:       cfg.Watcher.Cooldown(),
		FuzzyThreshold: cfg.Reconciler.FuzzyThreshold,
	}
	ingest := services.NewIngestService(resolver, inventoryRepo, ingestCfg, logger)

	summaryClient := summaryapi.NewClient(summaryapi.Config{
		BaseURL:    cfg.SummaryAPI.BaseURL,
		Timeout:    cfg.SummaryAPI.Timeout(),
		MaxRetries: cfg.SummaryAPI.MaxRetries,
	}, logger)
	summaries := services.NewSummaryService(summaryClient, logger)

	w, err := watcher.New(cfg.Watcher.Dir, ingest, logger)
	if err != nil {
		logger.Fatal("Failed to create watcher", zap.Error(err))
	}
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		if err := w.Run(ctx); err != nil {
			logger.Error("Watcher stopped with error", zap.Error(err))
		}
	}()

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewUploadHandler(cfg.Watcher.Dir, ingest, logger).RegisterRoutes(mux)
	handlers.NewSummaryHandler(summaries, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: middleware.RequestLogger(logger)(mux),
	}

	go func() {
		logger.Info("Starting rxsync-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown incomplete", zap.Error(err))
	}
	<-watcherDone
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// runMigrations applies pending schema migrations over a short-lived
// database/sql handle, released before the service starts.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	db, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return database.RunMigrations(db, "migrations", logger)
}
