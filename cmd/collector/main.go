package main

import (
	"context"
	"os"

	"log/slog"

	"github.com/Dashikkkk/instagram-statistics/internal/cloudsql"
	"github.com/Dashikkkk/instagram-statistics/internal/collector"
	"github.com/Dashikkkk/instagram-statistics/internal/config"
	"github.com/Dashikkkk/instagram-statistics/internal/database"
	"github.com/Dashikkkk/instagram-statistics/internal/logging"
	"github.com/Dashikkkk/instagram-statistics/internal/reports"
	"github.com/Dashikkkk/instagram-statistics/internal/scraper"
)

// The collector binary is invoked on a schedule (external cron). It exits 0
// unless the active user list itself cannot be obtained; per-user failures
// are recorded in the run ledger and logged only.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("collector starting")

	ctx := context.Background()

	if cfg.Database.URL == "" {
		dbURL, err := cloudsql.ResolveDatabaseURL()
		if err != nil {
			logger.Error("no database configuration", "error", err)
			os.Exit(1)
		}
		cfg.Database.URL = dbURL
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userRepo := database.NewPostgresUserRepository(db)
	runRepo := database.NewPostgresRunRepository(db)
	statsRepo := database.NewPostgresStatsRepository(db)
	baseStatsRepo := database.NewPostgresBaseStatsRepository(db)

	fetcher := scraper.NewFetcher(cfg.Collector.ProfileBaseURL, cfg.Collector.FetchTimeout)
	extractor := scraper.NewExtractor()
	batchCollector := collector.New(fetcher, extractor, runRepo, statsRepo, logger, nil,
		collector.Config{Concurrency: cfg.Collector.Concurrency})

	users, err := userRepo.GetActiveUsers(ctx, cfg.Collector.ActiveWindow)
	if err != nil {
		logger.Error("failed to list active users", "error", err)
		os.Exit(1)
	}

	results := batchCollector.RunBatch(ctx, users)

	aggregator := reports.NewAggregator(baseStatsRepo, baseStatsRepo, logger)
	aggregator.Run(ctx, users)

	succeeded := 0
	for _, result := range results {
		if result.OK {
			succeeded++
		}
	}

	logger.Info("collector complete",
		"users", len(users),
		"succeeded", succeeded,
		"failed", len(results)-succeeded,
	)
}
