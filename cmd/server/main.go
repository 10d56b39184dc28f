package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/Dashikkkk/instagram-statistics/internal/api"
	"github.com/Dashikkkk/instagram-statistics/internal/auth"
	"github.com/Dashikkkk/instagram-statistics/internal/cloudsql"
	"github.com/Dashikkkk/instagram-statistics/internal/collector"
	"github.com/Dashikkkk/instagram-statistics/internal/config"
	"github.com/Dashikkkk/instagram-statistics/internal/database"
	"github.com/Dashikkkk/instagram-statistics/internal/logging"
	"github.com/Dashikkkk/instagram-statistics/internal/metrics"
	"github.com/Dashikkkk/instagram-statistics/internal/models"
	"github.com/Dashikkkk/instagram-statistics/internal/reports"
	"github.com/Dashikkkk/instagram-statistics/internal/scheduler"
	"github.com/Dashikkkk/instagram-statistics/internal/scraper"
	"github.com/Dashikkkk/instagram-statistics/internal/server"
)

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

	logger.Info("starting instagram-statistics API server")

	ctx := context.Background()

	if cfg.Database.URL == "" {
		dbURL, err := cloudsql.ResolveDatabaseURL()
		if err != nil {
			logger.Error("no database configuration", "error", err)
			os.Exit(1)
		}
		cfg.Database.URL = dbURL
	}

	logger.Info("connecting to database", "connection", cloudsql.ConnectionInfo())
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	if err := database.RunMigrations(db, "./migrations", logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	userRepo := database.NewPostgresUserRepository(db)
	runRepo := database.NewPostgresRunRepository(db)
	statsRepo := database.NewPostgresStatsRepository(db)
	baseStatsRepo := database.NewPostgresBaseStatsRepository(db)

	instagram := auth.NewInstagramClient(cfg.Instagram)

	httpCollector, err := metrics.NewHTTPCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	collectorMetrics, err := metrics.NewCollectorMetrics(httpCollector.Registry())
	if err != nil {
		logger.Error("failed to init collector metrics", "error", err)
		os.Exit(1)
	}

	fetcher := scraper.NewFetcher(cfg.Collector.ProfileBaseURL, cfg.Collector.FetchTimeout)
	extractor := scraper.NewExtractor()
	batchCollector := collector.New(fetcher, extractor, runRepo, statsRepo, logger, collectorMetrics,
		collector.Config{Concurrency: cfg.Collector.Concurrency})
	aggregator := reports.NewAggregator(baseStatsRepo, baseStatsRepo, logger)

	trigger := &collectionTrigger{
		users:      userRepo,
		collector:  batchCollector,
		aggregator: aggregator,
		cfg:        cfg.Collector,
		logger:     logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(r.Context(), db); err != nil {
			http.Error(w, `{"status":"unhealthy"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", httpCollector.Handler())

	if err := api.SetupRoutes(mux, instagram, userRepo, runRepo, trigger, cfg.Auth, logger); err != nil {
		logger.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	if cfg.Server.StaticPath != "" {
		logger.Info("serving static files", "path", cfg.Server.StaticPath)
		mux.Handle("/", http.FileServer(http.Dir(cfg.Server.StaticPath)))
	}

	if cfg.Collector.ScheduleTime != "" {
		sched := scheduler.NewCollectionScheduler(trigger, cfg.Collector.ScheduleTime, logger)
		go sched.Start(ctx)
		defer sched.Stop()
	}

	srv := server.New(cfg.Server, logger, httpCollector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

// collectionTrigger runs a full collection batch on demand for the admin
// endpoint, mirroring what cmd/collector does on schedule.
type collectionTrigger struct {
	users      models.UserRepository
	collector  *collector.Collector
	aggregator *reports.Aggregator
	cfg        config.CollectorConfig
	logger     *slog.Logger
}

func (t *collectionTrigger) TriggerCollection(ctx context.Context) error {
	users, err := t.users.GetActiveUsers(ctx, t.cfg.ActiveWindow)
	if err != nil {
		return fmt.Errorf("failed to list active users: %w", err)
	}

	t.collector.RunBatch(ctx, users)
	t.aggregator.Run(ctx, users)
	return nil
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
