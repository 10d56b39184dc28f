package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dashikkkk/instagram-statistics/internal/metrics"
	"github.com/Dashikkkk/instagram-statistics/internal/models"
)

// PageFetcher retrieves a raw profile page body for a profile name.
type PageFetcher interface {
	Fetch(ctx context.Context, name string) (string, error)
}

// ProfileExtractor parses a page body into structured statistics.
type ProfileExtractor interface {
	Extract(body string) (*models.ProfileData, error)
}

// AttemptResult is the outcome of one per-user collection attempt.
type AttemptResult struct {
	UserID int64  `json:"user_id"`
	OK     bool   `json:"ok"`
	Err    string `json:"error,omitempty"`
}

// Config holds orchestrator parameters.
type Config struct {
	// Concurrency bounds simultaneous attempts. The page source
	// rate-limits bursts from one IP.
	Concurrency int
}

// DefaultConfig returns the standard batch parameters.
func DefaultConfig() Config {
	return Config{Concurrency: 5}
}

// Collector runs collection attempts for a batch of users with bounded
// concurrency, isolating failures per user.
type Collector struct {
	fetcher   PageFetcher
	extractor ProfileExtractor
	runs      models.RunRepository
	stats     models.StatsRepository
	logger    *slog.Logger
	metrics   *metrics.CollectorMetrics
	config    Config
}

// New creates a Collector. metrics may be nil.
func New(
	fetcher PageFetcher,
	extractor ProfileExtractor,
	runs models.RunRepository,
	stats models.StatsRepository,
	logger *slog.Logger,
	collectorMetrics *metrics.CollectorMetrics,
	config Config,
) *Collector {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConfig().Concurrency
	}

	return &Collector{
		fetcher:   fetcher,
		extractor: extractor,
		runs:      runs,
		stats:     stats,
		logger:    logger,
		metrics:   collectorMetrics,
		config:    config,
	}
}

// RunBatch processes the user list with a bounded worker pool and returns
// one AttemptResult per user. Results are in completion order; callers key
// them by UserID. No error from an individual attempt escapes the batch.
func (c *Collector) RunBatch(ctx context.Context, users []models.User) []AttemptResult {
	batchID := uuid.New().String()

	c.logger.Info("starting collection batch",
		"batch_id", batchID,
		"users", len(users),
		"concurrency", c.config.Concurrency,
	)

	results := make(chan AttemptResult, len(users))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.config.Concurrency)

	for _, user := range users {
		wg.Add(1)

		go func(user models.User) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results <- c.collect(ctx, batchID, user)
		}(user)
	}

	wg.Wait()
	close(results)

	collected := make([]AttemptResult, 0, len(users))
	succeeded := 0
	for result := range results {
		if result.OK {
			succeeded++
		}
		collected = append(collected, result)
	}

	c.logger.Info("collection batch complete",
		"batch_id", batchID,
		"users", len(users),
		"succeeded", succeeded,
		"failed", len(users)-succeeded,
	)

	return collected
}

// collect performs one full attempt for a user: start a run, fetch and
// extract the page, persist snapshots, finish the run. Any error between
// fetch and persistence routes to MarkFailed; only a clean pass through all
// steps routes to MarkSucceeded.
func (c *Collector) collect(ctx context.Context, batchID string, user models.User) AttemptResult {
	start := time.Now()

	runID, err := c.runs.Start(ctx, user.ID)
	if err != nil {
		// Without a run id the attempt cannot be tracked at all.
		c.logger.Error("failed to start collection run",
			"batch_id", batchID,
			"user_id", user.ID,
			"error", err,
		)
		c.observe("error", start)
		return AttemptResult{UserID: user.ID, OK: false, Err: err.Error()}
	}

	if err := c.collectRun(ctx, runID, user); err != nil {
		if markErr := c.runs.MarkFailed(ctx, runID, err.Error()); markErr != nil {
			c.logger.Error("failed to record run failure",
				"batch_id", batchID,
				"user_id", user.ID,
				"run_id", runID,
				"error", markErr,
			)
		}

		c.logger.Warn("collection attempt failed",
			"batch_id", batchID,
			"user_id", user.ID,
			"user_name", user.Name,
			"run_id", runID,
			"error", err,
		)
		c.observe("failure", start)
		return AttemptResult{UserID: user.ID, OK: false, Err: err.Error()}
	}

	if err := c.runs.MarkSucceeded(ctx, runID); err != nil {
		c.logger.Error("failed to record run success",
			"batch_id", batchID,
			"user_id", user.ID,
			"run_id", runID,
			"error", err,
		)
		c.observe("error", start)
		return AttemptResult{UserID: user.ID, OK: false, Err: err.Error()}
	}

	c.logger.Info("collection attempt complete",
		"batch_id", batchID,
		"user_id", user.ID,
		"user_name", user.Name,
		"run_id", runID,
	)
	c.observe("success", start)
	return AttemptResult{UserID: user.ID, OK: true}
}

func (c *Collector) collectRun(ctx context.Context, runID int64, user models.User) error {
	body, err := c.fetcher.Fetch(ctx, user.Name)
	if err != nil {
		return err
	}

	data, err := c.extractor.Extract(body)
	if err != nil {
		return err
	}

	if err := c.stats.SaveAccountStats(ctx, runID, data.Stats); err != nil {
		return err
	}

	for _, post := range data.Posts {
		if err := c.stats.SavePostStats(ctx, runID, post); err != nil {
			return err
		}
	}

	return nil
}

func (c *Collector) observe(outcome string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveAttempt(outcome, time.Since(start))
}
