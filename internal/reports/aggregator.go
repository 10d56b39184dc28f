package reports

import (
	"context"
	"log/slog"
	"time"

	"github.com/Dashikkkk/instagram-statistics/internal/models"
)

// StatsSource reads the per-user totals of the most recent successful run.
type StatsSource interface {
	LatestSuccessfulRunStats(ctx context.Context, userID int64) (models.BaseStats, bool, error)
}

// Aggregator writes daily and weekly base stats rollups after a collection
// batch. Failures are logged and never abort the batch process.
type Aggregator struct {
	source StatsSource
	store  models.BaseStatsRepository
	logger *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewAggregator creates an Aggregator.
func NewAggregator(source StatsSource, store models.BaseStatsRepository, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		source: source,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Run fills missing rollup buckets for each user.
func (a *Aggregator) Run(ctx context.Context, users []models.User) {
	for _, user := range users {
		if err := a.aggregateUser(ctx, user); err != nil {
			a.logger.Warn("base stats aggregation failed",
				"user_id", user.ID,
				"error", err,
			)
		}
	}
}

func (a *Aggregator) aggregateUser(ctx context.Context, user models.User) error {
	stats, ok, err := a.source.LatestSuccessfulRunStats(ctx, user.ID)
	if err != nil {
		return err
	}
	if !ok {
		// Nothing collected for this user yet.
		return nil
	}

	today := a.todayUTC()
	exists, err := a.store.HasDaily(ctx, user.ID, today)
	if err != nil {
		return err
	}
	if !exists {
		stats.Date = today
		if err := a.store.AddDaily(ctx, stats); err != nil {
			return err
		}
	}

	week := a.lastWeekStartUTC()
	exists, err = a.store.HasWeekly(ctx, user.ID, week)
	if err != nil {
		return err
	}
	if !exists {
		stats.Date = week
		if err := a.store.AddWeekly(ctx, stats); err != nil {
			return err
		}
	}

	return nil
}

func (a *Aggregator) todayUTC() int64 {
	now := a.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// lastWeekStartUTC returns the Monday 00:00 UTC of the previous week.
func (a *Aggregator) lastWeekStartUTC() int64 {
	now := a.now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	offset := (int(day.Weekday()) + 6) % 7 // days since Monday
	thisWeek := day.AddDate(0, 0, -offset)
	return thisWeek.AddDate(0, 0, -7).Unix()
}
