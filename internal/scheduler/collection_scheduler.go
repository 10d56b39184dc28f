package scheduler

import (
	"context"
	"time"

	"log/slog"
)

// BatchTrigger starts one collection batch.
type BatchTrigger interface {
	TriggerCollection(ctx context.Context) error
}

// CollectionScheduler runs the collection batch once per day at a fixed
// UTC wall-clock time. Deployments that prefer external cron run the
// collector binary instead and never start this.
type CollectionScheduler struct {
	trigger       BatchTrigger
	timeOfDay     string
	logger        *slog.Logger
	stopChan      chan struct{}
	checkInterval time.Duration
	lastRun       time.Time
	now           func() time.Time
}

// NewCollectionScheduler creates a scheduler that fires at timeOfDay,
// given as "HH:MM" in UTC.
func NewCollectionScheduler(trigger BatchTrigger, timeOfDay string, logger *slog.Logger) *CollectionScheduler {
	return &CollectionScheduler{
		trigger:       trigger,
		timeOfDay:     timeOfDay,
		logger:        logger,
		stopChan:      make(chan struct{}),
		checkInterval: 1 * time.Minute,
		now:           time.Now,
	}
}

// Start begins the scheduler loop. It blocks until Stop is called or the
// context is cancelled.
func (s *CollectionScheduler) Start(ctx context.Context) {
	s.logger.Info("Starting collection scheduler", "time_of_day", s.timeOfDay, "check_interval", s.checkInterval)
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkAndRun(ctx)
		case <-s.stopChan:
			s.logger.Info("Collection scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Collection scheduler stopping due to context cancellation")
			return
		}
	}
}

// Stop stops the scheduler.
func (s *CollectionScheduler) Stop() {
	close(s.stopChan)
}

func (s *CollectionScheduler) checkAndRun(ctx context.Context) {
	now := s.now().UTC()
	if now.Format("15:04") != s.timeOfDay {
		return
	}

	// Already fired today; the minute tick can hit the same wall-clock
	// minute more than once.
	if s.lastRun.Year() == now.Year() && s.lastRun.YearDay() == now.YearDay() {
		return
	}
	s.lastRun = now

	s.logger.Info("Executing scheduled collection batch", "time_of_day", s.timeOfDay)

	if err := s.trigger.TriggerCollection(ctx); err != nil {
		s.logger.Error("Scheduled collection batch failed", "error", err)
		return
	}

	s.logger.Info("Scheduled collection batch finished")
}
