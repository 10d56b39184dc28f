package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dashikkkk/instagram-statistics/internal/models"
)

// PostgresBaseStatsRepository implements models.BaseStatsRepository using
// PostgreSQL. Rollup rows are written at most once per (user, bucket date).
type PostgresBaseStatsRepository struct {
	db *sql.DB
}

// NewPostgresBaseStatsRepository creates a new PostgreSQL base stats repository.
func NewPostgresBaseStatsRepository(db *sql.DB) *PostgresBaseStatsRepository {
	return &PostgresBaseStatsRepository{db: db}
}

// HasDaily reports whether a daily rollup exists for the user and date.
func (r *PostgresBaseStatsRepository) HasDaily(ctx context.Context, userID, date int64) (bool, error) {
	return r.has(ctx, "base_stats_daily", userID, date)
}

// AddDaily stores a daily rollup row.
func (r *PostgresBaseStatsRepository) AddDaily(ctx context.Context, stats models.BaseStats) error {
	return r.add(ctx, "base_stats_daily", stats)
}

// HasWeekly reports whether a weekly rollup exists for the user and date.
func (r *PostgresBaseStatsRepository) HasWeekly(ctx context.Context, userID, date int64) (bool, error) {
	return r.has(ctx, "base_stats_weekly", userID, date)
}

// AddWeekly stores a weekly rollup row.
func (r *PostgresBaseStatsRepository) AddWeekly(ctx context.Context, stats models.BaseStats) error {
	return r.add(ctx, "base_stats_weekly", stats)
}

func (r *PostgresBaseStatsRepository) has(ctx context.Context, table string, userID, date int64) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE user_id = $1 AND date = $2)", table)
	if err := r.db.QueryRowContext(ctx, query, userID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", table, err)
	}
	return exists, nil
}

func (r *PostgresBaseStatsRepository) add(ctx context.Context, table string, stats models.BaseStats) error {
	now := time.Now().UTC().Unix()

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, date, posts, followers, following, likes, comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`, table)

	_, err := r.db.ExecContext(ctx, query,
		stats.UserID, stats.Date, stats.Posts, stats.Followers, stats.Following,
		stats.Likes, stats.Comments, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	return nil
}

// LatestSuccessfulRunStats returns the account counters plus summed post
// likes/comments of the user's most recent successful run. ok is false
// when the user has no successful run yet.
func (r *PostgresBaseStatsRepository) LatestSuccessfulRunStats(ctx context.Context, userID int64) (models.BaseStats, bool, error) {
	query := `
		SELECT c.user_id, sa.posts, sa.followers, sa.following,
		       COALESCE(SUM(sp.likes), 0), COALESCE(SUM(sp.comments), 0)
		FROM collector c
		JOIN stat_account sa ON sa.collector_id = c.id
		LEFT JOIN stat_post sp ON sp.collector_id = c.id
		WHERE c.user_id = $1 AND c.success = TRUE
		GROUP BY c.id, c.user_id, sa.posts, sa.followers, sa.following
		ORDER BY c.started_at DESC, c.id DESC
		LIMIT 1
	`

	var stats models.BaseStats
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.UserID,
		&stats.Posts,
		&stats.Followers,
		&stats.Following,
		&stats.Likes,
		&stats.Comments,
	)
	if err == sql.ErrNoRows {
		return models.BaseStats{}, false, nil
	}
	if err != nil {
		return models.BaseStats{}, false, fmt.Errorf("failed to query latest run stats: %w", err)
	}

	return stats, true, nil
}
