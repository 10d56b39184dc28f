package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dashikkkk/instagram-statistics/internal/models"
)

// PostgresStatsRepository implements models.StatsRepository using PostgreSQL.
// Snapshots are append-only; the same post observed by two runs produces
// two rows.
type PostgresStatsRepository struct {
	db *sql.DB
}

// NewPostgresStatsRepository creates a new PostgreSQL stats repository.
func NewPostgresStatsRepository(db *sql.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{db: db}
}

// SaveAccountStats inserts the aggregate counters for a run.
func (r *PostgresStatsRepository) SaveAccountStats(ctx context.Context, runID int64, stats models.AccountStats) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO stat_account (collector_id, posts, followers, following) VALUES ($1, $2, $3, $4)",
		runID, stats.Posts, stats.Followers, stats.Following,
	)
	if err != nil {
		return fmt.Errorf("failed to save account stats for run %d: %w", runID, err)
	}

	return nil
}

// SavePostStats inserts one post observation for a run.
func (r *PostgresStatsRepository) SavePostStats(ctx context.Context, runID int64, post models.PostStats) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stat_post (collector_id, post_id, post_type, short_code, comments, likes, video_views, post_created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		runID, post.PostID, post.PostType, post.ShortCode, post.Comments, post.Likes, post.VideoViews, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save post stats for run %d: %w", runID, err)
	}

	return nil
}
