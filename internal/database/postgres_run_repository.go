package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dashikkkk/instagram-statistics/internal/models"
)

// maxErrorDetailLen caps the diagnostic text stored with a failed run.
// Raw errors from the scraper can carry whole response bodies.
const maxErrorDetailLen = 500

// PostgresRunRepository implements models.RunRepository using PostgreSQL.
type PostgresRunRepository struct {
	db *sql.DB
}

// NewPostgresRunRepository creates a new PostgreSQL run repository.
func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

// Start inserts an in-progress run row and returns its id. RETURNING makes
// the id unambiguous under concurrent starts for different users.
func (r *PostgresRunRepository) Start(ctx context.Context, userID int64) (int64, error) {
	now := time.Now().UTC().Unix()

	var runID int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO collector (user_id, started_at, finished_at) VALUES ($1, $2, 0) RETURNING id",
		userID, now,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to start collection run: %w", err)
	}

	return runID, nil
}

// MarkSucceeded finishes the run with success=true.
func (r *PostgresRunRepository) MarkSucceeded(ctx context.Context, runID int64) error {
	now := time.Now().UTC().Unix()

	result, err := r.db.ExecContext(ctx,
		"UPDATE collector SET finished_at = $1, success = TRUE WHERE id = $2",
		now, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run %d succeeded: %w", runID, err)
	}

	return requireOneRow(result, runID)
}

// MarkFailed finishes the run with success=false and a capped diagnostic.
func (r *PostgresRunRepository) MarkFailed(ctx context.Context, runID int64, detail string) error {
	now := time.Now().UTC().Unix()

	if len(detail) > maxErrorDetailLen {
		detail = detail[:maxErrorDetailLen]
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE collector SET finished_at = $1, success = FALSE, error_details = $2 WHERE id = $3",
		now, detail, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run %d failed: %w", runID, err)
	}

	return requireOneRow(result, runID)
}

// RecentRuns returns up to limit runs for the user, most recent first.
func (r *PostgresRunRepository) RecentRuns(ctx context.Context, userID int64, limit int) ([]models.CollectionRun, error) {
	query := `
		SELECT id, user_id, started_at, finished_at, success, COALESCE(error_details, '')
		FROM collector
		WHERE user_id = $1
		ORDER BY started_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []models.CollectionRun
	for rows.Next() {
		var run models.CollectionRun
		var success sql.NullBool
		if err := rows.Scan(&run.ID, &run.UserID, &run.StartedAt, &run.FinishedAt, &success, &run.ErrorDetails); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if success.Valid {
			run.Success = &success.Bool
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recent runs: %w", err)
	}

	return runs, nil
}

func requireOneRow(result sql.Result, runID int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for run %d: %w", runID, err)
	}
	if affected == 0 {
		return fmt.Errorf("run %d not found", runID)
	}
	return nil
}
