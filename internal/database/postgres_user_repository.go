package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dashikkkk/instagram-statistics/internal/models"
)

// PostgresUserRepository implements models.UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	db *sql.DB
}

// NewPostgresUserRepository creates a new PostgreSQL user repository.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// UpsertLogin creates or refreshes the user row for an OAuth login and
// returns the stored user.
func (r *PostgresUserRepository) UpsertLogin(ctx context.Context, data models.LoginData) (*models.User, error) {
	now := time.Now().UTC().Unix()

	query := `
		INSERT INTO users (instagram_id, name, full_name, ip, access_token, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $6)
		ON CONFLICT (instagram_id) DO UPDATE SET
			name = EXCLUDED.name,
			full_name = EXCLUDED.full_name,
			ip = EXCLUDED.ip,
			access_token = EXCLUDED.access_token,
			last_login = EXCLUDED.last_login,
			updated_at = EXCLUDED.updated_at
		RETURNING id, instagram_id, name, full_name, ip, access_token, last_login, created_at, updated_at
	`

	var user models.User
	err := r.db.QueryRowContext(ctx, query,
		data.InstagramID,
		data.Name,
		data.FullName,
		data.IP,
		data.AccessToken,
		now,
	).Scan(
		&user.ID,
		&user.InstagramID,
		&user.Name,
		&user.FullName,
		&user.IP,
		&user.AccessToken,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user login: %w", err)
	}

	return &user, nil
}

// GetByInstagramID retrieves a user by Instagram account ID. Returns nil
// when the user does not exist.
func (r *PostgresUserRepository) GetByInstagramID(ctx context.Context, instagramID int64) (*models.User, error) {
	query := `
		SELECT id, instagram_id, name, full_name, ip, access_token, last_login, created_at, updated_at
		FROM users
		WHERE instagram_id = $1
	`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, instagramID).Scan(
		&user.ID,
		&user.InstagramID,
		&user.Name,
		&user.FullName,
		&user.IP,
		&user.AccessToken,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by instagram id: %w", err)
	}

	return &user, nil
}

// GetActiveUsers returns users whose last login falls within the window.
func (r *PostgresUserRepository) GetActiveUsers(ctx context.Context, window time.Duration) ([]models.User, error) {
	cutoff := time.Now().UTC().Add(-window).Unix()

	query := `
		SELECT id, instagram_id, name, full_name, ip, access_token, last_login, created_at, updated_at
		FROM users
		WHERE last_login >= $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.InstagramID,
			&user.Name,
			&user.FullName,
			&user.IP,
			&user.AccessToken,
			&user.LastLogin,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read active users: %w", err)
	}

	return users, nil
}
