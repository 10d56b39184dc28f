package models

import (
	"context"
	"time"
)

// User represents an account that logged in through Instagram OAuth and is
// eligible for statistics collection.
type User struct {
	ID          int64  `json:"id"`
	InstagramID int64  `json:"instagram_id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	AccessToken string `json:"-"`
	IP          string `json:"-"`
	LastLogin   int64  `json:"last_login"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// LoginData carries the fields captured during an OAuth login.
type LoginData struct {
	InstagramID int64
	Name        string
	FullName    string
	AccessToken string
	IP          string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// UpsertLogin creates the user on first login and refreshes
	// name/full name/token/ip/last_login on subsequent logins.
	UpsertLogin(ctx context.Context, data LoginData) (*User, error)

	// GetByInstagramID retrieves a user by their Instagram account ID.
	// Returns nil when no such user exists.
	GetByInstagramID(ctx context.Context, instagramID int64) (*User, error)

	// GetActiveUsers returns users whose last login falls within the
	// given recency window.
	GetActiveUsers(ctx context.Context, window time.Duration) ([]User, error)
}
