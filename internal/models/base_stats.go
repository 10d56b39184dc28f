package models

import "context"

// BaseStats is a per-user rollup of the most recent collected numbers,
// bucketed by day or by week for the reports views.
type BaseStats struct {
	UserID    int64 `json:"user_id"`
	Date      int64 `json:"date"`
	Posts     int   `json:"posts"`
	Followers int   `json:"followers"`
	Following int   `json:"following"`
	Likes     int   `json:"likes"`
	Comments  int   `json:"comments"`
}

// BaseStatsRepository stores daily and weekly rollups. A bucket is written
// at most once per (user, date).
type BaseStatsRepository interface {
	HasDaily(ctx context.Context, userID, date int64) (bool, error)
	AddDaily(ctx context.Context, stats BaseStats) error
	HasWeekly(ctx context.Context, userID, date int64) (bool, error)
	AddWeekly(ctx context.Context, stats BaseStats) error
}
