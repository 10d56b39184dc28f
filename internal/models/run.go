package models

import "context"

// CollectionRun records the lifecycle of one collection attempt for a user.
// FinishedAt == 0 and Success == nil mean the run is still in progress.
type CollectionRun struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	StartedAt    int64  `json:"started_at"`
	FinishedAt   int64  `json:"finished_at"`
	Success      *bool  `json:"success"`
	ErrorDetails string `json:"error_details,omitempty"`
}

// RunRepository defines the run ledger: Started -> {Succeeded, Failed}.
type RunRepository interface {
	// Start creates an in-progress run row and returns its identifier.
	// The identifier must unambiguously reference the just-created row
	// even under concurrent starts for different users.
	Start(ctx context.Context, userID int64) (int64, error)

	// MarkSucceeded finishes the run with success=true.
	MarkSucceeded(ctx context.Context, runID int64) error

	// MarkFailed finishes the run with success=false and stores a capped
	// diagnostic string.
	MarkFailed(ctx context.Context, runID int64, detail string) error

	// RecentRuns returns up to limit runs for the user, most recent first.
	RecentRuns(ctx context.Context, userID int64, limit int) ([]CollectionRun, error)
}
