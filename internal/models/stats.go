package models

import "context"

// Post types as observed on profile pages.
const (
	PostTypeImage = "image"
	PostTypeVideo = "video"
)

// ProfileIdentity is the account identity embedded in a profile page.
type ProfileIdentity struct {
	InstagramID int64  `json:"instagram_id"`
	UserName    string `json:"user_name"`
	FullName    string `json:"full_name"`
}

// AccountStats holds the aggregate counters of a profile at one point in time.
type AccountStats struct {
	Posts     int `json:"posts"`
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// PostStats holds the counters of a single post at one point in time.
// Repeated observations of the same post across runs produce separate rows;
// the series is append-only so deltas between runs stay computable.
type PostStats struct {
	PostID     string `json:"post_id"`
	PostType   string `json:"post_type"`
	ShortCode  string `json:"short_code"`
	Comments   int    `json:"comments"`
	Likes      int    `json:"likes"`
	VideoViews int    `json:"video_views"`
	CreatedAt  int64  `json:"post_created_at"`
}

// ProfileData is everything extracted from one profile page. Posts keep
// the page's own ordering, most recent first.
type ProfileData struct {
	User  ProfileIdentity `json:"user"`
	Stats AccountStats    `json:"stats"`
	Posts []PostStats     `json:"posts"`
}

// StatsRepository persists snapshots produced by a run. Inserts only,
// no update-in-place, no dedup.
type StatsRepository interface {
	SaveAccountStats(ctx context.Context, runID int64, stats AccountStats) error
	SavePostStats(ctx context.Context, runID int64, post PostStats) error
}
