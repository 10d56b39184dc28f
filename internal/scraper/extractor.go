package scraper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Dashikkkk/instagram-statistics/internal/models"
)

// sharedDataPrefix marks the script element that embeds the profile data.
const sharedDataPrefix = "window._sharedData ="

// Extractor parses profile page bodies into structured statistics. It is a
// pure function of the page text; only the fields actually consumed are
// decoded, everything else the page ships is ignored.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// sharedData mirrors the subset of the embedded JSON blob we consume.
type sharedData struct {
	EntryData struct {
		ProfilePage []struct {
			GraphQL struct {
				User profileUser `json:"user"`
			} `json:"graphql"`
		} `json:"ProfilePage"`
	} `json:"entry_data"`
}

type profileUser struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	EdgeFollowedBy struct {
		Count int `json:"count"`
	} `json:"edge_followed_by"`
	EdgeFollow struct {
		Count int `json:"count"`
	} `json:"edge_follow"`
	EdgeOwnerToTimelineMedia struct {
		Count int `json:"count"`
		Edges []struct {
			Node postNode `json:"node"`
		} `json:"edges"`
	} `json:"edge_owner_to_timeline_media"`
}

type postNode struct {
	ID        string `json:"id"`
	TypeName  string `json:"__typename"`
	ShortCode string `json:"shortcode"`

	EdgeMediaToComment struct {
		Count int `json:"count"`
	} `json:"edge_media_to_comment"`
	EdgeLikedBy struct {
		Count int `json:"count"`
	} `json:"edge_liked_by"`

	TakenAtTimestamp int64 `json:"taken_at_timestamp"`
	IsVideo          bool  `json:"is_video"`
	VideoViewCount   int   `json:"video_view_count"`
}

// Extract parses a profile page body into ProfileData. A missing data blob
// or unparsable JSON yields an error wrapping ErrMalformedPage.
func (e *Extractor) Extract(body string) (*models.ProfileData, error) {
	user, err := e.findProfile(body)
	if err != nil {
		return nil, err
	}

	instagramID, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad profile id %q", ErrMalformedPage, user.ID)
	}

	data := &models.ProfileData{
		User: models.ProfileIdentity{
			InstagramID: instagramID,
			UserName:    user.Username,
			FullName:    user.FullName,
		},
		Stats: models.AccountStats{
			Posts:     user.EdgeOwnerToTimelineMedia.Count,
			Followers: user.EdgeFollowedBy.Count,
			Following: user.EdgeFollow.Count,
		},
	}

	// Posts keep the page order, most recent first.
	for _, edge := range user.EdgeOwnerToTimelineMedia.Edges {
		data.Posts = append(data.Posts, postStats(edge.Node))
	}

	return data, nil
}

func (e *Extractor) findProfile(body string) (*profileUser, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if strings.HasPrefix(text, sharedDataPrefix) {
			raw = strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(text, sharedDataPrefix)), ";")
			return false
		}
		return true
	})

	if raw == "" {
		return nil, fmt.Errorf("%w: shared data script not found", ErrMalformedPage)
	}

	var data sharedData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}

	if len(data.EntryData.ProfilePage) == 0 {
		return nil, fmt.Errorf("%w: no profile page entry", ErrMalformedPage)
	}

	return &data.EntryData.ProfilePage[0].GraphQL.User, nil
}

func postStats(node postNode) models.PostStats {
	postType := models.PostTypeImage
	if node.TypeName == "GraphVideo" {
		postType = models.PostTypeVideo
	}

	views := 0
	if node.IsVideo {
		views = node.VideoViewCount
	}

	return models.PostStats{
		PostID:     node.ID,
		PostType:   postType,
		ShortCode:  node.ShortCode,
		Comments:   node.EdgeMediaToComment.Count,
		Likes:      node.EdgeLikedBy.Count,
		VideoViews: views,
		CreatedAt:  node.TakenAtTimestamp,
	}
}
