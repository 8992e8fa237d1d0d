// Package record defines the flat comment record handed to sinks.
package record

import (
	"time"

	"github.com/alnah/go-mentions/internal/format"
	"github.com/alnah/go-mentions/internal/youtube"
)

// Source identifies the platform a record came from.
const Source = "youtube"

const (
	postIDPrefix = "YOUTUBE_"
	watchURLBase = "https://www.youtube.com/watch?v="
)

// Record is one ingested comment. JSON keys are the NDJSON wire names.
type Record struct {
	PostID     string   `json:"post_id"`
	Source     string   `json:"source"`
	Brand      string   `json:"brand"`
	Keywords   []string `json:"keywords"`
	Text       string   `json:"text"`
	CreatedUTC string   `json:"created_utc"`
	Author     string   `json:"author"`
	LikeCount  int64    `json:"like_count"`
	VideoID    string   `json:"video_id"`
	URL        string   `json:"url"`
	FetchedAt  string   `json:"fetched_at"`
}

// PostID returns the record id for a provider comment id.
func PostID(commentID string) string {
	return postIDPrefix + commentID
}

// WatchURL returns the public URL of a video.
func WatchURL(videoID string) string {
	return watchURLBase + videoID
}

// FromComment builds the record for c on videoID, stamped with fetchedAt.
// keywords is copied so records never share a backing array.
func FromComment(c youtube.Comment, videoID, brand string, keywords []string, fetchedAt time.Time) Record {
	kw := make([]string, len(keywords))
	copy(kw, keywords)
	return Record{
		PostID:     PostID(c.ID),
		Source:     Source,
		Brand:      brand,
		Keywords:   kw,
		Text:       c.Text,
		CreatedUTC: c.PublishedAt,
		Author:     c.Author,
		LikeCount:  c.LikeCount,
		VideoID:    videoID,
		URL:        WatchURL(videoID),
		FetchedAt:  format.Timestamp(fetchedAt),
	}
}
