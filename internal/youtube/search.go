package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	ytapi "google.golang.org/api/youtube/v3"

	"github.com/alnah/go-mentions/internal/format"
)

// Query selects videos for SearchVideos.
type Query struct {
	// Text is the free-text search query.
	Text string
	// PublishedAfter excludes older videos. Sent with second precision in UTC.
	PublishedAfter time.Time
	// MaxResults is the item budget across all pages.
	MaxResults int
}

// listEnvelope is the part of a list response shared by both endpoints.
// Items stay raw so each one can fail to decode on its own.
type listEnvelope struct {
	Items         []json.RawMessage `json:"items"`
	NextPageToken string            `json:"nextPageToken"`
}

func decodeEnvelope(body []byte) (listEnvelope, error) {
	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return listEnvelope{}, fmt.Errorf("%w: %w", ErrMalformedPage, err)
	}
	return env, nil
}

// SearchVideos returns the ids of videos matching q, most recent first.
//
// The result may be shorter than q.MaxResults. When a page fails, the ids
// gathered before the failure are returned together with the error.
func (c *Client) SearchVideos(ctx context.Context, q Query) ([]string, error) {
	pager := Pager[string]{
		PageSize: searchPageSize,
		Delay:    c.pageDelay,
		Sleep:    c.sleep,
		Fetch: func(ctx context.Context, cursor string, size int) (Page[string], error) {
			body, err := c.getPage(ctx, "search", searchParams(q, cursor, size))
			if err != nil {
				return Page[string]{}, err
			}
			page, err := parseSearchPage(body)
			if page.Skipped > 0 {
				c.logger.Warn("skipped malformed search items", slog.Int("skipped", page.Skipped))
			}
			return page, err
		},
	}

	ids, err := pager.Collect(ctx, q.MaxResults)
	if err != nil {
		c.logger.Warn("search ended early",
			slog.Int("videos", len(ids)),
			slog.Any("error", err),
		)
		return ids, fmt.Errorf("search videos: %w", err)
	}
	c.logger.Debug("search complete", slog.Int("videos", len(ids)))
	return ids, nil
}

func searchParams(q Query, cursor string, size int) url.Values {
	v := url.Values{}
	v.Set("part", "snippet")
	v.Set("type", "video")
	v.Set("order", "date")
	v.Set("maxResults", strconv.Itoa(size))
	v.Set("q", q.Text)
	v.Set("publishedAfter", format.Timestamp(q.PublishedAfter))
	if cursor != "" {
		v.Set("pageToken", cursor)
	}
	return v
}

// parseSearchPage extracts video ids, skipping items without id.videoId.
func parseSearchPage(body []byte) (Page[string], error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return Page[string]{}, err
	}

	page := Page[string]{Items: make([]string, 0, len(env.Items)), NextCursor: env.NextPageToken}
	for _, raw := range env.Items {
		var item ytapi.SearchResult
		if err := json.Unmarshal(raw, &item); err != nil || item.Id == nil || item.Id.VideoId == "" {
			page.Skipped++
			continue
		}
		page.Items = append(page.Items, item.Id.VideoId)
	}
	return page, nil
}
