package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	ytapi "google.golang.org/api/youtube/v3"
)

// Comment is a top-level comment on a video.
// Fields missing from the payload keep their zero value.
type Comment struct {
	ID          string
	Text        string
	Author      string
	LikeCount   int64
	PublishedAt string
}

// FetchComments returns up to maxResults top-level comments of videoID in
// the order the provider lists them (newest first).
//
// When a page fails, the comments gathered before the failure are returned
// together with the error.
func (c *Client) FetchComments(ctx context.Context, videoID string, maxResults int) ([]Comment, error) {
	pager := Pager[Comment]{
		PageSize: commentPageSize,
		Delay:    c.pageDelay,
		Sleep:    c.sleep,
		Fetch: func(ctx context.Context, cursor string, size int) (Page[Comment], error) {
			body, err := c.getPage(ctx, "commentThreads", commentParams(videoID, cursor, size))
			if err != nil {
				return Page[Comment]{}, err
			}
			page, err := parseCommentPage(body)
			if page.Skipped > 0 {
				c.logger.Warn("skipped malformed comment threads",
					slog.String("video", videoID),
					slog.Int("skipped", page.Skipped),
				)
			}
			return page, err
		},
	}

	comments, err := pager.Collect(ctx, maxResults)
	if err != nil {
		c.logger.Warn("comment walk ended early",
			slog.String("video", videoID),
			slog.Int("comments", len(comments)),
			slog.Any("error", err),
		)
		return comments, fmt.Errorf("fetch comments for %s: %w", videoID, err)
	}
	return comments, nil
}

func commentParams(videoID, cursor string, size int) url.Values {
	v := url.Values{}
	v.Set("part", "snippet")
	v.Set("order", "time")
	v.Set("maxResults", strconv.Itoa(size))
	v.Set("videoId", videoID)
	if cursor != "" {
		v.Set("pageToken", cursor)
	}
	return v
}

// parseCommentPage extracts top-level comments. Threads lacking
// snippet.topLevelComment, its id, or its snippet are skipped.
func parseCommentPage(body []byte) (Page[Comment], error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return Page[Comment]{}, err
	}

	page := Page[Comment]{Items: make([]Comment, 0, len(env.Items)), NextCursor: env.NextPageToken}
	for _, raw := range env.Items {
		cm, ok := decodeThread(raw)
		if !ok {
			page.Skipped++
			continue
		}
		page.Items = append(page.Items, cm)
	}
	return page, nil
}

func decodeThread(raw json.RawMessage) (Comment, bool) {
	var thread ytapi.CommentThread
	if err := json.Unmarshal(raw, &thread); err != nil {
		return Comment{}, false
	}
	if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil {
		return Comment{}, false
	}
	top := thread.Snippet.TopLevelComment
	if top.Id == "" || top.Snippet == nil {
		return Comment{}, false
	}
	s := top.Snippet
	return Comment{
		ID:          top.Id,
		Text:        s.TextOriginal,
		Author:      s.AuthorDisplayName,
		LikeCount:   max(s.LikeCount, 0),
		PublishedAt: s.PublishedAt,
	}, true
}
