// Package transform turns raw NDJSON ingests into a clean, deduplicated
// CSV, optionally scored for sentiment.
package transform

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/alnah/go-mentions/internal/sentiment"
)

// Output file names written by Save.
const (
	CleanFile  = "comments_clean.csv"
	CountsFile = "sentiment_counts.csv"
)

// datetimeLayout renders parsed times without zone, already in UTC.
const datetimeLayout = "2006-01-02 15:04:05"

// ErrNotDirectory indicates the input path is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Row is one cleaned comment.
type Row struct {
	PostID     string
	Brand      string
	VideoID    string
	Author     string
	Text       string
	LikeCount  int64
	CreatedUTC string
	Created    time.Time // zero if CreatedUTC did not parse
	FetchedAt  string
	Fetched    time.Time // zero if FetchedAt did not parse
	Keywords   string
	URL        string

	Scored bool
	Score  float64
	Label  sentiment.Label
}

// CleanStats counts rows dropped by Clean.
type CleanStats struct {
	Filtered   int
	EmptyText  int
	Duplicates int
}

// Clean filters, normalizes and deduplicates inputs.
//
// A non-empty brand keeps only inputs whose brand matches it ignoring case.
// Text has whitespace runs collapsed; rows left empty are dropped.
//
// When any input carries a post id, rows are ordered by (created, fetched)
// with unparsable times last, and the first row per post id is kept. Rows
// without a post id fall back to the (video, author, text) key. When no
// input has a post id, input order is kept and only that key is used.
func Clean(inputs []Input, brand string) ([]Row, CleanStats) {
	var stats CleanStats
	rows := make([]Row, 0, len(inputs))
	hasPostID := false

	for _, in := range inputs {
		if brand != "" && !strings.EqualFold(in.Brand, brand) {
			stats.Filtered++
			continue
		}
		text := strings.Join(strings.Fields(in.Text), " ")
		if text == "" {
			stats.EmptyText++
			continue
		}
		if in.PostID != "" {
			hasPostID = true
		}
		rows = append(rows, Row{
			PostID:     in.PostID,
			Brand:      in.Brand,
			VideoID:    in.VideoID,
			Author:     in.Author,
			Text:       text,
			LikeCount:  likeCount(in.LikeCount),
			CreatedUTC: in.CreatedUTC,
			Created:    parseTime(in.CreatedUTC),
			FetchedAt:  in.FetchedAt,
			Fetched:    parseTime(in.FetchedAt),
			Keywords:   keywordString(in.Keywords),
			URL:        in.URL,
		})
	}

	if hasPostID {
		slices.SortStableFunc(rows, func(a, b Row) int {
			if c := compareTime(a.Created, b.Created); c != 0 {
				return c
			}
			return compareTime(a.Fetched, b.Fetched)
		})
	}

	seen := make(map[string]struct{}, len(rows))
	out := rows[:0]
	for _, r := range rows {
		k := dedupKey(r)
		if _, dup := seen[k]; dup {
			stats.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out, stats
}

func dedupKey(r Row) string {
	if r.PostID != "" {
		return "id\x00" + r.PostID
	}
	return "vat\x00" + r.VideoID + "\x00" + r.Author + "\x00" + r.Text
}

// compareTime orders times ascending with the zero time last.
func compareTime(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	return a.Compare(b)
}

// parseTime accepts the many layouts found in exported data and returns UTC.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Score rates every row with s and tallies the labels. Rows whose text
// could not be scored stay unscored and count as Unscored; only a
// sentiment.Fatal failure is returned.
func Score(ctx context.Context, rows []Row, s sentiment.Scorer, parallel int) (sentiment.Counts, error) {
	var counts sentiment.Counts
	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = r.Text
	}
	results, err := sentiment.ScoreAll(ctx, texts, s, parallel)
	if err != nil {
		return counts, fmt.Errorf("score sentiment: %w", err)
	}
	for i, res := range results {
		if res.Err != nil {
			counts.Unscored++
			continue
		}
		rows[i].Scored = true
		rows[i].Score = res.Score
		rows[i].Label = sentiment.LabelFor(res.Score)
		counts.Add(rows[i].Label)
	}
	return counts, nil
}

// WriteCSV writes rows with a header. Sentiment columns appear only when
// scored is true, and are empty for rows left unscored.
func WriteCSV(w io.Writer, rows []Row, scored bool) error {
	cw := csv.NewWriter(w)
	header := []string{"post_id", "brand", "video_id", "author", "text"}
	if scored {
		header = append(header, "sent_label", "sent_compound")
	}
	header = append(header, "like_count", "created_utc", "created_dt", "fetched_at", "fetched_dt", "keywords_str", "url")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		rec := []string{r.PostID, r.Brand, r.VideoID, r.Author, r.Text}
		switch {
		case scored && r.Scored:
			rec = append(rec, string(r.Label), strconv.FormatFloat(r.Score, 'f', -1, 64))
		case scored:
			rec = append(rec, "", "")
		}
		rec = append(rec,
			strconv.FormatInt(r.LikeCount, 10),
			r.CreatedUTC, formatTime(r.Created),
			r.FetchedAt, formatTime(r.Fetched),
			r.Keywords, r.URL,
		)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(datetimeLayout)
}

// WriteCounts writes one row per label present, in label order.
func WriteCounts(w io.Writer, c sentiment.Counts) error {
	type entry struct {
		label sentiment.Label
		n     int
	}
	entries := []entry{
		{sentiment.Negative, c.Negative},
		{sentiment.Neutral, c.Neutral},
		{sentiment.Positive, c.Positive},
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sent_label", "count"}); err != nil {
		return err
	}
	for _, e := range entries {
		if e.n == 0 {
			continue
		}
		if err := cw.Write([]string{string(e.label), strconv.Itoa(e.n)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Paths lists the files Save wrote. Counts is empty when rows were not scored.
type Paths struct {
	Clean  string
	Counts string
}

// Save writes CleanFile, and CountsFile when counts is non-nil, into dir.
// Existing files are replaced.
func Save(dir string, rows []Row, counts *sentiment.Counts) (Paths, error) {
	var p Paths
	if err := os.MkdirAll(dir, 0750); err != nil {
		return p, fmt.Errorf("cannot create output directory: %w", err)
	}

	p.Clean = filepath.Join(dir, CleanFile)
	if err := writeFile(p.Clean, func(w io.Writer) error {
		return WriteCSV(w, rows, counts != nil)
	}); err != nil {
		return Paths{}, err
	}

	if counts != nil {
		p.Counts = filepath.Join(dir, CountsFile)
		if err := writeFile(p.Counts, func(w io.Writer) error {
			return WriteCounts(w, *counts)
		}); err != nil {
			return Paths{}, err
		}
	}
	return p, nil
}

// writeFile creates path and fills it with fill. On failure the partial
// file is removed.
func writeFile(path string, fill func(io.Writer) error) error {
	// #nosec G304 -- output path under the user's chosen directory
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	writeErr := fill(f)
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
