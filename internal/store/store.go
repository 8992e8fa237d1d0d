// Package store keeps ingested records in a SQLite posts table and exports
// them for reporting.
package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/alnah/go-mentions/internal/record"
)

// ErrNotFound indicates no post matched the given id.
var ErrNotFound = errors.New("post not found")

// ExportHeader is the column order of ExportCSV.
var ExportHeader = []string{
	"post_id", "source", "brand", "created_utc", "text",
	"sentiment_score", "sentiment_label", "like_count", "video_id", "url",
}

// Store is a SQLite-backed record sink.
// Rows are never deduplicated: re-ingesting a comment adds a row.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS posts (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id         TEXT NOT NULL,
		source          TEXT NOT NULL,
		brand           TEXT NOT NULL,
		keywords        TEXT NOT NULL DEFAULT '',
		text            TEXT NOT NULL,
		created_utc     TEXT NOT NULL,
		author          TEXT NOT NULL DEFAULT '',
		like_count      INTEGER NOT NULL DEFAULT 0,
		video_id        TEXT NOT NULL,
		url             TEXT NOT NULL,
		fetched_at      TEXT NOT NULL,
		sentiment_score REAL,
		sentiment_label TEXT
	)`); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS posts_post_id ON posts (post_id)`)
	return err
}

// Write inserts r as a new row.
func (s *Store) Write(ctx context.Context, r record.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (post_id, source, brand, keywords, text, created_utc, author, like_count, video_id, url, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.PostID, r.Source, r.Brand, strings.Join(r.Keywords, ","), r.Text,
		r.CreatedUTC, r.Author, r.LikeCount, r.VideoID, r.URL, r.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert %s: %w", r.PostID, err)
	}
	return nil
}

// UpdateSentiment sets the score and label on every row of postID.
// Returns ErrNotFound if no row matched.
func (s *Store) UpdateSentiment(ctx context.Context, postID string, score float64, label string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET sentiment_score = ?, sentiment_label = ? WHERE post_id = ?`,
		score, label, postID,
	)
	if err != nil {
		return fmt.Errorf("store: update %s: %w", postID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update %s: %w", postID, err)
	}
	if n == 0 {
		return fmt.Errorf("store: update %s: %w", postID, ErrNotFound)
	}
	return nil
}

// Count returns the number of rows in posts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// ExportCSV writes every post, oldest first, as CSV with ExportHeader.
// Unscored posts have empty sentiment columns. Returns the row count.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		post_id, source, brand, created_utc, text,
		sentiment_score, sentiment_label, like_count, video_id, url
		FROM posts
		ORDER BY datetime(created_utc) ASC, id ASC`)
	if err != nil {
		return 0, fmt.Errorf("store: export query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, fmt.Errorf("store: export: %w", err)
	}

	n := 0
	for rows.Next() {
		var (
			postID, source, brand, created, text, videoID, url string
			score                                              sql.NullFloat64
			label                                              sql.NullString
			likes                                              int64
		)
		if err := rows.Scan(&postID, &source, &brand, &created, &text, &score, &label, &likes, &videoID, &url); err != nil {
			return n, fmt.Errorf("store: export scan: %w", err)
		}
		scoreField := ""
		if score.Valid {
			scoreField = strconv.FormatFloat(score.Float64, 'f', -1, 64)
		}
		if err := cw.Write([]string{
			postID, source, brand, created, text,
			scoreField, label.String, strconv.FormatInt(likes, 10), videoID, url,
		}); err != nil {
			return n, fmt.Errorf("store: export: %w", err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("store: export rows: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("store: export: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
