// Package ingest drives a brand-mention run: search videos, walk each
// video's comments, and hand normalized records to a sink.
//
// Runs are strictly sequential. A video whose comments cannot be fetched is
// logged and skipped; only sink failures and cancellation stop a run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alnah/go-mentions/internal/format"
	"github.com/alnah/go-mentions/internal/record"
	"github.com/alnah/go-mentions/internal/sink"
	"github.com/alnah/go-mentions/internal/youtube"
)

// Defaults applied by the CLI.
const (
	DefaultBrand            = "verizon"
	DefaultKeywords         = "verizon,5g,coverage"
	DefaultDays             = 14
	DefaultLimitVideos      = 20
	DefaultCommentsPerVideo = 500
	DefaultVideoInterval    = 200 * time.Millisecond

	// MaxDays bounds the look-back window to a century.
	MaxDays = 36500
)

// Sentinel errors for ingestion.
var (
	// ErrInvalidConfig indicates a Config that cannot drive a run.
	ErrInvalidConfig = errors.New("invalid ingest config")

	// ErrSinkWrite indicates a record could not be written.
	ErrSinkWrite = errors.New("sink write failed")
)

// Config is the immutable description of one run.
type Config struct {
	Brand            string
	Keywords         []string
	Days             int
	LimitVideos      int
	CommentsPerVideo int
}

// ParseKeywords splits a comma-separated list, trimming blanks and
// dropping empty entries.
func ParseKeywords(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks c for values that cannot drive a run.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Brand) == "":
		return fmt.Errorf("%w: brand is empty", ErrInvalidConfig)
	case len(c.Keywords) == 0:
		return fmt.Errorf("%w: no keywords", ErrInvalidConfig)
	case c.Days < 0:
		return fmt.Errorf("%w: days must be >= 0 (got %d)", ErrInvalidConfig, c.Days)
	case c.Days > MaxDays:
		return fmt.Errorf("%w: days must be <= %d (got %d)", ErrInvalidConfig, MaxDays, c.Days)
	case c.LimitVideos < 0:
		return fmt.Errorf("%w: video limit must be >= 0 (got %d)", ErrInvalidConfig, c.LimitVideos)
	case c.CommentsPerVideo < 0:
		return fmt.Errorf("%w: comments per video must be >= 0 (got %d)", ErrInvalidConfig, c.CommentsPerVideo)
	}
	return nil
}

// Query builds the search query for a run starting at now.
// Keywords are joined with spaces.
func (c Config) Query(now time.Time) youtube.Query {
	return youtube.Query{
		Text:           strings.Join(c.Keywords, " "),
		PublishedAfter: format.DaysAgo(now, c.Days),
		MaxResults:     c.LimitVideos,
	}
}

// Source is the retrieval side of a run. *youtube.Client implements it.
type Source interface {
	SearchVideos(ctx context.Context, q youtube.Query) ([]string, error)
	FetchComments(ctx context.Context, videoID string, maxResults int) ([]youtube.Comment, error)
}

// Pacer spaces out work. *rate.Limiter implements it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Summary counts what a run did.
type Summary struct {
	Videos       int
	VideosFailed int
	VideosEmpty  int
	Records      int
	// SearchErr is the failure that ended the search early, if any.
	SearchErr error
}

// Empty reports whether the run produced no records.
func (s Summary) Empty() bool {
	return s.Records == 0
}

// Ingester runs ingestion against a Source and a sink.
type Ingester struct {
	src    Source
	out    sink.Writer
	pacer  Pacer
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithPacer sets the pacer consulted before each video.
func WithPacer(p Pacer) Option {
	return func(in *Ingester) {
		in.pacer = p
	}
}

// WithNow sets the clock used for the search window and fetched_at.
func WithNow(now func() time.Time) Option {
	return func(in *Ingester) {
		in.now = now
	}
}

// WithLogger sets the run logger.
func WithLogger(l *slog.Logger) Option {
	return func(in *Ingester) {
		in.logger = l
	}
}

// New creates an Ingester writing to out.
func New(src Source, out sink.Writer, opts ...Option) *Ingester {
	in := &Ingester{
		src:    src,
		out:    out,
		pacer:  rate.NewLimiter(rate.Every(DefaultVideoInterval), 1),
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run performs one ingestion pass.
//
// Search and comment failures degrade the run but do not fail it. The
// returned error is non-nil only for invalid config, sink failures, and
// context cancellation; the Summary is valid in every case.
func (in *Ingester) Run(ctx context.Context, cfg Config) (Summary, error) {
	var sum Summary
	if err := cfg.Validate(); err != nil {
		return sum, err
	}

	q := cfg.Query(in.now())
	in.logger.Info("searching videos",
		slog.String("query", q.Text),
		slog.String("published_after", format.Timestamp(q.PublishedAfter)),
		slog.Int("limit", q.MaxResults),
	)

	ids, err := in.src.SearchVideos(ctx, q)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return sum, ctxErr
	}
	if err != nil {
		sum.SearchErr = err
		in.logger.Warn("search incomplete, continuing with partial results",
			slog.Int("videos", len(ids)), slog.Any("error", err))
	}
	if len(ids) == 0 {
		in.logger.Warn("no videos found", slog.String("query", q.Text))
		return sum, nil
	}
	in.logger.Info("videos found", slog.Int("count", len(ids)))

	for _, vid := range ids {
		if err := in.pacer.Wait(ctx); err != nil {
			return sum, err
		}
		if err := in.ingestVideo(ctx, cfg, vid, &sum); err != nil {
			return sum, err
		}
		sum.Videos++
	}
	return sum, nil
}

// ingestVideo fetches and writes the comments of one video.
func (in *Ingester) ingestVideo(ctx context.Context, cfg Config, vid string, sum *Summary) error {
	log := in.logger.With(slog.String("video", vid))

	comments, err := in.src.FetchComments(ctx, vid, cfg.CommentsPerVideo)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		sum.VideosFailed++
		log.Warn("comments incomplete, skipping rest of video",
			slog.Int("comments", len(comments)), slog.Any("error", err))
	} else if len(comments) == 0 {
		sum.VideosEmpty++
		log.Warn("no comments")
		return nil
	}

	for _, c := range comments {
		r := record.FromComment(c, vid, cfg.Brand, cfg.Keywords, in.now())
		if err := in.out.Write(ctx, r); err != nil {
			return fmt.Errorf("%w: %w", ErrSinkWrite, err)
		}
		sum.Records++
	}
	log.Info("video done", slog.Int("comments", len(comments)))
	return nil
}
