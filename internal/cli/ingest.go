package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alnah/go-mentions/internal/config"
	"github.com/alnah/go-mentions/internal/format"
	"github.com/alnah/go-mentions/internal/ingest"
	"github.com/alnah/go-mentions/internal/sink"
	"github.com/alnah/go-mentions/internal/store"
)

// defaultIngestOutput is the NDJSON path used when --out is not given.
const defaultIngestOutput = "data/raw/output.ndjson"

// ingestOptions holds the raw flag values of the ingest command.
type ingestOptions struct {
	brand            string
	keywords         string
	days             int
	limitVideos      int
	commentsPerVideo int
	out              string
	db               string
	verbose          bool
}

// IngestCmd creates the ingest command.
// The env parameter provides injectable dependencies for testing.
func IngestCmd(env *Env) *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch brand-mention comments from YouTube",
		Long: `Search recent YouTube videos matching the keywords and append their
top-level comments to an NDJSON file, one record per line.

Requires YOUTUBE_API_KEY. Rate-limit and quota errors are retried with
backoff; videos whose comments cannot be fetched are skipped.

Relative --out paths are joined with the configured output-dir.
With --db (or the db config key), records are also stored in SQLite.`,
		Example: `  mentions ingest
  mentions ingest --brand verizon --keywords "verizon,5g,coverage" --days 7
  mentions ingest --limit_videos 5 --out data/raw/verizon.ndjson --db data/mentions.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), env, opts)
		},
	}

	f := cmd.Flags()
	f.SetNormalizeFunc(normalizeFlagName)
	f.StringVar(&opts.brand, "brand", ingest.DefaultBrand, "Brand name stored on every record")
	f.StringVar(&opts.keywords, "keywords", ingest.DefaultKeywords, "Comma-separated search keywords")
	f.IntVar(&opts.days, "days", ingest.DefaultDays, "Only videos published in the last N days")
	f.IntVar(&opts.limitVideos, "limit-videos", ingest.DefaultLimitVideos, "Maximum number of videos to scan")
	f.IntVar(&opts.commentsPerVideo, "comments-per-video", ingest.DefaultCommentsPerVideo, "Maximum comments fetched per video")
	f.StringVarP(&opts.out, "out", "o", "", "NDJSON output path (default: "+defaultIngestOutput+")")
	f.StringVar(&opts.db, "db", "", "Also store records in this SQLite database")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug details")

	return cmd
}

// runIngest executes one ingestion run.
// Validation order: flags -> API key -> output. Nothing touches the network
// before all three pass.
func runIngest(ctx context.Context, env *Env, opts ingestOptions) (err error) {
	// === VALIDATION (fail-fast) ===

	runCfg := ingest.Config{
		Brand:            strings.TrimSpace(opts.brand),
		Keywords:         ingest.ParseKeywords(opts.keywords),
		Days:             opts.days,
		LimitVideos:      opts.limitVideos,
		CommentsPerVideo: opts.commentsPerVideo,
	}
	if err := runCfg.Validate(); err != nil {
		return err
	}

	apiKey := env.Getenv(EnvYouTubeAPIKey)
	if apiKey == "" {
		return fmt.Errorf("%w (set it with: export %s=...)", ErrAPIKeyMissing, EnvYouTubeAPIKey)
	}

	cfg, cfgErr := env.ConfigLoader.Load()
	if cfgErr != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", cfgErr)
	}
	outPath := config.ResolveOutputPath(opts.out, cfg.OutputDir, defaultIngestOutput)
	dbPath := opts.db
	if dbPath == "" {
		dbPath = cfg.DB
	}

	// === SETUP ===

	logger := newLogger(env.Stderr, opts.verbose).With(slog.String("run", uuid.NewString()))

	src, err := env.SourceFactory.NewSource(apiKey, logger)
	if err != nil {
		return err
	}

	out, st, err := openSinks(ctx, outPath, config.ExpandPath(dbPath))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	// === RUN ===

	start := env.Now()
	in := ingest.New(src, out, ingest.WithNow(env.Now), ingest.WithLogger(logger))
	sum, err := in.Run(ctx, runCfg)
	if err != nil {
		return err
	}
	elapsed := format.DurationHuman(env.Now().Sub(start))

	attrs := []any{
		slog.Int("videos", sum.Videos),
		slog.Int("videos_failed", sum.VideosFailed),
		slog.Int("videos_empty", sum.VideosEmpty),
		slog.Int("records", sum.Records),
	}
	if sum.Empty() {
		logger.Warn("run produced no records", attrs...)
		fmt.Fprintf(env.Stderr, "Done: no records written to %s (%s)\n", outPath, elapsed)
		return nil
	}
	logger.Info("run complete", attrs...)
	fmt.Fprintf(env.Stderr, "Done: %d records from %d videos written to %s (%s)\n",
		sum.Records, sum.Videos, outPath, elapsed)
	if st != nil {
		total, err := st.Count(ctx)
		if err != nil {
			logger.Warn("cannot count database rows", slog.Any("error", err))
			return nil
		}
		fmt.Fprintf(env.Stderr, "Database: %s now holds %d posts\n", dbPath, total)
	}
	return nil
}

// openSinks opens the NDJSON file and, when dbPath is set, the SQLite store.
// The returned store is nil without dbPath; closing the writer closes it.
func openSinks(ctx context.Context, ndjsonPath, dbPath string) (sink.Writer, *store.Store, error) {
	nd, err := sink.OpenNDJSON(ndjsonPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrOutputUnavailable, err)
	}
	if dbPath == "" {
		return nd, nil, nil
	}

	st, err := store.Open(ctx, dbPath)
	if err != nil {
		_ = nd.Close()
		return nil, nil, fmt.Errorf("%w: %w", ErrOutputUnavailable, err)
	}
	return sink.Multi{nd, st}, st, nil
}
