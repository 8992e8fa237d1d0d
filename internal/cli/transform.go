package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/alnah/go-mentions/internal/config"
	"github.com/alnah/go-mentions/internal/sentiment"
	"github.com/alnah/go-mentions/internal/store"
	"github.com/alnah/go-mentions/internal/transform"
)

// Default directories for transform, relative to output-dir when set.
const (
	defaultTransformInput  = "data/raw"
	defaultTransformOutput = "data/curated"
)

// Scoring concurrency bounds.
const (
	defaultParallel = 4
	maxParallel     = 10
)

// clampParallel constrains parallel request count to valid range [1, maxParallel].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxParallel {
		return maxParallel
	}
	return n
}

// transformOptions holds the raw flag values of the transform command.
type transformOptions struct {
	in        string
	out       string
	brand     string
	sentiment bool
	parallel  int
	db        string
}

// TransformCmd creates the transform command.
// The env parameter provides injectable dependencies for testing.
func TransformCmd(env *Env) *cobra.Command {
	var opts transformOptions

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Clean ingested comments into CSV, optionally with sentiment",
		Long: `Load every .ndjson file in the input directory, drop unusable and
duplicate comments, and write comments_clean.csv to the output directory.

With --sentiment, each comment is scored by an OpenAI model (requires
OPENAI_API_KEY) and labelled positive, negative or neutral. Label counts go
to sentiment_counts.csv, and with --db the scores are written back to the
posts table.`,
		Example: `  mentions transform
  mentions transform --in data/raw --out data/curated --brand verizon
  mentions transform --sentiment --parallel 8 --db data/mentions.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd.Context(), env, opts)
		},
	}

	f := cmd.Flags()
	f.SetNormalizeFunc(normalizeFlagName)
	f.StringVar(&opts.in, "in", "", "Input directory with .ndjson files (default: "+defaultTransformInput+")")
	f.StringVarP(&opts.out, "out", "o", "", "Output directory (default: "+defaultTransformOutput+")")
	f.StringVar(&opts.brand, "brand", "", "Keep only records of this brand (case-insensitive)")
	f.BoolVar(&opts.sentiment, "sentiment", false, "Score sentiment with OpenAI")
	f.IntVarP(&opts.parallel, "parallel", "p", defaultParallel, "Max concurrent scoring requests (1-10)")
	f.StringVar(&opts.db, "db", "", "Write scores back to this SQLite database")

	return cmd
}

// runTransform executes the clean/score/save pipeline.
func runTransform(ctx context.Context, env *Env, opts transformOptions) error {
	// === VALIDATION (fail-fast) ===

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}
	inDir := config.ExpandPath(config.ResolveOutputPath(opts.in, cfg.OutputDir, defaultTransformInput))
	outDir := config.ExpandPath(config.ResolveOutputPath(opts.out, cfg.OutputDir, defaultTransformOutput))
	dbPath := opts.db
	if dbPath == "" {
		dbPath = cfg.DB
	}

	var apiKey string
	if opts.sentiment {
		apiKey = env.Getenv(EnvOpenAIAPIKey)
		if apiKey == "" {
			return fmt.Errorf("%w (set it with: export %s=sk-...)", ErrOpenAIKeyMissing, EnvOpenAIAPIKey)
		}
		if dbPath != "" {
			dbPath = config.ExpandPath(dbPath)
			if err := checkDBExists(dbPath); err != nil {
				return err
			}
		}
	}

	// === LOAD & CLEAN ===

	inputs, stats, err := transform.LoadDir(inDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, inDir)
		}
		return err
	}
	fmt.Fprintf(env.Stderr, "Loaded %d lines from %d files (%d unreadable)\n",
		stats.Lines, stats.Files, stats.BadLines)

	rows, cleaned := transform.Clean(inputs, opts.brand)
	if len(rows) == 0 {
		fmt.Fprintf(env.Stderr, "No data found in %s\n", inDir)
		return nil
	}
	fmt.Fprintf(env.Stderr, "Kept %d rows (%d other brand, %d empty, %d duplicates)\n",
		len(rows), cleaned.Filtered, cleaned.EmptyText, cleaned.Duplicates)

	// === SCORE (optional) ===

	var counts *sentiment.Counts
	if opts.sentiment {
		fmt.Fprintf(env.Stderr, "Scoring %d comments...\n", len(rows))
		c, err := transform.Score(ctx, rows, env.ScorerFactory.NewScorer(apiKey), clampParallel(opts.parallel))
		if err != nil {
			return err
		}
		counts = &c
		if c.Unscored > 0 {
			fmt.Fprintf(env.Stderr, "Warning: %d comments could not be scored; their sentiment columns are empty\n", c.Unscored)
		}
	}

	// === SAVE ===

	paths, err := transform.Save(outDir, rows, counts)
	if err != nil {
		return err
	}

	if counts != nil && dbPath != "" {
		n, err := writeBackScores(ctx, dbPath, rows)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stderr, "Updated %d posts in %s\n", n, dbPath)
	}

	switch {
	case counts != nil && counts.Unscored > 0:
		fmt.Fprintf(env.Stderr, "Saved %d rows. Pos=%d Neg=%d Neu=%d Unscored=%d\n",
			len(rows), counts.Positive, counts.Negative, counts.Neutral, counts.Unscored)
	case counts != nil:
		fmt.Fprintf(env.Stderr, "Saved %d rows. Pos=%d Neg=%d Neu=%d\n",
			len(rows), counts.Positive, counts.Negative, counts.Neutral)
	default:
		fmt.Fprintf(env.Stderr, "Saved %d rows.\n", len(rows))
	}
	fmt.Fprintf(env.Stderr, "CSV: %s\n", paths.Clean)
	if paths.Counts != "" {
		fmt.Fprintf(env.Stderr, "Counts: %s\n", paths.Counts)
	}
	return nil
}

// writeBackScores stores row scores in the posts table and returns how many
// posts were updated. Unscored rows and rows unknown to the database are
// skipped.
func writeBackScores(ctx context.Context, dbPath string, rows []transform.Row) (int, error) {
	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOutputUnavailable, err)
	}
	defer func() { _ = st.Close() }()

	updated := 0
	for _, r := range rows {
		if r.PostID == "" || !r.Scored {
			continue
		}
		err := st.UpdateSentiment(ctx, r.PostID, r.Score, string(r.Label))
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
