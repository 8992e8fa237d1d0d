package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alnah/go-mentions/internal/config"
	"github.com/alnah/go-mentions/internal/format"
	"github.com/alnah/go-mentions/internal/store"
)

// ExportCmd creates the export command.
// The env parameter provides injectable dependencies for testing.
func ExportCmd(env *Env) *cobra.Command {
	var db, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored posts to CSV",
		Long: `Export every post of the SQLite database to CSV, oldest first.

The database defaults to the db config key. The output file is replaced
atomically, so dashboards reading it never see a partial export.`,
		Example: `  mentions export --db data/mentions.db --out bi/posts_latest.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), env, db, out)
		},
	}

	cmd.Flags().StringVar(&db, "db", "", "SQLite database to read")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output CSV path")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// runExport writes the posts table of db to out.
func runExport(ctx context.Context, env *Env, db, out string) error {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}
	if db == "" {
		db = cfg.DB
	}
	if db == "" {
		return fmt.Errorf("%w: --db is required when no db is configured", ErrInvalidFlag)
	}
	if out == "" {
		return fmt.Errorf("%w: --out cannot be empty", ErrInvalidFlag)
	}
	db = config.ExpandPath(db)
	out = config.ResolveOutputPath(out, cfg.OutputDir, "")

	if err := checkDBExists(db); err != nil {
		return err
	}
	warnNonCSVExtension(env.Stderr, out)

	st, err := store.Open(ctx, db)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	var n int
	if err := writeFileAtomic(out, func(w io.Writer) error {
		var err error
		n, err = st.ExportCSV(ctx, w)
		return err
	}); err != nil {
		return err
	}

	size := "0KB"
	if info, err := os.Stat(out); err == nil {
		size = format.Size(info.Size())
	}
	fmt.Fprintf(env.Stderr, "Exported %d rows to %s (%s)\n", n, out, size)
	return nil
}
