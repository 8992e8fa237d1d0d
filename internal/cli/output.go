package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
)

// newLogger returns a text logger on w. Verbose enables DEBUG.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// normalizeFlagName makes --limit_videos and --limit-videos the same flag.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// warnNonCSVExtension writes a warning to w if path has an extension
// that is not .csv.
func warnNonCSVExtension(w io.Writer, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" && ext != ".csv" {
		_, _ = fmt.Fprintf(w, "Warning: output is CSV regardless of %s extension\n", ext)
	}
}

// writeFileAtomic fills a temporary file next to path and renames it into
// place, so readers never see a partial file. Parent directories are created.
func writeFileAtomic(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil { // #nosec G301 -- user output dir
		return fmt.Errorf("%w: %w", ErrOutputUnavailable, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputUnavailable, err)
	}
	tmp := f.Name()

	writeErr := errors.Join(f.Chmod(0644), fill(f))
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write output: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// checkDBExists fails with ErrFileNotFound when path does not exist.
// Opening a store creates missing databases, so commands that only read or
// update one check first.
func checkDBExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("cannot access database: %w", err)
	}
	return nil
}
