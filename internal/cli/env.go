package cli

import (
	"io"
	"log/slog"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-mentions/internal/config"
	"github.com/alnah/go-mentions/internal/ingest"
	"github.com/alnah/go-mentions/internal/sentiment"
	"github.com/alnah/go-mentions/internal/youtube"
)

// Environment variable names for API keys.
const (
	EnvYouTubeAPIKey = "YOUTUBE_API_KEY"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	ConfigLoader  ConfigLoader
	SourceFactory SourceFactory
	ScorerFactory ScorerFactory
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// SourceFactory creates the comment source used by ingest.
type SourceFactory interface {
	NewSource(apiKey string, logger *slog.Logger) (ingest.Source, error)
}

// ScorerFactory creates sentiment scorers for transform.
type ScorerFactory interface {
	NewScorer(apiKey string) sentiment.Scorer
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithSourceFactory sets the source factory.
func WithSourceFactory(f SourceFactory) EnvOption {
	return func(e *Env) {
		e.SourceFactory = f
	}
}

// WithScorerFactory sets the scorer factory.
func WithScorerFactory(f ScorerFactory) EnvOption {
	return func(e *Env) {
		e.ScorerFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Getenv:        os.Getenv,
		Now:           time.Now,
		ConfigLoader:  &defaultConfigLoader{},
		SourceFactory: &defaultSourceFactory{},
		ScorerFactory: &defaultScorerFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultSourceFactory implements SourceFactory with the YouTube Data API.
type defaultSourceFactory struct{}

func (defaultSourceFactory) NewSource(apiKey string, logger *slog.Logger) (ingest.Source, error) {
	return youtube.NewClient(apiKey, youtube.WithLogger(logger))
}

// defaultScorerFactory implements ScorerFactory using OpenAI.
type defaultScorerFactory struct{}

func (defaultScorerFactory) NewScorer(apiKey string) sentiment.Scorer {
	return sentiment.NewOpenAIScorer(openai.NewClient(apiKey))
}

// Compile-time interface verification.
var (
	_ ConfigLoader  = (*defaultConfigLoader)(nil)
	_ SourceFactory = (*defaultSourceFactory)(nil)
	_ ScorerFactory = (*defaultScorerFactory)(nil)
)
