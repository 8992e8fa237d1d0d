package cli

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alnah/go-mentions/internal/sentiment"
	"github.com/alnah/go-mentions/internal/youtube"
)

// ---------------------------------------------------------------------------
// Tests for DefaultEnv / NewEnv
// ---------------------------------------------------------------------------

func TestDefaultEnvReturnsValidEnv(t *testing.T) {
	t.Parallel()

	env := DefaultEnv()

	if env.Stdout != os.Stdout {
		t.Error("DefaultEnv() Stdout is not os.Stdout")
	}
	if env.Stderr != os.Stderr {
		t.Error("DefaultEnv() Stderr is not os.Stderr")
	}
	if env.Getenv == nil || env.Now == nil {
		t.Error("DefaultEnv() Getenv/Now = nil, want non-nil")
	}
	if env.ConfigLoader == nil || env.SourceFactory == nil || env.ScorerFactory == nil {
		t.Error("DefaultEnv() factories = nil, want non-nil")
	}
}

func TestDefaultEnvGetenvUsesOsGetenv(t *testing.T) {
	// Cannot use t.Parallel() with t.Setenv()

	t.Setenv("GO_MENTIONS_TEST_KEY_12345", "test_value_xyz")

	if got := DefaultEnv().Getenv("GO_MENTIONS_TEST_KEY_12345"); got != "test_value_xyz" {
		t.Errorf("Getenv() = %q, want %q", got, "test_value_xyz")
	}
}

func TestNewEnvAppliesOptions(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	loader := &mockConfigLoader{}
	sources := &mockSourceFactory{}
	scorers := &mockScorerFactory{}

	env := NewEnv(
		WithStdout(&stdout),
		WithStderr(&stderr),
		WithGetenv(staticEnv(map[string]string{"K": "v"})),
		WithNow(fixedTime(now)),
		WithConfigLoader(loader),
		WithSourceFactory(sources),
		WithScorerFactory(scorers),
	)

	if env.Stdout != &stdout || env.Stderr != &stderr {
		t.Error("writers not applied")
	}
	if env.Getenv("K") != "v" {
		t.Error("Getenv not applied")
	}
	if !env.Now().Equal(now) {
		t.Error("Now not applied")
	}
	if env.ConfigLoader != loader || env.SourceFactory != sources || env.ScorerFactory != scorers {
		t.Error("factories not applied")
	}
}

// ---------------------------------------------------------------------------
// Tests for default factories
// ---------------------------------------------------------------------------

func TestDefaultSourceFactory(t *testing.T) {
	t.Parallel()

	f := defaultSourceFactory{}
	logger := slog.New(slog.DiscardHandler)

	src, err := f.NewSource("key", logger)
	if err != nil {
		t.Fatalf("NewSource() error: %v", err)
	}
	if _, ok := src.(*youtube.Client); !ok {
		t.Errorf("NewSource() = %T, want *youtube.Client", src)
	}

	if _, err := f.NewSource("", logger); !errors.Is(err, youtube.ErrEmptyAPIKey) {
		t.Errorf("NewSource(\"\") error = %v, want ErrEmptyAPIKey", err)
	}
}

func TestDefaultScorerFactory(t *testing.T) {
	t.Parallel()

	s := defaultScorerFactory{}.NewScorer("sk-test")
	if _, ok := s.(*sentiment.OpenAIScorer); !ok {
		t.Errorf("NewScorer() = %T, want *sentiment.OpenAIScorer", s)
	}
}
