package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-mentions/internal/config"
	"github.com/alnah/go-mentions/internal/record"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	configLoader *mockConfigLoader
	source       *mockSourceFactory
	scorer       *mockScorerFactory
	stdout       *syncBuffer
	stderr       *syncBuffer
}

// testNow is the fixed clock of every test Env.
var testNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

// testEnv creates an Env wired to fresh mocks. getenv may be nil.
func testEnv(getenv map[string]string) (*Env, *testMocks) {
	m := &testMocks{
		configLoader: &mockConfigLoader{},
		source:       &mockSourceFactory{},
		scorer:       &mockScorerFactory{},
		stdout:       &syncBuffer{},
		stderr:       &syncBuffer{},
	}
	env := &Env{
		Stdout:        m.stdout,
		Stderr:        m.stderr,
		Getenv:        staticEnv(getenv),
		Now:           fixedTime(testNow),
		ConfigLoader:  m.configLoader,
		SourceFactory: m.source,
		ScorerFactory: m.scorer,
	}
	return env, m
}

func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// configWith returns a loader serving cfg.
func configWith(cfg config.Config) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func() (config.Config, error) {
			return cfg, nil
		},
	}
}

// writeNDJSON writes records as one JSON object per line to dir/name.
func writeNDJSON(t *testing.T, dir, name string, recs ...record.Record) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatalf("MkdirAll(%q) error: %v", dir, err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("Encode() error: %v", err)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("WriteFile(%q) error: %v", path, err)
	}
	return path
}

// readNDJSON decodes every line of path.
func readNDJSON(t *testing.T, path string) []record.Record {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open(%q) error: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	var out []record.Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r record.Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan %q: %v", path, err)
	}
	return out
}
