package transform

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// maxLine bounds one NDJSON line. Comments are capped far below this.
const maxLine = 4 << 20

// Input is a tolerant view of one NDJSON line. Fields written by other
// tools may have drifted types, so the loose ones stay raw.
type Input struct {
	PostID     string          `json:"post_id"`
	Source     string          `json:"source"`
	Brand      string          `json:"brand"`
	Keywords   json.RawMessage `json:"keywords"`
	Text       string          `json:"text"`
	CreatedUTC string          `json:"created_utc"`
	Author     string          `json:"author"`
	LikeCount  json.RawMessage `json:"like_count"`
	VideoID    string          `json:"video_id"`
	URL        string          `json:"url"`
	FetchedAt  string          `json:"fetched_at"`
}

// LoadStats counts what LoadDir read.
type LoadStats struct {
	Files    int
	Lines    int
	BadLines int
}

// LoadDir reads every *.ndjson file directly under dir, in name order.
// Blank lines are ignored and undecodable lines are counted and skipped.
func LoadDir(dir string) ([]Input, LoadStats, error) {
	var stats LoadStats

	info, err := os.Stat(dir)
	if err != nil {
		return nil, stats, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("input %s: %w", dir, ErrNotDirectory)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.ndjson"))
	if err != nil {
		return nil, stats, fmt.Errorf("list input files: %w", err)
	}
	slices.Sort(paths)

	var out []Input
	for _, p := range paths {
		recs, err := loadFile(p, &stats)
		if err != nil {
			return nil, stats, err
		}
		out = append(out, recs...)
		stats.Files++
	}
	return out, stats, nil
}

func loadFile(path string, stats *LoadStats) ([]Input, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from a glob of the user's input dir
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var out []Input
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Lines++
		var r Input
		if err := json.Unmarshal(line, &r); err != nil {
			stats.BadLines++
			continue
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

// likeCount reads a like count written as a number or a numeric string.
// Anything else is 0.
func likeCount(raw json.RawMessage) int64 {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		n = json.Number(strings.TrimSpace(s))
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(string(n), 64); err == nil {
		return int64(f)
	}
	return 0
}

// keywordString flattens keywords written as a list or a plain string.
func keywordString(raw json.RawMessage) string {
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, len(list))
		for i, v := range list {
			parts[i] = fmt.Sprint(v)
		}
		return strings.Join(parts, ",")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
