// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// SetupTestProject creates a temporary brandpulse project: a config file,
// the data directory layout, and one raw extraction file ready to process.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	dirs := []string{
		filepath.Join(tmpDir, "data", "raw_json"),
		filepath.Join(tmpDir, "data", "exports"),
		filepath.Join(tmpDir, ".brandpulse"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	cfg := `data_dir: data
database:
  type: sqlite
  path: data/brandpulse.db
raw_store:
  mongo_uri: mongodb://127.0.0.1:1
  timeout: 50ms
`
	if err := os.WriteFile(filepath.Join(tmpDir, "brandpulse.yaml"),
		[]byte(cfg), 0644); err != nil {
		t.Fatalf("failed to create brandpulse.yaml: %v", err)
	}

	WriteRawFixture(t, filepath.Join(tmpDir, "data", "raw_json", "reddit_20240115.json"),
		SampleRawRecords())

	return tmpDir
}

// SampleRawRecords returns a small fixed record set shared across command
// tests: two Reddit posts (one with child comments) and one YouTube comment.
func SampleRawRecords() []core.RawRecord {
	created := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	return []core.RawRecord{
		{
			ID:          "t3_abc1",
			Source:      core.SourceReddit,
			Kind:        core.KindPost,
			Title:       "ASUS monitor review",
			Body:        "Bought the new ASUS monitor last week. Check https://example.com for specs!",
			Author:      "reviewer_a",
			Score:       42,
			NumComments: 2,
			Subreddit:   "marketing",
			Permalink:   "https://reddit.com/r/marketing/comments/abc1",
			SearchQuery: "marketing analytics",
			CreatedAt:   created,
			Comments: []core.RawComment{
				{ID: "c1", Author: "user_b", Body: "Totally agree, great panel", Score: 5, CreatedAt: created},
				{ID: "c2", Author: core.AuthorDeleted, Body: "meh", Score: 1, CreatedAt: created},
			},
			ExtractedAt: created,
		},
		{
			ID:          "t3_abc2",
			Source:      core.SourceReddit,
			Kind:        core.KindPost,
			Title:       "Attribution tooling",
			Body:        "Which ad platform has the best attribution reporting?",
			Author:      "analyst_c",
			Score:       7,
			NumComments: 0,
			Subreddit:   "analytics",
			Permalink:   "https://reddit.com/r/analytics/comments/abc2",
			SearchQuery: "marketing attribution",
			CreatedAt:   created.Add(2 * time.Hour),
			ExtractedAt: created,
		},
		{
			ID:           "yt_c1",
			Source:       core.SourceYouTube,
			Kind:         core.KindComment,
			Body:         "Activision really stepped up this year, loving it",
			Author:       "viewer_d",
			Score:        12,
			Brand:        "Activision",
			VideoID:      "vid01",
			VideoTitle:   "Activision review",
			URL:          "https://www.youtube.com/watch?v=vid01",
			SearchQuery:  "Activision review",
			VideoChannel: "GamerChannel",
			CreatedAt:    created.Add(4 * time.Hour),
			ExtractedAt:  created,
		},
	}
}

// WriteRawFixture writes records to path in the raw extraction file format
// (a metadata header plus the record array).
func WriteRawFixture(t *testing.T, path string, records []core.RawRecord) {
	t.Helper()

	doc := map[string]any{
		"metadata": map[string]any{
			"source":          "reddit",
			"extraction_date": time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC),
			"total_records":   len(records),
		},
		"records": records,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal raw fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write raw fixture %s: %v", path, err)
	}
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}

// AssertNotContains checks that the string does not contain the substring.
func AssertNotContains(t *testing.T, s, unexpected string) {
	t.Helper()
	if strings.Contains(s, unexpected) {
		t.Errorf("string %q unexpectedly contains %q", s, unexpected)
	}
}

// GetTestdataDir returns the path to the testdata directory.
func GetTestdataDir(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	// Try different relative paths based on where tests are run from
	candidates := []string{
		filepath.Join(wd, "testdata"),
		filepath.Join(wd, "..", "testdata"),
		filepath.Join(wd, "..", "..", "testdata"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	t.Fatalf("testdata directory not found, tried: %v", candidates)
	return ""
}

// CaptureOutput redirects os.Stdout for the duration of a test helper call.
// Returns the write end and a cleanup function that restores stdout and
// returns everything written.
func CaptureOutput(t *testing.T) (file *os.File, cleanup func() string) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	return w, func() string {
		w.Close()
		os.Stdout = old
		buf := make([]byte, 65536)
		n, _ := r.Read(buf)
		return string(buf[:n])
	}
}
