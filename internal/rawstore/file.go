package rawstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// FileStore keeps raw extractions as JSON documents in a local
// directory, one file per source and day.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates a file store rooted at dir.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{dir: dir, logger: logger}
}

// Save writes one extraction document to <dir>/<source>_<YYYYMMDD>.json,
// overwriting an earlier extraction from the same day.
func (s *FileStore) Save(ctx context.Context, source core.Source, records []core.RawRecord) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create raw directory: %w", err)
	}

	doc := Document{
		Metadata: Metadata{
			Source:         source,
			ExtractionDate: time.Now().UTC(),
			TotalRecords:   len(records),
		},
		Records: records,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal raw document: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", source, doc.Metadata.ExtractionDate.Format("20060102"))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write raw document: %w", err)
	}

	s.logger.Info("saved raw records", "path", path, "records", len(records))
	return nil
}

// LoadAll reads the newest document of every source in the directory.
// Date-stamped names sort chronologically, so the lexically greatest
// file per source is the newest.
func (s *FileStore) LoadAll(ctx context.Context) ([]core.RawRecord, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob raw directory: %w", err)
	}

	latest := make(map[string]string)
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		source := name
		if i := strings.LastIndex(name, "_"); i > 0 {
			source = name[:i]
		}
		if path > latest[source] {
			latest[source] = path
		}
	}

	sources := make([]string, 0, len(latest))
	for source := range latest {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	var records []core.RawRecord
	for _, source := range sources {
		doc, err := s.readDocument(latest[source])
		if err != nil {
			return nil, err
		}
		records = append(records, doc.Records...)
	}

	s.logger.Debug("loaded raw records", "files", len(sources), "records", len(records))
	return records, nil
}

func (s *FileStore) readDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read raw file %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode raw file %s: %w", path, err)
	}
	return &doc, nil
}

// Kind names the backend.
func (s *FileStore) Kind() string {
	return "file"
}

// Close is a no-op for the file store.
func (s *FileStore) Close(ctx context.Context) error {
	return nil
}

var _ Store = (*FileStore)(nil)
