package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse-labs/brandpulse/internal/enrich"
	"github.com/brandpulse-labs/brandpulse/internal/source"
	"github.com/brandpulse-labs/brandpulse/internal/state"
	"github.com/brandpulse-labs/brandpulse/internal/testutil"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

type fakeExtractor struct {
	source  core.Source
	records []core.RawRecord
	err     error
	calls   int
}

func (f *fakeExtractor) Source() core.Source { return f.source }

func (f *fakeExtractor) Extract(ctx context.Context) ([]core.RawRecord, error) {
	f.calls++
	return f.records, f.err
}

type fakeRawStore struct {
	saved   map[core.Source][]core.RawRecord
	saveErr error
	loadErr error
}

func newFakeRawStore() *fakeRawStore {
	return &fakeRawStore{saved: make(map[core.Source][]core.RawRecord)}
}

func (f *fakeRawStore) Save(ctx context.Context, source core.Source, records []core.RawRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[source] = records
	return nil
}

func (f *fakeRawStore) LoadAll(ctx context.Context) ([]core.RawRecord, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	var out []core.RawRecord
	out = append(out, f.saved[core.SourceReddit]...)
	out = append(out, f.saved[core.SourceYouTube]...)
	return out, nil
}

func (f *fakeRawStore) Kind() string { return "fake" }

func (f *fakeRawStore) Close(ctx context.Context) error { return nil }

type fakeAnnotator struct {
	err   error
	calls int
}

func (f *fakeAnnotator) Annotate(ctx context.Context, records []core.NormalizedRecord) ([]core.EnrichedRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]core.EnrichedRecord, len(records))
	for i, r := range records {
		out[i] = core.EnrichedRecord{
			NormalizedRecord: r,
			SentimentLabel:   core.SentimentPositive,
			SentimentScore:   0.9,
		}
	}
	return out, nil
}

type fakeLoader struct {
	schemaCalls int
	loaded      []core.EnrichedRecord
	loadErr     error
}

func (f *fakeLoader) EnsureSchema(ctx context.Context) error {
	f.schemaCalls++
	return nil
}

func (f *fakeLoader) LoadProcessed(ctx context.Context, records []core.EnrichedRecord) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = records
	return nil
}

type fakeModeler struct{ err error }

func (f *fakeModeler) Model(texts []string) ([]enrich.Topic, []int, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return []enrich.Topic{{Terms: []string{"price", "cost"}}}, make([]int, len(texts)), nil
}

func newTestState(t *testing.T) state.Store {
	t.Helper()
	s := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, s.Open(":memory:"))
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestPipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = testutil.NewTestLogger(t)
	}
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func redditPost(id, title, body string) core.RawRecord {
	return core.RawRecord{
		ID:          id,
		Source:      core.SourceReddit,
		Kind:        core.KindPost,
		Title:       title,
		Body:        body,
		Subreddit:   "marketing",
		Author:      "poster",
		Score:       10,
		NumComments: 3,
		CreatedAt:   time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC),
	}
}

func youtubeComment(id, body string) core.RawRecord {
	return core.RawRecord{
		ID:        id,
		Source:    core.SourceYouTube,
		Kind:      core.KindComment,
		Body:      body,
		Brand:     "ASUS",
		VideoID:   "vid01",
		Author:    "viewer",
		Score:     5,
		CreatedAt: time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC),
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	base := Config{
		RawStore:  newFakeRawStore(),
		Annotator: &fakeAnnotator{},
		Loader:    &fakeLoader{},
		State:     newTestState(t),
	}

	_, err := New(base)
	require.NoError(t, err)

	for name, mutate := range map[string]func(*Config){
		"raw store": func(c *Config) { c.RawStore = nil },
		"annotator": func(c *Config) { c.Annotator = nil },
		"loader":    func(c *Config) { c.Loader = nil },
		"state":     func(c *Config) { c.State = nil },
	} {
		cfg := base
		mutate(&cfg)
		_, err := New(cfg)
		assert.ErrorContains(t, err, name)
	}
}

func TestPipeline_Run(t *testing.T) {
	// The second reddit record shares an ID with the first, as happens
	// when two search terms surface the same post. The second youtube
	// comment is too short to survive the reshape.
	raw := newFakeRawStore()
	loader := &fakeLoader{}
	store := newTestState(t)

	reddit := &fakeExtractor{source: core.SourceReddit, records: []core.RawRecord{
		redditPost("t3_a", "ASUS pricing thread", "is it worth the cost"),
		redditPost("t3_a", "ASUS pricing thread", "is it worth the cost"),
	}}
	youtube := &fakeExtractor{source: core.SourceYouTube, records: []core.RawRecord{
		youtubeComment("yt_1", "This ASUS monitor is fantastic for competitive play"),
		youtubeComment("yt_2", "ok"),
	}}

	p := newTestPipeline(t, Config{
		Extractors: []source.Extractor{reddit, youtube},
		RawStore:   raw,
		Annotator:  &fakeAnnotator{},
		Loader:     loader,
		State:      store,
	})

	run, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, "pipeline", run.Kind)
	assert.Equal(t, "all", run.Source)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	assert.NotNil(t, run.CompletedAt)
	assert.Equal(t, core.RunCounts{Extracted: 4, Processed: 3, Deduped: 2, Enriched: 2, Loaded: 2}, run.Counts)

	assert.Len(t, raw.saved[core.SourceReddit], 2)
	assert.Len(t, raw.saved[core.SourceYouTube], 2)
	assert.Equal(t, 1, loader.schemaCalls)
	require.Len(t, loader.loaded, 2)

	var sawYouTube bool
	for _, r := range loader.loaded {
		if r.Source == core.SourceYouTube {
			sawYouTube = true
			assert.Equal(t, "ASUS", r.Subreddit, "brand doubles as the community field")
			assert.Equal(t, "https://youtube.com/watch?v=vid01", r.URL)
		}
	}
	assert.True(t, sawYouTube)

	latest, err := store.GetLatestRun("pipeline")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, run.ID, latest.ID)
}

func TestPipeline_ExtractOnly(t *testing.T) {
	raw := newFakeRawStore()
	annotator := &fakeAnnotator{}
	loader := &fakeLoader{}

	demo := &fakeExtractor{source: core.SourceReddit} // no credentials, no records
	youtube := &fakeExtractor{source: core.SourceYouTube, records: []core.RawRecord{
		youtubeComment("yt_1", "Surprisingly good value for the price"),
	}}

	p := newTestPipeline(t, Config{
		Extractors: []source.Extractor{demo, youtube},
		RawStore:   raw,
		Annotator:  annotator,
		Loader:     loader,
		State:      newTestState(t),
	})

	run, err := p.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "extract", run.Kind)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	assert.Equal(t, core.RunCounts{Extracted: 1}, run.Counts)

	_, demoSaved := raw.saved[core.SourceReddit]
	assert.False(t, demoSaved, "empty extractions must not overwrite stored data")
	assert.Len(t, raw.saved[core.SourceYouTube], 1)

	assert.Zero(t, annotator.calls)
	assert.Zero(t, loader.schemaCalls)
}

func TestPipeline_ProcessEmptyStore(t *testing.T) {
	loader := &fakeLoader{}

	p := newTestPipeline(t, Config{
		RawStore:  newFakeRawStore(),
		Annotator: &fakeAnnotator{},
		Loader:    loader,
		State:     newTestState(t),
	})

	run, err := p.Process(context.Background())
	require.NoError(t, err)

	assert.Equal(t, core.RunStatusCompleted, run.Status)
	assert.Equal(t, core.RunCounts{}, run.Counts)
	assert.Zero(t, loader.schemaCalls, "nothing to load, nothing to create")
}

func TestPipeline_ProcessWithTopics(t *testing.T) {
	raw := newFakeRawStore()
	raw.saved[core.SourceReddit] = []core.RawRecord{
		redditPost("t3_a", "Budget question", "what does the pricing look like"),
		redditPost("t3_b", "Tool comparison", "platform features versus cost"),
	}
	loader := &fakeLoader{}

	p := newTestPipeline(t, Config{
		RawStore:  raw,
		Annotator: &fakeAnnotator{},
		Topics:    &fakeModeler{},
		Loader:    loader,
		State:     newTestState(t),
	})

	run, err := p.Process(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "process", run.Kind)
	assert.Equal(t, "", run.Source)
	assert.Equal(t, core.RunCounts{Extracted: 2, Processed: 2, Deduped: 2, Enriched: 2, Loaded: 2}, run.Counts)

	require.Len(t, loader.loaded, 2)
	for _, r := range loader.loaded {
		assert.Equal(t, "Pricing & Budget", r.TopicLabel)
	}
}

func TestPipeline_ExtractorFailureFailsRun(t *testing.T) {
	raw := newFakeRawStore()
	annotator := &fakeAnnotator{}
	store := newTestState(t)

	broken := &fakeExtractor{source: core.SourceReddit, err: errors.New("401 unauthorized")}

	p := newTestPipeline(t, Config{
		Extractors: []source.Extractor{broken},
		RawStore:   raw,
		Annotator:  annotator,
		Loader:     &fakeLoader{},
		State:      store,
	})

	run, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "extract reddit")

	require.NotNil(t, run)
	assert.Equal(t, core.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "extract reddit")
	assert.Empty(t, raw.saved)
	assert.Zero(t, annotator.calls)

	latest, err := store.GetLatestRun("pipeline")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, core.RunStatusFailed, latest.Status)
}

func TestPipeline_AnnotatorFailureFailsRun(t *testing.T) {
	raw := newFakeRawStore()
	raw.saved[core.SourceReddit] = []core.RawRecord{
		redditPost("t3_a", "Support thread", "response time has been slow"),
	}
	loader := &fakeLoader{}

	p := newTestPipeline(t, Config{
		RawStore:  raw,
		Annotator: &fakeAnnotator{err: errors.New("inference service unavailable")},
		Loader:    loader,
		State:     newTestState(t),
	})

	run, err := p.Process(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "sentiment enrichment")

	assert.Equal(t, core.RunStatusFailed, run.Status)
	// The counts up to the failing stage are still recorded.
	assert.Equal(t, core.RunCounts{Extracted: 1, Processed: 1, Deduped: 1}, run.Counts)
	assert.Zero(t, loader.schemaCalls)
	assert.Nil(t, loader.loaded)
}

func TestPipeline_TopicModelFailureFailsRun(t *testing.T) {
	raw := newFakeRawStore()
	raw.saved[core.SourceReddit] = []core.RawRecord{
		redditPost("t3_a", "Analytics question", "how do you measure roi"),
	}

	p := newTestPipeline(t, Config{
		RawStore:  raw,
		Annotator: &fakeAnnotator{},
		Topics:    &fakeModeler{err: errors.New("empty vocabulary")},
		Loader:    &fakeLoader{},
		State:     newTestState(t),
	})

	run, err := p.Process(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "topic assignment")
	assert.Equal(t, core.RunStatusFailed, run.Status)
}
