package ui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse-labs/brandpulse/internal/sink"
	"github.com/brandpulse-labs/brandpulse/internal/testutil"
	"github.com/brandpulse-labs/brandpulse/pkg/adapter"
	_ "github.com/brandpulse-labs/brandpulse/pkg/adapters/sqlite"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

func enrichedRecord(id string, source core.Source, score int64, label core.SentimentLabel, topic string) core.EnrichedRecord {
	r := core.EnrichedRecord{
		NormalizedRecord: core.NormalizedRecord{
			RawRecord: core.RawRecord{
				ID:          id,
				Source:      source,
				Author:      "tester",
				Score:       int(score),
				NumComments: 3,
				CreatedAt:   time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			},
			FullText:        "clean analysis text",
			CommentRatio:    0.1,
			EngagementScore: float64(score) + 0.9,
		},
		SentimentLabel: label,
		SentimentScore: 0.91,
		TopicLabel:     topic,
	}
	switch source {
	case core.SourceReddit:
		r.Subreddit = "marketing"
		r.Title = "Thread " + id
		r.Body = "A post body"
		r.Permalink = "https://reddit.com/r/marketing/comments/" + id
	case core.SourceYouTube:
		r.Brand = "ASUS"
		r.Body = "A cleaned comment"
		r.VideoID = "vid01"
		r.VideoTitle = "ASUS review"
		r.VideoChannel = "TechChannel"
		r.URL = "https://youtube.com/watch?v=vid01"
	}
	return r
}

func seedRecords() []core.EnrichedRecord {
	return []core.EnrichedRecord{
		enrichedRecord("t3_a", core.SourceReddit, 50, core.SentimentPositive, "Pricing & Budget"),
		enrichedRecord("t3_b", core.SourceReddit, 30, core.SentimentNegative, "Features & Tools"),
		enrichedRecord("t3_c", core.SourceReddit, 10, core.SentimentPositive, ""),
		enrichedRecord("yt_1", core.SourceYouTube, 12, core.SentimentNeutral, ""),
	}
}

// seedSinkDB builds a sink database file with a fixed aggregate and
// voice dataset, then closes the writer so the server side owns it.
func seedSinkDB(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "brandpulse.db")
	cfg := core.AdapterConfig{Type: "sqlite", Path: path}
	a, err := adapter.NewAdapter(cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, a.Connect(ctx, cfg))

	loader := sink.NewLoader(a, testutil.NewTestLogger(t))
	require.NoError(t, loader.EnsureSchema(ctx))

	kpiColumns := []string{"date", "metric_name", "metric_value", "metric_unit", "change_value", "change_unit"}
	kpiRows := [][]any{
		{"2024-03-01", "spend", 36.00, "M", 491.79, "K"},
		{"2024-03-01", "cpm", 405.0, "K", 1.28, "K"},
		{"2024-03-01", "ctr", 10.5, "%", 0.08, "%"},
		{"2024-03-01", "cpc", 4.0, "K", -18.34, ""},
		{"2024-03-01", "video_views", 93.0, "K", 993.0, ""},
		{"2024-03-01", "impressions", 89.0, "K", 937.0, ""},
		{"2024-03-01", "conversions", 791.0, "", 36.0, ""},
		{"2024-03-01", "conversion_rate", 9.8, "%", 0.27, "%"},
		// Older row, pushed out by the limit of eight.
		{"2024-02-01", "spend", 33.10, "M", 120.00, "K"},
	}
	require.NoError(t, loader.Replace(ctx, "marketing_kpis", kpiColumns, kpiRows))

	require.NoError(t, loader.Replace(ctx, "channel_performance",
		[]string{"date", "channel", "impressions", "ctr", "spend_pct"},
		[][]any{
			{"2024-03-01", "Programmatic", 54.7, 10.44, 4.2},
			{"2024-03-01", "Organic", 11.5, 10.6, nil},
		}))

	require.NoError(t, loader.Replace(ctx, "data_source_performance",
		[]string{"date", "source", "impressions", "spend_pct", "ctr", "conversions_pct"},
		[][]any{
			{"2024-03-01", "Facebook", 1100.0, 39.0, 9.67, 11.2},
			{"2024-03-01", "LinkedIn", 3500.0, nil, 11.53, nil},
		}))

	require.NoError(t, loader.Replace(ctx, "campaign_performance",
		[]string{"date", "campaign", "impressions", "spend_pct", "ctr", "conversions_pct"},
		[][]any{
			{"2024-03-01", "Spring Launch", 914, nil, 10.1, nil},
			{"2024-02-01", "Winter Push", 500, 12.0, 9.0, 3.3},
		}))

	require.NoError(t, loader.Replace(ctx, "time_series_data",
		[]string{"date", "channel", "value", "metric_type"},
		[][]any{
			{"2023-01-31", "Programmatic", 5.5, "impressions"},
			{"2023-01-01", "Programmatic", 7.0, "impressions"},
			{"2023-01-01", "Paid Search", 4.0, "impressions"},
		}))

	require.NoError(t, loader.LoadProcessed(ctx, seedRecords()))
	require.NoError(t, a.Close())

	return path
}

// reseedVoice rewrites the processed tables of an existing sink file.
func reseedVoice(t *testing.T, path string, records []core.EnrichedRecord) {
	t.Helper()
	ctx := context.Background()

	cfg := core.AdapterConfig{Type: "sqlite", Path: path}
	a, err := adapter.NewAdapter(cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, a.Connect(ctx, cfg))
	defer func() { require.NoError(t, a.Close()) }()

	loader := sink.NewLoader(a, testutil.NewTestLogger(t))
	require.NoError(t, loader.LoadProcessed(ctx, records))
}

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := OpenStore(context.Background(), path, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenStore_MissingFile(t *testing.T) {
	_, err := OpenStore(context.Background(), filepath.Join(t.TempDir(), "nope.db"), testutil.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink database not found")
}

func TestStore_KPIs(t *testing.T) {
	s := openTestStore(t, seedSinkDB(t))

	kpis, err := s.KPIs(context.Background())
	require.NoError(t, err)
	require.Len(t, kpis, 8)

	for _, k := range kpis {
		assert.Equal(t, "2024-03-01", k.Date)
	}
	assert.Equal(t, "spend", kpis[0].MetricName)
	assert.Equal(t, 36.00, kpis[0].MetricValue)
	assert.Equal(t, "M", kpis[0].MetricUnit)
	assert.Equal(t, 491.79, kpis[0].ChangeValue)
	assert.Equal(t, "K", kpis[0].ChangeUnit)
	assert.Equal(t, "conversion_rate", kpis[7].MetricName)
}

func TestStore_Channels(t *testing.T) {
	s := openTestStore(t, seedSinkDB(t))

	channels, err := s.Channels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 2)

	assert.Equal(t, "Programmatic", channels[0].Channel)
	require.NotNil(t, channels[0].SpendPct)
	assert.Equal(t, 4.2, *channels[0].SpendPct)

	assert.Equal(t, "Organic", channels[1].Channel)
	assert.Nil(t, channels[1].SpendPct)
}

func TestStore_Sources(t *testing.T) {
	s := openTestStore(t, seedSinkDB(t))

	sources, err := s.Sources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, "Facebook", sources[0].Source)
	require.NotNil(t, sources[0].SpendPct)
	assert.Equal(t, 39.0, *sources[0].SpendPct)
	require.NotNil(t, sources[0].ConversionsPct)
	assert.Equal(t, 11.2, *sources[0].ConversionsPct)

	assert.Equal(t, "LinkedIn", sources[1].Source)
	assert.Nil(t, sources[1].SpendPct)
	assert.Nil(t, sources[1].ConversionsPct)
}

func TestStore_Campaigns(t *testing.T) {
	s := openTestStore(t, seedSinkDB(t))

	campaigns, err := s.Campaigns(context.Background())
	require.NoError(t, err)
	require.Len(t, campaigns, 2)

	// Most recent date first.
	assert.Equal(t, "Spring Launch", campaigns[0].Campaign)
	assert.Equal(t, int64(914), campaigns[0].Impressions)
	assert.Nil(t, campaigns[0].SpendPct)

	assert.Equal(t, "Winter Push", campaigns[1].Campaign)
	require.NotNil(t, campaigns[1].SpendPct)
	assert.Equal(t, 12.0, *campaigns[1].SpendPct)
}

func TestStore_TimeSeries(t *testing.T) {
	s := openTestStore(t, seedSinkDB(t))

	points, err := s.TimeSeries(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 3)

	// Date ascending regardless of insert order.
	assert.Equal(t, "2023-01-01", points[0].Date)
	assert.Equal(t, "2023-01-01", points[1].Date)
	assert.Equal(t, "2023-01-31", points[2].Date)
	assert.Equal(t, "impressions", points[0].MetricType)
}

func TestStore_VoiceReddit(t *testing.T) {
	s := openTestStore(t, seedSinkDB(t))

	records, err := s.Voice(context.Background(), core.SourceReddit)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Highest score first.
	assert.Equal(t, []int64{50, 30, 10}, []int64{records[0].Score, records[1].Score, records[2].Score})

	top := records[0]
	assert.Equal(t, "t3_a", top.ID)
	assert.Equal(t, "marketing", top.Community)
	assert.Equal(t, "Thread t3_a", top.Title)
	assert.Equal(t, string(core.SentimentPositive), top.SentimentLabel)
	assert.Equal(t, 0.91, top.SentimentScore)
	assert.Equal(t, "Pricing & Budget", top.TopicLabel)
	assert.Equal(t, 50.9, top.EngagementScore)
}

func TestStore_VoiceYouTube(t *testing.T) {
	s := openTestStore(t, seedSinkDB(t))

	records, err := s.Voice(context.Background(), core.SourceYouTube)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "yt_1", records[0].ID)
	assert.Equal(t, "ASUS", records[0].Community)
	assert.Equal(t, "ASUS review", records[0].Title)
	assert.Empty(t, records[0].TopicLabel)
}

func TestStore_VoiceUnknownSource(t *testing.T) {
	s := openTestStore(t, seedSinkDB(t))

	_, err := s.Voice(context.Background(), core.Source("tiktok"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}

func TestStore_Summary(t *testing.T) {
	s := openTestStore(t, seedSinkDB(t))
	ctx := context.Background()

	reddit, err := s.Summary(ctx, core.SourceReddit)
	require.NoError(t, err)
	assert.Equal(t, int64(3), reddit.Total)
	assert.InDelta(t, 66.67, reddit.PositivePct, 0.01)
	assert.InDelta(t, 33.33, reddit.NegativePct, 0.01)
	assert.InDelta(t, 30.0, reddit.AvgEngagement, 0.001)

	youtube, err := s.Summary(ctx, core.SourceYouTube)
	require.NoError(t, err)
	assert.Equal(t, int64(1), youtube.Total)
	assert.Zero(t, youtube.PositivePct)
	assert.Zero(t, youtube.NegativePct)
	assert.InDelta(t, 12.0, youtube.AvgEngagement, 0.001)
}

func TestStore_SummaryEmptyTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "brandpulse.db")
	cfg := core.AdapterConfig{Type: "sqlite", Path: path}
	a, err := adapter.NewAdapter(cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, a.Connect(ctx, cfg))
	loader := sink.NewLoader(a, testutil.NewTestLogger(t))
	require.NoError(t, loader.EnsureSchema(ctx))
	require.NoError(t, a.Close())

	s := openTestStore(t, path)

	sum, err := s.Summary(ctx, core.SourceReddit)
	require.NoError(t, err)
	assert.Zero(t, sum.Total)
	assert.Zero(t, sum.PositivePct)
	assert.Zero(t, sum.NegativePct)
	assert.Zero(t, sum.AvgEngagement)

	records, err := s.Voice(ctx, core.SourceReddit)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_SummaryCachedUntilInvalidate(t *testing.T) {
	path := seedSinkDB(t)
	s := openTestStore(t, path)
	ctx := context.Background()

	sum, err := s.Summary(ctx, core.SourceReddit)
	require.NoError(t, err)
	require.Equal(t, int64(3), sum.Total)

	extra := append(seedRecords(),
		enrichedRecord("t3_d", core.SourceReddit, 5, core.SentimentNeutral, ""))
	reseedVoice(t, path, extra)

	// The database changed but the cache still answers.
	sum, err = s.Summary(ctx, core.SourceReddit)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Total)

	s.Invalidate()

	sum, err = s.Summary(ctx, core.SourceReddit)
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.Total)
}
