package kpi

import (
	"context"
	"math/rand"
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

func newTestGenerator(t *testing.T, seed int64) (*Generator, adapter.Adapter, *sink.Loader) {
	t.Helper()

	cfg := core.AdapterConfig{Type: "sqlite", Path: ":memory:"}
	a, err := adapter.NewAdapter(cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, a.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = a.Close() })

	loader := sink.NewLoader(a, testutil.NewTestLogger(t))
	require.NoError(t, loader.EnsureSchema(context.Background()))

	g := NewGenerator(loader, rand.New(rand.NewSource(seed)), testutil.NewTestLogger(t))
	g.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return g, a, loader
}

func TestGenerator_All(t *testing.T) {
	g, _, loader := newTestGenerator(t, 42)
	ctx := context.Background()

	total, err := g.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(240), total)

	counts := map[string]int64{
		sink.TableMarketingKPIs:         8,
		sink.TableChannelPerformance:    4,
		sink.TableDataSourcePerformance: 84,
		sink.TableCampaignPerformance:   96,
		sink.TableTimeSeries:            48,
	}
	for table, want := range counts {
		got, err := loader.Count(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, want, got, table)
	}
}

func TestGenerator_KPIs(t *testing.T) {
	g, a, _ := newTestGenerator(t, 42)
	ctx := context.Background()

	n, err := g.KPIs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	rows, err := a.Query(ctx,
		"SELECT date, metric_value, metric_unit, change_value, change_unit FROM marketing_kpis WHERE metric_name = 'spend'")
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var date, unit, changeUnit string
	var value, change float64
	require.NoError(t, rows.Scan(&date, &value, &unit, &change, &changeUnit))
	assert.Equal(t, "2024-03-01", date)
	assert.Equal(t, 36.00, value)
	assert.Equal(t, "M", unit)
	assert.Equal(t, 491.79, change)
	assert.Equal(t, "K", changeUnit)
	assert.False(t, rows.Next(), "one row per metric")
	require.NoError(t, rows.Err())
}

func TestGenerator_Channels(t *testing.T) {
	g, a, _ := newTestGenerator(t, 42)
	ctx := context.Background()

	n, err := g.Channels(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	rows, err := a.Query(ctx,
		"SELECT impressions, ctr, spend_pct FROM channel_performance WHERE channel = 'Paid Social'")
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var impressions, ctr, spendPct float64
	require.NoError(t, rows.Scan(&impressions, &ctr, &spendPct))
	assert.Equal(t, 2.9, impressions)
	assert.Equal(t, 10.28, ctr)
	assert.Equal(t, -25.6, spendPct)
	require.NoError(t, rows.Err())
}

func TestGenerator_Sources(t *testing.T) {
	g, a, _ := newTestGenerator(t, 42)
	ctx := context.Background()

	n, err := g.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(84), n)

	rows, err := a.Query(ctx,
		"SELECT date, source, impressions, spend_pct, conversions_pct FROM data_source_performance ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	bases := map[string]float64{
		"Amazon Ad Server (Sizmek)":        5.8,
		"StackAdapt":                       4.8,
		"LinkedIn Ads":                     9.8,
		"Facebook":                         5.7,
		"Google Display & Video 360":       4.7,
		"Bing Ads (Microsoft Advertising)": 4.8,
		"Google Search Ads 360":            5.8,
	}

	var count int
	var firstDate, lastDate string
	for rows.Next() {
		var date, source string
		var impressions float64
		var spendPct, conversionsPct *float64
		require.NoError(t, rows.Scan(&date, &source, &impressions, &spendPct, &conversionsPct))

		base := bases[source]
		require.NotZero(t, base, "unknown source %q", source)
		assert.GreaterOrEqual(t, impressions, base*0.8)
		assert.LessOrEqual(t, impressions, base*1.2)

		switch source {
		case "StackAdapt":
			assert.Nil(t, spendPct)
			require.NotNil(t, conversionsPct)
			assert.Equal(t, -7.3, *conversionsPct)
		case "LinkedIn Ads":
			assert.Nil(t, spendPct)
			assert.Nil(t, conversionsPct)
		case "Facebook":
			require.NotNil(t, spendPct)
			assert.Equal(t, 39.0, *spendPct)
		}

		if count == 0 {
			firstDate = date
		}
		lastDate = date
		count++
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, 84, count)
	assert.Equal(t, "2023-01-01", firstDate)
	assert.Equal(t, "2023-11-27", lastDate, "11 steps of 30 days")
}

func TestGenerator_Campaigns(t *testing.T) {
	g, a, _ := newTestGenerator(t, 42)
	ctx := context.Background()

	n, err := g.Campaigns(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(96), n)

	rows, err := a.Query(ctx,
		"SELECT impressions, spend_pct, conversions_pct FROM campaign_performance WHERE campaign = 'Persistent 24/7 attitude'")
	require.NoError(t, err)
	defer rows.Close()

	var count int
	for rows.Next() {
		var impressions int
		var spendPct, conversionsPct *float64
		require.NoError(t, rows.Scan(&impressions, &spendPct, &conversionsPct))

		// base 914, jitter ±10%, truncated
		assert.GreaterOrEqual(t, impressions, 822)
		assert.LessOrEqual(t, impressions, 1005)
		assert.Nil(t, spendPct)
		assert.Nil(t, conversionsPct)
		count++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 12, count)
}

func TestGenerator_TimeSeries(t *testing.T) {
	g, a, _ := newTestGenerator(t, 42)
	ctx := context.Background()

	n, err := g.TimeSeries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(48), n)

	rows, err := a.Query(ctx,
		"SELECT value, metric_type FROM time_series_data WHERE channel = 'Programmatic' ORDER BY date")
	require.NoError(t, err)
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var value float64
		var metricType string
		require.NoError(t, rows.Scan(&value, &metricType))
		assert.Equal(t, "impressions", metricType)
		values = append(values, value)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []float64{7, 5.5, 8, 10, 7.5, 6, 5.5, 7.5, 12.5, 6, 8, 7}, values)
}

func TestGenerator_RerunReplaces(t *testing.T) {
	g, _, loader := newTestGenerator(t, 42)
	ctx := context.Background()

	_, err := g.KPIs(ctx)
	require.NoError(t, err)
	_, err = g.KPIs(ctx)
	require.NoError(t, err)

	count, err := loader.Count(ctx, sink.TableMarketingKPIs)
	require.NoError(t, err)
	assert.Equal(t, int64(8), count, "regeneration must not append")
}

func TestGenerator_SeededRunsMatch(t *testing.T) {
	ctx := context.Background()

	sample := func(seed int64) []float64 {
		g, a, _ := newTestGenerator(t, seed)
		_, err := g.Sources(ctx)
		require.NoError(t, err)

		rows, err := a.Query(ctx, "SELECT impressions FROM data_source_performance ORDER BY id")
		require.NoError(t, err)
		defer rows.Close()

		var out []float64
		for rows.Next() {
			var v float64
			require.NoError(t, rows.Scan(&v))
			out = append(out, v)
		}
		require.NoError(t, rows.Err())
		return out
	}

	first := sample(7)
	second := sample(7)
	other := sample(8)

	assert.Equal(t, first, second, "same seed, same series")
	assert.NotEqual(t, first, other, "different seed, different jitter")
}
