// Package kpi seeds the sink's aggregate tables with synthetic marketing
// data shaped after the reference dashboard. The numbers are fixed
// targets with a little jitter on the historical series, not anything
// derived from extracted records; the dashboard joins them with the real
// voice-of-customer tables at read time.
package kpi

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/brandpulse-labs/brandpulse/internal/sink"
)

const dateLayout = "2006-01-02"

// monthlyDates is how many 30-day steps the historical series cover,
// starting at seriesStart.
const monthlyDates = 12

var seriesStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// kpiTargets are the dashboard headline metrics, one row each for
// today's date.
var kpiTargets = []struct {
	name       string
	value      float64
	unit       string
	change     float64
	changeUnit string
}{
	{"spend", 36.00, "M", 491.79, "K"},
	{"cpm", 405, "K", 1.28, "K"},
	{"ctr", 10.5, "%", 0.08, "%"},
	{"cpc", 4, "K", -18.34, ""},
	{"video_views", 93, "K", 993.0, ""},
	{"impressions", 89.0, "K", 937.0, ""},
	{"conversions", 791, "", 36.0, ""},
	{"conversion_rate", 9.8, "%", 0.27, "%"},
}

var channelStats = []struct {
	name        string
	impressions float64
	ctr         float64
	spendPct    float64
}{
	{"Programmatic", 54.7, 10.44, 4.2},
	{"Paid Search", 31.4, 10.57, 30.7},
	{"Paid Social", 2.9, 10.28, -25.6},
	{"Organic", 11.5, 10.6, -0.6},
}

// sourceStats are per-platform base values; impressions get jittered
// across the historical dates. Nil percentages stay NULL in the sink.
var sourceStats = []struct {
	name           string
	impressions    float64
	spendPct       *float64
	ctr            float64
	conversionsPct *float64
}{
	{"Amazon Ad Server (Sizmek)", 5.8, pct(-30.0), 10.17, pct(-10.0)},
	{"StackAdapt", 4.8, nil, 68.7, pct(-7.3)},
	{"LinkedIn Ads", 9.8, nil, 10.0, nil},
	{"Facebook", 5.7, pct(39.0), 10.82, pct(14.3)},
	{"Google Display & Video 360", 4.7, pct(69.2), 10.28, pct(-0.8)},
	{"Bing Ads (Microsoft Advertising)", 4.8, pct(3.7), 10, pct(-1.8)},
	{"Google Search Ads 360", 5.8, pct(-23.6), 10.57, pct(11.0)},
}

var campaignStats = []struct {
	name        string
	impressions int
	ctr         float64
}{
	{"Business-focused zero tolerance architecture", 931, 10.42},
	{"Persistent 24/7 attitude", 914, 9.71},
	{"Integrated dedicated contingency", 950, 9.98},
	{"Profound intangible policy", 978, 8.69},
	{"Centralized modular throughput", 955, 9.42},
	{"Automated uniform software", 952, 10.19},
	{"Cross-platform static hierarchy", 946, 9.5},
	{"Networked value-added time-frame", 953, 11.54},
}

// timeSeriesPatterns are the per-channel monthly impression curves (in
// thousands) behind the dashboard's line chart.
var timeSeriesPatterns = []struct {
	channel string
	values  [monthlyDates]float64
}{
	{"Programmatic", [monthlyDates]float64{7, 5.5, 8, 10, 7.5, 6, 5.5, 7.5, 12.5, 6, 8, 7}},
	{"Paid Search", [monthlyDates]float64{6, 5, 7.5, 9.5, 6.5, 5.5, 4.5, 6.5, 11.5, 5, 7.5, 6.5}},
	{"Paid Social", [monthlyDates]float64{3, 2.5, 3.5, 4, 3.5, 3, 2.5, 3.5, 5, 2.5, 3, 2.5}},
	{"Organic", [monthlyDates]float64{4, 3.5, 4.5, 5, 4, 3.5, 3, 4, 6, 3.5, 4.5, 4}},
}

func pct(v float64) *float64 { return &v }

// Generator writes the synthetic aggregates through the sink loader.
// Every table write is a full replace.
type Generator struct {
	loader *sink.Loader
	logger *slog.Logger
	rng    *rand.Rand
	now    func() time.Time
}

// NewGenerator creates a Generator. The rng drives the per-date jitter;
// pass a seeded one for reproducible output. A nil logger discards
// output.
func NewGenerator(loader *sink.Loader, rng *rand.Rand, logger *slog.Logger) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{loader: loader, logger: logger, rng: rng, now: time.Now}
}

// All ensures the sink schema and regenerates every aggregate table,
// returning the total row count written.
func (g *Generator) All(ctx context.Context) (int64, error) {
	if err := g.loader.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	var total int64
	for _, gen := range []func(context.Context) (int64, error){
		g.KPIs, g.Channels, g.Sources, g.Campaigns, g.TimeSeries,
	} {
		n, err := gen(ctx)
		if err != nil {
			return total, err
		}
		total += n
	}

	g.logger.Info("kpi generation complete", "rows", total)
	return total, nil
}

// KPIs writes the headline metrics, all dated today.
func (g *Generator) KPIs(ctx context.Context) (int64, error) {
	today := g.today()

	rows := make([][]any, 0, len(kpiTargets))
	for _, k := range kpiTargets {
		rows = append(rows, []any{today, k.name, k.value, k.unit, k.change, k.changeUnit})
	}

	return g.replace(ctx, sink.TableMarketingKPIs,
		[]string{"date", "metric_name", "metric_value", "metric_unit", "change_value", "change_unit"},
		rows)
}

// Channels writes the per-channel share snapshot, dated today.
func (g *Generator) Channels(ctx context.Context) (int64, error) {
	today := g.today()

	rows := make([][]any, 0, len(channelStats))
	for _, c := range channelStats {
		rows = append(rows, []any{today, c.name, c.impressions, c.ctr, c.spendPct})
	}

	return g.replace(ctx, sink.TableChannelPerformance,
		[]string{"date", "channel", "impressions", "ctr", "spend_pct"},
		rows)
}

// Sources writes the platform series across the historical dates with
// impressions jittered by ±20%.
func (g *Generator) Sources(ctx context.Context) (int64, error) {
	rows := make([][]any, 0, monthlyDates*len(sourceStats))
	for _, date := range seriesDates() {
		for _, s := range sourceStats {
			impressions := s.impressions * g.uniform(0.8, 1.2)
			rows = append(rows, []any{date, s.name, impressions, s.spendPct, s.ctr, s.conversionsPct})
		}
	}

	return g.replace(ctx, sink.TableDataSourcePerformance,
		[]string{"date", "source", "impressions", "spend_pct", "ctr", "conversions_pct"},
		rows)
}

// Campaigns writes the campaign series across the historical dates with
// impressions jittered by ±10% and truncated to whole numbers.
func (g *Generator) Campaigns(ctx context.Context) (int64, error) {
	rows := make([][]any, 0, monthlyDates*len(campaignStats))
	for _, date := range seriesDates() {
		for _, c := range campaignStats {
			impressions := int(float64(c.impressions) * g.uniform(0.9, 1.1))
			rows = append(rows, []any{date, c.name, impressions, nil, c.ctr, nil})
		}
	}

	return g.replace(ctx, sink.TableCampaignPerformance,
		[]string{"date", "campaign", "impressions", "spend_pct", "ctr", "conversions_pct"},
		rows)
}

// TimeSeries writes the fixed per-channel monthly curves.
func (g *Generator) TimeSeries(ctx context.Context) (int64, error) {
	dates := seriesDates()

	rows := make([][]any, 0, monthlyDates*len(timeSeriesPatterns))
	for _, p := range timeSeriesPatterns {
		for i, date := range dates {
			rows = append(rows, []any{date, p.channel, p.values[i], "impressions"})
		}
	}

	return g.replace(ctx, sink.TableTimeSeries,
		[]string{"date", "channel", "value", "metric_type"},
		rows)
}

func (g *Generator) replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if err := g.loader.Replace(ctx, table, columns, rows); err != nil {
		return 0, fmt.Errorf("generate %s: %w", table, err)
	}
	return int64(len(rows)), nil
}

func (g *Generator) today() string {
	return g.now().UTC().Format(dateLayout)
}

// uniform returns a draw from [lo, hi).
func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// seriesDates returns the historical dates: 30-day steps from the
// series start.
func seriesDates() []string {
	dates := make([]string, monthlyDates)
	for i := range dates {
		dates[i] = seriesStart.AddDate(0, 0, 30*i).Format(dateLayout)
	}
	return dates
}
