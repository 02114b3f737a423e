package ui

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// Store queries the sink database for the dashboard. The connection is
// read-only so a running pipeline keeps exclusive write access. Voice
// summaries are cached per source until Invalidate is called.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu        sync.Mutex
	summaries map[core.Source]*VoiceSummary
}

// OpenStore opens the sink database file read-only.
func OpenStore(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sink database not found at %s (run 'brandpulse run' or 'brandpulse kpi' first)", path)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sink database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sink database: %w", err)
	}

	return &Store{
		db:        db,
		logger:    logger,
		summaries: make(map[core.Source]*VoiceSummary),
	}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Invalidate drops all cached summaries. Called when the sink database
// changes on disk.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = make(map[core.Source]*VoiceSummary)
}

// KPI is one headline metric row.
type KPI struct {
	Date        string  `json:"date"`
	MetricName  string  `json:"metric_name"`
	MetricValue float64 `json:"metric_value"`
	MetricUnit  string  `json:"metric_unit"`
	ChangeValue float64 `json:"change_value"`
	ChangeUnit  string  `json:"change_unit"`
}

// Channel is one channel performance row.
type Channel struct {
	Date        string   `json:"date"`
	Channel     string   `json:"channel"`
	Impressions float64  `json:"impressions"`
	CTR         float64  `json:"ctr"`
	SpendPct    *float64 `json:"spend_pct"`
}

// SourcePerformance is one advertising data source row.
type SourcePerformance struct {
	Date           string   `json:"date"`
	Source         string   `json:"source"`
	Impressions    float64  `json:"impressions"`
	SpendPct       *float64 `json:"spend_pct"`
	CTR            float64  `json:"ctr"`
	ConversionsPct *float64 `json:"conversions_pct"`
}

// Campaign is one campaign performance row.
type Campaign struct {
	Date           string   `json:"date"`
	Campaign       string   `json:"campaign"`
	Impressions    int64    `json:"impressions"`
	SpendPct       *float64 `json:"spend_pct"`
	CTR            float64  `json:"ctr"`
	ConversionsPct *float64 `json:"conversions_pct"`
}

// TimeSeriesPoint is one point on a channel trend line.
type TimeSeriesPoint struct {
	Date       string  `json:"date"`
	Channel    string  `json:"channel"`
	Value      float64 `json:"value"`
	MetricType string  `json:"metric_type"`
}

// VoiceRecord is one processed social record as shown on the customer
// voice dashboard. Community holds the subreddit for reddit records and
// the brand for youtube records.
type VoiceRecord struct {
	ID              string  `json:"id"`
	Community       string  `json:"community"`
	Title           string  `json:"title"`
	Score           int64   `json:"score"`
	SentimentLabel  string  `json:"sentiment_label"`
	SentimentScore  float64 `json:"sentiment_score"`
	TopicLabel      string  `json:"topic_label,omitempty"`
	EngagementScore float64 `json:"engagement_score"`
}

// VoiceSummary aggregates a source's processed records.
type VoiceSummary struct {
	Total         int64   `json:"total"`
	PositivePct   float64 `json:"positive_pct"`
	NegativePct   float64 `json:"negative_pct"`
	AvgEngagement float64 `json:"avg_engagement"`
}

// KPIs returns the eight most recent headline metrics.
func (s *Store) KPIs(ctx context.Context) ([]KPI, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, metric_name, metric_value,
		       COALESCE(metric_unit, ''), COALESCE(change_value, 0), COALESCE(change_unit, '')
		FROM marketing_kpis ORDER BY date DESC, id LIMIT 8`)
	if err != nil {
		return nil, fmt.Errorf("query kpis: %w", err)
	}
	defer rows.Close()

	out := []KPI{}
	for rows.Next() {
		var k KPI
		if err := rows.Scan(&k.Date, &k.MetricName, &k.MetricValue, &k.MetricUnit, &k.ChangeValue, &k.ChangeUnit); err != nil {
			return nil, fmt.Errorf("scan kpi: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Channels returns channel performance, most recent date first.
func (s *Store) Channels(ctx context.Context) ([]Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, channel, impressions, ctr, spend_pct
		FROM channel_performance ORDER BY date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	out := []Channel{}
	for rows.Next() {
		var c Channel
		if err := rows.Scan(&c.Date, &c.Channel, &c.Impressions, &c.CTR, &c.SpendPct); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Sources returns advertising data source performance, most recent
// date first.
func (s *Store) Sources(ctx context.Context) ([]SourcePerformance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, source, impressions, spend_pct, ctr, conversions_pct
		FROM data_source_performance ORDER BY date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	out := []SourcePerformance{}
	for rows.Next() {
		var p SourcePerformance
		if err := rows.Scan(&p.Date, &p.Source, &p.Impressions, &p.SpendPct, &p.CTR, &p.ConversionsPct); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Campaigns returns campaign performance, most recent date first.
func (s *Store) Campaigns(ctx context.Context) ([]Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, campaign, impressions, spend_pct, ctr, conversions_pct
		FROM campaign_performance ORDER BY date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	out := []Campaign{}
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.Date, &c.Campaign, &c.Impressions, &c.SpendPct, &c.CTR, &c.ConversionsPct); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TimeSeries returns the channel trend lines in date order.
func (s *Store) TimeSeries(ctx context.Context) ([]TimeSeriesPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, channel, value, COALESCE(metric_type, 'impressions')
		FROM time_series_data ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("query time series: %w", err)
	}
	defer rows.Close()

	out := []TimeSeriesPoint{}
	for rows.Next() {
		var p TimeSeriesPoint
		if err := rows.Scan(&p.Date, &p.Channel, &p.Value, &p.MetricType); err != nil {
			return nil, fmt.Errorf("scan time series point: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// voiceTable maps a source to its processed table, or "" when the
// source has none.
func voiceTable(source core.Source) string {
	switch source {
	case core.SourceReddit:
		return "reddit_processed"
	case core.SourceYouTube:
		return "youtube_processed"
	}
	return ""
}

// Voice returns up to 50 processed records for a source, highest score
// first.
func (s *Store) Voice(ctx context.Context, source core.Source) ([]VoiceRecord, error) {
	var query string
	switch source {
	case core.SourceReddit:
		query = `
			SELECT id, COALESCE(subreddit, ''), COALESCE(title, ''), score,
			       COALESCE(sentiment_label, ''), COALESCE(sentiment_score, 0),
			       COALESCE(topic_label, ''), COALESCE(engagement_score, 0)
			FROM reddit_processed ORDER BY score DESC, id LIMIT 50`
	case core.SourceYouTube:
		query = `
			SELECT id, COALESCE(brand, ''), COALESCE(video_title, ''), score,
			       COALESCE(sentiment_label, ''), COALESCE(sentiment_score, 0),
			       '', COALESCE(engagement_score, 0)
			FROM youtube_processed ORDER BY score DESC, id LIMIT 50`
	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s voice records: %w", source, err)
	}
	defer rows.Close()

	out := []VoiceRecord{}
	for rows.Next() {
		var r VoiceRecord
		if err := rows.Scan(&r.ID, &r.Community, &r.Title, &r.Score,
			&r.SentimentLabel, &r.SentimentScore, &r.TopicLabel, &r.EngagementScore); err != nil {
			return nil, fmt.Errorf("scan voice record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary returns the aggregate numbers for a source's processed
// records, serving from cache when possible.
func (s *Store) Summary(ctx context.Context, source core.Source) (*VoiceSummary, error) {
	s.mu.Lock()
	if sum, ok := s.summaries[source]; ok {
		s.mu.Unlock()
		return sum, nil
	}
	s.mu.Unlock()

	table := voiceTable(source)
	if table == "" {
		return nil, fmt.Errorf("unknown source %q", source)
	}

	var total, positive, negative int64
	var avgScore float64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN sentiment_label = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN sentiment_label = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(score), 0)
		FROM %s`, table),
		string(core.SentimentPositive), string(core.SentimentNegative),
	).Scan(&total, &positive, &negative, &avgScore)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", source, err)
	}

	sum := &VoiceSummary{Total: total, AvgEngagement: avgScore}
	if total > 0 {
		sum.PositivePct = float64(positive) / float64(total) * 100
		sum.NegativePct = float64(negative) / float64(total) * 100
	}

	s.mu.Lock()
	s.summaries[source] = sum
	s.mu.Unlock()

	return sum, nil
}
