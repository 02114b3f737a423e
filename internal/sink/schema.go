// Package sink loads enriched records and synthetic aggregates into the
// relational sink through a database adapter. All writes are replace-all:
// one transaction deletes the table's rows and batch-inserts the new set.
package sink

import (
	"fmt"
	"strings"
)

// Sink table names.
const (
	TableYouTubeProcessed      = "youtube_processed"
	TableRedditProcessed       = "reddit_processed"
	TableMarketingKPIs         = "marketing_kpis"
	TableChannelPerformance    = "channel_performance"
	TableDataSourcePerformance = "data_source_performance"
	TableCampaignPerformance   = "campaign_performance"
	TableTimeSeries            = "time_series_data"
)

// schemaDDL holds the fixed sink schema in creation order. The dashboard
// and downstream queries depend on these exact column names and types.
var schemaDDL = []struct {
	table string
	ddl   string
}{
	{TableYouTubeProcessed, `
		CREATE TABLE IF NOT EXISTS youtube_processed (
			id TEXT PRIMARY KEY,
			video_id TEXT,
			video_title TEXT,
			video_channel TEXT,
			brand TEXT,
			text TEXT,
			author TEXT,
			timestamp DATETIME,
			score INTEGER,
			num_comments INTEGER,
			sentiment_label TEXT,
			sentiment_score REAL,
			engagement_score REAL,
			source TEXT,
			url TEXT,
			extracted_date DATE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{TableRedditProcessed, `
		CREATE TABLE IF NOT EXISTS reddit_processed (
			id TEXT PRIMARY KEY,
			subreddit TEXT,
			title TEXT,
			body TEXT,
			clean_text TEXT,
			author TEXT,
			timestamp DATETIME,
			score INTEGER,
			num_comments INTEGER,
			comment_ratio REAL,
			engagement_score REAL,
			sentiment_label TEXT,
			sentiment_score REAL,
			topic_label TEXT,
			source TEXT,
			url TEXT,
			extracted_date DATE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{TableMarketingKPIs, `
		CREATE TABLE IF NOT EXISTS marketing_kpis (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date DATE NOT NULL,
			metric_name TEXT NOT NULL,
			metric_value REAL NOT NULL,
			metric_unit TEXT,
			change_value REAL,
			change_unit TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{TableChannelPerformance, `
		CREATE TABLE IF NOT EXISTS channel_performance (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date DATE NOT NULL,
			channel TEXT NOT NULL,
			impressions REAL NOT NULL,
			ctr REAL NOT NULL,
			spend_pct REAL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{TableDataSourcePerformance, `
		CREATE TABLE IF NOT EXISTS data_source_performance (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date DATE NOT NULL,
			source TEXT NOT NULL,
			impressions REAL NOT NULL,
			spend_pct REAL,
			ctr REAL NOT NULL,
			conversions_pct REAL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{TableCampaignPerformance, `
		CREATE TABLE IF NOT EXISTS campaign_performance (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date DATE NOT NULL,
			campaign TEXT NOT NULL,
			impressions INTEGER NOT NULL,
			spend_pct REAL,
			ctr REAL NOT NULL,
			conversions_pct REAL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{TableTimeSeries, `
		CREATE TABLE IF NOT EXISTS time_series_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date DATE NOT NULL,
			channel TEXT NOT NULL,
			value REAL NOT NULL,
			metric_type TEXT DEFAULT 'impressions',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
}

// Tables returns every sink table name in schema order.
func Tables() []string {
	names := make([]string, 0, len(schemaDDL))
	for _, s := range schemaDDL {
		names = append(names, s.table)
	}
	return names
}

// dialectDDL adapts the canonical sqlite DDL to the connected engine.
// Postgres has no AUTOINCREMENT or DATETIME; duckdb autoincrements
// through an explicit sequence.
func dialectDDL(kind, table, ddl string) []string {
	switch kind {
	case "postgres":
		ddl = strings.ReplaceAll(ddl, "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY")
		ddl = strings.ReplaceAll(ddl, "DATETIME", "TIMESTAMP")
		return []string{ddl}
	case "duckdb":
		if !strings.Contains(ddl, "AUTOINCREMENT") {
			return []string{ddl}
		}
		seq := table + "_id_seq"
		ddl = strings.ReplaceAll(ddl, "INTEGER PRIMARY KEY AUTOINCREMENT",
			fmt.Sprintf("INTEGER PRIMARY KEY DEFAULT nextval('%s')", seq))
		return []string{"CREATE SEQUENCE IF NOT EXISTS " + seq, ddl}
	default:
		return []string{ddl}
	}
}
