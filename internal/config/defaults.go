package config

import "time"

// Default configuration values.
const (
	DefaultDataDir      = "data"
	DefaultRawDir       = "data/raw_json"
	DefaultExportDir    = "data/exports"
	DefaultDatabaseType = "sqlite"
	DefaultDatabasePath = "data/brandpulse.db"

	DefaultMaxPosts        = 100
	DefaultPostsPerSearch  = 10
	DefaultCommentsPerPost = 5
	DefaultUserAgent       = "brandpulse/1.0"

	DefaultQueriesPerBrand  = 2
	DefaultVideosPerBrand   = 5
	DefaultCommentsPerVideo = 50
	DefaultDailyQuota       = 10000

	DefaultInferenceURL  = "https://api-inference.huggingface.co/models"
	DefaultModel         = "distilbert-base-uncased-finetuned-sst-2-english"
	DefaultBatchSize     = 32
	DefaultMaxTextLength = 512
	DefaultEnrichTimeout = 30 * time.Second

	DefaultDatabaseName = "brandpulse"

	DefaultMongoURI      = "mongodb://localhost:27017"
	DefaultMongoDatabase = "brandpulse"
	DefaultMongoTimeout  = 5 * time.Second

	DefaultServerPort = 8765
)

// DefaultSubreddits are the marketing communities searched when none are
// configured.
var DefaultSubreddits = []string{"marketing", "advertising", "DigitalMarketing", "analytics"}

// DefaultSearchTerms are the queries run against each subreddit.
var DefaultSearchTerms = []string{"marketing analytics", "marketing attribution", "ad platform"}

// DefaultBrands are the brands whose YouTube coverage is collected.
var DefaultBrands = []string{"ASUS", "Activision"}

// ApplyDatabaseDefaults applies default values to a DatabaseConfig based on
// the database type.
func ApplyDatabaseDefaults(d *DatabaseConfig) {
	if d == nil {
		return
	}

	if d.Type == "" {
		d.Type = DefaultDatabaseType
	}

	switch d.Type {
	case "sqlite", "duckdb":
		if d.Path == "" {
			d.Path = DefaultDatabasePath
		}
	case "postgres":
		if d.Port == 0 {
			d.Port = 5432
		}
		if d.Database == "" {
			d.Database = DefaultDatabaseName
		}
	}
}

// ApplySourcesDefaults fills missing extractor settings.
func ApplySourcesDefaults(s *SourcesConfig) {
	if s == nil {
		return
	}

	if s.Reddit == nil {
		s.Reddit = &RedditConfig{}
	}
	r := s.Reddit
	if r.UserAgent == "" {
		r.UserAgent = DefaultUserAgent
	}
	if len(r.Subreddits) == 0 {
		r.Subreddits = append([]string(nil), DefaultSubreddits...)
	}
	if len(r.SearchTerms) == 0 {
		r.SearchTerms = append([]string(nil), DefaultSearchTerms...)
	}
	if r.MaxPosts == 0 {
		r.MaxPosts = DefaultMaxPosts
	}
	if r.PostsPerSearch == 0 {
		r.PostsPerSearch = DefaultPostsPerSearch
	}
	if r.CommentsPerPost == 0 {
		r.CommentsPerPost = DefaultCommentsPerPost
	}

	if s.YouTube == nil {
		s.YouTube = &YouTubeConfig{}
	}
	y := s.YouTube
	if len(y.Brands) == 0 {
		y.Brands = append([]string(nil), DefaultBrands...)
	}
	if y.QueriesPerBrand == 0 {
		y.QueriesPerBrand = DefaultQueriesPerBrand
	}
	if y.VideosPerBrand == 0 {
		y.VideosPerBrand = DefaultVideosPerBrand
	}
	if y.CommentsPerVideo == 0 {
		y.CommentsPerVideo = DefaultCommentsPerVideo
	}
	if y.DailyQuota == 0 {
		y.DailyQuota = DefaultDailyQuota
	}
}

// ApplyEnrichDefaults fills missing enrichment settings.
func ApplyEnrichDefaults(e *EnrichConfig) {
	if e == nil {
		return
	}
	if e.InferenceURL == "" {
		e.InferenceURL = DefaultInferenceURL
	}
	if e.Model == "" {
		e.Model = DefaultModel
	}
	if e.BatchSize == 0 {
		e.BatchSize = DefaultBatchSize
	}
	if e.MaxTextLength == 0 {
		e.MaxTextLength = DefaultMaxTextLength
	}
	if e.Timeout == 0 {
		e.Timeout = DefaultEnrichTimeout
	}
}

// ApplyRawStoreDefaults fills missing raw-store settings.
func ApplyRawStoreDefaults(r *RawStoreConfig) {
	if r == nil {
		return
	}
	if r.MongoURI == "" {
		r.MongoURI = DefaultMongoURI
	}
	if r.MongoDatabase == "" {
		r.MongoDatabase = DefaultMongoDatabase
	}
	if r.Timeout == 0 {
		r.Timeout = DefaultMongoTimeout
	}
	if r.Dir == "" {
		r.Dir = DefaultRawDir
	}
}

// ApplyServerDefaults fills missing server settings.
func ApplyServerDefaults(s *ServerConfig) {
	if s == nil {
		return
	}
	if s.Port == 0 {
		s.Port = DefaultServerPort
	}
}
