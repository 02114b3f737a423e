// Package core defines the shared types used across the brandpulse
// pipeline: the record shapes that flow between stages, classifier
// predictions, adapter configuration, and run state.
package core

import "time"

// Source identifies which platform a record was collected from.
type Source string

// Known record sources.
const (
	SourceReddit  Source = "reddit"
	SourceYouTube Source = "youtube"
)

// Kind distinguishes post-shaped records from comment-shaped ones.
// Engagement weighting differs between the two.
type Kind string

// Record kinds.
const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

// AuthorDeleted is the sentinel stored when the upstream API no longer
// knows the author of a record.
const AuthorDeleted = "[deleted]"

// RawComment is a child comment attached to a RawRecord.
type RawComment struct {
	ID        string    `json:"comment_id" bson:"comment_id"`
	Author    string    `json:"author" bson:"author"`
	Body      string    `json:"body" bson:"body"`
	Score     int       `json:"score" bson:"score"`
	CreatedAt time.Time `json:"created_utc" bson:"created_utc"`
}

// RawRecord is a record as produced by a source collaborator, before any
// transformation. ID is the natural key used for deduplication and as the
// sink primary key. A zero CreatedAt means the source timestamp could not
// be parsed; downstream stages treat temporal features as absent rather
// than failing.
type RawRecord struct {
	ID     string `json:"id" bson:"id"`
	Source Source `json:"source" bson:"source"`
	Kind   Kind   `json:"kind" bson:"kind"`

	Title  string `json:"title" bson:"title"`
	Body   string `json:"body" bson:"body"`
	Author string `json:"author" bson:"author"`

	Score       int       `json:"score" bson:"score"`
	NumComments int       `json:"num_comments" bson:"num_comments"`
	UpvoteRatio float64   `json:"upvote_ratio,omitempty" bson:"upvote_ratio,omitempty"`
	CreatedAt   time.Time `json:"created_utc" bson:"created_utc"`

	// Subreddit for Reddit records, brand name for YouTube records.
	Subreddit string `json:"subreddit" bson:"subreddit"`
	Brand     string `json:"brand,omitempty" bson:"brand,omitempty"`

	URL       string `json:"url" bson:"url"`
	Permalink string `json:"permalink" bson:"permalink"`

	// YouTube carriers, empty for Reddit records.
	VideoID      string `json:"video_id,omitempty" bson:"video_id,omitempty"`
	VideoTitle   string `json:"video_title,omitempty" bson:"video_title,omitempty"`
	VideoChannel string `json:"video_channel,omitempty" bson:"video_channel,omitempty"`

	SearchQuery string       `json:"search_query,omitempty" bson:"search_query,omitempty"`
	Comments    []RawComment `json:"comments,omitempty" bson:"comments,omitempty"`

	ExtractedAt time.Time `json:"extracted_at" bson:"extracted_at"`
}

// Temporal holds the time-derived features of a record. DayOfWeek is
// Monday-based (Monday=0 .. Sunday=6).
type Temporal struct {
	Hour      int
	DayOfWeek int
	DayName   string
	Month     int
}

// NormalizedRecord is a RawRecord after text cleaning and feature
// extraction. CleanText and FullText are always non-nil strings, empty
// when the source text was missing. Temporal is nil when the source
// timestamp was unparseable.
type NormalizedRecord struct {
	RawRecord

	TitleClean string
	BodyClean  string
	// FullText is TitleClean + " " + BodyClean, the text handed to the
	// enrichment stage.
	FullText string

	Temporal *Temporal

	CommentRatio    float64
	EngagementScore float64

	TitleLength     int
	BodyLength      int
	TotalTextLength int

	// Aggregated child comments (Reddit posts only).
	NumCommentsExtracted int
	AllCommentsText      string
}

// CleanText returns the normalized text used for storage and analysis.
// For post records this is the combined title and body.
func (r *NormalizedRecord) CleanText() string {
	return r.FullText
}

// SentimentLabel is the classifier output label after post-processing.
type SentimentLabel string

// Sentiment labels.
const (
	SentimentPositive SentimentLabel = "POSITIVE"
	SentimentNegative SentimentLabel = "NEGATIVE"
	SentimentNeutral  SentimentLabel = "NEUTRAL"
)

// Prediction is a single classifier result: a label and the classifier's
// confidence in [0,1].
type Prediction struct {
	Label SentimentLabel `json:"label"`
	Score float64        `json:"score"`
}

// EnrichedRecord is a NormalizedRecord with sentiment and (optionally)
// topic labels attached. SentimentLabel has already been through the
// confidence gate: low-confidence predictions arrive here as NEUTRAL.
type EnrichedRecord struct {
	NormalizedRecord

	SentimentLabel SentimentLabel
	SentimentScore float64

	// TopicLabel is empty when topic enrichment was not run.
	TopicLabel string
}
