package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

const dateLayout = "2006-01-02"

var youtubeColumns = []string{
	"id", "video_id", "video_title", "video_channel", "brand",
	"text", "author", "timestamp", "score", "num_comments",
	"sentiment_label", "sentiment_score", "engagement_score",
	"source", "url", "extracted_date",
}

var redditColumns = []string{
	"id", "subreddit", "title", "body", "clean_text", "author",
	"timestamp", "score", "num_comments", "comment_ratio",
	"engagement_score", "sentiment_label", "sentiment_score",
	"topic_label", "source", "url", "extracted_date",
}

// LoadProcessed writes enriched records to their processed tables. Only
// tables whose source appears in the record set are replaced, so a
// Reddit-only run never wipes the YouTube table. Each load is verified
// with a count and sample rows.
func (l *Loader) LoadProcessed(ctx context.Context, records []core.EnrichedRecord) error {
	var reddit, youtube []core.EnrichedRecord
	for _, r := range records {
		switch r.Source {
		case core.SourceReddit:
			reddit = append(reddit, r)
		case core.SourceYouTube:
			youtube = append(youtube, r)
		default:
			return fmt.Errorf("record %s has unknown source %q", r.ID, r.Source)
		}
	}

	if len(reddit) > 0 {
		if err := l.ReplaceReddit(ctx, reddit); err != nil {
			return err
		}
		if err := l.Verify(ctx, TableRedditProcessed); err != nil {
			return err
		}
	}
	if len(youtube) > 0 {
		if err := l.ReplaceYouTube(ctx, youtube); err != nil {
			return err
		}
		if err := l.Verify(ctx, TableYouTubeProcessed); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceReddit replaces reddit_processed with the given records.
func (l *Loader) ReplaceReddit(ctx context.Context, records []core.EnrichedRecord) error {
	extractedDate := time.Now().Format(dateLayout)

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		url := r.Permalink
		if url == "" {
			url = r.URL
		}
		rows = append(rows, []any{
			r.ID,
			r.Subreddit,
			r.Title,
			r.Body,
			r.FullText,
			r.Author,
			nullableTime(r.CreatedAt),
			r.Score,
			r.NumComments,
			r.CommentRatio,
			r.EngagementScore,
			string(r.SentimentLabel),
			r.SentimentScore,
			nullableString(r.TopicLabel),
			string(r.Source),
			url,
			extractedDate,
		})
	}
	return l.Replace(ctx, TableRedditProcessed, redditColumns, rows)
}

// ReplaceYouTube replaces youtube_processed with the given records. The
// text column carries the reshape-cleaned comment text, not the
// lowercased analysis text.
func (l *Loader) ReplaceYouTube(ctx context.Context, records []core.EnrichedRecord) error {
	extractedDate := time.Now().Format(dateLayout)

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.ID,
			r.VideoID,
			r.VideoTitle,
			r.VideoChannel,
			r.Brand,
			r.Body,
			r.Author,
			nullableTime(r.CreatedAt),
			r.Score,
			r.NumComments,
			string(r.SentimentLabel),
			r.SentimentScore,
			r.EngagementScore,
			string(r.Source),
			r.URL,
			extractedDate,
		})
	}
	return l.Replace(ctx, TableYouTubeProcessed, youtubeColumns, rows)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
