package transform

import (
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// Engagement weights. Posts and comments are scored differently and the
// weighting is deliberately never unified across sources.
const (
	postScoreWeight      = 0.7
	postCommentWeight    = 0.3
	commentScoreWeight   = 1.0
	commentReplyWeight   = 2.0
	maxReshapedTitleLen  = 100
	minReshapedTextRunes = 10
)

// Normalizer runs the normalization and feature-extraction stages over
// raw records.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil logger discards output.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Normalizer{logger: logger}
}

// Normalize cleans text and derives features for every record. It never
// drops records: a record with an unparseable timestamp simply carries no
// temporal block.
func (n *Normalizer) Normalize(records []core.RawRecord) []core.NormalizedRecord {
	out := make([]core.NormalizedRecord, 0, len(records))
	for _, r := range records {
		out = append(out, n.normalizeOne(r))
	}
	n.logger.Info("normalized records", "count", len(out))
	return out
}

func (n *Normalizer) normalizeOne(r core.RawRecord) core.NormalizedRecord {
	nr := core.NormalizedRecord{RawRecord: r}

	nr.TitleClean = CleanText(r.Title)
	nr.BodyClean = CleanText(r.Body)
	nr.FullText = nr.TitleClean + " " + nr.BodyClean

	if r.CreatedAt.IsZero() {
		n.logger.Warn("record has no usable timestamp, skipping temporal features", "id", r.ID)
	} else {
		nr.Temporal = temporalFeatures(r.CreatedAt)
	}

	nr.CommentRatio = commentRatio(r.Score, r.NumComments)
	nr.EngagementScore = engagementScore(r.Kind, r.Score, r.NumComments)

	// Length features count runes of the raw text, before cleaning.
	nr.TitleLength = utf8.RuneCountInString(r.Title)
	nr.BodyLength = utf8.RuneCountInString(r.Body)
	nr.TotalTextLength = nr.TitleLength + nr.BodyLength

	nr.NumCommentsExtracted = len(r.Comments)
	nr.AllCommentsText = joinCommentBodies(r.Comments)

	return nr
}

// temporalFeatures derives the time block from a parsed timestamp.
// DayOfWeek is Monday-based to match the downstream reports.
func temporalFeatures(t time.Time) *core.Temporal {
	return &core.Temporal{
		Hour:      t.Hour(),
		DayOfWeek: (int(t.Weekday()) + 6) % 7,
		DayName:   t.Weekday().String(),
		Month:     int(t.Month()),
	}
}

// commentRatio is num_comments / (score + 1). The +1 keeps zero scores
// safe; a score of exactly -1 would still divide by zero, so that case
// falls back to a denominator of 1.
func commentRatio(score, numComments int) float64 {
	denom := float64(score + 1)
	if denom == 0 {
		denom = 1
	}
	return float64(numComments) / denom
}

func engagementScore(kind core.Kind, score, numComments int) float64 {
	if kind == core.KindComment {
		return commentScoreWeight*float64(score) + commentReplyWeight*float64(numComments)
	}
	return postScoreWeight*float64(score) + postCommentWeight*float64(numComments)
}

func joinCommentBodies(comments []core.RawComment) string {
	if len(comments) == 0 {
		return ""
	}
	bodies := make([]string, 0, len(comments))
	for _, c := range comments {
		bodies = append(bodies, c.Body)
	}
	return strings.Join(bodies, " ")
}
