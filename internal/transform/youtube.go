package transform

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

var (
	rawURLPattern  = regexp.MustCompile(`http\S+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
)

// ReshapeYouTube converts raw YouTube comment records into the shape the
// rest of the pipeline expects: the brand doubles as the community field,
// the comment text becomes title and body, and the watch URL is rebuilt
// from the video ID. Comments whose stripped text is shorter than 10
// characters are dropped as likely spam.
func (n *Normalizer) ReshapeYouTube(records []core.RawRecord) []core.RawRecord {
	out := make([]core.RawRecord, 0, len(records))
	for _, r := range records {
		// Title keeps the leading slice of the untouched text.
		title := firstRunes(r.Body, maxReshapedTitleLen)

		cleaned := rawURLPattern.ReplaceAllString(r.Body, "")
		cleaned = mentionPattern.ReplaceAllString(cleaned, "")
		cleaned = strings.TrimSpace(cleaned)
		if utf8.RuneCountInString(cleaned) < minReshapedTextRunes {
			continue
		}

		r.Title = title
		r.Body = cleaned
		r.Subreddit = r.Brand
		watchURL := "https://youtube.com/watch?v=" + r.VideoID
		r.URL = watchURL
		r.Permalink = watchURL
		out = append(out, r)
	}

	if removed := len(records) - len(out); removed > 0 {
		n.logger.Info("dropped short youtube comments", "removed", removed, "kept", len(out))
	}
	return out
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
