package transform

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse-labs/brandpulse/internal/testutil"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

func ytComment(id, body string) core.RawRecord {
	return core.RawRecord{
		ID:      id,
		Source:  core.SourceYouTube,
		Kind:    core.KindComment,
		Body:    body,
		Brand:   "ASUS",
		VideoID: "vid01",
	}
}

func TestReshapeYouTube(t *testing.T) {
	n := NewNormalizer(testutil.NewTestLogger(t))

	out := n.ReshapeYouTube([]core.RawRecord{
		ytComment("c1", "Love this @asus_fan monitor! Check https://example.com/specs for more details"),
	})
	require.Len(t, out, 1)

	r := out[0]
	// Title is taken from the text before URL/mention stripping
	assert.Equal(t, "Love this @asus_fan monitor! Check https://example.com/specs for more details", r.Title)
	assert.NotContains(t, r.Body, "http")
	assert.NotContains(t, r.Body, "@asus_fan")
	assert.Contains(t, r.Body, "monitor!")
	assert.Equal(t, "ASUS", r.Subreddit)
	assert.Equal(t, "https://youtube.com/watch?v=vid01", r.URL)
	assert.Equal(t, "https://youtube.com/watch?v=vid01", r.Permalink)
}

func TestReshapeYouTube_TitleTruncation(t *testing.T) {
	n := NewNormalizer(testutil.NewTestLogger(t))

	long := strings.Repeat("aé ", 60) // 180 runes
	out := n.ReshapeYouTube([]core.RawRecord{ytComment("c1", long)})
	require.Len(t, out, 1)

	assert.Equal(t, 100, utf8.RuneCountInString(out[0].Title))
	assert.Equal(t, strings.TrimSpace(long), out[0].Body)
}

func TestReshapeYouTube_DropsShortComments(t *testing.T) {
	n := NewNormalizer(testutil.NewTestLogger(t))

	tests := []struct {
		name string
		body string
		kept bool
	}{
		{name: "short comment dropped", body: "nice!", kept: false},
		{name: "short after stripping dropped", body: "see https://a.example/c ok", kept: false},
		{name: "only a mention dropped", body: "@someone", kept: false},
		{name: "long enough kept", body: "this monitor is worth it", kept: true},
		{name: "exactly ten runes kept", body: "ten chars.", kept: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := n.ReshapeYouTube([]core.RawRecord{ytComment("c1", tt.body)})
			if tt.kept {
				assert.Len(t, out, 1)
			} else {
				assert.Empty(t, out)
			}
		})
	}
}

func TestReshapeYouTube_PreservesOrder(t *testing.T) {
	n := NewNormalizer(testutil.NewTestLogger(t))

	out := n.ReshapeYouTube([]core.RawRecord{
		ytComment("c1", "first comment long enough to keep"),
		ytComment("c2", "spam"),
		ytComment("c3", "third comment long enough to keep"),
	})
	require.Len(t, out, 2)
	assert.Equal(t, "c1", out[0].ID)
	assert.Equal(t, "c3", out[1].ID)
}
