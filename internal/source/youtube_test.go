package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse-labs/brandpulse/internal/config"
	"github.com/brandpulse-labs/brandpulse/internal/testutil"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

func youtubeTestConfig() config.YouTubeConfig {
	return config.YouTubeConfig{
		APIKey:           "test-key",
		Brands:           []string{"ASUS"},
		QueriesPerBrand:  2,
		VideosPerBrand:   4,
		CommentsPerVideo: 3,
		DailyQuota:       10000,
	}
}

func newTestYouTubeExtractor(t *testing.T, cfg config.YouTubeConfig, handler http.Handler) *YouTubeExtractor {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	e := NewYouTubeExtractor(&cfg, testutil.NewTestLogger(t))
	e.apiURL = server.URL
	e.queryDelay = 0
	e.pageDelay = 0
	e.videoDelay = 0
	return e
}

func ytComment(id, html string) string {
	return fmt.Sprintf(`{"id":%q,"snippet":{"totalReplyCount":4,"topLevelComment":{"snippet":{
		"textDisplay":%q,"authorDisplayName":"viewer_a","likeCount":12,
		"publishedAt":"2024-01-15T14:30:00Z"}}}}`, id, html)
}

func TestYouTubeExtractor_DemoMode(t *testing.T) {
	e := newTestYouTubeExtractor(t, config.YouTubeConfig{}, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("demo mode must not call the API")
		}))

	records, err := e.Extract(context.Background())
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestYouTubeExtractor_Extract(t *testing.T) {
	var mu sync.Mutex
	var maxResultsSeen []string

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "2", q.Get("maxResults"), "videos_per_brand/2 per query")
		assert.Equal(t, "relevance", q.Get("order"))
		assert.Equal(t, "en", q.Get("relevanceLanguage"))
		assert.Equal(t, "moderate", q.Get("safeSearch"))

		switch q.Get("q") {
		case "ASUS review":
			// The channel result must be filtered out.
			fmt.Fprint(w, `{"items":[
				{"id":{"kind":"youtube#video","videoId":"vid01"},
				 "snippet":{"title":"ASUS monitor deep dive","channelTitle":"TechChannel"}},
				{"id":{"kind":"youtube#channel"},
				 "snippet":{"title":"ASUS Official","channelTitle":"ASUS"}}
			]}`)
		case "ASUS unboxing":
			fmt.Fprint(w, `{"items":[
				{"id":{"kind":"youtube#video","videoId":"vid02"},
				 "snippet":{"title":"ASUS unboxing","channelTitle":"BoxChannel"}}
			]}`)
		default:
			t.Errorf("unexpected search query %q", q.Get("q"))
		}
	})
	mux.HandleFunc("/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "html", q.Get("textFormat"))
		assert.Equal(t, "relevance", q.Get("order"))

		switch q.Get("videoId") {
		case "vid01":
			mu.Lock()
			maxResultsSeen = append(maxResultsSeen, q.Get("maxResults"))
			mu.Unlock()

			if q.Get("pageToken") == "" {
				fmt.Fprintf(w, `{"items":[%s,%s],"nextPageToken":"p2"}`,
					ytComment("yt_c1", "<b>great</b> ASUS product &amp; more"),
					ytComment("yt_c2", "solid build"))
				return
			}
			assert.Equal(t, "p2", q.Get("pageToken"))
			fmt.Fprintf(w, `{"items":[%s]}`, ytComment("yt_c3", "would buy again"))
		case "vid02":
			// Comments disabled.
			http.Error(w, `{"error":{"code":403,"errors":[{"reason":"commentsDisabled"}]}}`,
				http.StatusForbidden)
		default:
			t.Errorf("unexpected videoId %q", q.Get("videoId"))
		}
	})

	e := newTestYouTubeExtractor(t, youtubeTestConfig(), mux)

	records, err := e.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3, "3 comments from vid01, vid02 skipped")

	first := records[0]
	assert.Equal(t, "yt_c1", first.ID)
	assert.Equal(t, core.SourceYouTube, first.Source)
	assert.Equal(t, core.KindComment, first.Kind)
	assert.Equal(t, "**great** ASUS product & more", first.Body)
	assert.Equal(t, "viewer_a", first.Author)
	assert.Equal(t, 12, first.Score)
	assert.Equal(t, 4, first.NumComments)
	assert.Equal(t, "ASUS", first.Brand)
	assert.Equal(t, "vid01", first.VideoID)
	assert.Equal(t, "ASUS monitor deep dive", first.VideoTitle)
	assert.Equal(t, "TechChannel", first.VideoChannel)
	assert.Equal(t, "ASUS review", first.SearchQuery)
	assert.Equal(t, time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC), first.CreatedAt)
	assert.False(t, first.ExtractedAt.IsZero())

	// Page two only asks for the remaining comment.
	assert.Equal(t, []string{"3", "1"}, maxResultsSeen)

	assert.Equal(t, "yt_c3", records[2].ID)
}

func TestYouTubeExtractor_QuotaBudget(t *testing.T) {
	var threadCalls int

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[
			{"id":{"kind":"youtube#video","videoId":"vid01"},
			 "snippet":{"title":"ASUS review","channelTitle":"TechChannel"}}
		]}`)
	})
	mux.HandleFunc("/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		threadCalls++
		fmt.Fprintf(w, `{"items":[%s]}`, ytComment("yt_c1", "great"))
	})

	cfg := youtubeTestConfig()
	// The brand search consumes the whole budget; no comment pulls fit.
	cfg.DailyQuota = 100

	e := newTestYouTubeExtractor(t, cfg, mux)

	records, err := e.Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, threadCalls, "comment pulls must respect the quota budget")
	assert.Equal(t, 100, e.quotaUsed)
}

func TestYouTubeExtractor_SearchFailureContinues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "ASUS review":
			http.Error(w, `{"error":{"code":500}}`, http.StatusInternalServerError)
		case "Activision review":
			fmt.Fprint(w, `{"items":[
				{"id":{"kind":"youtube#video","videoId":"vid09"},
				 "snippet":{"title":"Activision recap","channelTitle":"GameNews"}}
			]}`)
		case "Activision unboxing":
			fmt.Fprint(w, `{"items":[]}`)
		default:
			// A failed query aborts the rest of the brand's searches.
			t.Errorf("unexpected search query %q", r.URL.Query().Get("q"))
		}
	})
	mux.HandleFunc("/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"items":[%s]}`, ytComment("yt_c9", "lots of fun"))
	})

	cfg := youtubeTestConfig()
	cfg.Brands = []string{"ASUS", "Activision"}

	e := newTestYouTubeExtractor(t, cfg, mux)

	records, err := e.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1, "failed brand search should not abort the others")
	assert.Equal(t, "Activision", records[0].Brand)
}
