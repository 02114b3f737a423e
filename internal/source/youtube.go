package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/brandpulse-labs/brandpulse/internal/config"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

const (
	defaultYouTubeAPIURL = "https://www.googleapis.com/youtube/v3"

	defaultQueryDelay = 500 * time.Millisecond
	defaultPageDelay  = 300 * time.Millisecond
	defaultVideoDelay = 500 * time.Millisecond

	// Data API costs: search.list is 100 units, commentThreads.list is 1.
	searchQuotaCost   = 100
	commentsQuotaCost = 1
)

// queryTemplates are the per-brand searches. Only the first
// queries_per_brand run, to conserve quota.
var queryTemplates = []string{"%s review", "%s unboxing", "%s gaming", "%s product"}

// YouTubeExtractor searches for brand videos and pulls their top-level
// comments through the YouTube Data API.
type YouTubeExtractor struct {
	cfg    config.YouTubeConfig
	client *apiClient
	logger *slog.Logger

	apiURL    string
	quotaUsed int

	queryDelay time.Duration
	pageDelay  time.Duration
	videoDelay time.Duration
}

// NewYouTubeExtractor creates a YouTube extractor from the configuration.
func NewYouTubeExtractor(cfg *config.YouTubeConfig, logger *slog.Logger) *YouTubeExtractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var c config.YouTubeConfig
	if cfg != nil {
		c = *cfg
	}
	return &YouTubeExtractor{
		cfg:        c,
		client:     newAPIClient("", 30*time.Second),
		logger:     logger,
		apiURL:     defaultYouTubeAPIURL,
		queryDelay: defaultQueryDelay,
		pageDelay:  defaultPageDelay,
		videoDelay: defaultVideoDelay,
	}
}

// Source identifies the platform.
func (e *YouTubeExtractor) Source() core.Source {
	return core.SourceYouTube
}

// Extract searches videos for every configured brand and pulls comments
// from each, respecting the daily quota budget. A missing API key skips
// the run entirely.
func (e *YouTubeExtractor) Extract(ctx context.Context) ([]core.RawRecord, error) {
	if e.cfg.APIKey == "" {
		e.logger.Warn("youtube api key not configured, running in demo mode")
		return nil, nil
	}

	budget := e.cfg.DailyQuota
	var records []core.RawRecord

	for _, brand := range e.cfg.Brands {
		if budget > 0 && e.quotaUsed+searchQuotaCost > budget {
			e.logger.Warn("daily quota budget exhausted, stopping extraction",
				"quota_used", e.quotaUsed, "budget", budget)
			break
		}

		e.logger.Info("searching videos", "brand", brand)
		videos, err := e.searchBrandVideos(ctx, brand)
		e.quotaUsed += searchQuotaCost
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			e.logger.Warn("video search failed", "brand", brand, "error", err)
			continue
		}
		if len(videos) == 0 {
			e.logger.Warn("no videos found", "brand", brand)
			continue
		}

		for _, video := range videos {
			if budget > 0 && e.quotaUsed+commentsQuotaCost > budget {
				e.logger.Warn("daily quota budget exhausted, stopping extraction",
					"quota_used", e.quotaUsed, "budget", budget)
				break
			}

			comments, err := e.extractVideoComments(ctx, video)
			e.quotaUsed += commentsQuotaCost
			if err != nil {
				if ctx.Err() != nil {
					return records, ctx.Err()
				}
				e.logger.Warn("comment extraction failed", "video", video.id, "error", err)
				continue
			}

			records = append(records, comments...)
			e.logger.Debug("extracted comments", "video", video.id, "comments", len(comments))

			if err := wait(ctx, e.videoDelay); err != nil {
				return records, err
			}
		}
	}

	e.logger.Info("youtube extraction complete",
		"comments", len(records), "quota_used", e.quotaUsed,
		"quota_remaining", max(0, budget-e.quotaUsed))
	return records, nil
}

func (e *YouTubeExtractor) searchBrandVideos(ctx context.Context, brand string) ([]videoInfo, error) {
	maxResults := e.cfg.VideosPerBrand / 2
	if maxResults < 1 {
		maxResults = 1
	}

	queries := queryTemplates
	if n := e.cfg.QueriesPerBrand; n > 0 && n < len(queries) {
		queries = queries[:n]
	}

	var videos []videoInfo
	for _, tmpl := range queries {
		query := fmt.Sprintf(tmpl, brand)
		params := url.Values{
			"part":              {"id,snippet"},
			"q":                 {query},
			"type":              {"video"},
			"maxResults":        {strconv.Itoa(maxResults)},
			"order":             {"relevance"},
			"relevanceLanguage": {"en"},
			"safeSearch":        {"moderate"},
			"key":               {e.cfg.APIKey},
		}

		var resp ytSearchResponse
		if err := e.client.getJSON(ctx, e.apiURL+"/search", params, nil, &resp); err != nil {
			return videos, err
		}

		for _, item := range resp.Items {
			if item.ID.Kind != "youtube#video" {
				continue
			}
			videos = append(videos, videoInfo{
				id:      item.ID.VideoID,
				title:   item.Snippet.Title,
				channel: item.Snippet.ChannelTitle,
				brand:   brand,
				query:   query,
			})
		}
		e.logger.Debug("videos found", "query", query, "videos", len(resp.Items))

		if err := wait(ctx, e.queryDelay); err != nil {
			return videos, err
		}
	}

	return videos, nil
}

func (e *YouTubeExtractor) extractVideoComments(ctx context.Context, video videoInfo) ([]core.RawRecord, error) {
	maxComments := e.cfg.CommentsPerVideo
	if maxComments <= 0 {
		return nil, nil
	}

	var records []core.RawRecord
	pageToken := ""

	for len(records) < maxComments {
		params := url.Values{
			"part":       {"snippet"},
			"videoId":    {video.id},
			"maxResults": {strconv.Itoa(min(100, maxComments-len(records)))},
			"textFormat": {"html"},
			"order":      {"relevance"},
			"key":        {e.cfg.APIKey},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var resp ytCommentThreadsResponse
		if err := e.client.getJSON(ctx, e.apiURL+"/commentThreads", params, nil, &resp); err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusForbidden {
				e.logger.Warn("comments disabled for video", "video", video.title)
				return records, nil
			}
			return records, err
		}

		for _, item := range resp.Items {
			records = append(records, e.commentRecord(item, video))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
		if err := wait(ctx, e.pageDelay); err != nil {
			return records, err
		}
	}

	return records, nil
}

func (e *YouTubeExtractor) commentRecord(item ytCommentThread, video videoInfo) core.RawRecord {
	snippet := item.Snippet.TopLevelComment.Snippet

	// textFormat=html; markdown keeps emphasis and links readable as text.
	text, err := htmltomarkdown.ConvertString(snippet.TextDisplay)
	if err != nil {
		e.logger.Warn("failed to convert comment html", "comment", item.ID, "error", err)
		text = snippet.TextDisplay
	}

	return core.RawRecord{
		ID:           item.ID,
		Source:       core.SourceYouTube,
		Kind:         core.KindComment,
		Body:         text,
		Author:       snippet.AuthorDisplayName,
		Score:        snippet.LikeCount,
		NumComments:  item.Snippet.TotalReplyCount,
		CreatedAt:    snippet.PublishedAt,
		Brand:        video.brand,
		VideoID:      video.id,
		VideoTitle:   video.title,
		VideoChannel: video.channel,
		SearchQuery:  video.query,
		ExtractedAt:  time.Now().UTC(),
	}
}

type videoInfo struct {
	id      string
	title   string
	channel string
	brand   string
	query   string
}

// ytSearchResponse is the wire shape of search.list.
type ytSearchResponse struct {
	Items []struct {
		ID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

// ytCommentThreadsResponse is the wire shape of commentThreads.list.
type ytCommentThreadsResponse struct {
	Items         []ytCommentThread `json:"items"`
	NextPageToken string            `json:"nextPageToken"`
}

type ytCommentThread struct {
	ID      string `json:"id"`
	Snippet struct {
		TotalReplyCount int `json:"totalReplyCount"`
		TopLevelComment struct {
			Snippet struct {
				TextDisplay       string    `json:"textDisplay"`
				AuthorDisplayName string    `json:"authorDisplayName"`
				LikeCount         int       `json:"likeCount"`
				PublishedAt       time.Time `json:"publishedAt"`
			} `json:"snippet"`
		} `json:"topLevelComment"`
	} `json:"snippet"`
}

var _ Extractor = (*YouTubeExtractor)(nil)
