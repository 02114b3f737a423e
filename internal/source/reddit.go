package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brandpulse-labs/brandpulse/internal/config"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

const (
	defaultRedditAuthURL = "https://www.reddit.com"
	defaultRedditAPIURL  = "https://oauth.reddit.com"

	defaultPostDelay   = 500 * time.Millisecond
	defaultSearchDelay = time.Second
)

// RedditExtractor searches marketing subreddits for brand discussions
// and pulls each post's top comments.
type RedditExtractor struct {
	cfg    config.RedditConfig
	client *apiClient
	logger *slog.Logger

	authURL string
	apiURL  string
	token   string

	postDelay   time.Duration
	searchDelay time.Duration
}

// NewRedditExtractor creates a Reddit extractor from the configuration.
func NewRedditExtractor(cfg *config.RedditConfig, logger *slog.Logger) *RedditExtractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var c config.RedditConfig
	if cfg != nil {
		c = *cfg
	}
	return &RedditExtractor{
		cfg:         c,
		client:      newAPIClient(c.UserAgent, 30*time.Second),
		logger:      logger,
		authURL:     defaultRedditAuthURL,
		apiURL:      defaultRedditAPIURL,
		postDelay:   defaultPostDelay,
		searchDelay: defaultSearchDelay,
	}
}

// Source identifies the platform.
func (e *RedditExtractor) Source() core.Source {
	return core.SourceReddit
}

// Extract searches every configured subreddit for every search term,
// stopping at max_posts. Missing credentials skip the run entirely.
func (e *RedditExtractor) Extract(ctx context.Context) ([]core.RawRecord, error) {
	if e.cfg.ClientID == "" || e.cfg.ClientSecret == "" {
		e.logger.Warn("reddit credentials not configured, running in demo mode")
		return nil, nil
	}

	if err := e.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit authentication: %w", err)
	}

	maxPosts := e.cfg.MaxPosts
	var records []core.RawRecord

search:
	for _, subreddit := range e.cfg.Subreddits {
		for _, term := range e.cfg.SearchTerms {
			if maxPosts > 0 && len(records) >= maxPosts {
				e.logger.Info("reached maximum posts limit", "max_posts", maxPosts)
				break search
			}

			e.logger.Info("searching subreddit", "subreddit", subreddit, "term", term)
			posts, err := e.searchSubreddit(ctx, subreddit, term)
			records = append(records, posts...)
			if err != nil {
				if ctx.Err() != nil {
					return records, ctx.Err()
				}
				e.logger.Warn("subreddit search failed",
					"subreddit", subreddit, "term", term, "error", err)
				continue
			}

			if err := wait(ctx, e.searchDelay); err != nil {
				return records, err
			}
		}
	}

	e.logger.Info("reddit extraction complete", "posts", len(records))
	return records, nil
}

func (e *RedditExtractor) authenticate(ctx context.Context) error {
	form := url.Values{"grant_type": {"client_credentials"}}
	creds := base64.StdEncoding.EncodeToString([]byte(e.cfg.ClientID + ":" + e.cfg.ClientSecret))
	header := http.Header{"Authorization": {"Basic " + creds}}

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := e.client.postForm(ctx, e.authURL+"/api/v1/access_token", form, header, &tok); err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("no access token in response")
	}

	e.token = tok.AccessToken
	e.logger.Debug("connected to reddit api")
	return nil
}

func (e *RedditExtractor) searchSubreddit(ctx context.Context, subreddit, term string) ([]core.RawRecord, error) {
	params := url.Values{
		"q":           {term},
		"restrict_sr": {"1"},
		"limit":       {strconv.Itoa(e.cfg.PostsPerSearch)},
		"t":           {"month"},
		"sort":        {"relevance"},
		"raw_json":    {"1"},
	}

	var listing redditListing
	searchURL := fmt.Sprintf("%s/r/%s/search", e.apiURL, url.PathEscape(subreddit))
	if err := e.client.getJSON(ctx, searchURL, params, e.authHeader(), &listing); err != nil {
		return nil, err
	}

	var records []core.RawRecord
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		rec := e.postRecord(child.Data, term)

		comments, err := e.fetchComments(ctx, child.Data.ID)
		if err != nil {
			if ctx.Err() != nil {
				return records, err
			}
			e.logger.Warn("failed to fetch comments", "post", rec.ID, "error", err)
		}
		rec.Comments = comments
		records = append(records, rec)

		if err := wait(ctx, e.postDelay); err != nil {
			return records, err
		}
	}
	return records, nil
}

func (e *RedditExtractor) postRecord(t redditThing, term string) core.RawRecord {
	id := t.Name
	if id == "" {
		id = "t3_" + t.ID
	}
	return core.RawRecord{
		ID:          id,
		Source:      core.SourceReddit,
		Kind:        core.KindPost,
		Title:       t.Title,
		Body:        t.SelfText,
		Author:      authorName(t.Author),
		Score:       t.Score,
		NumComments: t.NumComments,
		UpvoteRatio: t.UpvoteRatio,
		CreatedAt:   epochTime(t.CreatedUTC),
		Subreddit:   t.Subreddit,
		URL:         t.URL,
		Permalink:   "https://reddit.com" + t.Permalink,
		SearchQuery: term,
		ExtractedAt: time.Now().UTC(),
	}
}

func (e *RedditExtractor) fetchComments(ctx context.Context, postID string) ([]core.RawComment, error) {
	limit := e.cfg.CommentsPerPost
	if limit <= 0 {
		return nil, nil
	}

	params := url.Values{
		"limit":    {strconv.Itoa(limit)},
		"depth":    {"1"},
		"sort":     {"top"},
		"raw_json": {"1"},
	}

	// The endpoint returns two listings: the post itself, then its
	// comment tree.
	var listings []redditListing
	commentsURL := fmt.Sprintf("%s/comments/%s", e.apiURL, url.PathEscape(postID))
	if err := e.client.getJSON(ctx, commentsURL, params, e.authHeader(), &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []core.RawComment
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" {
			continue // "more" stubs carry no body
		}
		comments = append(comments, core.RawComment{
			ID:        child.Data.ID,
			Author:    authorName(child.Data.Author),
			Body:      child.Data.Body,
			Score:     child.Data.Score,
			CreatedAt: epochTime(child.Data.CreatedUTC),
		})
		if len(comments) >= limit {
			break
		}
	}
	return comments, nil
}

func (e *RedditExtractor) authHeader() http.Header {
	return http.Header{"Authorization": {"Bearer " + e.token}}
}

func authorName(author string) string {
	if author == "" {
		return core.AuthorDeleted
	}
	return author
}

func epochTime(sec float64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}

// redditListing is the wire shape of a Reddit listing response.
type redditListing struct {
	Data struct {
		Children []struct {
			Kind string      `json:"kind"`
			Data redditThing `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// redditThing is the field union of posts (t3) and comments (t1).
type redditThing struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Body        string  `json:"body"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
}

var _ Extractor = (*RedditExtractor)(nil)
