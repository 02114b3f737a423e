package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBody caps how much of an error response is kept for messages.
const maxErrorBody = 2048

// HTTPError is a non-2xx response from an upstream API.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

// apiClient wraps http.Client with the user agent and JSON decode
// plumbing both extractors need.
type apiClient struct {
	http      *http.Client
	userAgent string
}

func newAPIClient(userAgent string, timeout time.Duration) *apiClient {
	return &apiClient{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// getJSON performs a GET with query parameters and decodes the JSON
// response into out.
func (c *apiClient) getJSON(ctx context.Context, rawURL string, params url.Values, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	return c.doJSON(req, header, out)
}

// postForm performs a form-encoded POST and decodes the JSON response
// into out.
func (c *apiClient) postForm(ctx context.Context, rawURL string, form url.Values, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.doJSON(req, header, out)
}

func (c *apiClient) doJSON(req *http.Request, header http.Header, out any) error {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        req.URL.Scheme + "://" + req.URL.Host + req.URL.Path,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
