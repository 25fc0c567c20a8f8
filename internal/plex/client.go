// Package plex is the media library client: read-only title lookup for the
// reconciliation pipeline and collection mutation for the refresher.
package plex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	rateLimitRequests = 5
	rateLimitDuration = time.Second
)

// ErrNotFound reports that a title, rating key or collection does not exist
// in the library.
var ErrNotFound = errors.New("plex: not found")

// ErrMixedMediaTypes reports the server rejecting a collection mutation
// because the item set mixes media kinds.
var ErrMixedMediaTypes = errors.New("plex: mixed media types")

// Client talks to one Plex Media Server and one movie library section.
type Client struct {
	baseURL     string
	token       string
	libraryName string
	httpClient  *http.Client
	rateLimiter *rate.Limiter

	// resolved lazily, cached for the process lifetime
	sectionKey string
	machineID  string
}

// NewClient creates a Plex API client bound to the named library section.
func NewClient(baseURL, token, libraryName string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		libraryName: libraryName,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDuration/time.Duration(rateLimitRequests)), rateLimitRequests),
	}
}

// requestConfig holds configuration for building one API request.
type requestConfig struct {
	method string
	path   string
	query  url.Values
}

// doRequest executes a request and decodes the MediaContainer response into
// result when non-nil. 404 maps to ErrNotFound; a 400 whose body mentions
// mixing media types maps to ErrMixedMediaTypes.
func (c *Client) doRequest(ctx context.Context, cfg requestConfig, result any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, cfg.method, c.baseURL+cfg.path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if len(cfg.query) > 0 {
		req.URL.RawQuery = cfg.query.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		b, _ := io.ReadAll(resp.Body)
		if strings.Contains(strings.ToLower(string(b)), "mix media types") {
			return ErrMixedMediaTypes
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, resp.Status)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	return c.doRequest(ctx, requestConfig{method: http.MethodGet, path: path, query: query}, result)
}
