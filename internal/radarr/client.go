// Package radarr implements the acquisition requester: it makes sure every
// missing title has a monitored entry in the download manager's catalog.
package radarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	rateLimitRequests = 5
	rateLimitDuration = time.Second
)

// Client talks to a Radarr v3 API.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDuration/time.Duration(rateLimitRequests)), rateLimitRequests),
	}
}

// doJSON executes a request with an optional JSON body and decodes the
// response into out when non-nil.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	var bodyReader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Tags lists all tags.
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.doJSON(ctx, http.MethodGet, "/api/v3/tag", nil, nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// CreateTag creates a tag with the given label.
func (c *Client) CreateTag(ctx context.Context, label string) (Tag, error) {
	var tag Tag
	if err := c.doJSON(ctx, http.MethodPost, "/api/v3/tag", nil, Tag{Label: label}, &tag); err != nil {
		return Tag{}, err
	}
	return tag, nil
}

// Movies lists the full catalog.
func (c *Client) Movies(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	if err := c.doJSON(ctx, http.MethodGet, "/api/v3/movie", nil, nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// Lookup resolves a free-text term via the manager's own metadata lookup.
func (c *Client) Lookup(ctx context.Context, term string) ([]Movie, error) {
	query := url.Values{}
	query.Set("term", term)

	var movies []Movie
	if err := c.doJSON(ctx, http.MethodGet, "/api/v3/movie/lookup", query, nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// AddMovie creates a new catalog entry.
func (c *Client) AddMovie(ctx context.Context, movie Movie) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v3/movie", nil, movie, nil)
}

// UpdateMovie replaces an existing catalog entry. The API wants the full
// movie object on update.
func (c *Client) UpdateMovie(ctx context.Context, movie Movie) error {
	return c.doJSON(ctx, http.MethodPut, "/api/v3/movie/"+strconv.FormatInt(movie.ID, 10), nil, movie, nil)
}
