// Package tmdb implements the secondary metadata search used when the
// acquisition manager's own lookup cannot resolve a title.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const defaultBaseURL = "https://api.themoviedb.org"

// Client talks to the TMDB v3 search API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetBaseURL overrides the API root, for tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
}

// BestMatch searches for a title and returns the closest result, ranked by
// edit distance against the query with case folding; when no result ranks,
// the API's first result wins. A zero tmdbID means no result at all.
func (c *Client) BestMatch(ctx context.Context, title string) (string, int64, int, error) {
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("query", title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/3/search/movie?"+query.Encode(), http.NoBody)
	if err != nil {
		return "", 0, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", 0, 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b))
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, 0, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Results) == 0 {
		return "", 0, 0, nil
	}

	best := pickBest(title, out.Results)
	return best.Title, best.ID, yearOf(best.ReleaseDate), nil
}

// pickBest ranks result titles against the query and returns the closest
// one, defaulting to the first result when nothing ranks.
func pickBest(query string, results []searchResult) searchResult {
	targets := make([]string, len(results))
	for i, r := range results {
		targets[i] = r.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	if len(ranks) == 0 {
		return results[0]
	}

	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return results[best.OriginalIndex]
}

// yearOf parses the year from a release date's first 4 characters.
func yearOf(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}
