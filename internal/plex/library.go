package plex

import (
	"context"
	"fmt"
	"net/url"

	"github.com/recollect/recollect/internal/titles"
)

// section returns the key of the configured movie library, resolving and
// caching it on first use.
func (c *Client) section(ctx context.Context) (string, error) {
	if c.sectionKey != "" {
		return c.sectionKey, nil
	}

	var resp sectionsResponse
	if err := c.get(ctx, "/library/sections", nil, &resp); err != nil {
		return "", fmt.Errorf("list sections: %w", err)
	}
	for _, d := range resp.MediaContainer.Directory {
		if titles.Key(d.Title) == titles.Key(c.libraryName) {
			c.sectionKey = d.Key
			return c.sectionKey, nil
		}
	}
	return "", fmt.Errorf("library section %q: %w", c.libraryName, ErrNotFound)
}

// machineIdentifier returns the server's stable identifier, cached after the
// first fetch. Needed to build library item URIs for collection mutations.
func (c *Client) machineIdentifier(ctx context.Context) (string, error) {
	if c.machineID != "" {
		return c.machineID, nil
	}

	var resp rootResponse
	if err := c.get(ctx, "/", nil, &resp); err != nil {
		return "", fmt.Errorf("server identity: %w", err)
	}
	if resp.MediaContainer.MachineIdentifier == "" {
		return "", fmt.Errorf("server identity: empty machine identifier")
	}
	c.machineID = resp.MediaContainer.MachineIdentifier
	return c.machineID, nil
}

// FindMovieByTitle resolves a free-text title to a library item by
// case-insensitive exact match on the full title. The first exact match
// wins when the search returns several candidates. Returns ErrNotFound when
// nothing matches.
func (c *Client) FindMovieByTitle(ctx context.Context, title string) (*Item, error) {
	key, err := c.section(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("query", title)

	var resp metadataResponse
	if err := c.get(ctx, "/library/sections/"+key+"/search", query, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", title, err)
	}

	want := titles.Key(title)
	for _, m := range resp.MediaContainer.Metadata {
		if titles.Key(m.Title) == want {
			item := m.item()
			return &item, nil
		}
	}
	return nil, ErrNotFound
}

// FetchByRatingKey fetches a library item by its stable identifier.
func (c *Client) FetchByRatingKey(ctx context.Context, ratingKey string) (*Item, error) {
	var resp metadataResponse
	if err := c.get(ctx, "/library/metadata/"+ratingKey, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ratingKey, err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return nil, ErrNotFound
	}
	item := resp.MediaContainer.Metadata[0].item()
	return &item, nil
}
