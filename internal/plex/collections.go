package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/recollect/recollect/internal/titles"
)

// GetCollection finds a collection in the movie library by name
// (case-insensitive). Returns ErrNotFound when it does not exist.
func (c *Client) GetCollection(ctx context.Context, name string) (*Collection, error) {
	key, err := c.section(ctx)
	if err != nil {
		return nil, err
	}

	var resp metadataResponse
	if err := c.get(ctx, "/library/sections/"+key+"/collections", nil, &resp); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	want := titles.Key(name)
	for _, m := range resp.MediaContainer.Metadata {
		if titles.Key(m.Title) == want {
			return &Collection{
				RatingKey:  m.RatingKey,
				Title:      m.Title,
				ChildCount: m.ChildCount,
			}, nil
		}
	}
	return nil, ErrNotFound
}

// CollectionItems lists the current members of a collection.
func (c *Client) CollectionItems(ctx context.Context, col *Collection) ([]Item, error) {
	var resp metadataResponse
	if err := c.get(ctx, "/library/collections/"+col.RatingKey+"/children", nil, &resp); err != nil {
		return nil, fmt.Errorf("collection %q children: %w", col.Title, err)
	}

	items := make([]Item, 0, len(resp.MediaContainer.Metadata))
	for _, m := range resp.MediaContainer.Metadata {
		items = append(items, m.item())
	}
	return items, nil
}

// CreateCollection creates a new collection containing the given items, in
// the given order.
func (c *Client) CreateCollection(ctx context.Context, name string, items []Item) error {
	key, err := c.section(ctx)
	if err != nil {
		return err
	}
	uri, err := c.itemsURI(ctx, items)
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("type", "1") // movie
	query.Set("title", name)
	query.Set("smart", "0")
	query.Set("sectionId", key)
	query.Set("uri", uri)

	if err := c.doRequest(ctx, requestConfig{method: http.MethodPost, path: "/library/collections", query: query}, nil); err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}
	return nil
}

// AddItems appends items to an existing collection, preserving the given
// order.
func (c *Client) AddItems(ctx context.Context, col *Collection, items []Item) error {
	uri, err := c.itemsURI(ctx, items)
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("uri", uri)

	path := "/library/collections/" + col.RatingKey + "/items"
	if err := c.doRequest(ctx, requestConfig{method: http.MethodPut, path: path, query: query}, nil); err != nil {
		return fmt.Errorf("add to collection %q: %w", col.Title, err)
	}
	return nil
}

// RemoveItems removes the given members from a collection. It fails on the
// first server error; the caller decides whether to fall back to per-item
// tag editing.
func (c *Client) RemoveItems(ctx context.Context, col *Collection, items []Item) error {
	for _, item := range items {
		path := "/library/collections/" + col.RatingKey + "/children/" + item.RatingKey
		if err := c.doRequest(ctx, requestConfig{method: http.MethodDelete, path: path}, nil); err != nil {
			return fmt.Errorf("remove %q from collection %q: %w", item.Title, col.Title, err)
		}
	}
	return nil
}

// RemoveCollectionTag detaches one item from a collection by rewriting the
// item's collection tag list without it. This is the per-item fallback path
// when RemoveItems fails.
func (c *Client) RemoveCollectionTag(ctx context.Context, item Item, collectionName string) error {
	key, err := c.section(ctx)
	if err != nil {
		return err
	}

	var resp metadataResponse
	if err := c.get(ctx, "/library/metadata/"+item.RatingKey, nil, &resp); err != nil {
		return fmt.Errorf("fetch %q tags: %w", item.Title, err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return ErrNotFound
	}

	want := titles.Key(collectionName)
	query := url.Values{}
	query.Set("type", "1")
	query.Set("id", item.RatingKey)
	query.Set("collection.locked", "0")
	i := 0
	for _, tag := range resp.MediaContainer.Metadata[0].Collection {
		if titles.Key(tag.Tag) == want {
			continue
		}
		query.Set("collection["+strconv.Itoa(i)+"].tag.tag", tag.Tag)
		i++
	}

	path := "/library/sections/" + key + "/all"
	if err := c.doRequest(ctx, requestConfig{method: http.MethodPut, path: path, query: query}, nil); err != nil {
		return fmt.Errorf("edit %q tags: %w", item.Title, err)
	}
	return nil
}

// itemsURI builds the library metadata URI for a set of items, as required
// by the collection mutation endpoints.
func (c *Client) itemsURI(ctx context.Context, items []Item) (string, error) {
	machine, err := c.machineIdentifier(ctx)
	if err != nil {
		return "", err
	}
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.RatingKey)
	}
	return "server://" + machine + "/com.plexapp.plugins.library/library/metadata/" + strings.Join(keys, ","), nil
}
