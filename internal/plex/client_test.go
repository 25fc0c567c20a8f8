package plex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlex serves the subset of the server API the client touches.
type fakePlex struct {
	mux *http.ServeMux

	searchResults []metadataEntry
	collections   []metadataEntry
	children      map[string][]metadataEntry
	metadata      map[string]metadataEntry

	created   []*http.Request
	added     []*http.Request
	deleted   []string
	tagEdits  []*http.Request
	mixOnMut  bool
	removeErr bool
}

func newFakePlex() *fakePlex {
	f := &fakePlex{
		mux:      http.NewServeMux(),
		children: map[string][]metadataEntry{},
		metadata: map[string]metadataEntry{},
	}

	writeMeta := func(w http.ResponseWriter, entries []metadataEntry) {
		var resp metadataResponse
		resp.MediaContainer.Metadata = entries
		json.NewEncoder(w).Encode(resp)
	}

	f.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		var resp rootResponse
		resp.MediaContainer.MachineIdentifier = "machine-1"
		json.NewEncoder(w).Encode(resp)
	})
	f.mux.HandleFunc("GET /library/sections", func(w http.ResponseWriter, _ *http.Request) {
		var resp sectionsResponse
		resp.MediaContainer.Directory = []struct {
			Key   string `json:"key"`
			Title string `json:"title"`
			Type  string `json:"type"`
		}{
			{Key: "2", Title: "TV Shows", Type: "show"},
			{Key: "1", Title: "Movies", Type: "movie"},
		}
		json.NewEncoder(w).Encode(resp)
	})
	f.mux.HandleFunc("GET /library/sections/1/search", func(w http.ResponseWriter, _ *http.Request) {
		writeMeta(w, f.searchResults)
	})
	f.mux.HandleFunc("GET /library/sections/1/collections", func(w http.ResponseWriter, _ *http.Request) {
		writeMeta(w, f.collections)
	})
	f.mux.HandleFunc("GET /library/collections/{key}/children", func(w http.ResponseWriter, r *http.Request) {
		writeMeta(w, f.children[r.PathValue("key")])
	})
	f.mux.HandleFunc("GET /library/metadata/{key}", func(w http.ResponseWriter, r *http.Request) {
		entry, ok := f.metadata[r.PathValue("key")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeMeta(w, []metadataEntry{entry})
	})
	f.mux.HandleFunc("POST /library/collections", func(w http.ResponseWriter, r *http.Request) {
		if f.mixOnMut {
			http.Error(w, "Cannot mix media types in a collection", http.StatusBadRequest)
			return
		}
		f.created = append(f.created, r)
		w.WriteHeader(http.StatusOK)
	})
	f.mux.HandleFunc("PUT /library/collections/{key}/items", func(w http.ResponseWriter, r *http.Request) {
		if f.mixOnMut {
			http.Error(w, "Cannot mix media types in a collection", http.StatusBadRequest)
			return
		}
		f.added = append(f.added, r)
		w.WriteHeader(http.StatusOK)
	})
	f.mux.HandleFunc("DELETE /library/collections/{key}/children/{child}", func(w http.ResponseWriter, r *http.Request) {
		if f.removeErr {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		f.deleted = append(f.deleted, r.PathValue("child"))
		w.WriteHeader(http.StatusOK)
	})
	f.mux.HandleFunc("PUT /library/sections/1/all", func(w http.ResponseWriter, r *http.Request) {
		f.tagEdits = append(f.tagEdits, r)
		w.WriteHeader(http.StatusOK)
	})

	return f
}

func newTestClient(t *testing.T, fake *fakePlex) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Plex-Token"))
		fake.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", "Movies", 5*time.Second)
}

func TestFindMovieByTitleExactMatchOnly(t *testing.T) {
	fake := newFakePlex()
	fake.searchResults = []metadataEntry{
		{RatingKey: "11", Title: "The Matrix Reloaded", Year: 2003, Type: "movie"},
		{RatingKey: "12", Title: "The Matrix", Year: 1999, Type: "movie"},
	}
	c := newTestClient(t, fake)

	item, err := c.FindMovieByTitle(context.Background(), "the matrix")
	require.NoError(t, err)
	assert.Equal(t, "12", item.RatingKey)
	assert.Equal(t, "The Matrix", item.Title)
	assert.Equal(t, 1999, item.Year)
}

func TestFindMovieByTitleNoExactMatch(t *testing.T) {
	fake := newFakePlex()
	fake.searchResults = []metadataEntry{
		{RatingKey: "11", Title: "The Matrix Reloaded", Type: "movie"},
	}
	c := newTestClient(t, fake)

	_, err := c.FindMovieByTitle(context.Background(), "The Matrix")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchByRatingKey(t *testing.T) {
	fake := newFakePlex()
	fake.metadata["42"] = metadataEntry{RatingKey: "42", Title: "Paprika", Year: 2006, Type: "movie"}
	c := newTestClient(t, fake)

	item, err := c.FetchByRatingKey(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Paprika", item.Title)
	assert.True(t, item.IsMovie())

	_, err = c.FetchByRatingKey(context.Background(), "999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetCollection(t *testing.T) {
	fake := newFakePlex()
	fake.collections = []metadataEntry{
		{RatingKey: "77", Title: "Based on your recently watched movie", ChildCount: 3},
	}
	c := newTestClient(t, fake)

	col, err := c.GetCollection(context.Background(), "based on your recently watched movie")
	require.NoError(t, err)
	assert.Equal(t, "77", col.RatingKey)
	assert.Equal(t, 3, col.ChildCount)

	_, err = c.GetCollection(context.Background(), "Change of Taste")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateCollectionBuildsItemURI(t *testing.T) {
	fake := newFakePlex()
	c := newTestClient(t, fake)

	items := []Item{{RatingKey: "1"}, {RatingKey: "2"}, {RatingKey: "3"}}
	require.NoError(t, c.CreateCollection(context.Background(), "Change of Taste", items))

	require.Len(t, fake.created, 1)
	q := fake.created[0].URL.Query()
	assert.Equal(t, "Change of Taste", q.Get("title"))
	assert.Equal(t, "1", q.Get("type"))
	assert.Equal(t, "0", q.Get("smart"))
	assert.Equal(t, "1", q.Get("sectionId"))
	assert.Equal(t, "server://machine-1/com.plexapp.plugins.library/library/metadata/1,2,3", q.Get("uri"))
}

func TestCreateCollectionMixedMediaTypes(t *testing.T) {
	fake := newFakePlex()
	fake.mixOnMut = true
	c := newTestClient(t, fake)

	err := c.CreateCollection(context.Background(), "Change of Taste", []Item{{RatingKey: "1"}})
	assert.ErrorIs(t, err, ErrMixedMediaTypes)
}

func TestAddItems(t *testing.T) {
	fake := newFakePlex()
	c := newTestClient(t, fake)

	col := &Collection{RatingKey: "77", Title: "Change of Taste"}
	require.NoError(t, c.AddItems(context.Background(), col, []Item{{RatingKey: "5"}, {RatingKey: "6"}}))

	require.Len(t, fake.added, 1)
	assert.Equal(t, "/library/collections/77/items", fake.added[0].URL.Path)
	assert.Contains(t, fake.added[0].URL.Query().Get("uri"), "/library/metadata/5,6")
}

func TestRemoveItemsFailsFast(t *testing.T) {
	fake := newFakePlex()
	c := newTestClient(t, fake)
	col := &Collection{RatingKey: "77", Title: "Change of Taste"}

	require.NoError(t, c.RemoveItems(context.Background(), col, []Item{{RatingKey: "5"}, {RatingKey: "6"}}))
	assert.Equal(t, []string{"5", "6"}, fake.deleted)

	fake.removeErr = true
	err := c.RemoveItems(context.Background(), col, []Item{{RatingKey: "7"}})
	require.Error(t, err)
}

func TestRemoveCollectionTagRewritesOtherTags(t *testing.T) {
	fake := newFakePlex()
	entry := metadataEntry{RatingKey: "42", Title: "Paprika", Type: "movie"}
	entry.Collection = []struct {
		Tag string `json:"tag"`
	}{
		{Tag: "Change of Taste"},
		{Tag: "Favorites"},
	}
	fake.metadata["42"] = entry
	c := newTestClient(t, fake)

	item := Item{RatingKey: "42", Title: "Paprika", Type: "movie"}
	require.NoError(t, c.RemoveCollectionTag(context.Background(), item, "change of taste"))

	require.Len(t, fake.tagEdits, 1)
	q := fake.tagEdits[0].URL.Query()
	assert.Equal(t, "42", q.Get("id"))
	assert.Equal(t, "0", q.Get("collection.locked"))
	assert.Equal(t, "Favorites", q.Get("collection[0].tag.tag"))
	assert.Empty(t, q.Get("collection[1].tag.tag"))
}
