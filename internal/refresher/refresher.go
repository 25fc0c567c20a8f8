// Package refresher re-applies the persisted snapshots to the library
// collections in a fresh random order. It runs separately from the
// reconciliation pipeline, typically off-peak, and tolerates failure at
// every external call: one broken collection never stops the others.
package refresher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/recollect/recollect/internal/logging"
	"github.com/recollect/recollect/internal/pipeline"
	"github.com/recollect/recollect/internal/plex"
	"github.com/recollect/recollect/internal/snapshot"
)

// Library is the collection-mutation surface of the media library.
type Library interface {
	FetchByRatingKey(ctx context.Context, ratingKey string) (*plex.Item, error)
	FindMovieByTitle(ctx context.Context, title string) (*plex.Item, error)
	GetCollection(ctx context.Context, name string) (*plex.Collection, error)
	CollectionItems(ctx context.Context, col *plex.Collection) ([]plex.Item, error)
	CreateCollection(ctx context.Context, name string, items []plex.Item) error
	AddItems(ctx context.Context, col *plex.Collection, items []plex.Item) error
	RemoveItems(ctx context.Context, col *plex.Collection, items []plex.Item) error
	RemoveCollectionTag(ctx context.Context, item plex.Item, collectionName string) error
}

// Store loads flavor snapshots.
type Store interface {
	Load(name string) ([]snapshot.Record, error)
}

// Stats counts what happened to one collection.
type Stats struct {
	Added    int
	Failed   int
	Filtered int
}

// CollectionResult is the per-collection outcome of a refresh run.
type CollectionResult struct {
	Collection string
	Stats      Stats
	Skipped    bool
	Err        error
}

// Refresher randomizes and re-applies the configured collections.
type Refresher struct {
	library Library
	store   Store

	// shuffleFn allows tests to fix the permutation.
	shuffleFn func(n int, swap func(i, j int))
}

func New(library Library, store Store) *Refresher {
	return &Refresher{
		library:   library,
		store:     store,
		shuffleFn: rand.Shuffle,
	}
}

// RefreshAll processes every configured flavor: load snapshot, shuffle,
// resolve records to live library items, then fully replace the collection's
// membership in the shuffled order. With dryRun the mutation step is
// reported but not performed. Errors are absorbed per collection.
func (r *Refresher) RefreshAll(ctx context.Context, dryRun bool) []CollectionResult {
	results := make([]CollectionResult, 0, 2)
	for _, flavor := range pipeline.Flavors() {
		res := r.refreshOne(ctx, flavor, dryRun)
		if res.Err != nil {
			logging.Error().Err(res.Err).Str("collection", res.Collection).Msg("collection refresh failed")
		}
		results = append(results, res)
	}

	var total Stats
	processed := 0
	for _, res := range results {
		if !res.Skipped {
			processed++
		}
		total.Added += res.Stats.Added
		total.Failed += res.Stats.Failed
		total.Filtered += res.Stats.Filtered
	}
	logging.Info().
		Int("collections", processed).
		Int("added", total.Added).
		Int("failed", total.Failed).
		Int("filtered", total.Filtered).
		Bool("dry_run", dryRun).
		Msg("refresh complete")

	return results
}

func (r *Refresher) refreshOne(ctx context.Context, flavor pipeline.Flavor, dryRun bool) CollectionResult {
	res := CollectionResult{Collection: flavor.CollectionName}

	records, err := r.store.Load(flavor.SnapshotFile)
	if err != nil {
		// Missing or corrupt snapshot skips the collection, not the run.
		logging.Warn().Err(err).Str("collection", flavor.CollectionName).Msg("snapshot unavailable, skipping")
		res.Skipped = true
		return res
	}
	if len(records) == 0 {
		logging.Warn().Str("collection", flavor.CollectionName).Msg("snapshot empty, skipping")
		res.Skipped = true
		return res
	}

	// The shuffle lives only in memory; the snapshot file keeps its
	// persisted order so every run redraws from the same source.
	shuffled := make([]snapshot.Record, len(records))
	copy(shuffled, records)
	r.shuffleFn(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for i, rec := range shuffled {
		if i == 10 {
			break
		}
		logging.Debug().Int("position", i+1).Str("title", rec.Title).Msg("shuffled order")
	}

	items, stats := r.resolve(ctx, shuffled)
	res.Stats = stats
	if len(items) == 0 {
		logging.Warn().Str("collection", flavor.CollectionName).Msg("no snapshot record resolved to a library movie")
		return res
	}

	if dryRun {
		logging.Info().
			Str("collection", flavor.CollectionName).
			Int("would_add", len(items)).
			Msg("dry run, no mutation")
		res.Stats.Added = len(items)
		return res
	}

	added, err := r.apply(ctx, flavor.CollectionName, items)
	res.Stats.Added = added
	res.Stats.Failed += len(items) - added
	res.Err = err
	return res
}

// resolve maps snapshot records to live library items: stable id first,
// title lookup as fallback. Non-movie results are filtered, unresolvable
// records counted as failed.
func (r *Refresher) resolve(ctx context.Context, records []snapshot.Record) ([]plex.Item, Stats) {
	var stats Stats
	items := make([]plex.Item, 0, len(records))
	for _, rec := range records {
		var item *plex.Item
		if rec.ID != "" {
			found, err := r.library.FetchByRatingKey(ctx, rec.ID)
			if err != nil {
				logging.Debug().Err(err).Str("id", rec.ID).Str("title", rec.Title).Msg("stable id fetch missed")
			} else {
				item = found
			}
		}
		if item == nil {
			found, err := r.library.FindMovieByTitle(ctx, rec.Title)
			if err != nil {
				logging.Debug().Err(err).Str("title", rec.Title).Msg("title lookup missed")
				stats.Failed++
				continue
			}
			item = found
		}

		if !item.IsMovie() {
			logging.Debug().Str("title", item.Title).Str("type", item.Type).Msg("filtered non-movie item")
			stats.Filtered++
			continue
		}
		items = append(items, *item)
	}
	return items, stats
}

// apply replaces the collection's membership with items, in order. Existing
// collections are emptied first; a failed bulk removal falls back to
// per-item tag editing that continues past individual failures. A bulk add
// or create rejected for mixing media types is retried with movie-kind
// items only.
func (r *Refresher) apply(ctx context.Context, name string, items []plex.Item) (added int, err error) {
	col, err := r.library.GetCollection(ctx, name)
	if err != nil && !errors.Is(err, plex.ErrNotFound) {
		logging.Warn().Err(err).Str("collection", name).Msg("could not check for existing collection, assuming absent")
		col = nil
	}

	if col == nil {
		if err := r.createWithRetry(ctx, name, items); err != nil {
			return 0, fmt.Errorf("create collection %q: %w", name, err)
		}
		return len(items), nil
	}

	r.removeAll(ctx, name, col)

	if err := r.addWithRetry(ctx, col, items); err != nil {
		return 0, fmt.Errorf("add items to %q: %w", name, err)
	}
	return len(items), nil
}

// removeAll empties an existing collection: bulk first, per-item tag edit
// fallback second. Failures are logged and absorbed so the add step still
// runs.
func (r *Refresher) removeAll(ctx context.Context, name string, col *plex.Collection) {
	existing, err := r.library.CollectionItems(ctx, col)
	if err != nil {
		logging.Warn().Err(err).Str("collection", name).Msg("could not list current members")
		return
	}
	if len(existing) == 0 {
		return
	}

	logging.Info().Str("collection", name).Int("count", len(existing)).Msg("removing current members")
	bulkErr := r.library.RemoveItems(ctx, col, existing)
	if bulkErr == nil {
		return
	}
	logging.Warn().Err(bulkErr).Str("collection", name).Msg("bulk remove failed, removing per item")

	for _, item := range existing {
		if err := r.library.RemoveCollectionTag(ctx, item, name); err != nil {
			logging.Debug().Err(err).Str("title", item.Title).Msg("per-item removal failed")
		}
	}
}

func (r *Refresher) createWithRetry(ctx context.Context, name string, items []plex.Item) error {
	err := r.library.CreateCollection(ctx, name, items)
	if errors.Is(err, plex.ErrMixedMediaTypes) {
		logging.Warn().Str("collection", name).Msg("create rejected for mixed media types, retrying movies only")
		return r.library.CreateCollection(ctx, name, moviesOnly(items))
	}
	return err
}

func (r *Refresher) addWithRetry(ctx context.Context, col *plex.Collection, items []plex.Item) error {
	err := r.library.AddItems(ctx, col, items)
	if errors.Is(err, plex.ErrMixedMediaTypes) {
		logging.Warn().Str("collection", col.Title).Msg("add rejected for mixed media types, retrying movies only")
		return r.library.AddItems(ctx, col, moviesOnly(items))
	}
	return err
}

func moviesOnly(items []plex.Item) []plex.Item {
	out := make([]plex.Item, 0, len(items))
	for _, item := range items {
		if item.IsMovie() {
			out = append(out, item)
		}
	}
	return out
}
