// Package pipeline reconciles generated movie suggestions against the media
// library: present titles are persisted to the flavor's snapshot for the
// refresher, missing titles are handed to the acquisition requester.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/recollect/recollect/internal/logging"
	"github.com/recollect/recollect/internal/plex"
	"github.com/recollect/recollect/internal/radarr"
	"github.com/recollect/recollect/internal/snapshot"
	"github.com/recollect/recollect/internal/titles"
)

// Suggester produces candidate titles for a seed, one strategy per flavor.
type Suggester interface {
	Related(ctx context.Context, seed string, maxResults int) ([]string, error)
	Contrast(ctx context.Context, seed string, maxResults int) ([]string, error)
}

// Library resolves a free-text title to an existing library item.
// plex.ErrNotFound reports true absence; any other error is a lookup
// failure.
type Library interface {
	FindMovieByTitle(ctx context.Context, title string) (*plex.Item, error)
}

// Acquirer ensures acquisition requests exist for missing titles.
type Acquirer interface {
	EnsureRequested(ctx context.Context, missing []string, tags []string) []radarr.Outcome
}

// Store persists a flavor's snapshot.
type Store interface {
	Save(name string, records []snapshot.Record) error
}

// Result reports what one flavor's reconcile did. The counts are returned
// even when the acquisition step partially failed.
type Result struct {
	Found           int
	Missing         int
	SnapshotWritten bool
	Acquired        int
}

// Pipeline runs the reconciliation for one flavor at a time.
type Pipeline struct {
	suggester  Suggester
	library    Library
	acquirer   Acquirer
	store      Store
	maxResults int
}

func New(suggester Suggester, library Library, acquirer Acquirer, store Store, maxResults int) *Pipeline {
	return &Pipeline{
		suggester:  suggester,
		library:    library,
		acquirer:   acquirer,
		store:      store,
		maxResults: maxResults,
	}
}

// Reconcile runs the full pipeline for one seed and flavor. A suggestion
// failure or a snapshot write failure is fatal for the flavor; lookup errors
// route the title to the missing bucket, and acquisition failures are
// absorbed after logging.
func (p *Pipeline) Reconcile(ctx context.Context, seed string, flavor Flavor) (Result, error) {
	logging.Info().Str("flavor", flavor.Name).Str("seed", seed).Msg("requesting suggestions")

	var (
		candidates []string
		err        error
	)
	switch flavor.Variant {
	case VariantContrast:
		candidates, err = p.suggester.Contrast(ctx, seed, p.maxResults)
	default:
		candidates, err = p.suggester.Related(ctx, seed, p.maxResults)
	}
	if err != nil {
		return Result{}, fmt.Errorf("suggestion source: %w", err)
	}
	logging.Info().Str("flavor", flavor.Name).Int("count", len(candidates)).Msg("suggestions received")

	present, missing := p.partition(ctx, candidates)
	logging.Info().
		Str("flavor", flavor.Name).
		Int("found", len(present)).
		Int("missing", len(missing)).
		Msg("library check complete")

	result := Result{Found: len(present), Missing: len(missing)}

	// An empty present set never truncates a previously valid snapshot:
	// one bad run must not starve the refresher.
	if len(present) > 0 {
		if err := p.store.Save(flavor.SnapshotFile, present); err != nil {
			return result, fmt.Errorf("persist snapshot: %w", err)
		}
		result.SnapshotWritten = true
		logging.Info().Str("flavor", flavor.Name).Str("file", flavor.SnapshotFile).Int("count", len(present)).Msg("snapshot written")
	} else {
		logging.Warn().Str("flavor", flavor.Name).Msg("no library matches, keeping previous snapshot")
	}

	if len(missing) > 0 {
		outcomes := p.acquirer.EnsureRequested(ctx, missing, flavor.Tags)
		for _, o := range outcomes {
			if o.Action == radarr.ActionCreated || o.Action == radarr.ActionMonitored {
				result.Acquired++
			}
		}
		logging.Info().Str("flavor", flavor.Name).Int("requested", result.Acquired).Int("missing", len(missing)).Msg("acquisition processed")
	}

	return result, nil
}

// partition splits candidates into library-present records (encounter order)
// and missing titles (deduplicated case-insensitively, first-encounter
// order). A lookup error counts as missing: absence and read failure land in
// the same bucket on purpose, so a flaky library never blocks acquisition.
func (p *Pipeline) partition(ctx context.Context, candidates []string) (present []snapshot.Record, missing []string) {
	missingSeen := make(map[string]struct{})
	markMissing := func(title string) {
		k := titles.Key(title)
		if k == "" {
			return
		}
		if _, ok := missingSeen[k]; ok {
			return
		}
		missingSeen[k] = struct{}{}
		missing = append(missing, title)
	}

	for _, title := range candidates {
		item, err := p.library.FindMovieByTitle(ctx, title)
		switch {
		case err == nil:
			present = append(present, snapshot.Record{
				Title: item.Title,
				ID:    item.RatingKey,
				Year:  item.Year,
			})
		case errors.Is(err, plex.ErrNotFound):
			logging.Debug().Str("title", title).Msg("not in library")
			markMissing(title)
		default:
			logging.Warn().Err(err).Str("title", title).Msg("library lookup failed, treating as missing")
			markMissing(title)
		}
	}
	return present, missing
}
