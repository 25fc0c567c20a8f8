package radarr

import (
	"context"
	"fmt"

	"github.com/recollect/recollect/internal/logging"
	"github.com/recollect/recollect/internal/titles"
)

// MetadataSearcher is the fallback used when the manager's own lookup cannot
// resolve a title to an external metadata id.
type MetadataSearcher interface {
	BestMatch(ctx context.Context, title string) (matchTitle string, tmdbID int64, year int, err error)
}

// Action classifies what EnsureRequested did for one title.
type Action string

const (
	ActionMonitored Action = "monitored" // existing entry forced monitored
	ActionCreated   Action = "created"   // new catalog entry created
	ActionSkipped   Action = "skipped"   // could not resolve a metadata id
	ActionFailed    Action = "failed"    // request error
)

// Outcome is the per-title result of EnsureRequested.
type Outcome struct {
	Title  string
	Action Action
	Err    error
}

// Requester ensures acquisition requests exist for missing titles.
type Requester struct {
	client           *Client
	fallback         MetadataSearcher // may be nil
	rootFolder       string
	qualityProfileID int
}

func NewRequester(client *Client, fallback MetadataSearcher, rootFolder string, qualityProfileID int) *Requester {
	return &Requester{
		client:           client,
		fallback:         fallback,
		rootFolder:       rootFolder,
		qualityProfileID: qualityProfileID,
	}
}

// EnsureRequested processes each title independently and best-effort: an
// existing catalog entry (matched by title, or by external id after
// resolution) is forced monitored; anything else is created monitored with
// an immediate search. One failed title never aborts the rest; outcomes are
// returned for the caller to aggregate.
func (r *Requester) EnsureRequested(ctx context.Context, missing []string, tagNames []string) []Outcome {
	tagIDs, err := r.resolveTags(ctx, tagNames)
	if err != nil {
		// Without tag ids every create would be mislabeled; fail the batch
		// but keep the contract of per-title outcomes.
		logging.Error().Err(err).Msg("resolve acquisition tags")
		out := make([]Outcome, 0, len(missing))
		for _, t := range missing {
			out = append(out, Outcome{Title: t, Action: ActionFailed, Err: err})
		}
		return out
	}

	catalog, err := r.client.Movies(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("list acquisition catalog")
		out := make([]Outcome, 0, len(missing))
		for _, t := range missing {
			out = append(out, Outcome{Title: t, Action: ActionFailed, Err: err})
		}
		return out
	}

	outcomes := make([]Outcome, 0, len(missing))
	for _, title := range missing {
		outcome := r.ensureOne(ctx, title, tagIDs, &catalog)
		switch outcome.Action {
		case ActionFailed:
			logging.Error().Err(outcome.Err).Str("title", title).Msg("acquisition request failed")
		case ActionSkipped:
			logging.Warn().Str("title", title).Msg("could not resolve title, skipping acquisition")
		default:
			logging.Info().Str("title", title).Str("action", string(outcome.Action)).Msg("acquisition ensured")
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// ensureOne handles a single title. catalog is shared across the batch and
// extended with created entries so the duplicate guard sees them.
func (r *Requester) ensureOne(ctx context.Context, title string, tagIDs []int, catalog *[]Movie) Outcome {
	// Existing entry under this exact title: force monitored and stop.
	if existing := findByTitle(*catalog, title); existing != nil {
		if err := r.forceMonitored(ctx, existing); err != nil {
			return Outcome{Title: title, Action: ActionFailed, Err: err}
		}
		return Outcome{Title: title, Action: ActionMonitored}
	}

	resolved, err := r.resolve(ctx, title)
	if err != nil {
		return Outcome{Title: title, Action: ActionFailed, Err: err}
	}
	if resolved == nil || resolved.TMDBID == 0 {
		return Outcome{Title: title, Action: ActionSkipped}
	}

	// Duplicate guard: the same external id may already exist under a
	// different title string.
	if existing := findByTMDBID(*catalog, resolved.TMDBID); existing != nil {
		if err := r.forceMonitored(ctx, existing); err != nil {
			return Outcome{Title: title, Action: ActionFailed, Err: err}
		}
		return Outcome{Title: title, Action: ActionMonitored}
	}

	movie := Movie{
		Title:            resolved.Title,
		TMDBID:           resolved.TMDBID,
		Year:             resolved.Year,
		Monitored:        true,
		QualityProfileID: r.qualityProfileID,
		RootFolderPath:   r.rootFolder,
		Tags:             tagIDs,
		AddOptions:       &AddOptions{SearchForMovie: true},
	}
	if err := r.client.AddMovie(ctx, movie); err != nil {
		return Outcome{Title: title, Action: ActionFailed, Err: err}
	}
	*catalog = append(*catalog, movie)
	return Outcome{Title: title, Action: ActionCreated}
}

// resolve turns a free-text title into a catalog-ready movie, preferring the
// manager's own lookup and falling back to the secondary metadata search.
func (r *Requester) resolve(ctx context.Context, title string) (*Movie, error) {
	results, err := r.client.Lookup(ctx, title)
	if err != nil {
		logging.Warn().Err(err).Str("title", title).Msg("manager lookup failed, trying fallback")
	} else if len(results) > 0 {
		m := results[0]
		if m.Title == "" {
			m.Title = title
		}
		return &m, nil
	}

	if r.fallback == nil {
		return nil, nil
	}
	matchTitle, tmdbID, year, err := r.fallback.BestMatch(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("fallback search %q: %w", title, err)
	}
	if tmdbID == 0 {
		return nil, nil
	}
	return &Movie{Title: matchTitle, TMDBID: tmdbID, Year: year}, nil
}

func (r *Requester) forceMonitored(ctx context.Context, movie *Movie) error {
	if movie.Monitored {
		return nil
	}
	movie.Monitored = true
	if err := r.client.UpdateMovie(ctx, *movie); err != nil {
		movie.Monitored = false
		return fmt.Errorf("set monitored on %q: %w", movie.Title, err)
	}
	return nil
}

// resolveTags maps tag names to ids, creating missing tags. Name match is
// case-insensitive.
func (r *Requester) resolveTags(ctx context.Context, names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, nil
	}
	existing, err := r.client.Tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	byKey := make(map[string]int, len(existing))
	for _, t := range existing {
		byKey[titles.Key(t.Label)] = t.ID
	}

	ids := make([]int, 0, len(names))
	for _, name := range names {
		if id, ok := byKey[titles.Key(name)]; ok {
			ids = append(ids, id)
			continue
		}
		tag, err := r.client.CreateTag(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("create tag %q: %w", name, err)
		}
		byKey[titles.Key(tag.Label)] = tag.ID
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

func findByTitle(catalog []Movie, title string) *Movie {
	want := titles.Key(title)
	for i := range catalog {
		if titles.Key(catalog[i].Title) == want {
			return &catalog[i]
		}
	}
	return nil
}

func findByTMDBID(catalog []Movie, tmdbID int64) *Movie {
	for i := range catalog {
		if catalog[i].TMDBID == tmdbID {
			return &catalog[i]
		}
	}
	return nil
}
