// Package suggest turns a seed movie title into an ordered list of
// candidate titles using a generative text API. Output is parsed line by
// line, normalized, deduplicated case-insensitively and length-filtered.
package suggest

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/recollect/recollect/internal/titles"
)

const (
	relatedTemperature  = 0.7
	contrastTemperature = 0.8

	// minTitleLen drops fragments like "In" that break downstream lookups.
	minTitleLen = 3
)

// Completer produces a free-text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// Suggester generates related and contrast movie suggestions.
type Suggester struct {
	completer Completer
}

func New(completer Completer) *Suggester {
	return &Suggester{completer: completer}
}

// Related suggests movies connected to the seed: sequels, prequels, or the
// same genre and style.
func (s *Suggester) Related(ctx context.Context, seed string, maxResults int) ([]string, error) {
	prompt := fmt.Sprintf(
		"Suggest up to %d movies related to '%s', including sequels, prequels, "+
			"or movies in the same genre or style.\n"+
			"Rules:\n"+
			"- Only real movie titles (no made-up titles).\n"+
			"- Do NOT output partial subtitles or fragments.\n"+
			"- One title per line.\n"+
			"- No descriptions.\n",
		maxResults, seed,
	)

	raw, err := s.completer.Complete(ctx, prompt, relatedTemperature)
	if err != nil {
		return nil, fmt.Errorf("related suggestions for %q: %w", seed, err)
	}
	return parseTitles(raw, maxResults), nil
}

// Contrast suggests a deliberate change of taste: movies matching the
// opposite viewing profile of the seed. Avoiding sequels and remakes of the
// seed is an instruction to the model, not a post-filter.
func (s *Suggester) Contrast(ctx context.Context, seed string, maxResults int) ([]string, error) {
	prompt := fmt.Sprintf(
		"You are a movie expert.\n\n"+
			"Task:\n"+
			"1) Infer the likely GENRES and VIBE of %[1]q (tone, pacing, intensity, humor level, realism vs fantasy).\n"+
			"2) Define an 'opposite' viewing profile (a deliberate change of taste).\n"+
			"3) Recommend up to %[2]d REAL movies that strongly match that opposite profile.\n\n"+
			"Rules:\n"+
			"- Only real movie titles (no made-up titles).\n"+
			"- Avoid sequels/prequels/remakes of %[1]q.\n"+
			"- Avoid movies that are too similar in tone/genre.\n"+
			"- Prefer well-known, widely available films (mix of eras is ok).\n"+
			"- One title per line, no numbering, no extra text.",
		seed, maxResults,
	)

	raw, err := s.completer.Complete(ctx, prompt, contrastTemperature)
	if err != nil {
		return nil, fmt.Errorf("contrast suggestions for %q: %w", seed, err)
	}
	return parseTitles(raw, maxResults), nil
}

// parseTitles normalizes, dedups (first occurrence wins, order preserved)
// and length-filters raw line-per-title model output.
func parseTitles(raw string, maxResults int) []string {
	out := make([]string, 0, maxResults)
	seen := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		t := titles.Clean(line)
		if t == "" || utf8.RuneCountInString(t) < minTitleLen {
			continue
		}
		k := titles.Key(t)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
		if len(out) == maxResults {
			break
		}
	}
	return out
}
