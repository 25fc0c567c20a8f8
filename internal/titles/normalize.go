// Package titles holds the shared title normalization and dedup helpers
// used by every case-insensitive comparison in the pipeline.
package titles

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// reEnumeration matches leading list markers such as "3. ", "2) " or "1 - ".
var reEnumeration = regexp.MustCompile(`^\d+\s*[\.\)\-]\s*`)

// Clean strips leading enumeration markers, surrounding bullet characters
// and whitespace from one line of raw suggestion output.
func Clean(line string) string {
	s := strings.TrimSpace(line)
	if s == "" {
		return ""
	}
	s = reEnumeration.ReplaceAllString(s, "")
	s = strings.Trim(s, "-•* ")
	return strings.TrimSpace(s)
}

// Key returns the comparison key for a title: NFKC-folded (full-width and
// compatibility forms collapse), lower-cased, whitespace-trimmed. Two titles
// are considered the same movie when their keys are equal.
func Key(title string) string {
	s := norm.NFKC.String(strings.TrimSpace(title))
	return strings.ToLower(s)
}

// Dedup removes case-insensitive duplicates, keeping the first occurrence
// and preserving encounter order.
func Dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		k := Key(t)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}
