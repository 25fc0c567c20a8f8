// Package snapshot persists the reconciled, library-present item list for a
// flavor as an indented JSON file. The file is the only durable state in the
// system and the refresher's input, so its format is a contract: an array of
// {title, id, year?} records. Older files holding plain title strings or the
// legacy rating_key field name still load.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Record is one snapshot entry. ID is the library's stable identifier and
// may be empty for records loaded from legacy plain-string files.
type Record struct {
	Title string `json:"title"`
	ID    string `json:"id,omitempty"`
	Year  int    `json:"year,omitempty"`
}

// UnmarshalJSON accepts a plain title string, a current record, or a legacy
// record keyed by rating_key instead of id.
func (r *Record) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		r.Title = s
		return nil
	}

	var aux struct {
		Title     string `json:"title"`
		ID        string `json:"id"`
		RatingKey string `json:"rating_key"`
		Year      int    `json:"year"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.Title = aux.Title
	r.ID = aux.ID
	if r.ID == "" {
		r.ID = aux.RatingKey
	}
	r.Year = aux.Year
	return nil
}

// Store reads and writes snapshot files under a single directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the absolute location of a snapshot file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Save overwrites the named snapshot wholesale with the given records.
func (s *Store) Save(name string, records []Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	b = append(b, '\n')

	if err := os.WriteFile(s.Path(name), b, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}
	return nil
}

// Load reads the named snapshot. A missing file surfaces as a wrapped
// fs.ErrNotExist.
func (s *Store) Load(name string) ([]Record, error) {
	b, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}

	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", name, err)
	}
	return records, nil
}
