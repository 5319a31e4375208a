package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agnivade/levenshtein"

	"soundfolio/model"
)

var (
	ErrDuplicateID   = errors.New("track id already exists")
	ErrTrackNotFound = errors.New("track not found")
)

// NotFoundError carries the closest existing id, if any, for "did you mean" hints.
type NotFoundError struct {
	ID         string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("track %q not found (did you mean %q?)", e.ID, e.Suggestion)
	}
	return fmt.Sprintf("track %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrTrackNotFound }

// Store edits the catalog JSON file and, when FallbackPath is set, the
// JS-embedded fallback copy of the same data.
type Store struct {
	Path         string
	FallbackPath string
}

// AddResult reports which files a mutation touched.
type AddResult struct {
	Track             model.Track
	FallbackUpdated   bool
	FallbackTimestamp string
}

// RemoveResult reports which copies a removal found the track in.
type RemoveResult struct {
	RemovedFromCatalog  bool
	RemovedFromFallback bool
	FallbackTimestamp   string
}

// Read returns the tracks stored in the catalog file. A missing file is an
// empty catalog.
func (s *Store) Read() ([]model.Track, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.Track{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	tracks, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = s.Path
		}
		return nil, err
	}
	return tracks, nil
}

// Write replaces the catalog file with tracks, pretty-printed.
func (s *Store) Write(tracks []model.Track) error {
	data, err := json.MarshalIndent(tracks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("replace %s: %w", s.Path, err)
	}
	return nil
}

// Add appends track to the catalog, keeping ids unique.
func (s *Store) Add(track model.Track) (*AddResult, error) {
	if track.ID == "" {
		return nil, errors.New("track id is required")
	}
	tracks, err := s.Read()
	if err != nil {
		return nil, err
	}
	for _, t := range tracks {
		if t.ID == track.ID {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, track.ID)
		}
	}

	if err := s.Write(append(tracks, track)); err != nil {
		return nil, err
	}

	res := &AddResult{Track: track}
	if s.FallbackPath != "" {
		ts, err := AppendToFallback(s.FallbackPath, track)
		if err != nil {
			return res, fmt.Errorf("catalog updated but fallback copy was not: %w", err)
		}
		res.FallbackUpdated = true
		res.FallbackTimestamp = ts
	}
	return res, nil
}

// Exists reports whether id is already used.
func (s *Store) Exists(id string) (bool, error) {
	tracks, err := s.Read()
	if err != nil {
		return false, err
	}
	for _, t := range tracks {
		if t.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// Remove deletes the track with id from both copies. It fails with a
// *NotFoundError when neither copy contains it.
func (s *Store) Remove(id string) (*RemoveResult, error) {
	tracks, err := s.Read()
	if err != nil {
		return nil, err
	}

	res := &RemoveResult{}
	kept := tracks[:0:0]
	for _, t := range tracks {
		if t.ID == id {
			res.RemovedFromCatalog = true
			continue
		}
		kept = append(kept, t)
	}
	if res.RemovedFromCatalog {
		if err := s.Write(kept); err != nil {
			return nil, err
		}
	}

	if s.FallbackPath != "" {
		removed, ts, err := RemoveFromFallback(s.FallbackPath, id)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return res, err
		}
		res.RemovedFromFallback = removed
		res.FallbackTimestamp = ts
	}

	if !res.RemovedFromCatalog && !res.RemovedFromFallback {
		return res, &NotFoundError{ID: id, Suggestion: closestID(tracks, id)}
	}
	return res, nil
}

// closestID suggests the existing id nearest to id by edit distance, if it
// is close enough to be a plausible typo.
func closestID(tracks []model.Track, id string) string {
	best, bestDist := "", -1
	for _, t := range tracks {
		d := levenshtein.ComputeDistance(id, t.ID)
		if bestDist < 0 || d < bestDist {
			best, bestDist = t.ID, d
		}
	}
	if bestDist < 0 || bestDist > len(id)/2+1 {
		return ""
	}
	return best
}
