package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// OtherTag is the grouping bucket for tracks that carry no tags.
const OtherTag = "other"

// Source is one playable encoding of a track.
type Source struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"` // MIME type, e.g. "audio/mpeg"
}

// Track represents an entry of the portfolio track catalog.
type Track struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Artist  string      `json:"artist"`
	Cover   string      `json:"cover"`
	Tags    []string    `json:"tags"`
	Length  float64     `json:"length,omitempty"` // Seconds, 0 when unknown
	Date    string      `json:"date,omitempty"`   // ISO date used for newest-first ordering
	Year    int         `json:"year,omitempty"`
	Desc    Description `json:"desc,omitzero"`
	Sources []Source    `json:"sources"`
}

// Playable reports whether the track has at least one usable source.
func (t *Track) Playable() bool {
	return len(t.Sources) > 0 && t.Sources[0].URL != ""
}

// HasKnownLength reports whether Length holds a usable duration.
func (t *Track) HasKnownLength() bool {
	return t.Length > 0 && !math.IsInf(t.Length, 0) && !math.IsNaN(t.Length)
}

// PrimaryTag is the grouping key of the track: its first tag, or OtherTag.
func (t *Track) PrimaryTag() string {
	for _, tag := range t.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			return tag
		}
	}
	return OtherTag
}

// HasTag reports whether the track is labelled with tag.
func (t *Track) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// Description holds localized descriptions keyed by language code.
// Legacy catalog entries store a single plain string instead of a map; that
// value is kept in Plain and serialized back the same way.
type Description struct {
	ByLang map[string]string
	Plain  string
}

// For returns the description for lang, falling back to English and then to
// the legacy plain string.
func (d Description) For(lang string) string {
	if s := d.ByLang[lang]; s != "" {
		return s
	}
	if s := d.ByLang["en"]; s != "" {
		return s
	}
	return d.Plain
}

// IsZero lets encoding/json omit empty descriptions.
func (d Description) IsZero() bool {
	return len(d.ByLang) == 0 && d.Plain == ""
}

func (d *Description) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = Description{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("desc: %w", err)
		}
		*d = Description{Plain: s}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("desc must be a string or an object of strings: %w", err)
	}
	*d = Description{ByLang: m}
	return nil
}

func (d Description) MarshalJSON() ([]byte, error) {
	if d.ByLang == nil {
		if d.Plain == "" {
			return []byte("null"), nil
		}
		return json.Marshal(d.Plain)
	}
	return json.Marshal(d.ByLang)
}

// ErrDuplicateID marks a catalog entry whose id an earlier entry already uses.
var ErrDuplicateID = errors.New("duplicate track id")

// ValidateCatalog checks the invariants every loaded catalog must hold and
// returns one error per offending entry.
func ValidateCatalog(tracks []Track) []error {
	var errs []error
	seen := make(map[string]int, len(tracks))
	for i := range tracks {
		t := &tracks[i]
		if t.ID == "" {
			errs = append(errs, fmt.Errorf("track %d: missing id", i))
			continue
		}
		if prev, dup := seen[t.ID]; dup {
			errs = append(errs, fmt.Errorf("track %d: id %q already used by track %d: %w", i, t.ID, prev, ErrDuplicateID))
		} else {
			seen[t.ID] = i
		}
		if !t.Playable() {
			errs = append(errs, fmt.Errorf("track %d (%s): no playable source", i, t.ID))
		}
		if t.Length < 0 {
			errs = append(errs, fmt.Errorf("track %d (%s): negative length", i, t.ID))
		}
	}
	return errs
}
