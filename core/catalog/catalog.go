// Package catalog loads the track catalog and derives filtered views of it.
package catalog

import "soundfolio/model"

// Catalog is an immutable, ordered list of tracks. Indices are stable for the
// lifetime of a Catalog value; a reload produces a new Catalog.
type Catalog struct {
	tracks []model.Track
	byID   map[string]int
}

// New builds a catalog from tracks. The slice is copied.
func New(tracks []model.Track) *Catalog {
	c := &Catalog{
		tracks: make([]model.Track, len(tracks)),
		byID:   make(map[string]int, len(tracks)),
	}
	copy(c.tracks, tracks)
	for i, t := range c.tracks {
		if _, dup := c.byID[t.ID]; !dup {
			c.byID[t.ID] = i
		}
	}
	return c
}

// Len returns the number of tracks; a nil catalog is empty.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tracks)
}

// Track returns the track at index i.
func (c *Catalog) Track(i int) (model.Track, bool) {
	if c == nil || i < 0 || i >= len(c.tracks) {
		return model.Track{}, false
	}
	return c.tracks[i], true
}

// IndexOf returns the index of the track with the given id.
func (c *Catalog) IndexOf(id string) (int, bool) {
	if c == nil {
		return -1, false
	}
	i, ok := c.byID[id]
	return i, ok
}

// Tracks returns a copy of every track in catalog order.
func (c *Catalog) Tracks() []model.Track {
	if c == nil {
		return nil
	}
	out := make([]model.Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}
