// Package playlist turns a filtered catalog view into display entries.
package playlist

import (
	"sync"

	"soundfolio/core/catalog"
	"soundfolio/core/durations"
	"soundfolio/core/utils"
)

// Entry is one rendered playlist row.
type Entry struct {
	Index       int      `json:"index"`
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Description string   `json:"description,omitempty"`
	Group       string   `json:"group"`
	Tags        []string `json:"tags"`
	// CoverURL stays empty until the entry is revealed when covers are deferred.
	CoverURL      string `json:"cover,omitempty"`
	CoverDeferred bool   `json:"coverDeferred"`
	Duration      string `json:"duration"`
	Active        bool   `json:"active"`
	Playing       bool   `json:"playing"`

	cover string
}

// VisibilityObserver reports when an observed entry comes close to the
// viewport. Without one, covers load eagerly.
type VisibilityObserver interface {
	Observe(index int)
	Unobserve(index int)
}

// Selector handles entry activation. player.Controller implements it.
type Selector interface {
	Select(index int) (<-chan error, error)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithObserver defers cover loading until entries are revealed.
func WithObserver(o VisibilityObserver) Option {
	return func(r *Renderer) { r.observer = o }
}

// WithLanguage picks the description language.
func WithLanguage(lang string) Option {
	return func(r *Renderer) { r.lang = lang }
}

// Renderer keeps the current playlist rows. Each render replaces every row.
type Renderer struct {
	mu        sync.Mutex
	catalog   *catalog.Catalog
	durations *durations.Cache
	selector  Selector
	observer  VisibilityObserver
	lang      string

	query   catalog.Query
	entries []*Entry
	byIndex map[int]*Entry

	current int
	playing bool
}

func NewRenderer(cat *catalog.Catalog, cache *durations.Cache, selector Selector, opts ...Option) *Renderer {
	r := &Renderer{
		catalog:   cat,
		durations: cache,
		selector:  selector,
		lang:      "en",
		query:     catalog.Query{Tag: catalog.TagAll, Sort: catalog.SortNewest},
		byIndex:   make(map[int]*Entry),
		current:   -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply filters the catalog with q and renders the result.
func (r *Renderer) Apply(q catalog.Query) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.query = q
	r.renderLocked(catalog.Filter(r.catalog, q))
	return r.snapshotLocked()
}

// Query returns the filter that produced the current rows.
func (r *Renderer) Query() catalog.Query {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.query
}

// Render repaints the rows for the given catalog indices.
func (r *Renderer) Render(view []int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderLocked(view)
	return r.snapshotLocked()
}

// SetCatalog swaps the catalog and repaints with the current filter.
func (r *Renderer) SetCatalog(cat *catalog.Catalog) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = cat
	r.renderLocked(catalog.Filter(cat, r.query))
	return r.snapshotLocked()
}

func (r *Renderer) renderLocked(view []int) {
	if r.observer != nil {
		for _, e := range r.entries {
			if e.CoverDeferred {
				r.observer.Unobserve(e.Index)
			}
		}
	}

	r.entries = make([]*Entry, 0, len(view))
	r.byIndex = make(map[int]*Entry, len(view))
	for _, idx := range view {
		t, ok := r.catalog.Track(idx)
		if !ok {
			continue
		}
		e := &Entry{
			Index:       idx,
			ID:          t.ID,
			Title:       t.Title,
			Artist:      t.Artist,
			Description: t.Desc.For(r.lang),
			Group:       t.PrimaryTag(),
			Tags:        append([]string(nil), t.Tags...),
			Duration:    r.durationLabel(idx, t.Length),
			cover:       t.Cover,
		}
		if r.observer != nil && t.Cover != "" {
			e.CoverDeferred = true
			r.observer.Observe(idx)
		} else {
			e.CoverURL = t.Cover
		}
		r.entries = append(r.entries, e)
		r.byIndex[idx] = e
	}
	r.markLocked()
}

func (r *Renderer) durationLabel(idx int, length float64) string {
	if r.durations != nil {
		if label := r.durations.Label(idx); label != utils.DurationPlaceholder {
			return label
		}
	}
	if utils.IsValidDuration(length) {
		return utils.FormatTime(length)
	}
	return utils.DurationPlaceholder
}

func (r *Renderer) markLocked() {
	for _, e := range r.entries {
		e.Active = e.Index == r.current
		e.Playing = e.Active && r.playing
	}
}

func (r *Renderer) snapshotLocked() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = *e
	}
	return out
}

// Entries returns the current rows.
func (r *Renderer) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Reveal loads the deferred cover of a row that became visible.
func (r *Renderer) Reveal(index int) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byIndex[index]
	if !ok {
		return Entry{}, false
	}
	if e.CoverDeferred {
		e.CoverURL = e.cover
		e.CoverDeferred = false
		if r.observer != nil {
			r.observer.Unobserve(index)
		}
	}
	return *e, true
}

// PatchDuration updates the duration of a rendered row in place. It reports
// whether the row is currently rendered.
func (r *Renderer) PatchDuration(index int, label string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byIndex[index]
	if ok {
		e.Duration = label
	}
	return ok
}

// SetPlayback moves the active and playing markers.
func (r *Renderer) SetPlayback(index int, playing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = index
	r.playing = playing
	r.markLocked()
}

// Activate handles a click or Enter/Space on a row.
func (r *Renderer) Activate(index int) (<-chan error, error) {
	return r.selector.Select(index)
}
