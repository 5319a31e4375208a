package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundfolio/core/catalog"
	"soundfolio/core/durations"
	"soundfolio/model"
)

type recordingSelector struct {
	selected []int
}

func (s *recordingSelector) Select(index int) (<-chan error, error) {
	s.selected = append(s.selected, index)
	ch := make(chan error, 1)
	ch <- nil
	return ch, nil
}

func fixture() *catalog.Catalog {
	return catalog.New([]model.Track{
		{ID: "dawn", Title: "Dawn", Artist: "Ana", Cover: "covers/dawn.jpg", Tags: []string{"ambient"}, Date: "2023-01-01",
			Desc: model.Description{ByLang: map[string]string{"en": "Morning", "pl": "Poranek"}},
			Sources: []model.Source{{URL: "dawn.mp3"}}},
		{ID: "boss", Title: "Boss Fight", Artist: "Ana", Cover: "covers/boss.jpg", Tags: []string{"game", "orchestral"}, Date: "2024-05-01", Length: 125,
			Sources: []model.Source{{URL: "boss.mp3"}}},
		{ID: "loose", Title: "Loose End", Artist: "Bo", Cover: "", Date: "2022-03-03",
			Desc: model.Description{Plain: "legacy text"},
			Sources: []model.Source{{URL: "loose.mp3"}}},
	})
}

func countPlaying(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if e.Playing {
			n++
		}
	}
	return n
}

func TestRenderBuildsEntries(t *testing.T) {
	r := NewRenderer(fixture(), durations.NewCache(), &recordingSelector{}, WithLanguage("pl"))
	entries := r.Render([]int{0, 1, 2})
	require.Len(t, entries, 3)

	assert.Equal(t, "Poranek", entries[0].Description)
	assert.Equal(t, "ambient", entries[0].Group)
	assert.Equal(t, "covers/dawn.jpg", entries[0].CoverURL)
	assert.False(t, entries[0].CoverDeferred)
	assert.Equal(t, "--:--", entries[0].Duration)

	assert.Equal(t, "game", entries[1].Group)
	assert.Equal(t, "2:05", entries[1].Duration)

	assert.Equal(t, "other", entries[2].Group)
	assert.Equal(t, "legacy text", entries[2].Description)
}

func TestApplyFiltersAndSorts(t *testing.T) {
	r := NewRenderer(fixture(), nil, &recordingSelector{})

	entries := r.Apply(catalog.Query{Tag: catalog.TagAll})
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"boss", "dawn", "loose"}, ids(entries), "newest first by default")

	entries = r.Apply(catalog.Query{Tag: "game"})
	assert.Equal(t, []string{"boss"}, ids(entries))
	assert.Equal(t, "game", r.Query().Tag)

	entries = r.Apply(catalog.Query{Text: "ana", Sort: catalog.SortTitle})
	assert.Equal(t, []string{"boss", "dawn"}, ids(entries))
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestPlaybackMarkers(t *testing.T) {
	r := NewRenderer(fixture(), nil, &recordingSelector{})
	r.Render([]int{0, 1, 2})

	r.SetPlayback(1, true)
	entries := r.Entries()
	assert.True(t, entries[1].Active)
	assert.True(t, entries[1].Playing)
	assert.Equal(t, 1, countPlaying(entries))

	r.SetPlayback(2, false)
	entries = r.Entries()
	assert.True(t, entries[2].Active)
	assert.False(t, entries[1].Active)
	assert.Zero(t, countPlaying(entries))

	r.SetPlayback(0, true)
	entries = r.Render([]int{1, 2})
	assert.Zero(t, countPlaying(entries), "the playing track is filtered out")
	entries = r.Render([]int{0, 1, 2})
	assert.Equal(t, 1, countPlaying(entries))
	assert.True(t, entries[0].Playing)
}

func TestDeferredCovers(t *testing.T) {
	obs := NewObservedSet()
	r := NewRenderer(fixture(), nil, &recordingSelector{}, WithObserver(obs))

	entries := r.Render([]int{0, 1, 2})
	assert.Empty(t, entries[0].CoverURL)
	assert.True(t, entries[0].CoverDeferred)
	assert.False(t, entries[2].CoverDeferred, "no cover, nothing to defer")
	assert.Equal(t, []int{0, 1}, obs.Pending())

	e, ok := r.Reveal(1)
	require.True(t, ok)
	assert.Equal(t, "covers/boss.jpg", e.CoverURL)
	assert.False(t, e.CoverDeferred)
	assert.Equal(t, []int{0}, obs.Pending())

	e, ok = r.Reveal(1)
	require.True(t, ok)
	assert.Equal(t, "covers/boss.jpg", e.CoverURL)

	_, ok = r.Reveal(9)
	assert.False(t, ok)

	r.Render([]int{2})
	assert.Empty(t, obs.Pending(), "repaint drops observers of removed rows")
}

func TestPatchDuration(t *testing.T) {
	cache := durations.NewCache()
	r := NewRenderer(fixture(), cache, &recordingSelector{})
	r.Render([]int{0, 2})

	assert.False(t, r.PatchDuration(1, "2:05"), "row not rendered")
	require.True(t, r.PatchDuration(0, "3:10"))
	assert.Equal(t, "3:10", r.Entries()[0].Duration)
	assert.Equal(t, "--:--", r.Entries()[1].Duration)

	cache.Set(0, 190)
	entries := r.Render([]int{0})
	assert.Equal(t, "3:10", entries[0].Duration, "later renders use the cached value")
}

func TestActivateDelegatesToSelector(t *testing.T) {
	sel := &recordingSelector{}
	r := NewRenderer(fixture(), nil, sel)
	_, err := r.Activate(2)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, sel.selected)
}

func TestSetCatalogRepaints(t *testing.T) {
	r := NewRenderer(fixture(), nil, &recordingSelector{})
	r.Apply(catalog.Query{Tag: "ambient"})

	entries := r.SetCatalog(catalog.New(fixture().Tracks()[1:]))
	assert.Empty(t, entries)

	entries = r.Apply(catalog.Query{})
	assert.Len(t, entries, 2)
}
