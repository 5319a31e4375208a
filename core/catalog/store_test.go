package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, withFallback bool) *Store {
	t.Helper()
	s := &Store{Path: filepath.Join(t.TempDir(), "data", "tracks.json")}
	if withFallback {
		s.FallbackPath = writeFallback(t, "seed")
	}
	return s
}

func TestStoreReadMissingIsEmpty(t *testing.T) {
	s := newStore(t, false)
	tracks, err := s.Read()
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestStoreAdd(t *testing.T) {
	fixedNow(t)
	s := newStore(t, true)

	res, err := s.Add(sampleTrack("boss"))
	require.NoError(t, err)
	assert.True(t, res.FallbackUpdated)
	assert.Equal(t, "20250304", res.FallbackTimestamp)

	tracks, err := s.Read()
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "boss", tracks[0].ID)
	assert.Equal(t, "Motyw", tracks[0].Desc.For("pl"))

	ok, err := s.Exists("boss")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Contains(t, readString(t, s.FallbackPath), `id:"boss"`)
}

func TestStoreAddDuplicate(t *testing.T) {
	s := newStore(t, false)
	_, err := s.Add(sampleTrack("boss"))
	require.NoError(t, err)

	_, err = s.Add(sampleTrack("boss"))
	assert.ErrorIs(t, err, ErrDuplicateID)

	tracks, err := s.Read()
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}

func TestStoreAddRequiresID(t *testing.T) {
	s := newStore(t, false)
	_, err := s.Add(sampleTrack(""))
	assert.Error(t, err)
}

func TestStoreRemove(t *testing.T) {
	fixedNow(t)
	s := newStore(t, true)
	for _, id := range []string{"dawn", "boss"} {
		_, err := s.Add(sampleTrack(id))
		require.NoError(t, err)
	}

	res, err := s.Remove("dawn")
	require.NoError(t, err)
	assert.True(t, res.RemovedFromCatalog)
	assert.True(t, res.RemovedFromFallback)

	tracks, err := s.Read()
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "boss", tracks[0].ID)
	assert.NotContains(t, readString(t, s.FallbackPath), `id:"dawn"`)
}

func TestStoreRemoveOnlyInFallback(t *testing.T) {
	s := newStore(t, true)
	res, err := s.Remove("seed")
	require.NoError(t, err)
	assert.False(t, res.RemovedFromCatalog)
	assert.True(t, res.RemovedFromFallback)
}

func TestStoreRemoveUnknownSuggests(t *testing.T) {
	s := newStore(t, false)
	_, err := s.Add(sampleTrack("boss-fight"))
	require.NoError(t, err)

	_, err = s.Remove("boss-fihgt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTrackNotFound))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "boss-fight", nf.Suggestion)
	assert.Contains(t, err.Error(), `did you mean "boss-fight"`)

	_, err = s.Remove("completely-different")
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, nf.Suggestion)
}

func TestStoreReadMalformed(t *testing.T) {
	s := newStore(t, false)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path), 0755))
	require.NoError(t, os.WriteFile(s.Path, []byte(`{"not": "an array"}`), 0644))

	_, err := s.Read()
	le := requireLoadError(t, err, ReasonShape)
	assert.Equal(t, s.Path, le.Source)
}
