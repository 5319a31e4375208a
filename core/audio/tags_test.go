package audio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTagged(t *testing.T, title, artist, year string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "song.mp3")
	require.NoError(t, os.WriteFile(p, make([]byte, 32), 0644))

	tag, err := id3v2.Open(p, id3v2.Options{Parse: true})
	require.NoError(t, err)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(title)
	tag.SetArtist(artist)
	tag.SetYear(year)
	require.NoError(t, tag.Save())
	require.NoError(t, tag.Close())
	return p
}

func TestReadTagsLocalFile(t *testing.T) {
	p := writeTagged(t, "Night Drive", "Ola", "2021-05-01")

	tags, err := ReadTags(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Night Drive", tags.Title)
	assert.Equal(t, "Ola", tags.Artist)
	assert.Equal(t, 2021, tags.Year)
}

func TestReadTagsOverHTTP(t *testing.T) {
	p := writeTagged(t, "Rain", "Ola", "2019")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, p)
	}))
	defer srv.Close()

	tags, err := ReadTags(context.Background(), srv.URL+"/rain.mp3")
	require.NoError(t, err)
	assert.Equal(t, "Rain", tags.Title)
	assert.Equal(t, 2019, tags.Year)
}

func TestReadTagsMissingFile(t *testing.T) {
	_, err := ReadTags(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"))
	assert.Error(t, err)
}
