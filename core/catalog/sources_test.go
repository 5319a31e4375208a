package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"soundfolio/model"
)

func TestNextSource(t *testing.T) {
	sources := []model.Source{
		{URL: "a.ogg"},
		{URL: ""},
		{URL: "a.mp3"},
	}

	next, ok := NextSource(sources, -1)
	assert.True(t, ok)
	assert.Equal(t, 0, next)

	next, ok = NextSource(sources, 0)
	assert.True(t, ok)
	assert.Equal(t, 2, next, "empty urls are skipped")

	next, ok = NextSource(sources, 2)
	assert.False(t, ok)
	assert.Equal(t, 2, next)

	_, ok = NextSource(nil, -1)
	assert.False(t, ok)
}

func TestInferType(t *testing.T) {
	tests := map[string]string{
		"a.mp3":             "audio/mpeg",
		"A.M4A":             "audio/mp4",
		"x/y.ogg?v=2":       "audio/ogg",
		"song.wav#t=10":     "audio/wav",
		"lossless.flac":     "audio/flac",
		"https://cdn/track": "",
	}
	for url, want := range tests {
		assert.Equal(t, want, InferType(model.Source{URL: url}), url)
	}
	assert.Equal(t, "audio/x-custom", InferType(model.Source{URL: "a.mp3", Type: "audio/x-custom"}))
}
