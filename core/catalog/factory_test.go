package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"techno", "electronic"}, ParseTags(" techno, ,electronic,"))
	assert.Equal(t, []string{}, ParseTags(""))
}

func TestNewTrack(t *testing.T) {
	tr := NewTrack(TrackInput{
		ID:     "night-drive",
		Title:  "Night Drive",
		Artist: "Someone",
		Audio:  "songs/night-drive.mp3",
		Cover:  "images/night.jpg",
		Tags:   "synth,ambient",
		Year:   "2021",
		Desc:   map[string]string{"en": "Late."},
	})

	assert.Equal(t, "2021-01-01", tr.Date)
	assert.Equal(t, 2021, tr.Year)
	assert.Equal(t, []string{"synth", "ambient"}, tr.Tags)
	assert.Equal(t, "audio/mpeg", tr.Sources[0].Type)
	assert.Equal(t, "Late.", tr.Desc.For("en"))
	assert.Equal(t, "", tr.Desc.ByLang["pl"])
	assert.Zero(t, tr.Length)
}

func TestNewTrackDefaults(t *testing.T) {
	fixedNow(t)

	tr := NewTrack(TrackInput{ID: "x", Audio: "songs/x", Year: "soon"})
	assert.Equal(t, 2025, tr.Year)
	assert.Equal(t, "2025-01-01", tr.Date)
	assert.Equal(t, DefaultSourceType, tr.Sources[0].Type)
}

func TestGenerateID(t *testing.T) {
	assert.Equal(t, "zolta-lodz", GenerateID("Żółta Łódź", nil))

	taken := func(id string) bool { return id == "night-drive" }
	id := GenerateID("Night Drive", taken)
	assert.True(t, strings.HasPrefix(id, "night-drive-"))
	assert.Len(t, id, len("night-drive-")+8)

	assert.Len(t, GenerateID("???", nil), 36)
}
