package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"soundfolio/model"
)

// DefaultSourceType is used when a new track's audio type is not given and
// cannot be inferred from the file name.
const DefaultSourceType = "audio/wav"

// TrackInput holds the fields collected by the tracks CLI.
type TrackInput struct {
	ID         string
	Title      string
	Artist     string
	Audio      string
	Cover      string
	Tags       string // comma separated
	Year       string
	Desc       map[string]string // pl, en, nl
	SourceType string
}

// ParseTags splits a comma separated tag list, dropping blanks.
func ParseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// NewTrack builds a catalog entry. An unparsable year falls back to the
// current year; the date is always January 1st of that year.
func NewTrack(in TrackInput) model.Track {
	year, err := strconv.Atoi(strings.TrimSpace(in.Year))
	if err != nil || year <= 0 {
		year = now().Year()
	}

	src := model.Source{URL: in.Audio, Type: in.SourceType}
	if src.Type == "" {
		src.Type = InferType(src)
	}
	if src.Type == "" {
		src.Type = DefaultSourceType
	}

	desc := map[string]string{"pl": "", "en": "", "nl": ""}
	for lang, text := range in.Desc {
		desc[lang] = text
	}

	return model.Track{
		ID:      in.ID,
		Title:   in.Title,
		Artist:  in.Artist,
		Cover:   in.Cover,
		Tags:    ParseTags(in.Tags),
		Date:    time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
		Year:    year,
		Desc:    model.Description{ByLang: desc},
		Sources: []model.Source{src},
	}
}

// GenerateID derives an id from title. Titles that slug to nothing get a
// random id; taken ids get a short random suffix.
func GenerateID(title string, taken func(string) bool) string {
	id := slug.Make(title)
	if id == "" {
		return uuid.NewString()
	}
	if taken == nil || !taken(id) {
		return id
	}
	return id + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}
