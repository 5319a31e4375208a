package catalog

import (
	"path"
	"strings"

	"soundfolio/model"
)

// InferType guesses a MIME type from the URL extension when a source omits it.
func InferType(src model.Source) string {
	if src.Type != "" {
		return src.Type
	}
	u := strings.ToLower(src.URL)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	switch path.Ext(u) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	}
	return ""
}

// NextSource advances the fallback cursor after the source at cursor failed.
// Sources are tried in catalog order; ok is false once every candidate has
// been tried.
func NextSource(sources []model.Source, cursor int) (next int, ok bool) {
	for next = cursor + 1; next < len(sources); next++ {
		if next >= 0 && sources[next].URL != "" {
			return next, true
		}
	}
	return cursor, false
}
