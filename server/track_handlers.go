package server

import (
	"net/http"

	"soundfolio/core/catalog"
	"soundfolio/model"

	"github.com/gorilla/mux"
)

// queryFrom reads the q/tag/sort filter parameters.
func queryFrom(r *http.Request) catalog.Query {
	v := r.URL.Query()
	tag := v.Get("tag")
	if tag == "" {
		tag = catalog.TagAll
	}
	return catalog.Query{Text: v.Get("q"), Tag: tag, Sort: catalog.ParseSortOrder(v.Get("sort"))}
}

// trackItem is a catalog track with its index in the catalog.
type trackItem struct {
	Index int `json:"index"`
	model.Track
}

// GetTracksHandler returns the filtered track list.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogError(); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	cat := h.player.Catalog()
	view := catalog.Filter(cat, queryFrom(r))
	items := make([]trackItem, 0, len(view))
	for _, idx := range view {
		if t, ok := cat.Track(idx); ok {
			items = append(items, trackItem{Index: idx, Track: t})
		}
	}
	writeJSON(w, http.StatusOK, items)
}

// GetTrackHandler returns one track by id.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	cat := h.player.Catalog()
	idx, ok := cat.IndexOf(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "track not found")
		return
	}
	t, _ := cat.Track(idx)
	writeJSON(w, http.StatusOK, trackItem{Index: idx, Track: t})
}

// GetTagsHandler returns every tag used in the catalog.
func (h *APIHandler) GetTagsHandler(w http.ResponseWriter, r *http.Request) {
	tags := append([]string{catalog.TagAll}, catalog.Tags(h.player.Catalog())...)
	writeJSON(w, http.StatusOK, tags)
}
