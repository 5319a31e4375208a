package server

import (
	"errors"
	"net/http"

	"soundfolio/core/player"
)

// GetPlaylistHandler returns the rendered playlist, refiltering first when
// filter parameters are present.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogError(); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	v := r.URL.Query()
	if v.Has("q") || v.Has("tag") || v.Has("sort") {
		q := queryFrom(r)
		entries := h.playlist.Apply(q)
		h.player.SetFilter(q.Tag)
		h.hub.Publish(MsgTypePlaylist, entries)
		writeJSON(w, http.StatusOK, entries)
		return
	}
	writeJSON(w, http.StatusOK, h.playlist.Entries())
}

// RevealHandler marks an entry as visible and loads its cover.
func (h *APIHandler) RevealHandler(w http.ResponseWriter, r *http.Request) {
	idx, err := pathIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, ok := h.playlist.Reveal(idx)
	if !ok {
		writeError(w, http.StatusNotFound, "entry not rendered")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ActivateHandler handles a click on a playlist entry.
func (h *APIHandler) ActivateHandler(w http.ResponseWriter, r *http.Request) {
	idx, err := pathIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ch, err := h.playlist.Activate(idx)
	if err != nil {
		if errors.Is(err, player.ErrIndexOutOfRange) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	waitPlay(r, ch)
	writeJSON(w, http.StatusOK, h.player.View())
}
