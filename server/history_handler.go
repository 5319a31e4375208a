package server

import (
	"net/http"
	"strconv"
	"time"

	"soundfolio/logger"
)

// HistoryHandler returns the most recent plays.
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if h.plays == nil {
		writeError(w, http.StatusNotFound, "play history is disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.plays.Recent(r.Context(), limit)
	if err != nil {
		logger.Error("failed to read play history", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to read play history")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// TopTracksHandler ranks tracks by play count; days defaults to 30.
func (h *APIHandler) TopTracksHandler(w http.ResponseWriter, r *http.Request) {
	if h.plays == nil {
		writeError(w, http.StatusNotFound, "play history is disabled")
		return
	}
	q := r.URL.Query()
	days, err := strconv.Atoi(q.Get("days"))
	if err != nil || days <= 0 {
		days = 30
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	since := time.Now().AddDate(0, 0, -days)
	top, err := h.plays.TopTracks(r.Context(), since, limit)
	if err != nil {
		logger.Error("failed to read top tracks", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to read top tracks")
		return
	}
	writeJSON(w, http.StatusOK, top)
}
