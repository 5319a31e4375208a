package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"soundfolio/core/auth"
	"soundfolio/core/player"
	"soundfolio/core/playlist"
	"soundfolio/logger"
	"soundfolio/repository"

	"github.com/gorilla/mux"
)

// playWait bounds how long a request waits for playback to start before
// answering with the current view.
const playWait = 3 * time.Second

// APIHandler serves every API request.
type APIHandler struct {
	player   *player.Controller
	playlist *playlist.Renderer
	hub      *Hub
	issuer   *auth.Issuer              // nil disables token checks
	plays    repository.PlayRepository // nil disables play history

	mu         sync.RWMutex
	catalogErr error
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(
	ctrl *player.Controller,
	renderer *playlist.Renderer,
	hub *Hub,
	issuer *auth.Issuer,
	plays repository.PlayRepository,
) *APIHandler {
	return &APIHandler{
		player:   ctrl,
		playlist: renderer,
		hub:      hub,
		issuer:   issuer,
		plays:    plays,
	}
}

// SetCatalogError records why the catalog could not be loaded; nil clears it.
// The message is reported verbatim to listeners.
func (h *APIHandler) SetCatalogError(err error) {
	h.mu.Lock()
	h.catalogErr = err
	h.mu.Unlock()
	if err != nil && h.hub != nil {
		h.hub.Publish(MsgTypeError, errorBody{Error: err.Error()})
	}
}

func (h *APIHandler) catalogError() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.catalogErr
}

// CatalogGuard answers 503 with the load error while the catalog is
// unavailable.
func (h *APIHandler) CatalogGuard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.catalogError(); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		next(w, r)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

func pathIndex(r *http.Request) (int, error) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || idx < 0 {
		return 0, errors.New("invalid track index")
	}
	return idx, nil
}

// waitPlay waits for a play attempt to settle. Failures are handled by the
// controller itself, so only the timing matters here.
func waitPlay(r *http.Request, ch <-chan error) {
	if ch == nil {
		return
	}
	t := time.NewTimer(playWait)
	defer t.Stop()
	select {
	case <-ch:
	case <-t.C:
	case <-r.Context().Done():
	}
}
