package server

import (
	"errors"
	"net/http"

	"soundfolio/core/player"
)

// Drag and hover phases accepted by the seek bar endpoints.
const (
	phaseDown  = "down"
	phaseMove  = "move"
	phaseUp    = "up"
	phaseEnter = "enter"
	phaseLeave = "leave"
	phaseHide  = "hidden"
)

type seekRequest struct {
	Percent float64 `json:"percent"`
}

type pointerRequest struct {
	Phase string  `json:"phase"`
	X     float64 `json:"x"`
	Width float64 `json:"width"`
}

func (p pointerRequest) pointer() player.Pointer {
	return player.Pointer{X: p.X, Width: p.Width}
}

type volumeRequest struct {
	Volume float64 `json:"volume"`
}

// GetPlayerHandler returns the player view.
func (h *APIHandler) GetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.player.View())
}

// SelectHandler toggles the current track, or loads and plays any other.
func (h *APIHandler) SelectHandler(w http.ResponseWriter, r *http.Request) {
	idx, err := pathIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ch, err := h.player.Select(idx)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, player.ErrIndexOutOfRange) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	waitPlay(r, ch)
	writeJSON(w, http.StatusOK, h.player.View())
}

// ToggleHandler plays or pauses.
func (h *APIHandler) ToggleHandler(w http.ResponseWriter, r *http.Request) {
	waitPlay(r, h.player.TogglePlay())
	writeJSON(w, http.StatusOK, h.player.View())
}

// NextHandler skips forward.
func (h *APIHandler) NextHandler(w http.ResponseWriter, r *http.Request) {
	h.player.NextTrack()
	writeJSON(w, http.StatusOK, h.player.View())
}

// PrevHandler skips back.
func (h *APIHandler) PrevHandler(w http.ResponseWriter, r *http.Request) {
	h.player.PrevTrack()
	writeJSON(w, http.StatusOK, h.player.View())
}

// SeekHandler handles a click on the seek bar; percent is 0-100.
func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.player.Click(player.Pointer{X: req.Percent, Width: 100}) {
		writeError(w, http.StatusConflict, "track is not seekable")
		return
	}
	writeJSON(w, http.StatusOK, h.player.View())
}

// DragHandler handles seek bar drags.
func (h *APIHandler) DragHandler(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch req.Phase {
	case phaseDown:
		if !h.player.PointerDown(req.pointer()) {
			writeError(w, http.StatusConflict, "track is not seekable")
			return
		}
	case phaseMove:
		h.player.PointerMove(req.pointer())
	case phaseUp:
		h.player.PointerUp(req.pointer())
	case phaseHide:
		h.player.VisibilityHidden()
	default:
		writeError(w, http.StatusBadRequest, "phase must be down, move, up or hidden")
		return
	}
	writeJSON(w, http.StatusOK, h.player.View())
}

// HoverHandler drives the seek bar time tooltip.
func (h *APIHandler) HoverHandler(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch req.Phase {
	case phaseEnter:
		h.player.HoverEnter()
	case "", phaseMove:
		h.player.Hover(req.pointer())
	case phaseLeave:
		h.player.HoverLeave()
	default:
		writeError(w, http.StatusBadRequest, "phase must be enter, move or leave")
		return
	}
	writeJSON(w, http.StatusOK, h.player.View())
}

// VolumeHandler sets the volume.
func (h *APIHandler) VolumeHandler(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.player.SetVolume(req.Volume)
	writeJSON(w, http.StatusOK, h.player.View())
}

// MuteHandler toggles mute.
func (h *APIHandler) MuteHandler(w http.ResponseWriter, r *http.Request) {
	h.player.ToggleMute()
	writeJSON(w, http.StatusOK, h.player.View())
}

// PlayerSocketHandler upgrades to a WebSocket that streams player views.
func (h *APIHandler) PlayerSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}
	client := &Client{Hub: h.hub, Conn: conn, Send: make(chan []byte, sendBuffer)}
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump()
}
