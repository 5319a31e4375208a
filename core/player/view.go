package player

import (
	"sync"

	"soundfolio/core/utils"
)

// NowPlaying is the cover/title/artist display of the loaded track.
type NowPlaying struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Cover  string `json:"cover"`
	Source string `json:"source"`
}

// Transport is the play button and "now playing" marker state.
type Transport struct {
	Visible bool   `json:"visible"`
	Icon    string `json:"icon"` // "play" or "pause"
	Playing bool   `json:"playing"`
}

// Progress is the seek bar state.
type Progress struct {
	Percent      float64 `json:"percent"`
	CurrentLabel string  `json:"current"`
	TotalLabel   string  `json:"total"`
	Seekable     bool    `json:"seekable"`
	Dragging     bool    `json:"dragging"`
	// NoTransition disables the fill animation for immediate drag feedback.
	NoTransition bool    `json:"noTransition"`
	HoverVisible bool    `json:"hoverVisible"`
	HoverPercent float64 `json:"hoverPercent"`
	TooltipLabel string  `json:"tooltip"`
	TooltipX     float64 `json:"tooltipX"`
}

// VolumeView is the volume slider and icon state.
type VolumeView struct {
	Level float64 `json:"level"`
	Muted bool    `json:"muted"`
	Icon  string  `json:"icon"`
}

// View is a snapshot of everything a host renders for the player.
type View struct {
	// Version increases with every published change; listeners may receive
	// views out of order and should keep the highest.
	Version    uint64      `json:"version"`
	State      string      `json:"state"`
	Index      int         `json:"index"`
	IsPlaying  bool        `json:"isPlaying"`
	TrackCount int         `json:"trackCount"`
	NowPlaying *NowPlaying `json:"nowPlaying,omitempty"`
	Transport  Transport   `json:"transport"`
	Progress   Progress    `json:"progress"`
	Volume     VolumeView  `json:"volume"`
}

func resetProgress() Progress {
	return Progress{CurrentLabel: utils.FormatTime(0), TotalLabel: utils.FormatTime(0)}
}

// VolumeIcon picks the speaker icon for level.
func VolumeIcon(level float64) string {
	switch {
	case level <= 0:
		return "muted"
	case level < 0.3:
		return "low"
	case level < 0.7:
		return "medium"
	default:
		return "high"
	}
}

// LatestOnly wraps fn so that it sees views in version order. Views older
// than the last one delivered are dropped.
func LatestOnly(fn func(View)) func(View) {
	var (
		mu   sync.Mutex
		last uint64
	)
	return func(v View) {
		mu.Lock()
		defer mu.Unlock()
		if v.Version <= last {
			return
		}
		last = v.Version
		fn(v)
	}
}
