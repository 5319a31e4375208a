// Package player implements the playback controller: one audio backend, one
// current track, transport and seek-bar interactions.
package player

import (
	"context"
	"errors"
)

// EventType names a media event emitted by a Backend.
type EventType string

const (
	EventLoadedMetadata EventType = "loadedmetadata"
	EventTimeUpdate     EventType = "timeupdate"
	EventEnded          EventType = "ended"
	EventError          EventType = "error"
	EventAbort          EventType = "abort"
)

// Event is a media event. Err is set for EventError.
type Event struct {
	Type EventType
	Err  error
}

// ErrNotSupported is returned by Backend.Play when the loaded source cannot be
// decoded at all.
var ErrNotSupported = errors.New("media format not supported")

// Backend abstracts the single audio element the controller owns. Loading a
// new URL replaces the current source and implicitly abandons any pending load.
type Backend interface {
	Load(url string)
	// Play starts playback. The returned channel yields exactly one value:
	// nil on success, or the reason playback could not start.
	Play(ctx context.Context) <-chan error
	Pause()
	Seek(seconds float64)
	SetVolume(v float64)
	Volume() float64
	CurrentTime() float64
	Duration() float64
	Paused() bool
	Seekable() bool
	Events() <-chan Event
	Close() error
}
