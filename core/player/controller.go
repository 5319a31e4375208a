package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"soundfolio/core/catalog"
	"soundfolio/core/utils"
	"soundfolio/logger"
	"soundfolio/model"
)

// Interaction timings.
const (
	DragThreshold      = 3.0 // pixels
	TimeUpdateInterval = 100 * time.Millisecond
	ClickResumeDelay   = 50 * time.Millisecond
	PlayFailureAdvance = 500 * time.Millisecond
	MediaErrorAdvance  = time.Second
	HoverFrame         = 16 * time.Millisecond
	DefaultVolume      = 0.7
)

var (
	ErrNoTrack         = errors.New("no track loaded")
	ErrIndexOutOfRange = errors.New("track index out of range")
)

// VolumeStore persists the volume preference across restarts.
type VolumeStore interface {
	LoadVolume(ctx context.Context) (float64, bool, error)
	SaveVolume(ctx context.Context, v float64) error
}

// PlayRecorder is told once per load when the track first starts playing;
// resumes and seeks within the same load are not plays.
type PlayRecorder interface {
	RecordPlay(ctx context.Context, track model.Track) error
}

// DurationSink receives durations learned from loaded metadata.
type DurationSink interface {
	Resolve(index int, seconds float64)
}

// Option configures a Controller.
type Option func(*Controller)

func WithScheduler(s Scheduler) Option { return func(c *Controller) { c.sched = s } }
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }
func WithVolumeStore(s VolumeStore) Option { return func(c *Controller) { c.volumes = s } }
func WithPlayRecorder(r PlayRecorder) Option { return func(c *Controller) { c.plays = r } }
func WithDurationSink(s DurationSink) Option { return func(c *Controller) { c.durations = s } }

// Controller owns the backend and the single current track. All state sits
// behind one mutex; listeners and persistence run after it is released.
type Controller struct {
	mu      sync.Mutex
	backend Backend
	sched   Scheduler
	now     func() time.Time

	catalog *catalog.Catalog
	state   PlayerState
	phase   State

	sourceCursor int
	loadGen      uint64 // bumped whenever the backend source changes
	intent       uint64 // bumped on every play/pause request
	wantPlay     bool
	failures     int  // auto-advances since the last successful play
	recorded     bool // the loaded track already counted as a play
	version      uint64

	nowPlaying     *NowPlaying
	transport      Transport
	progress       Progress
	previousVolume float64

	lastTimeUpdate time.Time
	advanceTimer   Timer
	resumeTimer    Timer
	hoverTimer     Timer
	pendingHover   *Pointer

	volumes   VolumeStore
	plays     PlayRecorder
	durations DurationSink

	listeners []func(View)
	after     []func()
	silent    bool
}

// NewController creates a controller in the Empty state for cat.
func NewController(backend Backend, cat *catalog.Catalog, opts ...Option) *Controller {
	c := &Controller{
		backend:        backend,
		sched:          realScheduler{},
		now:            time.Now,
		catalog:        cat,
		state:          PlayerState{CurrentTrackIndex: NoTrack, CurrentFilter: catalog.TagAll},
		phase:          StateEmpty,
		transport:      Transport{Icon: "play"},
		progress:       resetProgress(),
		previousVolume: DefaultVolume,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers fn to receive a view after every state change.
func (c *Controller) OnChange(fn func(View)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// update runs fn under the lock, then runs deferred work and notifies
// listeners unless fn marked the change as silent.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	silent := c.silent
	c.silent = false
	after := c.after
	c.after = nil
	var v View
	if !silent {
		c.version++
		v = c.viewLocked()
	}
	listeners := c.listeners
	c.mu.Unlock()

	for _, f := range after {
		f()
	}
	if silent {
		return
	}
	for _, l := range listeners {
		l(v)
	}
}

// View returns a snapshot of the player display state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	level := c.backend.Volume()
	v := View{
		Version:    c.version,
		State:      c.phase.String(),
		Index:      c.state.CurrentTrackIndex,
		IsPlaying:  c.state.IsPlaying,
		TrackCount: c.catalog.Len(),
		Transport:  c.transport,
		Progress:   c.progress,
		Volume:     VolumeView{Level: level, Muted: level <= 0, Icon: VolumeIcon(level)},
	}
	if c.nowPlaying != nil {
		np := *c.nowPlaying
		v.NowPlaying = &np
	}
	return v
}

// State returns the transport state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() PlayerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.drag = nil
	return s
}

// Catalog returns the catalog the controller plays from.
func (c *Controller) Catalog() *catalog.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog
}

// SetFilter records the active tag filter.
func (c *Controller) SetFilter(tag string) {
	c.mu.Lock()
	c.state.CurrentFilter = tag
	c.mu.Unlock()
}

// LoadTrack attaches the track at index and resets the progress display.
// Playback does not start.
func (c *Controller) LoadTrack(index int) error {
	var err error
	c.update(func() {
		c.failures = 0
		err = c.loadLocked(index)
	})
	return err
}

func (c *Controller) loadLocked(index int) error {
	t, ok := c.catalog.Track(index)
	if !ok {
		c.silent = true
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	stopTimer(&c.advanceTimer)
	stopTimer(&c.resumeTimer)
	stopTimer(&c.hoverTimer)
	c.pendingHover = nil
	c.endDragLocked()

	c.sourceCursor = 0
	if first, ok := catalog.NextSource(t.Sources, -1); ok {
		c.sourceCursor = first
	}
	url := ""
	if c.sourceCursor < len(t.Sources) {
		url = t.Sources[c.sourceCursor].URL
	}

	c.state.CurrentTrackIndex = index
	c.state.IsPlaying = false
	c.wantPlay = false
	c.intent++
	c.loadGen++
	c.recorded = false
	c.phase = StateLoaded
	c.nowPlaying = &NowPlaying{ID: t.ID, Title: t.Title, Artist: t.Artist, Cover: t.Cover, Source: url}
	c.transport.Icon = "play"
	c.transport.Playing = false
	c.progress = resetProgress()

	c.backend.Load(url)
	logger.Debug("track loaded",
		logger.Int("index", index),
		logger.String("id", t.ID),
		logger.String("source", url))
	return nil
}

// Play asks the backend to start playback. The result arrives on the
// returned channel once the backend has accepted or rejected the request.
func (c *Controller) Play() <-chan error {
	var ch <-chan error
	c.update(func() { ch = c.playLocked() })
	return ch
}

func (c *Controller) playLocked() <-chan error {
	out := make(chan error, 1)
	if c.phase == StateEmpty {
		c.silent = true
		out <- ErrNoTrack
		close(out)
		return out
	}

	c.intent++
	c.wantPlay = true
	intent := c.intent
	res := c.backend.Play(context.Background())
	go func() {
		err := <-res
		c.update(func() { c.finishPlayLocked(intent, err) })
		out <- err
		close(out)
	}()
	c.silent = true
	return out
}

func (c *Controller) finishPlayLocked(intent uint64, err error) {
	if intent != c.intent {
		// Superseded by a later load, play or pause.
		c.silent = true
		return
	}

	if err == nil {
		c.state.IsPlaying = true
		c.phase = StatePlaying
		c.failures = 0
		c.transport = Transport{Visible: true, Icon: "pause", Playing: true}
		if t, ok := c.catalog.Track(c.state.CurrentTrackIndex); ok && c.plays != nil && !c.recorded {
			c.recorded = true
			rec := c.plays
			c.after = append(c.after, func() { go recordPlay(rec, t) })
		}
		return
	}

	logger.Warn("playback failed to start", logger.ErrorField(err),
		logger.Int("index", c.state.CurrentTrackIndex))
	c.state.IsPlaying = false
	c.wantPlay = false
	if c.phase == StatePlaying {
		c.phase = StatePaused
	}
	c.transport.Icon = "play"
	c.transport.Playing = false

	if errors.Is(err, ErrNotSupported) && c.catalog.Len() > 1 {
		c.scheduleAdvanceLocked(PlayFailureAdvance, true)
	}
}

func recordPlay(rec PlayRecorder, t model.Track) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rec.RecordPlay(ctx, t); err != nil {
		logger.Warn("failed to record play", logger.String("id", t.ID), logger.ErrorField(err))
	}
}

// Pause stops playback immediately.
func (c *Controller) Pause() { c.update(c.pauseLocked) }

func (c *Controller) pauseLocked() {
	c.intent++
	c.wantPlay = false
	stopTimer(&c.resumeTimer)
	c.backend.Pause()
	c.state.IsPlaying = false
	if c.phase == StatePlaying {
		c.phase = StatePaused
	}
	c.transport.Icon = "play"
	c.transport.Playing = false
}

// TogglePlay pauses when playing and plays otherwise.
func (c *Controller) TogglePlay() <-chan error {
	var ch <-chan error
	c.update(func() { ch = c.toggleLocked() })
	return ch
}

func (c *Controller) toggleLocked() <-chan error {
	if c.state.IsPlaying {
		c.pauseLocked()
		return done(nil)
	}
	return c.playLocked()
}

// NextTrack moves to the following track, wrapping at the end. Playback
// resumes when the player was playing.
func (c *Controller) NextTrack() {
	c.update(func() {
		c.failures = 0
		c.stepLocked(1, c.state.IsPlaying)
	})
}

// PrevTrack moves to the preceding track, wrapping at the start.
func (c *Controller) PrevTrack() {
	c.update(func() {
		c.failures = 0
		c.stepLocked(-1, c.state.IsPlaying)
	})
}

func (c *Controller) stepLocked(delta int, resume bool) {
	n := c.catalog.Len()
	if n == 0 {
		c.silent = true
		return
	}
	next := 0
	switch cur := c.state.CurrentTrackIndex; {
	case cur == NoTrack && delta < 0:
		next = n - 1
	case cur == NoTrack:
		next = 0
	default:
		next = ((cur+delta)%n + n) % n
	}
	if err := c.loadLocked(next); err != nil {
		return
	}
	if resume {
		c.playLocked()
		c.silent = false
	}
}

// Select implements the playlist entry contract: selecting the loaded track
// toggles play/pause, selecting any other track loads and plays it.
func (c *Controller) Select(index int) (<-chan error, error) {
	var (
		ch  <-chan error
		err error
	)
	c.update(func() {
		if _, ok := c.catalog.Track(index); !ok {
			c.silent = true
			err = fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
			return
		}
		if index == c.state.CurrentTrackIndex && c.phase != StateEmpty {
			ch = c.toggleLocked()
			c.silent = false
			return
		}
		// A user pick starts a fresh failure streak; only timer-driven
		// advances keep counting.
		c.failures = 0
		if err = c.loadLocked(index); err != nil {
			return
		}
		ch = c.playLocked()
		c.silent = false
	})
	return ch, err
}

func (c *Controller) scheduleAdvanceLocked(d time.Duration, resume bool) {
	stopTimer(&c.advanceTimer)
	c.failures++
	if c.failures >= c.catalog.Len() {
		// Every track failed in a row; keep loading but stop retrying playback.
		resume = false
	}
	gen := c.loadGen
	c.advanceTimer = c.sched.AfterFunc(d, func() {
		c.update(func() {
			if gen != c.loadGen {
				c.silent = true
				return
			}
			c.advanceTimer = nil
			c.stepLocked(1, resume)
		})
	})
}

// SetCatalog swaps in a reloaded catalog. The current track keeps playing
// when its id still exists; otherwise the player returns to Empty.
func (c *Controller) SetCatalog(cat *catalog.Catalog) {
	c.update(func() {
		c.catalog = cat
		if c.nowPlaying != nil {
			if i, ok := cat.IndexOf(c.nowPlaying.ID); ok {
				c.state.CurrentTrackIndex = i
				return
			}
		}
		if c.phase == StateEmpty {
			return
		}
		stopTimer(&c.advanceTimer)
		stopTimer(&c.resumeTimer)
		stopTimer(&c.hoverTimer)
		c.endDragLocked()
		c.backend.Pause()
		c.intent++
		c.loadGen++
		c.wantPlay = false
		c.state.CurrentTrackIndex = NoTrack
		c.state.IsPlaying = false
		c.phase = StateEmpty
		c.nowPlaying = nil
		c.transport = Transport{Icon: "play"}
		c.progress = resetProgress()
	})
}

// HandleEvent applies a backend media event.
func (c *Controller) HandleEvent(ev Event) {
	c.update(func() {
		if c.phase == StateEmpty {
			c.silent = true
			return
		}
		switch ev.Type {
		case EventLoadedMetadata:
			c.loadedMetadataLocked()
		case EventTimeUpdate:
			c.timeUpdateLocked()
		case EventEnded:
			c.stepLocked(1, c.state.IsPlaying)
		case EventError:
			c.mediaErrorLocked(ev.Err)
		case EventAbort:
			c.progress.Seekable = false
		default:
			c.silent = true
		}
	})
}

func (c *Controller) loadedMetadataLocked() {
	d := c.backend.Duration()
	if !utils.IsValidDuration(d) {
		c.progress.TotalLabel = utils.FormatTime(0)
		c.progress.Seekable = false
		return
	}
	c.progress.TotalLabel = utils.FormatTime(d)
	c.progress.Seekable = true
	if sink := c.durations; sink != nil {
		idx := c.state.CurrentTrackIndex
		c.after = append(c.after, func() { sink.Resolve(idx, d) })
	}
}

func (c *Controller) timeUpdateLocked() {
	now := c.now()
	if now.Sub(c.lastTimeUpdate) < TimeUpdateInterval {
		c.silent = true
		return
	}
	c.lastTimeUpdate = now

	// A drag owns the bar until release.
	if c.state.drag != nil {
		c.silent = true
		return
	}
	d := c.backend.Duration()
	if !utils.IsValidDuration(d) {
		c.progress.Seekable = false
		return
	}
	cur := c.backend.CurrentTime()
	c.progress.Percent = utils.Clamp01(cur/d) * 100
	c.progress.CurrentLabel = utils.FormatTime(cur)
	c.progress.Seekable = true
}

func (c *Controller) mediaErrorLocked(cause error) {
	t, ok := c.catalog.Track(c.state.CurrentTrackIndex)
	if ok {
		if next, more := catalog.NextSource(t.Sources, c.sourceCursor); more {
			logger.Warn("source failed, trying fallback",
				logger.String("id", t.ID),
				logger.String("failed", t.Sources[c.sourceCursor].URL),
				logger.String("next", t.Sources[next].URL),
				logger.ErrorField(cause))
			resume := c.wantPlay || c.state.IsPlaying
			c.sourceCursor = next
			c.loadGen++
			c.progress = resetProgress()
			c.nowPlaying.Source = t.Sources[next].URL
			c.backend.Load(t.Sources[next].URL)
			if resume {
				c.playLocked()
				c.silent = false
			}
			return
		}
	}

	logger.Warn("media error", logger.Int("index", c.state.CurrentTrackIndex), logger.ErrorField(cause))
	resume := c.wantPlay || c.state.IsPlaying
	c.endDragLocked()
	stopTimer(&c.hoverTimer)
	c.pendingHover = nil
	c.pauseLocked()
	c.progress = resetProgress()
	c.phase = StateError
	if c.catalog.Len() > 1 {
		c.scheduleAdvanceLocked(MediaErrorAdvance, resume)
	}
}

// Run consumes backend events until ctx is done or the backend closes.
func (c *Controller) Run(ctx context.Context) {
	events := c.backend.Events()
	for {
		select {
		case <-ctx.Done():
			c.Unload()
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.HandleEvent(ev)
		}
	}
}

// Unload ends any drag without seeking and cancels pending timers.
func (c *Controller) Unload() {
	c.update(func() {
		c.endDragLocked()
		stopTimer(&c.advanceTimer)
		stopTimer(&c.resumeTimer)
		stopTimer(&c.hoverTimer)
		c.pendingHover = nil
	})
}

func done(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}
