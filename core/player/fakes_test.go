package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"soundfolio/core/catalog"
	"soundfolio/model"
)

type fakeBackend struct {
	mu          sync.Mutex
	src         string
	loads       []string
	playResults []error
	plays       int
	paused      bool
	current     float64
	duration    float64
	volume      float64
	seeks       []float64
	events      chan Event
}

func newFakeBackend(duration float64) *fakeBackend {
	return &fakeBackend{paused: true, duration: duration, volume: 1, events: make(chan Event, 16)}
}

func (b *fakeBackend) Load(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.src = url
	b.loads = append(b.loads, url)
	b.paused = true
	b.current = 0
}

func (b *fakeBackend) Play(ctx context.Context) <-chan error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.plays++
	var err error
	if len(b.playResults) > 0 {
		err = b.playResults[0]
		b.playResults = b.playResults[1:]
	}
	if err == nil {
		b.paused = false
	}
	ch := make(chan error, 1)
	ch <- err
	return ch
}

func (b *fakeBackend) Pause() {
	b.mu.Lock()
	b.paused = true
	b.mu.Unlock()
}

func (b *fakeBackend) Seek(s float64) {
	b.mu.Lock()
	b.seeks = append(b.seeks, s)
	b.current = s
	b.mu.Unlock()
}

func (b *fakeBackend) SetVolume(v float64) {
	b.mu.Lock()
	b.volume = v
	b.mu.Unlock()
}

func (b *fakeBackend) Volume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

func (b *fakeBackend) CurrentTime() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *fakeBackend) setCurrent(s float64) {
	b.mu.Lock()
	b.current = s
	b.mu.Unlock()
}

func (b *fakeBackend) Duration() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.duration
}

func (b *fakeBackend) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

func (b *fakeBackend) Seekable() bool { return true }
func (b *fakeBackend) Events() <-chan Event { return b.events }
func (b *fakeBackend) Close() error { return nil }

func (b *fakeBackend) playCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.plays
}

func (b *fakeBackend) seekLog() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]float64(nil), b.seeks...)
}

func (b *fakeBackend) loadLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.loads...)
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return &fakeTimerHandle{s: s, t: t}
}

type fakeTimerHandle struct {
	s *fakeScheduler
	t *fakeTimer
}

func (h *fakeTimerHandle) Stop() bool {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	active := !h.t.stopped && !h.t.fired
	h.t.stopped = true
	return active
}

// pending returns the delays of timers that have neither fired nor stopped.
func (s *fakeScheduler) pending() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Duration
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.d)
		}
	}
	return out
}

// fire runs every pending timer with delay d and returns how many ran.
func (s *fakeScheduler) fire(d time.Duration) int {
	s.mu.Lock()
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.d == d {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeVolumeStore struct {
	mu     sync.Mutex
	stored float64
	has    bool
	saves  []float64
}

func (s *fakeVolumeStore) LoadVolume(ctx context.Context) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stored, s.has, nil
}

func (s *fakeVolumeStore) SaveVolume(ctx context.Context, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored, s.has = v, true
	s.saves = append(s.saves, v)
	return nil
}

type sinkCall struct {
	index   int
	seconds float64
}

type fakeSink struct {
	mu    sync.Mutex
	calls []sinkCall
}

func (s *fakeSink) Resolve(index int, seconds float64) {
	s.mu.Lock()
	s.calls = append(s.calls, sinkCall{index, seconds})
	s.mu.Unlock()
}

func testCatalog(n int) *catalog.Catalog {
	tracks := make([]model.Track, n)
	for i := range tracks {
		id := string(rune('a' + i))
		tracks[i] = model.Track{
			ID:      id,
			Title:   "Track " + id,
			Artist:  "Artist",
			Cover:   "covers/" + id + ".jpg",
			Sources: []model.Source{{URL: "audio/" + id + ".mp3", Type: "audio/mpeg"}},
		}
	}
	return catalog.New(tracks)
}

type harness struct {
	c     *Controller
	b     *fakeBackend
	sched *fakeScheduler
	clock *fakeClock
}

func newHarness(t *testing.T, cat *catalog.Catalog, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		b:     newFakeBackend(200),
		sched: &fakeScheduler{},
		clock: &fakeClock{now: time.Unix(1_700_000_000, 0)},
	}
	opts = append([]Option{WithScheduler(h.sched), WithClock(h.clock.Now)}, opts...)
	h.c = NewController(h.b, cat, opts...)
	return h
}

// selectAndWait selects index and waits for the play result.
func (h *harness) selectAndWait(t *testing.T, index int) error {
	t.Helper()
	ch, err := h.c.Select(index)
	require.NoError(t, err)
	select {
	case err := <-ch:
		return err
	case <-time.After(time.Second):
		t.Fatal("play result not delivered")
		return nil
	}
}

func (h *harness) waitPlaying(t *testing.T, want bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.c.Snapshot().IsPlaying == want
	}, time.Second, 5*time.Millisecond)
}

type fakeRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *fakeRecorder) RecordPlay(ctx context.Context, t model.Track) error {
	r.mu.Lock()
	r.ids = append(r.ids, t.ID)
	r.mu.Unlock()
	return nil
}

func (r *fakeRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}
