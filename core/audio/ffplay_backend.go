package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"soundfolio/core/player"
	"soundfolio/core/utils"
	"soundfolio/logger"
)

const (
	probeTimeout       = 10 * time.Second
	timeUpdateInterval = 250 * time.Millisecond
)

var errSuperseded = errors.New("play request superseded")

// FFplayBackend plays one source at a time through a headless ffplay
// process. Pausing stops the process and remembers the position; resuming
// starts a new process seeked to it.
type FFplayBackend struct {
	mu         sync.Mutex
	ffplayPath string
	prober     Prober

	src       string
	duration  float64
	position  float64
	startedAt time.Time
	cmd       *exec.Cmd
	volume    float64
	seq       uint64 // bumped by Load and Pause

	events chan player.Event
	stop   chan struct{}
	closed bool
}

// NewFFplayBackend creates a backend and starts its time update ticker.
func NewFFplayBackend(ffplayPath string, prober Prober) *FFplayBackend {
	b := &FFplayBackend{
		ffplayPath: ffplayPath,
		prober:     prober,
		duration:   math.NaN(),
		volume:     1,
		events:     make(chan player.Event, 64),
		stop:       make(chan struct{}),
	}
	go b.tick()
	return b
}

func (b *FFplayBackend) tick() {
	ticker := time.NewTicker(timeUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.mu.Lock()
			if b.cmd != nil {
				b.emit(player.Event{Type: player.EventTimeUpdate})
			}
			b.mu.Unlock()
		}
	}
}

// emit must be called with b.mu held.
func (b *FFplayBackend) emit(ev player.Event) {
	if b.closed {
		return
	}
	select {
	case b.events <- ev:
	default:
		if ev.Type != player.EventTimeUpdate {
			logger.Warn("playback event queue full, dropping event", logger.String("event", string(ev.Type)))
		}
	}
}

// Load replaces the source and probes its duration in the background.
func (b *FFplayBackend) Load(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cmd != nil {
		b.killLocked()
		b.emit(player.Event{Type: player.EventAbort})
	}
	b.seq++
	b.src = url
	b.position = 0
	b.duration = math.NaN()
	if url == "" {
		return
	}

	seq := b.seq
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		d, err := b.prober.ProbeDuration(ctx, url)

		b.mu.Lock()
		defer b.mu.Unlock()
		if seq != b.seq || b.src != url {
			return
		}
		if err != nil {
			b.emit(player.Event{Type: player.EventError, Err: fmt.Errorf("load %s: %w", url, err)})
			return
		}
		b.duration = d
		b.emit(player.Event{Type: player.EventLoadedMetadata})
	}()
}

// Play checks that the source decodes and starts ffplay at the remembered
// position.
func (b *FFplayBackend) Play(ctx context.Context) <-chan error {
	out := make(chan error, 1)

	b.mu.Lock()
	src, seq := b.src, b.seq
	running := b.cmd != nil
	b.mu.Unlock()

	switch {
	case src == "":
		out <- player.ErrNotSupported
		return out
	case running:
		out <- nil
		return out
	}

	go func() {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if _, err := b.prober.ProbeCodec(pctx, src); err != nil {
			if errors.Is(err, ErrNoAudioStream) {
				err = fmt.Errorf("%w: %s", player.ErrNotSupported, src)
			}
			out <- err
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if seq != b.seq {
			out <- errSuperseded
			return
		}
		if b.cmd != nil {
			out <- nil
			return
		}
		out <- b.startLocked()
	}()
	return out
}

func (b *FFplayBackend) startLocked() error {
	args := []string{
		"-nodisp", "-autoexit",
		"-loglevel", "error",
		"-volume", strconv.Itoa(int(math.Round(b.volume * 100))),
	}
	if b.position > 0 {
		args = append(args, "-ss", strconv.FormatFloat(b.position, 'f', 3, 64))
	}
	args = append(args, b.src)

	cmd := exec.Command(b.ffplayPath, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffplay: %w", err)
	}
	b.cmd = cmd
	b.startedAt = time.Now()
	logger.Debug("ffplay started",
		logger.String("src", b.src),
		logger.Float64("position", b.position))

	go b.wait(cmd)
	return nil
}

func (b *FFplayBackend) wait(cmd *exec.Cmd) {
	err := cmd.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cmd != cmd {
		// Stopped by Pause, Seek or Load.
		return
	}
	b.cmd = nil
	if err != nil {
		b.position = b.currentLocked(time.Now())
		b.emit(player.Event{Type: player.EventError, Err: fmt.Errorf("ffplay exited: %w", err)})
		return
	}
	if utils.IsValidDuration(b.duration) {
		b.position = b.duration
	}
	b.emit(player.Event{Type: player.EventEnded})
}

func (b *FFplayBackend) killLocked() {
	if b.cmd == nil {
		return
	}
	b.position = b.currentLocked(time.Now())
	if b.cmd.Process != nil {
		_ = b.cmd.Process.Kill()
	}
	b.cmd = nil
}

func (b *FFplayBackend) restartLocked() {
	if b.cmd == nil {
		return
	}
	b.killLocked()
	if err := b.startLocked(); err != nil {
		b.emit(player.Event{Type: player.EventError, Err: err})
	}
}

func (b *FFplayBackend) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.killLocked()
}

func (b *FFplayBackend) Seek(seconds float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	running := b.cmd != nil
	b.killLocked()
	b.position = math.Max(0, seconds)
	if running {
		if err := b.startLocked(); err != nil {
			b.emit(player.Event{Type: player.EventError, Err: err})
		}
	}
}

// SetVolume takes effect immediately; ffplay is restarted at the current
// position when it is running.
func (b *FFplayBackend) SetVolume(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v = utils.Clamp01(v)
	if v == b.volume {
		return
	}
	b.volume = v
	b.restartLocked()
}

func (b *FFplayBackend) Volume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

func (b *FFplayBackend) currentLocked(now time.Time) float64 {
	pos := b.position
	if b.cmd != nil {
		pos += now.Sub(b.startedAt).Seconds()
	}
	if utils.IsValidDuration(b.duration) && pos > b.duration {
		pos = b.duration
	}
	return pos
}

func (b *FFplayBackend) CurrentTime() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentLocked(time.Now())
}

func (b *FFplayBackend) Duration() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.duration
}

func (b *FFplayBackend) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cmd == nil
}

func (b *FFplayBackend) Seekable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.src != "" && utils.IsValidDuration(b.duration)
}

func (b *FFplayBackend) Events() <-chan player.Event { return b.events }

// Close stops playback and the ticker, then closes the event channel.
func (b *FFplayBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.seq++
	b.killLocked()
	b.closed = true
	close(b.stop)
	close(b.events)
	return nil
}

var _ player.Backend = (*FFplayBackend)(nil)
