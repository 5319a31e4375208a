package durations

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"soundfolio/core/catalog"
	"soundfolio/core/utils"
	"soundfolio/logger"
	"soundfolio/model"
)

const (
	InitialBatch  = 5
	DeferredDelay = 2 * time.Second
	ProbeTimeout  = 10 * time.Second
	MaxConcurrent = 4 // deferred batch only; the initial batch runs in full
)

// Prober reads the duration of a media URL.
type Prober interface {
	ProbeDuration(ctx context.Context, url string) (float64, error)
}

// Store persists probed durations by source URL across restarts.
type Store interface {
	GetDuration(ctx context.Context, url string) (float64, bool, error)
	SetDuration(ctx context.Context, url string, seconds float64) error
}

// Prefetcher probes unknown durations in the background: the first
// InitialBatch right away and the rest DeferredDelay after that. Failed probes
// are dropped and never retried.
type Prefetcher struct {
	cache      *Cache
	prober     Prober
	store      Store
	onResolved func(index int, label string)

	deferDelay   time.Duration
	probeTimeout time.Duration

	mu      sync.Mutex
	claimed map[int]bool
	gen     uint64
}

// NewPrefetcher wires a prefetcher. store and onResolved may be nil.
func NewPrefetcher(cache *Cache, prober Prober, store Store, onResolved func(index int, label string)) *Prefetcher {
	return &Prefetcher{
		cache:        cache,
		prober:       prober,
		store:        store,
		onResolved:   onResolved,
		deferDelay:   DeferredDelay,
		probeTimeout: ProbeTimeout,
		claimed:      make(map[int]bool),
	}
}

// Cache returns the cache the prefetcher fills.
func (p *Prefetcher) Cache() *Cache { return p.cache }

// Start seeds known lengths and probes the rest in the background.
func (p *Prefetcher) Start(ctx context.Context, cat *catalog.Catalog) {
	tracks, pending, gen := p.prepare(cat)
	go func() {
		if err := p.run(ctx, tracks, pending, gen); err != nil && ctx.Err() == nil {
			logger.Warn("duration prefetch stopped", logger.ErrorField(err))
		}
	}()
}

// Run is the blocking form of Start. It returns when every probe has
// finished or ctx is done.
func (p *Prefetcher) Run(ctx context.Context, cat *catalog.Catalog) error {
	tracks, pending, gen := p.prepare(cat)
	return p.run(ctx, tracks, pending, gen)
}

func (p *Prefetcher) prepare(cat *catalog.Catalog) ([]model.Track, []int, uint64) {
	tracks := cat.Tracks()
	var pending []int
	for i := range tracks {
		if tracks[i].HasKnownLength() {
			p.cache.Set(i, tracks[i].Length)
			continue
		}
		pending = append(pending, i)
	}
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()
	return tracks, pending, gen
}

func (p *Prefetcher) run(ctx context.Context, tracks []model.Track, pending []int, gen uint64) error {
	first := pending
	var rest []int
	if len(pending) > InitialBatch {
		first, rest = pending[:InitialBatch], pending[InitialBatch:]
	}

	// The deferred timer runs alongside the first batch, not after it.
	g, gctx := errgroup.WithContext(ctx)
	for _, i := range first {
		if !p.claim(i, gen) {
			continue
		}
		g.Go(func() error {
			p.probeOne(gctx, i, tracks[i], gen)
			return nil
		})
	}
	if len(rest) > 0 {
		g.Go(func() error {
			timer := time.NewTimer(p.deferDelay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
			p.probeAll(gctx, tracks, rest, gen)
			return nil
		})
	}
	return g.Wait()
}

func (p *Prefetcher) probeAll(ctx context.Context, tracks []model.Track, indices []int, gen uint64) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrent)
	for _, i := range indices {
		if !p.claim(i, gen) {
			continue
		}
		g.Go(func() error {
			p.probeOne(gctx, i, tracks[i], gen)
			return nil
		})
	}
	_ = g.Wait()
}

// claim marks index as probed for this catalog generation.
func (p *Prefetcher) claim(index int, gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.claimed[index] {
		return false
	}
	if _, ok := p.cache.Seconds(index); ok {
		return false
	}
	p.claimed[index] = true
	return true
}

func (p *Prefetcher) probeOne(ctx context.Context, index int, t model.Track, gen uint64) {
	url, ok := probeSource(t)
	if !ok {
		return
	}

	if p.store != nil {
		seconds, found, err := p.store.GetDuration(ctx, url)
		if err != nil {
			logger.Debug("duration store lookup failed", logger.String("url", url), logger.ErrorField(err))
		} else if found && p.publish(index, seconds, gen) {
			return
		}
	}

	pctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()
	seconds, err := p.prober.ProbeDuration(pctx, url)
	if err != nil {
		logger.Debug("duration probe failed",
			logger.String("id", t.ID),
			logger.String("url", url),
			logger.ErrorField(err))
		return
	}
	if !p.publish(index, seconds, gen) {
		return
	}

	if p.store != nil {
		if err := p.store.SetDuration(ctx, url, seconds); err != nil {
			logger.Debug("duration store write failed", logger.String("url", url), logger.ErrorField(err))
		}
	}
}

// publish writes a resolved value unless the catalog was reset meanwhile.
func (p *Prefetcher) publish(index int, seconds float64, gen uint64) bool {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return false
	}
	ok := p.cache.Set(index, seconds)
	p.mu.Unlock()
	if ok && p.onResolved != nil {
		p.onResolved(index, utils.FormatTime(seconds))
	}
	return ok
}

// Resolve records a duration learned elsewhere, such as from the player's
// loaded metadata. The index is never probed afterwards.
func (p *Prefetcher) Resolve(index int, seconds float64) {
	p.mu.Lock()
	if _, ok := p.cache.Seconds(index); ok {
		p.mu.Unlock()
		return
	}
	p.claimed[index] = true
	gen := p.gen
	p.mu.Unlock()
	p.publish(index, seconds, gen)
}

// Reset forgets every duration and in-flight probe. Results of probes that
// started before the reset are discarded.
func (p *Prefetcher) Reset() {
	p.mu.Lock()
	p.gen++
	p.claimed = make(map[int]bool)
	p.cache.Reset()
	p.mu.Unlock()
}

// probeSource picks the first usable non-WAV source. WAV files are large and
// only probed by the player when actually loaded.
func probeSource(t model.Track) (string, bool) {
	for _, s := range t.Sources {
		if s.URL == "" {
			continue
		}
		if catalog.InferType(s) == "audio/wav" || strings.EqualFold(path.Ext(s.URL), ".wav") {
			continue
		}
		return s.URL, true
	}
	return "", false
}
