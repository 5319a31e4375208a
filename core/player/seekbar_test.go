package player

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClickSeeksProportionally(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	require.NoError(t, h.selectAndWait(t, 0))

	require.True(t, h.c.Click(Pointer{X: 50, Width: 100}))
	require.Len(t, h.b.seekLog(), 1)
	assert.InDelta(t, 100.0, h.b.seekLog()[0], 1e-9)

	v := h.c.View()
	assert.Equal(t, 50.0, v.Progress.Percent)
	assert.Equal(t, "1:40", v.Progress.CurrentLabel)
	assert.True(t, h.b.Paused(), "paused for the seek")

	assert.Equal(t, []time.Duration{ClickResumeDelay}, h.sched.pending())
	h.sched.fire(ClickResumeDelay)
	assert.False(t, h.b.Paused())
	assert.Equal(t, 2, h.b.playCount())
}

func TestClickWhilePausedStaysPaused(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	require.NoError(t, h.c.LoadTrack(0))

	require.True(t, h.c.Click(Pointer{X: 25, Width: 100}))
	assert.InDelta(t, 50.0, h.b.seekLog()[0], 1e-9)
	assert.Empty(t, h.sched.pending())
	assert.Zero(t, h.b.playCount())
}

func TestClickClampsOutsideBar(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	require.NoError(t, h.c.LoadTrack(0))

	h.c.Click(Pointer{X: 150, Width: 100})
	h.c.Click(Pointer{X: -20, Width: 100})
	assert.Equal(t, []float64{200, 0}, h.b.seekLog())
}

func TestSeekRejectedOnInvalidDuration(t *testing.T) {
	for _, d := range []float64{0, math.NaN(), math.Inf(1)} {
		h := newHarness(t, testCatalog(1))
		h.b.duration = d
		require.NoError(t, h.c.LoadTrack(0))

		assert.False(t, h.c.Click(Pointer{X: 50, Width: 100}))
		assert.False(t, h.c.PointerDown(Pointer{X: 50, Width: 100}))
		assert.Empty(t, h.b.seekLog())
		assert.False(t, h.c.View().Progress.Seekable)
	}
}

func TestClickWithoutTrackIgnored(t *testing.T) {
	h := newHarness(t, testCatalog(2))
	assert.False(t, h.c.Click(Pointer{X: 50, Width: 100}))
	assert.Empty(t, h.b.seekLog())
}

func TestSubThresholdDragActsAsClick(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	require.NoError(t, h.c.LoadTrack(0))

	var (
		mu       sync.Mutex
		dragging bool
	)
	h.c.OnChange(func(v View) {
		mu.Lock()
		dragging = dragging || v.Progress.Dragging
		mu.Unlock()
	})

	require.True(t, h.c.PointerDown(Pointer{X: 10, Width: 100}))
	h.c.PointerMove(Pointer{X: 12, Width: 100})
	h.c.PointerMove(Pointer{X: 13, Width: 100})
	h.c.PointerUp(Pointer{X: 12, Width: 100})

	mu.Lock()
	assert.False(t, dragging, "no dragging state below the threshold")
	mu.Unlock()
	require.Len(t, h.b.seekLog(), 1)
	assert.InDelta(t, 24.0, h.b.seekLog()[0], 1e-9)
	assert.False(t, h.c.DragActive())
}

func TestDragCommitsOnRelease(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	require.NoError(t, h.selectAndWait(t, 0))

	require.True(t, h.c.PointerDown(Pointer{X: 10, Width: 100}))
	assert.True(t, h.c.DragActive())
	h.c.PointerMove(Pointer{X: 60, Width: 100})

	v := h.c.View()
	assert.True(t, v.Progress.Dragging)
	assert.True(t, v.Progress.NoTransition)
	assert.Equal(t, 60.0, v.Progress.Percent)
	assert.Equal(t, "2:00", v.Progress.CurrentLabel)
	assert.Empty(t, h.b.seekLog(), "no seek until release")

	h.b.setCurrent(20)
	h.clock.advance(time.Second)
	h.c.HandleEvent(Event{Type: EventTimeUpdate})
	assert.Equal(t, 60.0, h.c.View().Progress.Percent, "time updates never move the bar during a drag")

	h.c.PointerUp(Pointer{X: 70, Width: 100})
	v = h.c.View()
	assert.False(t, v.Progress.Dragging)
	assert.False(t, v.Progress.NoTransition)
	assert.Equal(t, 70.0, v.Progress.Percent)
	require.Len(t, h.b.seekLog(), 1)
	assert.InDelta(t, 140.0, h.b.seekLog()[0], 1e-9)
	assert.False(t, h.c.DragActive())
	assert.Equal(t, 2, h.b.playCount(), "playback resumes after the drag")
}

func TestPointerEventsWithoutDragIgnored(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	require.NoError(t, h.c.LoadTrack(0))

	h.c.PointerMove(Pointer{X: 60, Width: 100})
	h.c.PointerUp(Pointer{X: 60, Width: 100})
	assert.Empty(t, h.b.seekLog())
	assert.Zero(t, h.c.View().Progress.Percent)
}

func TestVisibilityHiddenReleasesDrag(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	require.NoError(t, h.c.LoadTrack(0))

	require.True(t, h.c.PointerDown(Pointer{X: 10, Width: 100}))
	h.c.PointerMove(Pointer{X: 80, Width: 100})
	h.c.VisibilityHidden()

	assert.False(t, h.c.DragActive())
	require.Len(t, h.b.seekLog(), 1)
	assert.InDelta(t, 160.0, h.b.seekLog()[0], 1e-9)

	h.c.VisibilityHidden()
	assert.Len(t, h.b.seekLog(), 1)
}

func TestUnloadCancelsDragWithoutSeeking(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	require.NoError(t, h.c.LoadTrack(0))

	require.True(t, h.c.PointerDown(Pointer{X: 10, Width: 100}))
	h.c.PointerMove(Pointer{X: 80, Width: 100})
	h.c.Unload()

	assert.False(t, h.c.DragActive())
	assert.False(t, h.c.View().Progress.Dragging)
	assert.Empty(t, h.b.seekLog())
}

func TestLoadTrackClearsDrag(t *testing.T) {
	h := newHarness(t, testCatalog(2))
	require.NoError(t, h.c.LoadTrack(0))
	require.True(t, h.c.PointerDown(Pointer{X: 10, Width: 100}))
	h.c.PointerMove(Pointer{X: 80, Width: 100})

	require.NoError(t, h.c.LoadTrack(1))
	v := h.c.View()
	assert.False(t, h.c.DragActive())
	assert.False(t, v.Progress.Dragging)
	assert.Zero(t, v.Progress.Percent)
}

func TestHoverThrottledToFrame(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	require.NoError(t, h.c.LoadTrack(0))

	h.c.HoverEnter()
	assert.True(t, h.c.View().Progress.HoverVisible)

	h.c.Hover(Pointer{X: 10, Width: 100})
	h.c.Hover(Pointer{X: 25, Width: 100})
	h.c.Hover(Pointer{X: 50, Width: 100})
	assert.Equal(t, []time.Duration{HoverFrame}, h.sched.pending())

	h.sched.fire(HoverFrame)
	p := h.c.View().Progress
	assert.Equal(t, 50.0, p.HoverPercent)
	assert.Equal(t, "1:40", p.TooltipLabel)
	assert.Equal(t, 50.0, p.TooltipX)
	assert.Empty(t, h.b.seekLog(), "hovering never seeks")
	assert.Zero(t, p.Percent)

	h.c.Hover(Pointer{X: 75, Width: 100})
	h.c.HoverLeave()
	assert.Empty(t, h.sched.pending())
	assert.False(t, h.c.View().Progress.HoverVisible)
}

func TestHoverIgnoredWhileDragging(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	require.NoError(t, h.c.LoadTrack(0))
	require.True(t, h.c.PointerDown(Pointer{X: 10, Width: 100}))

	h.c.Hover(Pointer{X: 50, Width: 100})
	assert.Empty(t, h.sched.pending())
}

func TestHoverEnterOnInvalidDuration(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	h.b.duration = math.NaN()
	require.NoError(t, h.c.LoadTrack(0))

	h.c.HoverEnter()
	p := h.c.View().Progress
	assert.False(t, p.HoverVisible)
	assert.False(t, p.Seekable)
}
