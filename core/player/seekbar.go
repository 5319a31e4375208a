package player

import (
	"math"

	"soundfolio/core/utils"
)

// Pointer is a pointer position relative to the left edge of the seek bar.
type Pointer struct {
	X     float64 `json:"x"`
	Width float64 `json:"width"`
}

func (p Pointer) fraction() float64 {
	if p.Width <= 0 {
		return 0
	}
	return utils.Clamp01(p.X / p.Width)
}

// seekableLocked reports whether the backend can take a seek right now.
func (c *Controller) seekableLocked() (float64, bool) {
	if c.phase == StateEmpty {
		return 0, false
	}
	d := c.backend.Duration()
	if !utils.IsValidDuration(d) {
		c.progress.Seekable = false
		return 0, false
	}
	return d, true
}

// Click seeks to the clicked position, keeping the play/pause state. A
// playing track is paused for the seek and resumes shortly after.
func (c *Controller) Click(p Pointer) bool {
	var ok bool
	c.update(func() { ok = c.clickSeekLocked(p) })
	return ok
}

func (c *Controller) clickSeekLocked(p Pointer) bool {
	d, ok := c.seekableLocked()
	if !ok || !c.backend.Seekable() {
		return false
	}

	frac := p.fraction()
	target := frac * d
	c.progress.Percent = frac * 100
	c.progress.CurrentLabel = utils.FormatTime(target)

	wasPlaying := !c.backend.Paused()
	if wasPlaying {
		c.backend.Pause()
	}
	c.backend.Seek(target)

	if wasPlaying {
		stopTimer(&c.resumeTimer)
		gen := c.loadGen
		c.resumeTimer = c.sched.AfterFunc(ClickResumeDelay, func() {
			c.update(func() {
				if gen != c.loadGen {
					c.silent = true
					return
				}
				c.resumeTimer = nil
				c.playLocked()
			})
		})
	}
	return true
}

// PointerDown starts a drag session. Hosts deliver PointerMove and PointerUp
// only while DragActive reports true, and do not send a separate Click for
// the same press.
func (c *Controller) PointerDown(p Pointer) bool {
	var ok bool
	c.update(func() {
		c.silent = true
		if _, valid := c.seekableLocked(); !valid {
			c.silent = false
			return
		}
		c.endDragLocked()
		c.state.drag = &dragSession{
			startX:     p.X,
			lastX:      p.X,
			width:      p.Width,
			wasPlaying: !c.backend.Paused(),
		}
		ok = true
	})
	return ok
}

// PointerMove follows the pointer during a drag. Nothing is drawn until the
// pointer has moved past DragThreshold.
func (c *Controller) PointerMove(p Pointer) {
	c.update(func() {
		s := c.state.drag
		if s == nil {
			c.silent = true
			return
		}
		s.lastX = p.X
		if p.Width > 0 {
			s.width = p.Width
		}
		if !s.moved && math.Abs(p.X-s.startX) > DragThreshold {
			s.moved = true
			c.progress.Dragging = true
			c.progress.NoTransition = true
		}
		if !s.moved {
			c.silent = true
			return
		}
		frac := Pointer{X: p.X, Width: s.width}.fraction()
		c.progress.Percent = frac * 100
		c.progress.CurrentLabel = utils.FormatTime(frac * c.backend.Duration())
	})
}

// PointerUp ends the drag. A press that never passed the threshold seeks
// like a click; a real drag commits its position now.
func (c *Controller) PointerUp(p Pointer) {
	c.update(func() {
		s := c.state.drag
		if s == nil {
			c.silent = true
			return
		}
		if p.Width <= 0 {
			p.Width = s.width
		}
		c.releaseDragLocked(p)
	})
}

func (c *Controller) releaseDragLocked(p Pointer) {
	s := c.state.drag
	c.endDragLocked()
	if !s.moved {
		c.clickSeekLocked(p)
		return
	}

	d, ok := c.seekableLocked()
	if !ok {
		return
	}
	frac := p.fraction()
	target := frac * d
	c.progress.Percent = frac * 100
	c.progress.CurrentLabel = utils.FormatTime(target)
	c.backend.Seek(target)
	if s.wasPlaying {
		c.playLocked()
		c.silent = false
	}
}

// endDragLocked discards the drag session and its visuals.
func (c *Controller) endDragLocked() {
	c.state.drag = nil
	c.progress.Dragging = false
	c.progress.NoTransition = false
}

// DragActive reports whether a drag session is open.
func (c *Controller) DragActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.drag != nil
}

// VisibilityHidden treats a drag in progress as released at the last
// pointer position.
func (c *Controller) VisibilityHidden() {
	c.update(func() {
		s := c.state.drag
		if s == nil {
			c.silent = true
			return
		}
		c.releaseDragLocked(Pointer{X: s.lastX, Width: s.width})
	})
}

// HoverEnter shows the hover preview when the track can be seeked.
func (c *Controller) HoverEnter() {
	c.update(func() {
		if _, ok := c.seekableLocked(); !ok {
			c.progress.HoverVisible = false
			return
		}
		c.progress.Seekable = true
		c.progress.HoverVisible = true
	})
}

// Hover queues a tooltip update for p. Updates are applied at most once per
// HoverFrame with the latest position.
func (c *Controller) Hover(p Pointer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.drag != nil {
		return
	}
	c.pendingHover = &p
	if c.hoverTimer != nil {
		return
	}
	c.hoverTimer = c.sched.AfterFunc(HoverFrame, func() {
		c.update(func() {
			c.hoverTimer = nil
			p := c.pendingHover
			c.pendingHover = nil
			if p == nil || c.state.drag != nil {
				c.silent = true
				return
			}
			d, ok := c.seekableLocked()
			if !ok {
				return
			}
			frac := p.fraction()
			c.progress.HoverVisible = true
			c.progress.HoverPercent = frac * 100
			c.progress.TooltipLabel = utils.FormatTime(frac * d)
			c.progress.TooltipX = p.X
		})
	})
}

// HoverLeave hides the preview and drops any queued update.
func (c *Controller) HoverLeave() {
	c.update(func() {
		stopTimer(&c.hoverTimer)
		c.pendingHover = nil
		c.progress.HoverVisible = false
	})
}
