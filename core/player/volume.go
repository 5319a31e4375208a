package player

import (
	"context"
	"time"

	"soundfolio/core/utils"
	"soundfolio/logger"
)

// InitVolume restores the persisted volume, or DefaultVolume.
func (c *Controller) InitVolume(ctx context.Context) {
	v := DefaultVolume
	if c.volumes != nil {
		stored, ok, err := c.volumes.LoadVolume(ctx)
		switch {
		case err != nil:
			logger.Warn("failed to load volume preference", logger.ErrorField(err))
		case ok:
			v = utils.Clamp01(stored)
		}
	}
	c.update(func() {
		c.backend.SetVolume(v)
		if v > 0 {
			c.previousVolume = v
		}
	})
}

// SetVolume applies a slider value in [0, 1] and persists it.
func (c *Controller) SetVolume(v float64) float64 {
	v = utils.Clamp01(v)
	c.update(func() {
		c.backend.SetVolume(v)
		if v > 0 {
			c.previousVolume = v
		}
		if store := c.volumes; store != nil {
			c.after = append(c.after, func() { saveVolume(store, v) })
		}
	})
	return v
}

// ToggleMute mutes, remembering the current level, or restores that level.
// The persisted preference is left alone.
func (c *Controller) ToggleMute() float64 {
	var level float64
	c.update(func() {
		if cur := c.backend.Volume(); cur > 0 {
			c.previousVolume = cur
			level = 0
		} else {
			level = c.previousVolume
			if level <= 0 {
				level = DefaultVolume
			}
		}
		c.backend.SetVolume(level)
	})
	return level
}

func saveVolume(store VolumeStore, v float64) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.SaveVolume(ctx, v); err != nil {
		logger.Warn("failed to save volume preference", logger.ErrorField(err))
	}
}
