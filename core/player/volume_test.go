package player

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMuteRestoresPreviousVolume(t *testing.T) {
	store := &fakeVolumeStore{}
	h := newHarness(t, testCatalog(1), WithVolumeStore(store))

	assert.Equal(t, 0.42, h.c.SetVolume(0.42))
	assert.Equal(t, 0.0, h.c.ToggleMute())

	v := h.c.View().Volume
	assert.True(t, v.Muted)
	assert.Equal(t, "muted", v.Icon)

	assert.Equal(t, 0.42, h.c.ToggleMute())
	assert.Equal(t, 0.42, h.b.Volume())
	assert.Equal(t, []float64{0.42}, store.saves, "mute does not touch the stored preference")
}

func TestUnmuteAfterSliderToZero(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	h.c.SetVolume(0.5)
	h.c.SetVolume(0)
	assert.Equal(t, 0.5, h.c.ToggleMute())
}

func TestSetVolumeClamps(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	assert.Equal(t, 1.0, h.c.SetVolume(3))
	assert.Equal(t, 0.0, h.c.SetVolume(-1))
}

func TestInitVolume(t *testing.T) {
	h := newHarness(t, testCatalog(1))
	h.c.InitVolume(context.Background())
	assert.Equal(t, DefaultVolume, h.b.Volume())

	store := &fakeVolumeStore{stored: 0.3, has: true}
	h = newHarness(t, testCatalog(1), WithVolumeStore(store))
	h.c.InitVolume(context.Background())
	assert.Equal(t, 0.3, h.b.Volume())

	require.Equal(t, 0.0, h.c.ToggleMute())
	assert.Equal(t, 0.3, h.c.ToggleMute())
}

func TestVolumeIcon(t *testing.T) {
	assert.Equal(t, "muted", VolumeIcon(0))
	assert.Equal(t, "low", VolumeIcon(0.2))
	assert.Equal(t, "medium", VolumeIcon(0.5))
	assert.Equal(t, "high", VolumeIcon(0.7))
	assert.Equal(t, "high", VolumeIcon(1))
}
