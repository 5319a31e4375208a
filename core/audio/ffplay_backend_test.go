package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"soundfolio/core/audio/mocks"
	"soundfolio/core/player"
)

func nextEvent(t *testing.T, b *FFplayBackend, want player.EventType) player.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-b.Events():
			require.True(t, ok, "event channel closed")
			if ev.Type == want {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", want)
		}
	}
}

func TestFFplayPlayWithoutSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := NewFFplayBackend("ffplay", mocks.NewMockProber(ctrl))
	defer b.Close()

	err := <-b.Play(context.Background())
	assert.ErrorIs(t, err, player.ErrNotSupported)
	assert.True(t, b.Paused())
}

func TestFFplayLoadProbesDuration(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := mocks.NewMockProber(ctrl)
	prober.EXPECT().ProbeDuration(gomock.Any(), "audio/song.mp3").Return(123.4, nil)

	b := NewFFplayBackend("ffplay", prober)
	defer b.Close()
	assert.False(t, b.Seekable())

	b.Load("audio/song.mp3")
	nextEvent(t, b, player.EventLoadedMetadata)

	assert.Equal(t, 123.4, b.Duration())
	assert.True(t, b.Seekable())
	assert.True(t, b.Paused())
	assert.Zero(t, b.CurrentTime())
}

func TestFFplayLoadProbeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := mocks.NewMockProber(ctrl)
	prober.EXPECT().ProbeDuration(gomock.Any(), "audio/missing.mp3").Return(0.0, errors.New("404"))

	b := NewFFplayBackend("ffplay", prober)
	defer b.Close()

	b.Load("audio/missing.mp3")
	ev := nextEvent(t, b, player.EventError)
	assert.ErrorContains(t, ev.Err, "404")
	assert.False(t, b.Seekable())
}

func TestFFplayNoAudioStreamIsNotSupported(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := mocks.NewMockProber(ctrl)
	prober.EXPECT().ProbeDuration(gomock.Any(), gomock.Any()).Return(10.0, nil)
	prober.EXPECT().ProbeCodec(gomock.Any(), "cover.jpg").Return("", ErrNoAudioStream)

	b := NewFFplayBackend("ffplay", prober)
	defer b.Close()

	b.Load("cover.jpg")
	nextEvent(t, b, player.EventLoadedMetadata)
	err := <-b.Play(context.Background())
	assert.ErrorIs(t, err, player.ErrNotSupported)
	assert.True(t, b.Paused())
}

func TestFFplaySeekWhilePaused(t *testing.T) {
	ctrl := gomock.NewController(t)
	prober := mocks.NewMockProber(ctrl)
	prober.EXPECT().ProbeDuration(gomock.Any(), gomock.Any()).Return(60.0, nil)

	b := NewFFplayBackend("ffplay", prober)
	defer b.Close()
	b.Load("audio/song.mp3")
	nextEvent(t, b, player.EventLoadedMetadata)

	b.Seek(30)
	assert.Equal(t, 30.0, b.CurrentTime())
	assert.True(t, b.Paused())

	b.Seek(-5)
	assert.Zero(t, b.CurrentTime())
}

func TestFFplayVolumeClamped(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := NewFFplayBackend("ffplay", mocks.NewMockProber(ctrl))
	defer b.Close()

	b.SetVolume(0.4)
	assert.Equal(t, 0.4, b.Volume())
	b.SetVolume(2)
	assert.Equal(t, 1.0, b.Volume())
}

func TestFFplayCloseClosesEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := NewFFplayBackend("ffplay", mocks.NewMockProber(ctrl))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, ok := <-b.Events()
	assert.False(t, ok)
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("x", "187.402")
	require.NoError(t, err)
	assert.InDelta(t, 187.402, d, 1e-9)

	_, err = parseDuration("x", "")
	assert.Error(t, err)
	_, err = parseDuration("x", "N/A")
	assert.Error(t, err)
	_, err = parseDuration("x", "abc")
	assert.Error(t, err)
}
