package audio

import (
	"context"
	"errors"
)

// ErrNoAudioStream is returned when a file has no decodable audio stream.
var ErrNoAudioStream = errors.New("no audio streams found")

//go:generate mockgen -source=processor.go -destination=mocks/mock_prober.go -package=mocks

// Prober reads media metadata without decoding the whole file.
type Prober interface {
	ProbeDuration(ctx context.Context, input string) (float64, error)
	ProbeCodec(ctx context.Context, input string) (string, error)
}
