package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegProcessor implements the Prober interface using ffprobe.
type FFmpegProcessor struct {
	ffmpegPath string
}

// NewFFmpegProcessor creates a new FFmpegProcessor.
func NewFFmpegProcessor(ffmpegPath string) *FFmpegProcessor {
	return &FFmpegProcessor{ffmpegPath: ffmpegPath}
}

func (p *FFmpegProcessor) ffprobePath() string {
	return strings.Replace(p.ffmpegPath, "ffmpeg", "ffprobe", 1)
}

func (p *FFmpegProcessor) run(ctx context.Context, input string, args ...string) ([]byte, error) {
	args = append([]string{"-v", "error"}, args...)
	args = append(args, "-of", "json", input)

	cmd := exec.CommandContext(ctx, p.ffprobePath(), args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe execution failed for %s: %w\nFFprobe Error: %s", input, err, stderr.String())
	}
	return out.Bytes(), nil
}

// ProbeCodec returns the codec of the first audio stream.
func (p *FFmpegProcessor) ProbeCodec(ctx context.Context, input string) (string, error) {
	out, err := p.run(ctx, input, "-select_streams", "a:0", "-show_entries", "stream=codec_name")
	if err != nil {
		return "", err
	}

	var probeData struct {
		Streams []struct {
			CodecName string `json:"codec_name"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &probeData); err != nil {
		return "", fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}
	if len(probeData.Streams) == 0 {
		return "", ErrNoAudioStream
	}
	return probeData.Streams[0].CodecName, nil
}

// ffprobeOutput defines the structure for ffprobe JSON output.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration uses ffprobe to get the duration of a file or URL in seconds.
func (p *FFmpegProcessor) ProbeDuration(ctx context.Context, input string) (float64, error) {
	out, err := p.run(ctx, input, "-show_entries", "format=duration")
	if err != nil {
		return 0, err
	}

	var probeData ffprobeOutput
	if err := json.Unmarshal(out, &probeData); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ffprobe output for %s: %w\nFFprobe Output: %s", input, err, string(out))
	}
	return parseDuration(input, probeData.Format.Duration)
}

func parseDuration(input, raw string) (float64, error) {
	if raw == "" || raw == "N/A" {
		return 0, fmt.Errorf("duration not found in ffprobe output for %s", input)
	}
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration string \"%s\" for %s: %w", raw, input, err)
	}
	return duration, nil
}
