package video

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"

	"github.com/rs/zerolog"

	"github.com/julienmp/visualfeat/internal/ffmpeg"
	"github.com/julienmp/visualfeat/internal/tensor"
)

// FrameLoader produces an ordered frame sequence for a clip.
type FrameLoader interface {
	Load(ctx context.Context, videoPath string) ([]image.Image, error)
}

// Loader decodes uniformly sampled frames from a video file
type Loader struct {
	logger    zerolog.Logger
	ffmpeg    *ffmpeg.Executor
	maxFrames int
}

// NewLoader creates a frame loader capped at maxFrames per clip
func NewLoader(logger zerolog.Logger, exec *ffmpeg.Executor, maxFrames int) *Loader {
	return &Loader{
		logger:    logger.With().Str("component", "loader").Logger(),
		ffmpeg:    exec,
		maxFrames: maxFrames,
	}
}

// SampleIndices returns the frame indices to decode for a clip with total
// frames. When total fits under max all frames are taken; otherwise max
// evenly spaced indices spanning the clip, first and last included.
func SampleIndices(total, max int) []int {
	if total <= 0 || max <= 0 {
		return nil
	}
	if total <= max {
		indices := make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	return tensor.LinspaceIndices(total, max)
}

// Load opens the video, samples frame indices uniformly and decodes them.
// Frames that fail to decode are skipped; it is an error when the video
// cannot be opened, reports zero frames, or yields zero decoded frames.
func (l *Loader) Load(ctx context.Context, videoPath string) ([]image.Image, error) {
	info, err := l.ffmpeg.ProbeVideo(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open video %s: %w", videoPath, err)
	}
	if info.FrameCount == 0 {
		return nil, fmt.Errorf("video has no frames: %s", videoPath)
	}

	indices := SampleIndices(info.FrameCount, l.maxFrames)

	tempDir, err := os.MkdirTemp("", "visualfeat-frames-")
	if err != nil {
		return nil, fmt.Errorf("create frame temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	paths, err := l.ffmpeg.ExtractFrames(ctx, videoPath, indices, tempDir)
	if err != nil {
		return nil, fmt.Errorf("decode frames from %s: %w", videoPath, err)
	}

	frames := make([]image.Image, 0, len(paths))
	for _, path := range paths {
		img, err := decodeImage(path)
		if err != nil {
			l.logger.Debug().Str("frame", path).Err(err).Msg("skipping undecodable frame")
			continue
		}
		frames = append(frames, img)
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames could be decoded from %s", videoPath)
	}

	l.logger.Debug().
		Str("video", videoPath).
		Int("total_frames", info.FrameCount).
		Int("sampled", len(frames)).
		Msg("frames loaded")

	return frames, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
