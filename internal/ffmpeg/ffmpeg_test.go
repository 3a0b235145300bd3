package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}
}

func generateTestVideo(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "test.mp4")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "testsrc=duration=2:size=320x240:rate=30",
		"-pix_fmt", "yuv420p", "-y", path)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate test video: %v", err)
	}
	return path
}

func TestExecutorCreation(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := zerolog.New(os.Stderr)
	exec, err := New(logger, 4)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	if exec.ffmpegPath == "" {
		t.Error("ffmpeg path is empty")
	}
	if exec.ffprobePath == "" {
		t.Error("ffprobe path is empty")
	}
}

func TestProbeVideo(t *testing.T) {
	skipIfNoFFmpeg(t)

	videoPath := generateTestVideo(t, t.TempDir())

	logger := zerolog.New(os.Stderr)
	exec, err := New(logger, 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	info, err := exec.ProbeVideo(context.Background(), videoPath)
	if err != nil {
		t.Fatalf("ProbeVideo failed: %v", err)
	}

	if info.Width != 320 {
		t.Errorf("expected width 320, got %d", info.Width)
	}
	if info.Height != 240 {
		t.Errorf("expected height 240, got %d", info.Height)
	}
	if info.Duration == 0 {
		t.Error("duration is zero")
	}
	// 2s @ 30fps
	if info.FrameCount < 55 || info.FrameCount > 65 {
		t.Errorf("expected ~60 frames, got %d", info.FrameCount)
	}
}

func TestProbeVideoInvalidFile(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := zerolog.New(os.Stderr)
	exec, err := New(logger, 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	ctx := context.Background()

	if _, err := exec.ProbeVideo(ctx, "nonexistent.mp4"); err == nil {
		t.Error("ProbeVideo should fail for non-existent file")
	}

	invalidPath := filepath.Join(t.TempDir(), "invalid.txt")
	os.WriteFile(invalidPath, []byte("not a video"), 0644)

	if _, err := exec.ProbeVideo(ctx, invalidPath); err == nil {
		t.Error("ProbeVideo should fail for invalid video file")
	}
}

func TestExtractFramesByIndex(t *testing.T) {
	skipIfNoFFmpeg(t)

	videoPath := generateTestVideo(t, t.TempDir())

	logger := zerolog.New(os.Stderr)
	exec, err := New(logger, 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	destDir := t.TempDir()
	paths, err := exec.ExtractFrames(context.Background(), videoPath, []int{0, 29, 59}, destDir)
	if err != nil {
		t.Fatalf("ExtractFrames failed: %v", err)
	}

	if len(paths) != 3 {
		t.Errorf("expected 3 frames, got %d", len(paths))
	}
	for _, path := range paths {
		stat, err := os.Stat(path)
		if err != nil {
			t.Errorf("frame file missing: %v", err)
			continue
		}
		if stat.Size() == 0 {
			t.Errorf("frame file %s is empty", path)
		}
	}
}

func TestExtractFramesValidation(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := zerolog.New(os.Stderr)
	exec, err := New(logger, 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	ctx := context.Background()
	if _, err := exec.ExtractFrames(ctx, "whatever.mp4", nil, t.TempDir()); err == nil {
		t.Error("expected error for empty index list")
	}
	if _, err := exec.ExtractFrames(ctx, "whatever.mp4", []int{-1}, t.TempDir()); err == nil {
		t.Error("expected error for negative index")
	}
	if _, err := exec.ExtractFrames(ctx, "nonexistent.mp4", []int{0}, t.TempDir()); err == nil {
		t.Error("expected error for missing input")
	}
}
