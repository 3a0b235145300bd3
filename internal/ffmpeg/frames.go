package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ExtractFrames decodes the frames at the given zero-based indices into
// numbered JPEG files under destDir and returns their paths in index order.
// All requested frames are decoded in a single ffmpeg pass using a select
// filter, so indices must be sorted ascending.
func (e *Executor) ExtractFrames(ctx context.Context, input string, indices []int, destDir string) ([]string, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("no frame indices requested")
	}

	terms := make([]string, len(indices))
	for i, idx := range indices {
		if idx < 0 {
			return nil, fmt.Errorf("negative frame index %d", idx)
		}
		// Commas are filtergraph separators and must be escaped inside eq()
		terms[i] = fmt.Sprintf("eq(n\\,%d)", idx)
	}
	selectExpr := "select=" + strings.Join(terms, "+")

	pattern := filepath.Join(destDir, "frame_%04d.jpg")
	args := []string{
		"-i", input,
		"-vf", selectExpr,
		"-vsync", "0",
		"-frames:v", fmt.Sprintf("%d", len(indices)),
		"-q:v", "2",
		pattern,
	}

	if _, err := e.run(ctx, args); err != nil {
		return nil, fmt.Errorf("frame extraction failed: %w", err)
	}

	paths, err := filepath.Glob(filepath.Join(destDir, "frame_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", input)
	}
	sort.Strings(paths)

	e.logger.Debug().
		Str("input", input).
		Int("requested", len(indices)).
		Int("extracted", len(paths)).
		Msg("frame extraction complete")

	return paths, nil
}
