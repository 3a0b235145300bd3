package preprocess

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"

	"github.com/julienmp/visualfeat/internal/tensor"
)

// Per-channel normalization expected by the pretrained network
var (
	channelMean = [3]float32{0.45, 0.45, 0.45}
	channelStd  = [3]float32{0.225, 0.225, 0.225}
)

// intermediateSize is the fixed resize resolution before center-cropping
const intermediateSize = 256

// Options controls the output tensor geometry
type Options struct {
	TargetSize   int // square spatial crop, e.g. 224
	TargetFrames int // fixed temporal length, e.g. 32
}

// Frames converts a decoded frame sequence into a normalized (3, T, S, S)
// tensor: resize to 256, center-crop to TargetSize, scale to [0,1], resample
// temporally to exactly TargetFrames, then normalize per channel. The result
// is deterministic for a given frame sequence and options.
func Frames(frames []image.Image, opts Options) (*tensor.Dense, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to preprocess")
	}
	if opts.TargetSize <= 0 || opts.TargetSize > intermediateSize {
		return nil, fmt.Errorf("invalid target size %d", opts.TargetSize)
	}
	if opts.TargetFrames <= 0 {
		return nil, fmt.Errorf("invalid target frame count %d", opts.TargetFrames)
	}

	size := opts.TargetSize
	stacked := tensor.New(3, len(frames), size, size)

	for t, frame := range frames {
		cropped := resizeAndCrop(frame, size)
		bounds := cropped.Bounds()
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				r, g, b, _ := cropped.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				stacked.Set(float32(r>>8)/255.0, 0, t, y, x)
				stacked.Set(float32(g>>8)/255.0, 1, t, y, x)
				stacked.Set(float32(b>>8)/255.0, 2, t, y, x)
			}
		}
	}

	resampled := resampleTemporal(stacked, opts.TargetFrames)
	normalize(resampled)
	return resampled, nil
}

// resizeAndCrop resizes to the fixed intermediate resolution and center-crops
func resizeAndCrop(img image.Image, size int) image.Image {
	resized := resize.Resize(intermediateSize, intermediateSize, img, resize.Bilinear)
	if size == intermediateSize {
		return resized
	}

	offset := (intermediateSize - size) / 2
	rect := image.Rect(offset, offset, offset+size, offset+size).Add(resized.Bounds().Min)

	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if si, ok := resized.(subImager); ok {
		return si.SubImage(rect)
	}

	// Fallback copy for image types without SubImage
	out := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			out.Set(x, y, resized.At(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return out
}

// resampleTemporal forces the temporal axis to exactly target frames:
// even-stride selection when too long, repeat-and-truncate when too short
func resampleTemporal(d *tensor.Dense, target int) *tensor.Dense {
	t := d.Dim(1)
	switch {
	case t == target:
		return d
	case t > target:
		return d.SelectDim(1, tensor.LinspaceIndices(t, target))
	default:
		indices := make([]int, target)
		for i := range indices {
			indices[i] = i % t
		}
		return d.SelectDim(1, indices)
	}
}

func normalize(d *tensor.Dense) {
	data := d.Data()
	perChannel := d.Len() / 3
	for c := 0; c < 3; c++ {
		mean, std := channelMean[c], channelStd[c]
		base := c * perChannel
		for i := 0; i < perChannel; i++ {
			data[base+i] = (data[base+i] - mean) / std
		}
	}
}
