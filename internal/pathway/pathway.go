package pathway

import (
	"github.com/julienmp/visualfeat/internal/tensor"
)

// slowStride is the temporal subsampling divisor for the slow pathway. The
// pretrained network's input contract depends on this exact rule; do not
// change it without re-exporting the model.
const slowStride = 4

// Pack derives the two temporal-resolution views required by the network
// from one preprocessed (3, T, H, W) tensor. The fast pathway is the input
// unchanged; the slow pathway selects max(1, T/4) evenly spaced frames when
// T >= 4 and is the input itself otherwise.
func Pack(frames *tensor.Dense) (slow, fast *tensor.Dense) {
	fast = frames

	t := frames.Dim(1)
	if t < slowStride {
		return frames, fast
	}

	count := t / slowStride
	if count < 1 {
		count = 1
	}
	slow = frames.SelectDim(1, tensor.LinspaceIndices(t, count))
	return slow, fast
}
