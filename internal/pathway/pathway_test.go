package pathway

import (
	"testing"

	"github.com/julienmp/visualfeat/internal/tensor"
)

func sequentialTensor(t int) *tensor.Dense {
	d := tensor.New(3, t, 2, 2)
	for i := range d.Data() {
		d.Data()[i] = float32(i)
	}
	return d
}

func TestFastPathwayIsUnchanged(t *testing.T) {
	in := sequentialTensor(32)
	_, fast := Pack(in)
	if fast != in {
		t.Fatal("fast pathway should be the input tensor itself")
	}
	for i := range in.Data() {
		if fast.Data()[i] != in.Data()[i] {
			t.Fatalf("fast pathway differs at element %d", i)
		}
	}
}

func TestSlowPathwayLength(t *testing.T) {
	for _, tc := range []struct{ frames, want int }{
		{32, 8},
		{16, 4},
		{8, 2},
		{4, 1},
		{7, 1},
	} {
		slow, _ := Pack(sequentialTensor(tc.frames))
		if got := slow.Dim(1); got != tc.want {
			t.Errorf("T=%d: slow length %d, want %d", tc.frames, got, tc.want)
		}
	}
}

func TestShortClipKeepsAllFrames(t *testing.T) {
	in := sequentialTensor(3)
	slow, fast := Pack(in)
	if slow != in || fast != in {
		t.Error("clips shorter than the stride should pass through both pathways")
	}
}

func TestSlowFramesAreSubsetOfFast(t *testing.T) {
	in := sequentialTensor(32)
	slow, fast := Pack(in)

	frameEqual := func(slowIdx, fastIdx int) bool {
		for c := 0; c < 3; c++ {
			for y := 0; y < 2; y++ {
				for x := 0; x < 2; x++ {
					if slow.At(c, slowIdx, y, x) != fast.At(c, fastIdx, y, x) {
						return false
					}
				}
			}
		}
		return true
	}

	for s := 0; s < slow.Dim(1); s++ {
		found := false
		for f := 0; f < fast.Dim(1); f++ {
			if frameEqual(s, f) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("slow frame %d not present in fast pathway", s)
		}
	}
}

func TestSlowPathwaySpansClip(t *testing.T) {
	in := sequentialTensor(32)
	slow, fast := Pack(in)

	last := slow.Dim(1) - 1
	if slow.At(0, 0, 0, 0) != fast.At(0, 0, 0, 0) {
		t.Error("slow pathway should start at the first frame")
	}
	if slow.At(0, last, 0, 0) != fast.At(0, fast.Dim(1)-1, 0, 0) {
		t.Error("slow pathway should end at the last frame")
	}
}
