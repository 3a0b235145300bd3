package tensor

import "testing"

func TestLinspaceIndicesEndpoints(t *testing.T) {
	// The 16/12, 62/8, 502/32 and 4038/64 pairs truncate the endpoint when
	// the step is computed in floating point
	for _, tc := range []struct{ n, count int }{
		{100, 10},
		{16, 12},
		{62, 8},
		{502, 32},
		{4038, 64},
	} {
		indices := LinspaceIndices(tc.n, tc.count)
		if len(indices) != tc.count {
			t.Fatalf("n=%d count=%d: expected %d indices, got %d",
				tc.n, tc.count, tc.count, len(indices))
		}
		if indices[0] != 0 {
			t.Errorf("n=%d count=%d: first index should be 0, got %d",
				tc.n, tc.count, indices[0])
		}
		if last := indices[len(indices)-1]; last != tc.n-1 {
			t.Errorf("n=%d count=%d: last index should be %d, got %d",
				tc.n, tc.count, tc.n-1, last)
		}
		for i := 1; i < len(indices); i++ {
			if indices[i] <= indices[i-1] {
				t.Errorf("n=%d count=%d: indices not strictly increasing at %d: %v",
					tc.n, tc.count, i, indices)
			}
		}
	}
}

func TestLinspaceIndicesSingle(t *testing.T) {
	indices := LinspaceIndices(50, 1)
	if len(indices) != 1 || indices[0] != 0 {
		t.Errorf("expected [0], got %v", indices)
	}
}

func TestLinspaceIndicesDegenerate(t *testing.T) {
	if got := LinspaceIndices(0, 5); got != nil {
		t.Errorf("expected nil for empty range, got %v", got)
	}
	indices := LinspaceIndices(1, 4)
	for _, idx := range indices {
		if idx != 0 {
			t.Errorf("single-frame range should only yield 0, got %v", indices)
		}
	}
}

func TestSelectDim(t *testing.T) {
	d := New(2, 4, 3)
	for i := range d.Data() {
		d.Data()[i] = float32(i)
	}

	out := d.SelectDim(1, []int{0, 3})
	wantShape := []int{2, 2, 3}
	for i, s := range out.Shape() {
		if s != wantShape[i] {
			t.Fatalf("shape mismatch: got %v want %v", out.Shape(), wantShape)
		}
	}

	for o := 0; o < 2; o++ {
		for k := 0; k < 3; k++ {
			if out.At(o, 0, k) != d.At(o, 0, k) {
				t.Errorf("selected frame 0 differs at (%d,%d)", o, k)
			}
			if out.At(o, 1, k) != d.At(o, 3, k) {
				t.Errorf("selected frame 3 differs at (%d,%d)", o, k)
			}
		}
	}
}

func TestAvgPoolChannels(t *testing.T) {
	d := New(2, 2, 2)
	vals := []float32{1, 2, 3, 4, 10, 20, 30, 40}
	copy(d.Data(), vals)

	pooled, err := AvgPoolChannels(d)
	if err != nil {
		t.Fatalf("pool failed: %v", err)
	}
	if len(pooled) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(pooled))
	}
	if pooled[0] != 2.5 {
		t.Errorf("channel 0: got %f want 2.5", pooled[0])
	}
	if pooled[1] != 25 {
		t.Errorf("channel 1: got %f want 25", pooled[1])
	}
}

func TestAvgPoolChannelsLeadingBatch(t *testing.T) {
	d := New(1, 3, 2, 2, 2)
	for i := range d.Data() {
		d.Data()[i] = 7
	}

	pooled, err := AvgPoolChannels(d)
	if err != nil {
		t.Fatalf("pool failed: %v", err)
	}
	if len(pooled) != 3 {
		t.Fatalf("expected 3 channels after skipping batch, got %d", len(pooled))
	}
	for c, v := range pooled {
		if v != 7 {
			t.Errorf("channel %d: got %f want 7", c, v)
		}
	}
}

func TestFromSliceValidation(t *testing.T) {
	if _, err := FromSlice(make([]float32, 5), 2, 3); err == nil {
		t.Error("expected error for mismatched length")
	}
	d, err := FromSlice(make([]float32, 6), 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Len() != 6 || d.Rank() != 2 {
		t.Errorf("unexpected tensor %v len %d", d.Shape(), d.Len())
	}
}
