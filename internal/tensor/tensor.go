package tensor

import "fmt"

// Dense is a dense float32 tensor stored in row-major order.
type Dense struct {
	shape []int
	data  []float32
}

// New allocates a zero-filled tensor with the given shape
func New(shape ...int) *Dense {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			panic(fmt.Sprintf("invalid dimension %d in shape %v", s, shape))
		}
		n *= s
	}
	return &Dense{
		shape: append([]int(nil), shape...),
		data:  make([]float32, n),
	}
}

// FromSlice wraps existing data in a tensor without copying
func FromSlice(data []float32, shape ...int) (*Dense, error) {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("invalid dimension %d in shape %v", s, shape)
		}
		n *= s
	}
	if n != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, n, len(data))
	}
	return &Dense{shape: append([]int(nil), shape...), data: data}, nil
}

// Shape returns a copy of the tensor's dimensions
func (d *Dense) Shape() []int {
	return append([]int(nil), d.shape...)
}

// Rank returns the number of dimensions
func (d *Dense) Rank() int {
	return len(d.shape)
}

// Dim returns the size of dimension i
func (d *Dense) Dim(i int) int {
	return d.shape[i]
}

// Len returns the total element count
func (d *Dense) Len() int {
	return len(d.data)
}

// Data exposes the backing slice
func (d *Dense) Data() []float32 {
	return d.data
}

// At returns the element at the given multi-index
func (d *Dense) At(idx ...int) float32 {
	return d.data[d.offset(idx)]
}

// Set assigns the element at the given multi-index
func (d *Dense) Set(v float32, idx ...int) {
	d.data[d.offset(idx)] = v
}

func (d *Dense) offset(idx []int) int {
	if len(idx) != len(d.shape) {
		panic(fmt.Sprintf("index rank %d does not match tensor rank %d", len(idx), len(d.shape)))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= d.shape[i] {
			panic(fmt.Sprintf("index %d out of range for dimension %d (size %d)", x, i, d.shape[i]))
		}
		off = off*d.shape[i] + x
	}
	return off
}

// Clone returns a deep copy
func (d *Dense) Clone() *Dense {
	out := New(d.shape...)
	copy(out.data, d.data)
	return out
}

// SelectDim gathers the given indices along dimension dim, like
// torch.index_select. The result has the same shape except that
// dimension dim has size len(indices).
func (d *Dense) SelectDim(dim int, indices []int) *Dense {
	if dim < 0 || dim >= len(d.shape) {
		panic(fmt.Sprintf("dimension %d out of range for rank %d", dim, len(d.shape)))
	}

	outer := 1
	for _, s := range d.shape[:dim] {
		outer *= s
	}
	inner := 1
	for _, s := range d.shape[dim+1:] {
		inner *= s
	}

	outShape := d.Shape()
	outShape[dim] = len(indices)
	out := New(outShape...)

	size := d.shape[dim]
	for o := 0; o < outer; o++ {
		srcBase := o * size * inner
		dstBase := o * len(indices) * inner
		for j, idx := range indices {
			if idx < 0 || idx >= size {
				panic(fmt.Sprintf("select index %d out of range for dimension %d (size %d)", idx, dim, size))
			}
			copy(out.data[dstBase+j*inner:dstBase+(j+1)*inner],
				d.data[srcBase+idx*inner:srcBase+(idx+1)*inner])
		}
	}

	return out
}

// LinspaceIndices returns count integer indices evenly spaced over [0, n-1],
// always including 0 and n-1 when count > 1. Positions are computed with
// integer arithmetic: floating-point steps truncate the endpoint for many
// ordinary n/count pairs (4038/64 lands on 4036, not 4037).
func LinspaceIndices(n, count int) []int {
	if n <= 0 || count <= 0 {
		return nil
	}
	if count == 1 {
		return []int{0}
	}
	indices := make([]int, count)
	for i := range indices {
		indices[i] = i * (n - 1) / (count - 1)
	}
	return indices
}

// AvgPoolChannels averages a (C,...) activation over everything after the
// channel dimension, producing one value per channel. A leading batch
// dimension of size 1 is accepted and skipped.
func AvgPoolChannels(d *Dense) ([]float32, error) {
	shape := d.shape
	if len(shape) >= 2 && shape[0] == 1 && len(shape) > 2 {
		shape = shape[1:]
	}
	if len(shape) < 2 {
		return nil, fmt.Errorf("cannot pool tensor of shape %v", d.shape)
	}

	channels := shape[0]
	inner := 1
	for _, s := range shape[1:] {
		inner *= s
	}

	out := make([]float32, channels)
	for c := 0; c < channels; c++ {
		var sum float64
		base := c * inner
		for i := 0; i < inner; i++ {
			sum += float64(d.data[base+i])
		}
		out[c] = float32(sum / float64(inner))
	}
	return out, nil
}
