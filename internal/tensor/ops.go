package tensor

import "fmt"

// AddInPlace adds other into t element-wise. Shapes must match exactly.
func (t *Tensor) AddInPlace(other *Tensor) {
	if len(t.data) != len(other.data) {
		panic(fmt.Sprintf("tensor: add %v and %v: %v", t.shape, other.shape, ErrShapeMismatch))
	}
	for i, v := range other.data {
		t.data[i] += v
	}
}

// ScaleInPlace multiplies every element by s.
func (t *Tensor) ScaleInPlace(s float32) {
	for i := range t.data {
		t.data[i] *= s
	}
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float32 {
	var sum float64
	for _, v := range t.data {
		sum += float64(v)
	}
	return float32(sum)
}

// SumSquares returns the sum of squared elements.
func (t *Tensor) SumSquares() float32 {
	var sum float64
	for _, v := range t.data {
		sum += float64(v) * float64(v)
	}
	return float32(sum)
}

// ArgMax returns, for a 2D [rows, cols] tensor, the column index of the
// largest value in each row.
func (t *Tensor) ArgMax() []int {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("tensor: argmax expects 2D input, got %dD", len(t.shape)))
	}
	rows, cols := t.shape[0], t.shape[1]
	out := make([]int, rows)
	for r := 0; r < rows; r++ {
		row := t.data[r*cols : (r+1)*cols]
		best := 0
		for c := 1; c < cols; c++ {
			if row[c] > row[best] {
				best = c
			}
		}
		out[r] = best
	}
	return out
}

// Slice returns rows [start, end) along the first dimension as a copy.
func (t *Tensor) Slice(start, end int) *Tensor {
	if len(t.shape) == 0 || start < 0 || end > t.shape[0] || start > end {
		panic(fmt.Sprintf("tensor: slice [%d:%d] out of range for %v", start, end, t.shape))
	}
	stride := len(t.data) / t.shape[0]
	shape := t.shape.Clone()
	shape[0] = end - start
	buf := make([]float32, (end-start)*stride)
	copy(buf, t.data[start*stride:end*stride])
	return &Tensor{shape: shape, data: buf}
}
