package tensor

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, []int{12, 4, 1}, s.ComputeStrides())
	assert.Equal(t, "(2, 3, 4)", s.String())
	assert.Equal(t, "(10,)", Shape{10}.String())
	assert.Equal(t, Shape{5, 2, 3, 4}, s.WithBatch(5))
	assert.NoError(t, s.Validate())
	assert.Error(t, Shape{2, 0}.Validate())

	c := s.Clone()
	c[0] = 9
	assert.Equal(t, 2, s[0])
	assert.True(t, s.Equal(Shape{2, 3, 4}))
	assert.False(t, s.Equal(Shape{2, 3}))
}

func TestFromSlice(t *testing.T) {
	src := []float32{1, 2, 3, 4, 5, 6}
	x, err := FromSlice(src, Shape{2, 3})
	require.NoError(t, err)
	src[0] = 100
	assert.Equal(t, float32(1), x.At(0))
	assert.Equal(t, 2, x.Rank())
	assert.Equal(t, 6, x.Len())

	_, err = FromSlice(src, Shape{4, 2})
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	assert.Panics(t, func() { New(Shape{3}, []float32{1, 2}) })
}

func TestReshape(t *testing.T) {
	x := New(Shape{2, 3, 4}, make([]float32, 24))

	v := x.Reshape(2, -1)
	assert.Equal(t, Shape{2, 12}, v.Shape())
	v.Set(5, 7)
	assert.Equal(t, float32(7), x.At(5), "reshape shares the buffer")

	assert.Panics(t, func() { x.Reshape(5, -1) })
	assert.Panics(t, func() { x.Reshape(-1, -1) })
	assert.Panics(t, func() { x.Reshape(3, 3) })
}

func TestCloneAndEqual(t *testing.T) {
	x := Full(Shape{2, 2}, 1.5)
	y := x.Clone()
	assert.True(t, x.Equal(y, 0))

	y.Set(3, 1.6)
	assert.False(t, x.Equal(y, 0.05))
	assert.True(t, x.Equal(y, 0.2))
	assert.False(t, x.Equal(Full(Shape{4}, 1.5), 0))
}

func TestOps(t *testing.T) {
	x := New(Shape{2, 3}, []float32{1, 5, 2, 7, 0, -1})
	assert.Equal(t, []int{1, 0}, x.ArgMax())
	assert.Equal(t, float32(14), x.Sum())
	assert.Equal(t, float32(80), x.SumSquares())

	x.AddInPlace(Ones(Shape{2, 3}))
	x.ScaleInPlace(2)
	assert.Equal(t, []float32{4, 12, 6, 16, 2, 0}, x.Data())

	assert.Panics(t, func() { x.AddInPlace(Ones(Shape{2})) })
	assert.Panics(t, func() { Ones(Shape{2, 2, 2}).ArgMax() })
}

func TestSlice(t *testing.T) {
	x := New(Shape{3, 2}, []float32{1, 2, 3, 4, 5, 6})
	s := x.Slice(1, 3)
	assert.Equal(t, Shape{2, 2}, s.Shape())
	assert.Equal(t, []float32{3, 4, 5, 6}, s.Data())

	s.Set(0, 0)
	assert.Equal(t, float32(3), x.At(2), "slice copies")
	assert.Panics(t, func() { x.Slice(2, 4) })
}

func TestCreation(t *testing.T) {
	assert.Equal(t, []float32{0, 0, 0}, Zeros(Shape{3}).Data())
	assert.Equal(t, Shape{2, 2}, ZerosLike(Ones(Shape{2, 2})).Shape())

	rng := rand.New(rand.NewSource(1))
	u := Uniform(Shape{1000}, -2, 3, rng)
	for _, v := range u.Data() {
		require.GreaterOrEqual(t, v, float32(-2))
		require.Less(t, v, float32(3))
	}

	a := Randn(Shape{64}, rand.New(rand.NewSource(4)))
	b := Randn(Shape{64}, rand.New(rand.NewSource(4)))
	assert.Equal(t, a.Data(), b.Data())

	oh := OneHot([]int{2, 0, 5}, 3)
	assert.Equal(t, []float32{0, 0, 1, 1, 0, 0, 0, 0, 0}, oh.Data())
}

func TestConvOutputSize(t *testing.T) {
	tests := []struct {
		in, kernel int
		p          ConvParams
		out, pad   int
	}{
		{32, 3, ConvParams{Stride: 1, Dilation: 1, Padding: PaddingSame}, 32, 1},
		{32, 3, ConvParams{Stride: 2, Dilation: 1, Padding: PaddingSame}, 16, 0},
		{32, 3, ConvParams{Stride: 1, Dilation: 4, Padding: PaddingSame}, 32, 4},
		{5, 3, ConvParams{Stride: 1, Dilation: 16, Padding: PaddingSame}, 5, 16},
		{7, 3, ConvParams{Stride: 2, Dilation: 1, Padding: PaddingValid}, 3, 0},
		{4, 3, ConvParams{Stride: 1, Dilation: 2, Padding: PaddingValid}, 0, 0},
	}
	for _, tt := range tests {
		out, pad := ConvOutputSize(tt.in, tt.kernel, tt.p)
		assert.Equal(t, tt.out, out, "%+v", tt)
		assert.Equal(t, tt.pad, pad, "%+v", tt)
	}
}
