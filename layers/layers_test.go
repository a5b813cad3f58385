package layers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/utils"
)

func TestLinearForward(t *testing.T) {
	l := &Linear{
		In: 2, Out: 1,
		Weight: mat.NewDense(1, 2, []float64{2, -1}),
		Bias:   mat.NewDense(1, 1, []float64{0.5}),
	}
	x := mat.NewDense(2, 2, []float64{
		1, 3,
		1, 4,
	})
	y := l.Forward(x)
	assert.Equal(t, []float64{1.5, 2.5}, y.RawRowView(0))
}

func TestLinearInitAndClone(t *testing.T) {
	l := NewLinear(utils.NewSource(1), 16, 4)
	r, c := l.Weight.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 16, c)
	for _, v := range l.Weight.RawMatrix().Data {
		require.LessOrEqual(t, math.Abs(v), 0.25)
	}

	cl := l.Clone()
	assert.True(t, mat.Equal(l.Weight, cl.Weight))
	cl.Weight.Set(0, 0, 42)
	assert.NotEqual(t, 42.0, l.Weight.At(0, 0))
}

func TestEmbeddingLookup(t *testing.T) {
	table := mat.NewDense(3, 2, []float64{
		0, 0,
		1, 2,
		3, 4,
	})
	e := NewPretrainedEmbedding(table)
	assert.True(t, e.Frozen)

	out, err := e.Lookup([]int{2, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 0}, out.RawRowView(0))
	assert.Equal(t, []float64{4, 2, 0}, out.RawRowView(1))
	assert.Equal(t, []float64{3, 4}, e.Row(2))

	// the table is copied, not shared
	table.Set(1, 0, 99)
	assert.Equal(t, 1.0, e.Weight.At(1, 0))

	_, err = e.Lookup([]int{0, 3})
	require.Error(t, err)
	_, err = e.Lookup([]int{-1})
	require.Error(t, err)
}

func TestRandomEmbedding(t *testing.T) {
	e := NewEmbedding(utils.NewSource(9), 50, 8)
	v, d := e.Dims()
	assert.Equal(t, 50, v)
	assert.Equal(t, 8, d)
	assert.False(t, e.Frozen)
}

func TestDropout(t *testing.T) {
	x := mat.NewDense(4, 50, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 50; j++ {
			x.Set(i, j, 1)
		}
	}
	d, err := NewDropout(0.5)
	require.NoError(t, err)

	assert.Same(t, x, d.Forward(x, false, nil))

	out := d.Forward(x, true, utils.NewSource(5))
	zeros := 0
	for _, v := range out.RawMatrix().Data {
		switch v {
		case 0:
			zeros++
		case 2:
		default:
			t.Fatalf("unexpected value %v", v)
		}
	}
	assert.Greater(t, zeros, 0)
	assert.Less(t, zeros, 200)

	all, _ := NewDropout(1)
	assert.Equal(t, 0.0, mat.Sum(all.Forward(x, true, utils.NewSource(5))))

	_, err = NewDropout(1.5)
	require.Error(t, err)
	_, err = NewDropouts([]float64{0.1, 0.2}, 4)
	require.Error(t, err)
}

func TestConvForward(t *testing.T) {
	c := &Conv2D{
		Channels: 1, KernelH: 2, KernelW: 2,
		Weight: mat.NewDense(1, 4, []float64{1, 0, 0, 1}),
		Bias:   mat.NewDense(1, 1, []float64{0.5}),
	}
	// embedding columns (1,2) (3,4) (5,6)
	x := mat.NewDense(2, 3, []float64{
		1, 3, 5,
		2, 4, 6,
	})
	out, err := c.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{5.5, 9.5}, out.RawRowView(0))

	_, err = c.Forward(mat.NewDense(3, 3, nil))
	require.Error(t, err)
	_, err = c.Forward(mat.NewDense(2, 1, nil))
	require.Error(t, err)
}

func TestConvOutputLengthAndInit(t *testing.T) {
	c := NewConv2D(utils.NewSource(2), 10, 7, 100)
	x := mat.NewDense(100, 30, utils.NormalArray(utils.NewSource(3), 3000))
	out, err := c.Forward(x)
	require.NoError(t, err)
	r, cols := out.Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 24, cols)

	bound := math.Sqrt(6.0 / 7700)
	for _, v := range c.Weight.RawMatrix().Data {
		require.LessOrEqual(t, math.Abs(v), bound)
	}
	for _, v := range c.Bias.RawMatrix().Data {
		require.LessOrEqual(t, math.Abs(v), 1/math.Sqrt(700))
	}
}

func TestMaxPool(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, -5,
		7, -2,
		3, 0,
		2, 9,
	})
	out := MaxPool1D{Kernel: 2}.Forward(x)
	assert.Equal(t, []float64{7, -2}, out.RawRowView(0))
	assert.Equal(t, []float64{3, 9}, out.RawRowView(1))

	whole := MaxPool1D{Kernel: 4}.Forward(x)
	r, _ := whole.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, []float64{7, 9}, whole.RawRowView(0))
}
