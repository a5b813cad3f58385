package transformer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/QuoteVote/quotevote-ai/utils"
)

func randomInput(seed uint64, d, T int) *mat.Dense {
	return mat.NewDense(d, T, utils.NormalArray(utils.NewSource(seed), d*T))
}

func TestLayerNormColumns(t *testing.T) {
	ln := NewLayerNorm(8, 1e-5)
	x := randomInput(1, 8, 3)
	y := ln.Forward(x)
	col := make([]float64, 8)
	for j := 0; j < 3; j++ {
		mat.Col(col, j, y)
		mean, std := stat.PopMeanStdDev(col, nil)
		assert.InDelta(t, 0, mean, 1e-9)
		assert.InDelta(t, 1, std, 1e-3)
	}
}

func TestLayerNormConstantColumn(t *testing.T) {
	ln := NewLayerNorm(4, 1e-5)
	x := mat.NewDense(4, 1, []float64{2, 2, 2, 2})
	y := ln.Forward(x)
	assert.False(t, utils.HasNaN(y))
	assert.Equal(t, 0.0, mat.Sum(y))
}

func TestAttentionRejectsBadHeads(t *testing.T) {
	_, err := NewAttention(utils.NewSource(1), 10, 3, 0)
	require.Error(t, err)
}

func TestAttentionSingleToken(t *testing.T) {
	attn, err := NewAttention(utils.NewSource(2), 10, 5, 0.1)
	require.NoError(t, err)
	attn.InProjBias.Set(25, 0, 0.3)
	x := randomInput(3, 10, 1)

	// one token attends only to itself, so the output is out_proj(v)
	v := utils.Dot(attn.InProj.Slice(20, 30, 0, 10), x)
	v = utils.AddBias(v, attn.InProjBias.Slice(20, 30, 0, 1).(*mat.Dense))
	want := attn.Out.Forward(v)

	got := attn.Forward(x, false, nil)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))
}

func TestAttentionPermutationEquivariant(t *testing.T) {
	attn, err := NewAttention(utils.NewSource(4), 10, 5, 0)
	require.NoError(t, err)
	x := randomInput(5, 10, 4)
	perm := []int{2, 0, 3, 1}
	xp := mat.NewDense(10, 4, nil)
	col := make([]float64, 10)
	for j, p := range perm {
		mat.Col(col, p, x)
		xp.SetCol(j, col)
	}

	y := attn.Forward(x, false, nil)
	yp := attn.Forward(xp, false, nil)
	for j, p := range perm {
		for i := 0; i < 10; i++ {
			assert.InDelta(t, y.At(i, p), yp.At(i, j), 1e-12)
		}
	}
}

func TestAttentionParallelMatchesSequential(t *testing.T) {
	attn, err := NewAttention(utils.NewSource(6), 100, 5, 0.1)
	require.NoError(t, err)
	x := randomInput(7, 100, 6)

	seq := attn.Forward(x, false, nil)
	attn.Parallel = true
	par := attn.Forward(x, false, nil)
	assert.True(t, mat.Equal(seq, par))
}

func TestEncoderClonesAreIndependent(t *testing.T) {
	layer, err := NewEncoderLayer(utils.NewSource(8), 100, 5, 50, 0.1, 1e-5)
	require.NoError(t, err)
	enc := NewEncoder(layer, 4)
	require.Len(t, enc.Layers, 4)

	for _, l := range enc.Layers[1:] {
		assert.True(t, mat.Equal(enc.Layers[0].Attn.InProj, l.Attn.InProj))
		assert.True(t, mat.Equal(enc.Layers[0].FF.Hidden.Weight, l.FF.Hidden.Weight))
	}
	enc.Layers[0].Attn.InProj.Set(0, 0, 123)
	enc.Layers[0].Norm1.Gamma.Set(0, 0, 9)
	assert.NotEqual(t, 123.0, enc.Layers[1].Attn.InProj.At(0, 0))
	assert.Equal(t, 1.0, enc.Layers[1].Norm1.Gamma.At(0, 0))
	assert.NotEqual(t, 123.0, layer.Attn.InProj.At(0, 0))
}

func TestEncoderForward(t *testing.T) {
	layer, err := NewEncoderLayer(utils.NewSource(10), 100, 5, 50, 0.1, 1e-5)
	require.NoError(t, err)
	enc := NewEncoder(layer, 4)
	x := randomInput(11, 100, 7)

	y1 := enc.Forward(x, false, nil)
	r, c := y1.Dims()
	assert.Equal(t, 100, r)
	assert.Equal(t, 7, c)
	assert.False(t, utils.HasNaN(y1))

	y2 := enc.Forward(x, false, nil)
	assert.True(t, mat.Equal(y1, y2))

	y3 := enc.Forward(x, true, utils.NewSource(12))
	assert.False(t, mat.Equal(y1, y3))
}
