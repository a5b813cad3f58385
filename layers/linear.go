package layers

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/utils"
)

// Linear computes y = W x + b for every column x of its input.
type Linear struct {
	In, Out int
	Weight  *mat.Dense // (out x in)
	Bias    *mat.Dense // (out x 1)
}

// NewLinear draws weight and bias from U(-1/sqrt(in), 1/sqrt(in)).
func NewLinear(src rand.Source, in, out int) *Linear {
	return &Linear{
		In:     in,
		Out:    out,
		Weight: mat.NewDense(out, in, utils.RandomArray(src, out*in, float64(in))),
		Bias:   mat.NewDense(out, 1, utils.RandomArray(src, out, float64(in))),
	}
}

// Forward maps (in x B) to (out x B).
func (l *Linear) Forward(x mat.Matrix) *mat.Dense {
	return utils.AddBias(utils.Dot(l.Weight, x), l.Bias)
}

func (l *Linear) Clone() *Linear {
	return &Linear{
		In:     l.In,
		Out:    l.Out,
		Weight: mat.DenseCopyOf(l.Weight),
		Bias:   mat.DenseCopyOf(l.Bias),
	}
}
