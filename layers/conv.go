package layers

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/utils"
)

// Conv2D is a single input channel convolution whose kernel spans the full
// embedding width, so it only slides along the sequence axis.
type Conv2D struct {
	Channels int
	KernelH  int // window along the sequence
	KernelW  int // must equal the embedding width
	// Row c holds kernel c flattened as [k*KernelW + d].
	Weight *mat.Dense // (Channels x KernelH*KernelW)
	Bias   *mat.Dense // (Channels x 1)
}

// NewConv2D uses Xavier-uniform weights and U(-1/sqrt(fanIn), 1/sqrt(fanIn)) biases.
func NewConv2D(src rand.Source, channels, kh, kw int) *Conv2D {
	fanIn := float64(kh * kw)
	fanOut := float64(channels * kh * kw)
	return &Conv2D{
		Channels: channels,
		KernelH:  kh,
		KernelW:  kw,
		Weight:   mat.NewDense(channels, kh*kw, utils.XavierUniform(src, channels*kh*kw, fanIn, fanOut)),
		Bias:     mat.NewDense(channels, 1, utils.RandomArray(src, channels, fanIn)),
	}
}

// Forward maps an embedded sequence (KernelW x L) to (Channels x L-KernelH+1).
func (c *Conv2D) Forward(x *mat.Dense) (*mat.Dense, error) {
	d, l := x.Dims()
	if d != c.KernelW {
		return nil, fmt.Errorf("conv: input width %d, kernel width %d", d, c.KernelW)
	}
	if l < c.KernelH {
		return nil, fmt.Errorf("conv: sequence length %d shorter than kernel %d", l, c.KernelH)
	}
	positions := l - c.KernelH + 1

	// im2col: column p stacks the KernelH embedding columns starting at p.
	cols := mat.NewDense(c.KernelH*d, positions, nil)
	col := make([]float64, d)
	for p := 0; p < positions; p++ {
		for k := 0; k < c.KernelH; k++ {
			mat.Col(col, p+k, x)
			for i, v := range col {
				cols.Set(k*d+i, p, v)
			}
		}
	}
	return utils.AddBias(utils.Dot(c.Weight, cols), c.Bias), nil
}
