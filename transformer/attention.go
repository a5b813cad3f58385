package transformer

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/layers"
	"github.com/QuoteVote/quotevote-ai/utils"
)

// Attention is bidirectional multi-head self-attention. Every token attends
// to every other token, padding included.
type Attention struct {
	H      int
	DModel int
	DHead  int
	// Rows [0,D) project queries, [D,2D) keys, [2D,3D) values.
	InProj     *mat.Dense // (3*dModel x dModel)
	InProjBias *mat.Dense // (3*dModel x 1)
	Out        *layers.Linear
	Dropout    layers.Dropout // applied to the attention weights

	// Parallel runs heads on separate goroutines outside training.
	Parallel bool
}

func NewAttention(src rand.Source, dModel, heads int, dropout float64) (*Attention, error) {
	if heads <= 0 || dModel%heads != 0 {
		return nil, fmt.Errorf("attention: model dim %d not divisible by %d heads", dModel, heads)
	}
	drop, err := layers.NewDropout(dropout)
	if err != nil {
		return nil, err
	}
	out := layers.NewLinear(src, dModel, dModel)
	out.Bias.Zero()
	return &Attention{
		H:          heads,
		DModel:     dModel,
		DHead:      dModel / heads,
		InProj:     mat.NewDense(3*dModel, dModel, utils.XavierUniform(src, 3*dModel*dModel, float64(dModel), float64(3*dModel))),
		InProjBias: mat.NewDense(3*dModel, 1, nil),
		Out:        out,
		Dropout:    drop,
	}, nil
}

// Forward maps X (dModel x T) to (dModel x T).
func (attn *Attention) Forward(X *mat.Dense, train bool, src rand.Source) *mat.Dense {
	_, T := X.Dims()
	qkv := utils.AddBias(utils.Dot(attn.InProj, X), attn.InProjBias) // (3D x T)
	headsCat := mat.NewDense(attn.DModel, T, nil)
	rescale := 1.0 / math.Sqrt(float64(attn.DHead))

	work := func(h int) {
		base := h * attn.DHead
		q := qkv.Slice(base, base+attn.DHead, 0, T)
		k := qkv.Slice(attn.DModel+base, attn.DModel+base+attn.DHead, 0, T)
		v := qkv.Slice(2*attn.DModel+base, 2*attn.DModel+base+attn.DHead, 0, T)

		// S = (Q^T K)/sqrt, row i holds the scores of query i
		scores := utils.Dot(q.T(), k)
		scores.Scale(rescale, scores)
		a := attn.Dropout.Forward(utils.RowSoftmax(scores), train, src)

		// O = V * A^T
		dst := headsCat.Slice(base, base+attn.DHead, 0, T).(*mat.Dense)
		dst.Mul(v, a.T())
	}
	if attn.Parallel && !train && attn.H > 1 {
		var wg sync.WaitGroup
		wg.Add(attn.H)
		for h := 0; h < attn.H; h++ {
			go func() { defer wg.Done(); work(h) }()
		}
		wg.Wait()
	} else {
		for h := 0; h < attn.H; h++ {
			work(h)
		}
	}
	return attn.Out.Forward(headsCat)
}

func (attn *Attention) Clone() *Attention {
	c := *attn
	c.InProj = mat.DenseCopyOf(attn.InProj)
	c.InProjBias = mat.DenseCopyOf(attn.InProjBias)
	c.Out = attn.Out.Clone()
	return &c
}
