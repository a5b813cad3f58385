package transformer

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/layers"
	"github.com/QuoteVote/quotevote-ai/utils"
)

// EncoderLayer is a post-norm encoder block:
//
//	x = norm1(x + drop1(attn(x)))
//	x = norm2(x + drop2(ff(x)))
type EncoderLayer struct {
	Attn               *Attention
	FF                 *FeedForward
	Norm1, Norm2       *LayerNorm
	Dropout1, Dropout2 layers.Dropout
}

func NewEncoderLayer(src rand.Source, dModel, heads, dFF int, dropout, eps float64) (*EncoderLayer, error) {
	attn, err := NewAttention(src, dModel, heads, dropout)
	if err != nil {
		return nil, err
	}
	drop, err := layers.NewDropout(dropout)
	if err != nil {
		return nil, err
	}
	return &EncoderLayer{
		Attn:     attn,
		FF:       NewFeedForward(src, dModel, dFF, drop),
		Norm1:    NewLayerNorm(dModel, eps),
		Norm2:    NewLayerNorm(dModel, eps),
		Dropout1: drop,
		Dropout2: drop,
	}, nil
}

// Forward maps X (dModel x T) to (dModel x T).
func (l *EncoderLayer) Forward(X *mat.Dense, train bool, src rand.Source) *mat.Dense {
	a := l.Dropout1.Forward(l.Attn.Forward(X, train, src), train, src)
	x := l.Norm1.Forward(utils.Add(X, a))
	f := l.Dropout2.Forward(l.FF.Forward(x, train, src), train, src)
	return l.Norm2.Forward(utils.Add(x, f))
}

func (l *EncoderLayer) Clone() *EncoderLayer {
	return &EncoderLayer{
		Attn:     l.Attn.Clone(),
		FF:       l.FF.Clone(),
		Norm1:    l.Norm1.Clone(),
		Norm2:    l.Norm2.Clone(),
		Dropout1: l.Dropout1,
		Dropout2: l.Dropout2,
	}
}

// Encoder stacks independent copies of one layer.
type Encoder struct {
	Layers []*EncoderLayer
}

// NewEncoder deep-copies layer n times: every copy starts from the same
// values and owns its own parameters.
func NewEncoder(layer *EncoderLayer, n int) *Encoder {
	e := &Encoder{Layers: make([]*EncoderLayer, n)}
	for i := range e.Layers {
		e.Layers[i] = layer.Clone()
	}
	return e
}

func (e *Encoder) Forward(X *mat.Dense, train bool, src rand.Source) *mat.Dense {
	x := X
	for i, l := range e.Layers {
		x = l.Forward(x, train, src)
		utils.Debugf("encoder: layer %d done (T=%d)", i, x.RawMatrix().Cols)
	}
	return x
}

// SetParallel toggles goroutine-per-head attention for every layer.
func (e *Encoder) SetParallel(on bool) {
	for _, l := range e.Layers {
		l.Attn.Parallel = on
	}
}
