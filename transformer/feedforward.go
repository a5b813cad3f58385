package transformer

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/layers"
	"github.com/QuoteVote/quotevote-ai/utils"
)

// FeedForward is the position-wise block: Hidden -> ReLU -> dropout -> Output.
type FeedForward struct {
	Hidden  *layers.Linear // (ff x d)
	Output  *layers.Linear // (d x ff)
	Dropout layers.Dropout
}

func NewFeedForward(src rand.Source, dModel, dFF int, dropout layers.Dropout) *FeedForward {
	return &FeedForward{
		Hidden:  layers.NewLinear(src, dModel, dFF),
		Output:  layers.NewLinear(src, dFF, dModel),
		Dropout: dropout,
	}
}

func (ff *FeedForward) Forward(X *mat.Dense, train bool, src rand.Source) *mat.Dense {
	hidden := utils.Relu(ff.Hidden.Forward(X))
	return ff.Output.Forward(ff.Dropout.Forward(hidden, train, src))
}

func (ff *FeedForward) Clone() *FeedForward {
	return &FeedForward{
		Hidden:  ff.Hidden.Clone(),
		Output:  ff.Output.Clone(),
		Dropout: ff.Dropout,
	}
}
