package layers

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/utils"
)

// Embedding maps token indices to rows of a (V x D) table.
type Embedding struct {
	Weight *mat.Dense // (V x D)
	// Frozen tables came from pre-trained vectors and are never updated.
	Frozen bool
}

// NewEmbedding creates a trainable table initialised from N(0, 1).
func NewEmbedding(src rand.Source, vocab, dim int) *Embedding {
	return &Embedding{Weight: mat.NewDense(vocab, dim, utils.NormalArray(src, vocab*dim))}
}

// NewPretrainedEmbedding takes a copy of table and freezes it.
func NewPretrainedEmbedding(table mat.Matrix) *Embedding {
	return &Embedding{Weight: mat.DenseCopyOf(table), Frozen: true}
}

func (e *Embedding) Dims() (vocab, dim int) {
	return e.Weight.Dims()
}

// Lookup returns a (D x L) matrix whose column t is the row for ids[t].
func (e *Embedding) Lookup(ids []int) (*mat.Dense, error) {
	v, d := e.Weight.Dims()
	out := mat.NewDense(d, len(ids), nil)
	for t, id := range ids {
		if id < 0 || id >= v {
			return nil, fmt.Errorf("embedding: index %d at position %d out of range [0,%d)", id, t, v)
		}
		out.SetCol(t, e.Weight.RawRowView(id))
	}
	return out, nil
}

// Row returns a copy of the vector for id.
func (e *Embedding) Row(id int) []float64 {
	return append([]float64(nil), e.Weight.RawRowView(id)...)
}
