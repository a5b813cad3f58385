package layers

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Dropout zeroes entries with probability P during training and scales the
// survivors by 1/(1-P). Outside training it is the identity.
type Dropout struct {
	P float64
}

func NewDropout(p float64) (Dropout, error) {
	if p < 0 || p > 1 {
		return Dropout{}, fmt.Errorf("dropout: probability %v outside [0,1]", p)
	}
	return Dropout{P: p}, nil
}

// Forward returns x itself when not training; callers must not mutate it.
func (d Dropout) Forward(x *mat.Dense, train bool, src rand.Source) *mat.Dense {
	if !train || d.P == 0 {
		return x
	}
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	if d.P >= 1 {
		return out
	}
	keep := distuv.Bernoulli{P: 1 - d.P, Src: src}
	scale := 1 / (1 - d.P)
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		for j := 0; j < c; j++ {
			if keep.Rand() == 1 {
				row[j] = x.At(i, j) * scale
			}
		}
	}
	return out
}

// NewDropouts validates a per-stage probability list of the expected length.
func NewDropouts(ps []float64, want int) ([]Dropout, error) {
	if len(ps) != want {
		return nil, fmt.Errorf("dropout: need %d probabilities, got %d", want, len(ps))
	}
	out := make([]Dropout, len(ps))
	for i, p := range ps {
		d, err := NewDropout(p)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		out[i] = d
	}
	return out, nil
}
