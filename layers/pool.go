package layers

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MaxPool1D takes the maximum over non-overlapping windows of Kernel rows,
// column by column. Trailing rows that do not fill a window are dropped.
type MaxPool1D struct {
	Kernel int
}

// Forward maps (C x P) to (C/Kernel x P).
func (mp MaxPool1D) Forward(x mat.Matrix) *mat.Dense {
	r, c := x.Dims()
	groups := r / mp.Kernel
	out := mat.NewDense(groups, c, nil)
	for g := 0; g < groups; g++ {
		row := out.RawRowView(g)
		for j := 0; j < c; j++ {
			mx := math.Inf(-1)
			for i := g * mp.Kernel; i < (g+1)*mp.Kernel; i++ {
				if v := x.At(i, j); v > mx {
					mx = v
				}
			}
			row[j] = mx
		}
	}
	return out
}
