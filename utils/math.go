package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix helpers shared by the layers. Activations are laid out one column
// per token (or per batch element), so a (d x T) matrix holds T vectors.

func Dot(m, n mat.Matrix) *mat.Dense {
	r, _ := m.Dims()
	_, c := n.Dims()
	o := mat.NewDense(r, c, nil)
	o.Mul(m, n)
	return o
}

func Apply(fn func(i, j int, v float64) float64, m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Apply(fn, m)
	return o
}

func Scale(s float64, m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Scale(s, m)
	return o
}

func Add(m, n mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Add(m, n)
	return o
}

func Multiply(m, n mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.MulElem(m, n)
	return o
}

// AddBias adds the (r x 1) column bias to every column of m.
func AddBias(m, bias *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	rb, cb := bias.Dims()
	if rb != r || cb != 1 {
		panic(fmt.Sprintf("addBias: bias must be (%d x 1), got (%d x %d)", r, rb, cb))
	}
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		b := bias.At(i, 0)
		row := out.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] = m.At(i, j) + b
		}
	}
	return out
}

func ReluApply(_, _ int, x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func Relu(m mat.Matrix) *mat.Dense {
	return Apply(ReluApply, m)
}

func ToDense(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}

// ---------- Softmax variants ----------

// softmaxInPlace normalises s with the max-subtraction trick.
func softmaxInPlace(s []float64) {
	if len(s) == 0 {
		return
	}
	mx := floats.Max(s)
	for i, v := range s {
		s[i] = math.Exp(v - mx)
	}
	floats.Scale(1/floats.Sum(s), s)
}

// RowSoftmax applies softmax independently to each row across columns.
// Used by attention, where row i holds the scores of query i.
func RowSoftmax(m mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(m)
	r, _ := out.Dims()
	for i := 0; i < r; i++ {
		softmaxInPlace(out.RawRowView(i))
	}
	return out
}

// ColSoftmax applies softmax down each column: one distribution per sample.
func ColSoftmax(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		softmaxInPlace(col)
		out.SetCol(j, col)
	}
	return out
}

// ColMax returns the largest entry of column j.
func ColMax(m mat.Matrix, j int) float64 {
	r, _ := m.Dims()
	col := make([]float64, r)
	mat.Col(col, j, m)
	return floats.Max(col)
}

// RowSums returns per-row sums.
func RowSums(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[i] += m.At(i, j)
		}
	}
	return out
}

// ColSums returns per-column sums.
func ColSums(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		out[j] = floats.Sum(col)
	}
	return out
}

// HasNaN reports whether any entry is NaN or infinite.
func HasNaN(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}
