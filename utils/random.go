package utils

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// NewSource returns the deterministic source every model component draws from.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

func uniformArray(src rand.Source, size int, bound float64) []float64 {
	u := distuv.Uniform{Min: -bound, Max: bound, Src: src}
	out := make([]float64, size)
	for i := range out {
		out[i] = u.Rand()
	}
	return out
}

// RandomArray returns 'size' samples from U(-1/sqrt(v), 1/sqrt(v)), the
// default initialisation of dense layers with fan-in v.
func RandomArray(src rand.Source, size int, v float64) []float64 {
	return uniformArray(src, size, 1.0/math.Sqrt(v+1e-12))
}

// XavierUniform returns 'size' samples from U(-a, a), a = sqrt(6/(fanIn+fanOut)).
func XavierUniform(src rand.Source, size int, fanIn, fanOut float64) []float64 {
	return uniformArray(src, size, XavierBound(fanIn, fanOut))
}

func XavierBound(fanIn, fanOut float64) float64 {
	return math.Sqrt(6.0 / (fanIn + fanOut))
}

// NormalArray returns 'size' samples from N(0, 1).
func NormalArray(src rand.Source, size int) []float64 {
	n := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	out := make([]float64, size)
	for i := range out {
		out[i] = n.Rand()
	}
	return out
}
