package predictor

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/utils"
)

const (
	KindConv        = "conv"
	KindTransformer = "transformer"
)

// Predictor scores batches of padded token sequences. Outputs hold one
// column per input sequence.
type Predictor interface {
	Kind() string
	// SequenceLength is the padded length every input row must have.
	SequenceLength() int
	Forward(batch [][]int) (*mat.Dense, error)
	Predict(batch [][]int) (*mat.Dense, error)

	Train()
	Eval()
	Training() bool

	StateDict() map[string]*mat.Dense
	LoadStateDict(tensors map[string]*mat.Dense) error
}

// mode tracks train/eval state. Predictors start in eval mode, where
// forward passes are deterministic and safe for concurrent use.
type mode struct {
	training bool
	src      rand.Source
}

func newMode(seed uint64) mode {
	return mode{src: utils.NewSource(seed)}
}

func (m *mode) Train()         { m.training = true }
func (m *mode) Eval()          { m.training = false }
func (m *mode) Training() bool { return m.training }

func validateBatch(batch [][]int, length int) error {
	if len(batch) == 0 {
		return fmt.Errorf("empty batch")
	}
	for i, ids := range batch {
		if len(ids) != length {
			return fmt.Errorf("sequence %d has length %d, want %d", i, len(ids), length)
		}
	}
	return nil
}

// loadAll copies tensors into the parameters in dst. Nothing is written
// unless every name and shape matches.
func loadAll(dst, tensors map[string]*mat.Dense) error {
	for name := range tensors {
		if _, ok := dst[name]; !ok {
			return fmt.Errorf("unexpected tensor %q", name)
		}
	}
	for name, m := range dst {
		src, ok := tensors[name]
		if !ok {
			return fmt.Errorf("missing tensor %q", name)
		}
		dr, dc := m.Dims()
		sr, sc := src.Dims()
		if dr != sr || dc != sc {
			return fmt.Errorf("tensor %q: shape (%d x %d), model wants (%d x %d)", name, sr, sc, dr, dc)
		}
	}
	for name, m := range dst {
		m.Copy(tensors[name])
	}
	return nil
}
