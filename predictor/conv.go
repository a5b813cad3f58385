package predictor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/layers"
	"github.com/QuoteVote/quotevote-ai/params"
	"github.com/QuoteVote/quotevote-ai/utils"
)

// Conv classifies a padded sequence into five classes:
//
//	embed -> conv(7 x 100, 10 channels) -> max over channels -> dropout
//	-> 3 x (linear, relu, dropout) -> linear(5)
type Conv struct {
	mode
	cfg params.ConvConfig

	Embedding *layers.Embedding
	Conv      *layers.Conv2D
	Pool      layers.MaxPool1D
	Dense     []*layers.Linear // 4 stages
	Dropout   []layers.Dropout // 4 sites
}

var _ Predictor = (*Conv)(nil)

// NewConv builds the model. A non-nil wordVectors (V x D) becomes a frozen
// embedding table; otherwise a random table of cfg.VocabLength rows is used.
func NewConv(cfg params.ConvConfig, wordVectors mat.Matrix) (*Conv, error) {
	if cfg.InputSize < params.ConvKernelHeight {
		return nil, fmt.Errorf("conv: input size %d shorter than kernel height %d", cfg.InputSize, params.ConvKernelHeight)
	}
	if len(cfg.Hidden) != 3 {
		return nil, fmt.Errorf("conv: need 3 hidden widths, got %d", len(cfg.Hidden))
	}
	drops, err := layers.NewDropouts(cfg.Dropout, 4)
	if err != nil {
		return nil, fmt.Errorf("conv: %w", err)
	}

	c := &Conv{
		mode:    newMode(cfg.Seed),
		cfg:     cfg,
		Pool:    layers.MaxPool1D{Kernel: params.ConvPoolSize},
		Dropout: drops,
	}
	if wordVectors != nil {
		c.Embedding = layers.NewPretrainedEmbedding(wordVectors)
	} else {
		c.Embedding = layers.NewEmbedding(c.src, cfg.VocabLength, cfg.EmbeddingDim)
	}
	if _, d := c.Embedding.Dims(); d != params.ConvKernelWidth {
		return nil, fmt.Errorf("conv: embedding width %d, kernel width %d", d, params.ConvKernelWidth)
	}
	c.Conv = layers.NewConv2D(c.src, params.ConvChannels, params.ConvKernelHeight, params.ConvKernelWidth)

	widths := append([]int{c.featureSize()}, cfg.Hidden...)
	widths = append(widths, params.ConvClasses)
	for i := 0; i+1 < len(widths); i++ {
		c.Dense = append(c.Dense, layers.NewLinear(c.src, widths[i], widths[i+1]))
	}
	return c, nil
}

func (c *Conv) Kind() string        { return KindConv }
func (c *Conv) SequenceLength() int { return c.cfg.InputSize }

// featureSize is the number of pooled features per sequence.
func (c *Conv) featureSize() int {
	return (c.cfg.InputSize - params.ConvKernelHeight + 1) * (params.ConvChannels / params.ConvPoolSize)
}

// Forward returns unnormalised class scores, (5 x B).
func (c *Conv) Forward(batch [][]int) (*mat.Dense, error) {
	if err := validateBatch(batch, c.cfg.InputSize); err != nil {
		return nil, fmt.Errorf("conv: %w", err)
	}
	feats := mat.NewDense(c.featureSize(), len(batch), nil)
	for b, ids := range batch {
		x, err := c.Embedding.Lookup(ids)
		if err != nil {
			return nil, fmt.Errorf("conv: sequence %d: %w", b, err)
		}
		maps, err := c.Conv.Forward(x)
		if err != nil {
			return nil, fmt.Errorf("conv: %w", err)
		}
		// (groups x positions), flattened position-major
		pooled := c.Pool.Forward(maps)
		groups, positions := pooled.Dims()
		for p := 0; p < positions; p++ {
			for g := 0; g < groups; g++ {
				feats.Set(p*groups+g, b, pooled.At(g, p))
			}
		}
	}

	h := c.Dropout[0].Forward(feats, c.training, c.src)
	for i := 0; i < 3; i++ {
		h = utils.Relu(c.Dense[i].Forward(h))
		h = c.Dropout[i+1].Forward(h, c.training, c.src)
	}
	return c.Dense[3].Forward(h), nil
}

// Predict returns per-sequence class probabilities, (5 x B).
func (c *Conv) Predict(batch [][]int) (*mat.Dense, error) {
	scores, err := c.Forward(batch)
	if err != nil {
		return nil, err
	}
	return utils.ColSoftmax(scores), nil
}

// StateDict returns the parameters by name. The matrices alias the model.
func (c *Conv) StateDict() map[string]*mat.Dense {
	sd := map[string]*mat.Dense{
		"input_layer.weight": c.Embedding.Weight,
		"cov_layer.weight":   c.Conv.Weight,
		"cov_layer.bias":     c.Conv.Bias,
	}
	for i, l := range c.Dense {
		sd[fmt.Sprintf("layer%d.weight", i+1)] = l.Weight
		sd[fmt.Sprintf("layer%d.bias", i+1)] = l.Bias
	}
	return sd
}

func (c *Conv) LoadStateDict(tensors map[string]*mat.Dense) error {
	if err := loadAll(c.StateDict(), tensors); err != nil {
		return fmt.Errorf("conv: %w", err)
	}
	return nil
}
