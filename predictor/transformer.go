package predictor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/layers"
	"github.com/QuoteVote/quotevote-ai/params"
	"github.com/QuoteVote/quotevote-ai/transformer"
	"github.com/QuoteVote/quotevote-ai/utils"
)

// Transformer scores a padded sequence with a single unbounded scalar:
//
//	embed -> 4 encoder layers -> flatten -> 4 x (linear, relu, dropout)
//	-> linear, dropout, relu -> linear(1)
type Transformer struct {
	mode
	cfg params.TransformerConfig

	Embedding *layers.Embedding
	Encoder   *transformer.Encoder
	Dense     []*layers.Linear // 6 stages
	Dropout   []layers.Dropout // 5 sites
}

var _ Predictor = (*Transformer)(nil)

func NewTransformer(cfg params.TransformerConfig, wordVectors mat.Matrix) (*Transformer, error) {
	if cfg.MaxLength <= 0 {
		return nil, fmt.Errorf("transformer: max length %d must be positive", cfg.MaxLength)
	}
	if len(cfg.Hidden) != 5 {
		return nil, fmt.Errorf("transformer: need 5 hidden widths, got %d", len(cfg.Hidden))
	}
	drops, err := layers.NewDropouts(cfg.Dropout, 5)
	if err != nil {
		return nil, fmt.Errorf("transformer: %w", err)
	}

	m := &Transformer{
		mode:    newMode(cfg.Seed),
		cfg:     cfg,
		Dropout: drops,
	}
	if wordVectors != nil {
		m.Embedding = layers.NewPretrainedEmbedding(wordVectors)
	} else {
		m.Embedding = layers.NewEmbedding(m.src, cfg.VocabLength, cfg.VocabDim)
	}
	if _, d := m.Embedding.Dims(); d != params.ModelDim {
		return nil, fmt.Errorf("transformer: embedding width %d, model dim %d", d, params.ModelDim)
	}

	layer, err := transformer.NewEncoderLayer(m.src, params.ModelDim, params.NumHeads,
		params.FeedForward, cfg.EncoderDropout, cfg.LayerNormEps)
	if err != nil {
		return nil, fmt.Errorf("transformer: %w", err)
	}
	m.Encoder = transformer.NewEncoder(layer, params.EncoderLayers)

	widths := append([]int{cfg.MaxLength * params.ModelDim}, cfg.Hidden...)
	widths = append(widths, 1)
	for i := 0; i+1 < len(widths); i++ {
		m.Dense = append(m.Dense, layers.NewLinear(m.src, widths[i], widths[i+1]))
	}
	return m, nil
}

func (m *Transformer) Kind() string        { return KindTransformer }
func (m *Transformer) SequenceLength() int { return m.cfg.MaxLength }

// SetParallel runs attention heads concurrently during eval-mode forwards.
func (m *Transformer) SetParallel(on bool) { m.Encoder.SetParallel(on) }

// encode returns the encoder output for each sequence, (100 x L) each.
func (m *Transformer) encode(batch [][]int) ([]*mat.Dense, error) {
	embedded := make([]*mat.Dense, len(batch))
	for b, ids := range batch {
		x, err := m.Embedding.Lookup(ids)
		if err != nil {
			return nil, fmt.Errorf("transformer: sequence %d: %w", b, err)
		}
		embedded[b] = x
	}
	if m.cfg.BatchFirst {
		for b, x := range embedded {
			embedded[b] = m.Encoder.Forward(x, m.training, m.src)
		}
		return embedded, nil
	}

	// Sequence-first layout: at every position the batch is the attended axis.
	L := m.cfg.MaxLength
	out := make([]*mat.Dense, len(batch))
	for b := range out {
		out[b] = mat.NewDense(params.ModelDim, L, nil)
	}
	col := make([]float64, params.ModelDim)
	for t := 0; t < L; t++ {
		step := mat.NewDense(params.ModelDim, len(batch), nil)
		for b, x := range embedded {
			mat.Col(col, t, x)
			step.SetCol(b, col)
		}
		y := m.Encoder.Forward(step, m.training, m.src)
		for b := range out {
			mat.Col(col, b, y)
			out[b].SetCol(t, col)
		}
	}
	return out, nil
}

// Forward returns one raw score per sequence, (1 x B).
func (m *Transformer) Forward(batch [][]int) (*mat.Dense, error) {
	if err := validateBatch(batch, m.cfg.MaxLength); err != nil {
		return nil, fmt.Errorf("transformer: %w", err)
	}
	encoded, err := m.encode(batch)
	if err != nil {
		return nil, err
	}

	// Flatten (L, 100) row-major: feature t*100+d.
	L := m.cfg.MaxLength
	feats := mat.NewDense(L*params.ModelDim, len(batch), nil)
	col := make([]float64, params.ModelDim)
	for b, y := range encoded {
		for t := 0; t < L; t++ {
			mat.Col(col, t, y)
			for d, v := range col {
				feats.Set(t*params.ModelDim+d, b, v)
			}
		}
	}

	h := feats
	for i := 0; i < 4; i++ {
		h = utils.Relu(m.Dense[i].Forward(h))
		h = m.Dropout[i].Forward(h, m.training, m.src)
	}
	// stage 5 drops out before the activation
	h = m.Dropout[4].Forward(m.Dense[4].Forward(h), m.training, m.src)
	h = utils.Relu(h)
	return m.Dense[5].Forward(h), nil
}

// Predict returns a detached copy of the raw scores, (1 x B).
func (m *Transformer) Predict(batch [][]int) (*mat.Dense, error) {
	out, err := m.Forward(batch)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(out), nil
}

func (m *Transformer) StateDict() map[string]*mat.Dense {
	sd := map[string]*mat.Dense{"input_layer.weight": m.Embedding.Weight}
	for i, l := range m.Encoder.Layers {
		p := fmt.Sprintf("encoder.layers.%d.", i)
		sd[p+"self_attn.in_proj_weight"] = l.Attn.InProj
		sd[p+"self_attn.in_proj_bias"] = l.Attn.InProjBias
		sd[p+"self_attn.out_proj.weight"] = l.Attn.Out.Weight
		sd[p+"self_attn.out_proj.bias"] = l.Attn.Out.Bias
		sd[p+"linear1.weight"] = l.FF.Hidden.Weight
		sd[p+"linear1.bias"] = l.FF.Hidden.Bias
		sd[p+"linear2.weight"] = l.FF.Output.Weight
		sd[p+"linear2.bias"] = l.FF.Output.Bias
		sd[p+"norm1.weight"] = l.Norm1.Gamma
		sd[p+"norm1.bias"] = l.Norm1.Beta
		sd[p+"norm2.weight"] = l.Norm2.Gamma
		sd[p+"norm2.bias"] = l.Norm2.Beta
	}
	for i, l := range m.Dense {
		sd[fmt.Sprintf("layer%d.weight", i+1)] = l.Weight
		sd[fmt.Sprintf("layer%d.bias", i+1)] = l.Bias
	}
	return sd
}

func (m *Transformer) LoadStateDict(tensors map[string]*mat.Dense) error {
	if err := loadAll(m.StateDict(), tensors); err != nil {
		return fmt.Errorf("transformer: %w", err)
	}
	return nil
}
