package api

import (
	"context"
	"log/slog"
	"math"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/QuoteVote/quotevote-ai/IO"
	"github.com/QuoteVote/quotevote-ai/params"
	"github.com/QuoteVote/quotevote-ai/predictor"
	"github.com/QuoteVote/quotevote-ai/utils"
)

// Score is the answer to a score query.
type Score struct {
	Comment     string  `json:"comment"`
	Confidence  float64 `json:"confidence"`
	Significant bool    `json:"significant"`
}

// Service owns everything a query needs: the model in eval mode, the
// tokenizer with its vocabulary, and a cache of past predictions.
type Service struct {
	cfg   params.ServiceConfig
	model predictor.Predictor
	tok   *IO.Tokenizer
	cache *lru.Cache // nil when disabled
	log   *slog.Logger
}

// NewService wires a loaded model and tokenizer. The model is switched to
// eval mode.
func NewService(cfg params.ServiceConfig, model predictor.Predictor, tok *IO.Tokenizer, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	model.Eval()
	s := &Service{cfg: cfg, model: model, tok: tok, log: logger}
	if cfg.CacheSize > 0 {
		c, err := lru.New(cfg.CacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "creating prediction cache")
		}
		s.cache = c
	}
	return s, nil
}

// Open loads the vocabulary, optional word vectors and model checkpoint
// named by cfg. Any failure is fatal to startup.
func Open(cfg *params.ServiceConfig, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	vocab, err := IO.ImportVocabJSON(cfg.VocabPath)
	if err != nil {
		return nil, err
	}
	var vectors *mat.Dense
	if cfg.VectorsPath != "" {
		if vectors, err = IO.LoadWordVectors(cfg.VectorsPath, vocab); err != nil {
			return nil, err
		}
	}

	model, err := NewModel(cfg, vocab, vectors)
	if err != nil {
		return nil, err
	}
	if cfg.ModelPath != "" {
		if err := predictor.Load(model, cfg.ModelPath); err != nil {
			return nil, errors.Wrapf(err, "loading model %s", cfg.ModelPath)
		}
	} else {
		logger.Warn("no model checkpoint configured, serving random weights")
	}
	logger.Info("model loaded",
		"kind", model.Kind(),
		"sequence_length", model.SequenceLength(),
		"vocab_size", IO.VocabSize(vocab),
		"checkpoint", cfg.ModelPath)

	return NewService(*cfg, model, IO.NewTokenizer(vocab), logger)
}

// NewModel builds the predictor selected by cfg.ModelKind. Without vectors
// the random table must cover every vocabulary id.
func NewModel(cfg *params.ServiceConfig, vocab params.Vocabulary, vectors *mat.Dense) (predictor.Predictor, error) {
	var rows int
	switch cfg.ModelKind {
	case predictor.KindConv:
		rows = cfg.Conv.VocabLength
	default:
		rows = cfg.Transformer.VocabLength
	}
	if vectors == nil && rows < IO.VocabSize(vocab) {
		return nil, errors.Errorf("vocab length %d smaller than vocabulary (%d ids)", rows, IO.VocabSize(vocab))
	}

	var (
		m   predictor.Predictor
		err error
	)
	if cfg.ModelKind == predictor.KindConv {
		m, err = newConv(cfg.Conv, vectors)
	} else {
		m, err = newTransformer(cfg.Transformer, vectors)
	}
	return m, errors.Wrap(err, "building model")
}

// typed nil matrices must not reach the constructors as non-nil interfaces
func newConv(cfg params.ConvConfig, vectors *mat.Dense) (predictor.Predictor, error) {
	if vectors == nil {
		return predictor.NewConv(cfg, nil)
	}
	return predictor.NewConv(cfg, vectors)
}

func newTransformer(cfg params.TransformerConfig, vectors *mat.Dense) (predictor.Predictor, error) {
	if vectors == nil {
		return predictor.NewTransformer(cfg, nil)
	}
	return predictor.NewTransformer(cfg, vectors)
}

func (s *Service) Significant() bool {
	return s.cfg.DatasetSize >= s.cfg.MinSignificantSize
}

// Score answers a score query. A nil comment or the placeholder comment
// skips the model.
func (s *Service) Score(ctx context.Context, comment *string) (Score, error) {
	if comment == nil || *comment == s.cfg.DefaultComment {
		return Score{Comment: s.cfg.DefaultComment, Significant: s.Significant()}, nil
	}
	conf, err := s.Confidence(ctx, *comment)
	if err != nil {
		return Score{}, err
	}
	return Score{Comment: *comment, Confidence: conf, Significant: s.Significant()}, nil
}

// Confidence runs the model on one comment. The transformer's scalar is
// rounded half to even and clamped to [0,1]; the conv model reports its
// most likely class probability.
func (s *Service) Confidence(ctx context.Context, comment string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.cache != nil {
		if v, ok := s.cache.Get(comment); ok {
			return v.(float64), nil
		}
	}

	ids, err := s.tok.Encode(comment, s.model.SequenceLength())
	if err != nil {
		return 0, errors.Wrap(err, "tokenizing comment")
	}
	out, err := s.model.Predict([][]int{ids})
	if err != nil {
		return 0, errors.Wrap(err, "running model")
	}

	var conf float64
	if s.model.Kind() == predictor.KindConv {
		conf = utils.ColMax(out, 0)
	} else {
		raw := out.At(0, 0)
		conf = math.Min(math.Max(math.RoundToEven(raw), 0), 1)
		s.log.Debug("transformer prediction", "raw", raw, "confidence", conf)
	}

	if s.cache != nil {
		s.cache.Add(comment, conf)
	}
	return conf, nil
}
