package params

// Vocabulary maps lemmas to embedding rows. Index 0 is padding, 1 is unknown.
type Vocabulary struct {
	TokenToID map[string]int
	IDToToken []string
}

const (
	PadID     = 0
	UnknownID = 1
)

// Fixed architecture of the convolutional predictor.
const (
	ConvChannels     = 10
	ConvKernelHeight = 7
	ConvKernelWidth  = 100
	ConvPoolSize     = 10
	ConvClasses      = 5
)

// Fixed architecture of the transformer predictor.
const (
	ModelDim      = 100
	NumHeads      = 5
	FeedForward   = 50
	EncoderLayers = 4
)

type ConvConfig struct {
	VocabLength  int       `yaml:"vocab_length"`  // rows of a freshly initialised table
	EmbeddingDim int       `yaml:"embedding_dim"` // must match the kernel width
	InputSize    int       `yaml:"input_size"`    // padded sequence length
	Hidden       []int     `yaml:"hidden"`        // widths of the three hidden dense layers
	Dropout      []float64 `yaml:"dropout"`       // 4 probabilities
	Seed         uint64    `yaml:"seed"`
}

type TransformerConfig struct {
	VocabLength    int       `yaml:"vocab_length"`
	VocabDim       int       `yaml:"vocab_dim"`  // must equal ModelDim
	MaxLength      int       `yaml:"max_length"` // padded sequence length
	Hidden         []int     `yaml:"hidden"`     // widths of the five hidden dense layers
	Dropout        []float64 `yaml:"dropout"`    // 5 probabilities
	EncoderDropout float64   `yaml:"encoder_dropout"`
	LayerNormEps   float64   `yaml:"layer_norm_eps"`
	// BatchFirst=false attends across the batch axis at every position
	// (sequence-first tensor layout fed to a batch-first encoder).
	BatchFirst bool   `yaml:"batch_first"`
	Seed       uint64 `yaml:"seed"`
}

type ServiceConfig struct {
	Addr               string
	ModelKind          string // "transformer" or "conv"
	ModelPath          string // gob checkpoint, optional
	ModelConfigPath    string // yaml architecture override, optional
	VocabPath          string
	VectorsPath        string // GloVe style text file, optional
	MaxLength          int
	VocabLength        int
	CacheSize          int
	DatasetSize        int
	MinSignificantSize int
	DefaultComment     string
	LogLevel           string
	LogFormat          string

	Conv        ConvConfig        `yaml:"conv"`
	Transformer TransformerConfig `yaml:"transformer"`
}

var DefaultConv = ConvConfig{
	VocabLength:  100,
	EmbeddingDim: 100,
	InputSize:    1110,
	Hidden:       []int{500, 200, 50},
	Dropout:      []float64{0.25, 0.25, 0.25, 0.25},
	Seed:         1,
}

var DefaultTransformer = TransformerConfig{
	VocabLength:    100,
	VocabDim:       100,
	MaxLength:      227,
	Hidden:         []int{500, 300, 100, 50, 10},
	Dropout:        []float64{0.25, 0.25, 0.25, 0.25, 0.25},
	EncoderDropout: 0.1,
	LayerNormEps:   1e-5,
	BatchFirst:     true,
	Seed:           1,
}

var DefaultService = ServiceConfig{
	Addr:               ":5000",
	ModelKind:          "transformer",
	ModelPath:          "models/reddit_transformer.gob",
	VocabPath:          "models/vocab.json",
	MaxLength:          300,
	VocabLength:        15137,
	CacheSize:          1024,
	DatasetSize:        500,
	MinSignificantSize: 1000,
	DefaultComment:     "Reddit Comment",
	LogLevel:           "info",
	LogFormat:          "json",
}

// DefaultConvConfig returns a copy of DefaultConv safe to mutate.
func DefaultConvConfig() ConvConfig {
	c := DefaultConv
	c.Hidden = append([]int(nil), DefaultConv.Hidden...)
	c.Dropout = append([]float64(nil), DefaultConv.Dropout...)
	return c
}

// DefaultTransformerConfig returns a copy of DefaultTransformer safe to mutate.
func DefaultTransformerConfig() TransformerConfig {
	c := DefaultTransformer
	c.Hidden = append([]int(nil), DefaultTransformer.Hidden...)
	c.Dropout = append([]float64(nil), DefaultTransformer.Dropout...)
	return c
}
