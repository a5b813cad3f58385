package params

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads service settings from the environment, after applying envFile
// when it exists. A missing envFile is not an error.
func Load(envFile string) (*ServiceConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "loading %s", envFile)
		}
	}

	cfg := DefaultService
	cfg.Addr = getEnv("SCORE_ADDR", cfg.Addr)
	cfg.ModelKind = strings.ToLower(getEnv("SCORE_MODEL_KIND", cfg.ModelKind))
	cfg.ModelPath = getEnv("SCORE_MODEL_PATH", cfg.ModelPath)
	cfg.ModelConfigPath = getEnv("SCORE_MODEL_CONFIG", cfg.ModelConfigPath)
	cfg.VocabPath = getEnv("SCORE_VOCAB_PATH", cfg.VocabPath)
	cfg.VectorsPath = getEnv("SCORE_VECTORS_PATH", cfg.VectorsPath)
	cfg.DefaultComment = getEnv("SCORE_DEFAULT_COMMENT", cfg.DefaultComment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	ints := []struct {
		key string
		dst *int
	}{
		{"SCORE_MAX_LENGTH", &cfg.MaxLength},
		{"SCORE_VOCAB_LENGTH", &cfg.VocabLength},
		{"SCORE_CACHE_SIZE", &cfg.CacheSize},
		{"SCORE_DATASET_SIZE", &cfg.DatasetSize},
		{"SCORE_MIN_SIGNIFICANT_SIZE", &cfg.MinSignificantSize},
	}
	for _, v := range ints {
		n, err := getEnvAsInt(v.key, *v.dst)
		if err != nil {
			return nil, err
		}
		*v.dst = n
	}

	cfg.Conv = DefaultConvConfig()
	cfg.Conv.InputSize = cfg.MaxLength
	cfg.Conv.VocabLength = cfg.VocabLength
	cfg.Transformer = DefaultTransformerConfig()
	cfg.Transformer.MaxLength = cfg.MaxLength
	cfg.Transformer.VocabLength = cfg.VocabLength

	if cfg.ModelConfigPath != "" {
		if err := cfg.loadModelConfig(cfg.ModelConfigPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadModelConfig overrides the architecture sections from a yaml file.
// Only keys present in the file change.
func (c *ServiceConfig) loadModelConfig(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading model config")
	}
	doc := struct {
		Conv        *ConvConfig        `yaml:"conv"`
		Transformer *TransformerConfig `yaml:"transformer"`
	}{Conv: &c.Conv, Transformer: &c.Transformer}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}
	return nil
}

func (c *ServiceConfig) Validate() error {
	switch c.ModelKind {
	case "transformer", "conv":
	default:
		return errors.Errorf("unknown model kind %q", c.ModelKind)
	}
	if c.VocabPath == "" {
		return errors.New("vocabulary path is required")
	}
	if c.SequenceLength() <= 0 {
		return errors.New("sequence length must be positive")
	}
	if c.CacheSize < 0 {
		return errors.Errorf("cache size %d must not be negative", c.CacheSize)
	}
	return nil
}

// SequenceLength is the padded token length the selected model consumes.
func (c *ServiceConfig) SequenceLength() int {
	if c.ModelKind == "conv" {
		return c.Conv.InputSize
	}
	return c.Transformer.MaxLength
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be an integer", key)
	}
	return n, nil
}
