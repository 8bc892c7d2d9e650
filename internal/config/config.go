// Package config provides the configuration of the seqtag tools.
// Configuration is loaded from (highest to lowest priority):
//  1. Command-line flags (applied by the caller)
//  2. Environment variables (SEQTAG_*), including those set in a .env file in the working directory
//  3. YAML config file (--config flag or SEQTAG_CONFIG)
//  4. Defaults
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/gomlx/go-seqtag/models/maxent"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of the environment variables read by Load.
const EnvPrefix = "SEQTAG_"

// Tokenizers accepted in Config.Tokenizer.
const (
	TokenizerSimple        = "simple"
	TokenizerWhitespace    = "whitespace"
	TokenizerSentencePiece = "sentencepiece"
	TokenizerMaxent        = "maxent"
)

// AlgorithmGIS is the only training algorithm.
const AlgorithmGIS = "GIS"

// Config holds all seqtag configuration.
type Config struct {
	// Train holds the training parameters.
	Train TrainConfig `yaml:"train" json:"train"`

	// BeamSize is the beam width used for decoding. Default: 3.
	BeamSize int `yaml:"beam_size" json:"beam_size"`

	// CrossValidation settings.
	CrossValidation CrossValidationConfig `yaml:"cross_validation" json:"cross_validation"`

	// HistoryDB is the SQLite database recording evaluation runs.
	// Default: .seqtag/history.db
	HistoryDB string `yaml:"history_db" json:"history_db"`

	// Language is informative, recorded with each run. Default: "en".
	Language string `yaml:"language" json:"language"`

	// Tokenizer used on raw text: "simple" (default), "whitespace", "sentencepiece" or "maxent".
	Tokenizer string `yaml:"tokenizer" json:"tokenizer"`

	// SentencePieceModel is the "tokenizer.model" file used by the "sentencepiece" tokenizer.
	SentencePieceModel string `yaml:"sentencepiece_model" json:"sentencepiece_model"`

	// TokenizerModel is the model file used by the "maxent" tokenizer.
	TokenizerModel string `yaml:"tokenizer_model" json:"tokenizer_model"`

	// Tokenize holds the options of the trainable tokenizer, used both to train and to apply it.
	Tokenize TokenizeConfig `yaml:"tokenize" json:"tokenize"`
}

// TokenizeConfig holds the options of the trainable maxent tokenizer.
type TokenizeConfig struct {
	// AlphaNumericOptimization keeps chunks of letters and digits as one token. Default: false.
	AlphaNumericOptimization bool `yaml:"alphanumeric_optimization" json:"alphanumeric_optimization"`

	// Abbreviations is a file with one abbreviation per line. Optional.
	Abbreviations string `yaml:"abbreviations" json:"abbreviations"`
}

// TrainConfig holds the training parameters.
type TrainConfig struct {
	// Algorithm is the training algorithm. Only "GIS" is supported.
	Algorithm string `yaml:"algorithm" json:"algorithm"`

	// Iterations is the maximum number of training iterations. Default: 100.
	Iterations int `yaml:"iterations" json:"iterations"`

	// Cutoff is the minimum number of occurrences of a feature to be used. Default: 5.
	Cutoff int `yaml:"cutoff" json:"cutoff"`
}

// CrossValidationConfig holds cross-validation settings.
type CrossValidationConfig struct {
	// Folds is the number of folds. Default: 10.
	Folds int `yaml:"folds" json:"folds"`

	// Workers is the number of folds evaluated concurrently. Default: 1.
	Workers int `yaml:"workers" json:"workers"`
}

// Default returns the default configuration.
func Default() *Config {
	params := maxent.DefaultParams()
	return &Config{
		Train: TrainConfig{
			Algorithm:  AlgorithmGIS,
			Iterations: params.Iterations,
			Cutoff:     params.Cutoff,
		},
		BeamSize: 3,
		CrossValidation: CrossValidationConfig{
			Folds:   10,
			Workers: 1,
		},
		HistoryDB: ".seqtag/history.db",
		Language:  "en",
		Tokenizer: TokenizerSimple,
	}
}

// Load returns the configuration from defaults, the YAML file at configPath (or SEQTAG_CONFIG if
// configPath is empty, no file if both are empty), and the environment.
//
// A .env file in the working directory is loaded first, best-effort, without overriding variables
// already set.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if configPath == "" {
		configPath = strings.TrimSpace(os.Getenv(EnvPrefix + "CONFIG"))
	}
	if configPath != "" {
		if err := loadFromPath(cfg, configPath); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromPath overrides cfg with the values set in the YAML file at path.
func loadFromPath(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %q", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "failed to parse config file %q", path)
	}
	return nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) error {
	for name, dst := range map[string]*string{
		"ALGORITHM":           &cfg.Train.Algorithm,
		"HISTORY_DB":          &cfg.HistoryDB,
		"LANGUAGE":            &cfg.Language,
		"TOKENIZER":           &cfg.Tokenizer,
		"SENTENCEPIECE_MODEL": &cfg.SentencePieceModel,
		"TOKENIZER_MODEL":     &cfg.TokenizerModel,
		"ABBREVIATIONS":       &cfg.Tokenize.Abbreviations,
	} {
		if v := strings.TrimSpace(os.Getenv(EnvPrefix + name)); v != "" {
			*dst = v
		}
	}
	for name, dst := range map[string]*int{
		"ITERATIONS": &cfg.Train.Iterations,
		"CUTOFF":     &cfg.Train.Cutoff,
		"BEAM_SIZE":  &cfg.BeamSize,
		"FOLDS":      &cfg.CrossValidation.Folds,
		"WORKERS":    &cfg.CrossValidation.Workers,
	} {
		v := strings.TrimSpace(os.Getenv(EnvPrefix + name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid value for %s%s", EnvPrefix, name)
		}
		*dst = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "ALPHANUMERIC_OPTIMIZATION")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid value for %sALPHANUMERIC_OPTIMIZATION", EnvPrefix)
		}
		cfg.Tokenize.AlphaNumericOptimization = b
	}
	return nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	switch {
	case !strings.EqualFold(c.Train.Algorithm, AlgorithmGIS):
		return errors.Errorf("unsupported training algorithm %q, only %q is supported", c.Train.Algorithm, AlgorithmGIS)
	case c.Train.Iterations < 1:
		return errors.Errorf("train.iterations must be positive, got %d", c.Train.Iterations)
	case c.Train.Cutoff < 0:
		return errors.Errorf("train.cutoff can't be negative, got %d", c.Train.Cutoff)
	case c.BeamSize < 1:
		return errors.Errorf("beam_size must be positive, got %d", c.BeamSize)
	case c.CrossValidation.Folds < 2:
		return errors.Errorf("cross_validation.folds must be at least 2, got %d", c.CrossValidation.Folds)
	case c.CrossValidation.Workers < 1:
		return errors.Errorf("cross_validation.workers must be positive, got %d", c.CrossValidation.Workers)
	}
	switch c.Tokenizer {
	case TokenizerSimple, TokenizerWhitespace:
	case TokenizerSentencePiece:
		if c.SentencePieceModel == "" {
			return errors.New("the sentencepiece tokenizer requires sentencepiece_model")
		}
	case TokenizerMaxent:
		if c.TokenizerModel == "" {
			return errors.New("the maxent tokenizer requires tokenizer_model")
		}
	default:
		return errors.Errorf("unknown tokenizer %q", c.Tokenizer)
	}
	return nil
}

// TrainParams returns the maxent training parameters.
func (c *Config) TrainParams() maxent.Params {
	params := maxent.DefaultParams()
	params.Iterations = c.Train.Iterations
	params.Cutoff = c.Train.Cutoff
	return params
}
