package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-sfa/algorithms/binning"
	"github.com/RyanBlaney/sonido-sfa/logging"
)

// ErrInvalid is wrapped by every validation failure and by unparseable
// config files. sfa.ErrConfiguration is the same value.
var ErrInvalid = errors.New("sfa: invalid configuration")

// Config is the full option surface of the SFA transform.
type Config struct {
	WordLength    int            `json:"word_length" yaml:"word_length"`
	AlphabetSize  int            `json:"alphabet_size" yaml:"alphabet_size"`
	WindowSize    int            `json:"window_size" yaml:"window_size"` // 0 means whole series
	Norm          bool           `json:"norm" yaml:"norm"`
	BinningMethod binning.Method `json:"binning_method" yaml:"binning_method"`
	Anova         bool           `json:"anova" yaml:"anova"`

	Bigrams           bool `json:"bigrams" yaml:"bigrams"`
	SkipGrams         bool `json:"skip_grams" yaml:"skip_grams"`
	RemoveRepeatWords bool `json:"remove_repeat_words" yaml:"remove_repeat_words"`
	Levels            int  `json:"levels" yaml:"levels"`

	LowerBounding          bool `json:"lower_bounding" yaml:"lower_bounding"`
	LowerBoundingDistances bool `json:"lower_bounding_distances" yaml:"lower_bounding_distances"`

	SaveWords bool `json:"save_words" yaml:"save_words"`
	// LargeWords stores letters explicitly instead of packing them into 64 bits.
	LargeWords bool `json:"large_words" yaml:"large_words"`
	// UseFallbackDFT forces the direct transform for the binning pass.
	UseFallbackDFT bool `json:"use_fallback_dft" yaml:"use_fallback_dft"`

	NJobs int `json:"n_jobs" yaml:"n_jobs"`

	KMeansMaxIter   int     `json:"kmeans_max_iter" yaml:"kmeans_max_iter"`
	KMeansTolerance float64 `json:"kmeans_tolerance" yaml:"kmeans_tolerance"`

	LogLevel string `json:"log_level" yaml:"log_level"`

	// Logger receives fit and transform diagnostics; nil uses the global logger.
	Logger logging.Logger `json:"-" yaml:"-"`
}

// Default returns the standard SFA settings: 8 letters over a 4-symbol
// alphabet, windows of 12 samples, equi-depth bins, lower bounding on.
func Default() Config {
	params := binning.DefaultParams()
	return Config{
		WordLength:      params.WordLength,
		AlphabetSize:    params.AlphabetSize,
		WindowSize:      12,
		BinningMethod:   params.Method,
		Levels:          1,
		LowerBounding:   true,
		NJobs:           1,
		KMeansMaxIter:   params.MaxIter,
		KMeansTolerance: params.Tolerance,
		LogLevel:        "info",
	}
}

// Validate performs the static checks that do not depend on the data.
func (c *Config) Validate() error {
	if c.AlphabetSize < 2 {
		return fmt.Errorf("%w: alphabet_size must be at least 2, got %d", ErrInvalid, c.AlphabetSize)
	}
	if c.WordLength < 1 {
		return fmt.Errorf("%w: word_length must be at least 1, got %d", ErrInvalid, c.WordLength)
	}
	if c.WindowSize < 0 {
		return fmt.Errorf("%w: window_size must not be negative, got %d", ErrInvalid, c.WindowSize)
	}
	if c.Levels < 1 {
		return fmt.Errorf("%w: levels must be at least 1, got %d", ErrInvalid, c.Levels)
	}
	if !c.BinningMethod.Valid() {
		return fmt.Errorf("%w: %w: %d", ErrInvalid, binning.ErrUnknownMethod, int(c.BinningMethod))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Jobs resolves NJobs into a worker count: 0 means 1, negative values count
// back from the number of CPUs (-1 all, -2 all but one), floored at 1.
func (c *Config) Jobs() int {
	return ResolveJobs(c.NJobs, runtime.NumCPU())
}

// ResolveJobs applies the NJobs convention for a machine with cpus processors
func ResolveJobs(nJobs, cpus int) int {
	switch {
	case nJobs == 0:
		return 1
	case nJobs < 0:
		return max(1, cpus+1+nJobs)
	default:
		return nJobs
	}
}

// LetterBits is ceil(log2(AlphabetSize)).
func (c *Config) LetterBits() int {
	bits := 0
	for (1 << bits) < c.AlphabetSize {
		bits++
	}
	return bits
}

// WordBits is the number of bits one packed word occupies.
func (c *Config) WordBits() int {
	return c.WordLength * c.LetterBits()
}

// MaxBits is the widest packed symbol: doubled when n-grams compose two words.
func (c *Config) MaxBits() int {
	if c.Bigrams || c.SkipGrams {
		return 2 * c.WordBits()
	}
	return c.WordBits()
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config file: %w", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
