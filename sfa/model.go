package sfa

import (
	"errors"
	"fmt"
	"slices"

	"github.com/RyanBlaney/sonido-sfa/algorithms/binning"
	"github.com/RyanBlaney/sonido-sfa/algorithms/common"
	"github.com/RyanBlaney/sonido-sfa/algorithms/fourier"
	"github.com/RyanBlaney/sonido-sfa/logging"
	"github.com/RyanBlaney/sonido-sfa/sfa/config"
)

const (
	// maxPackedBits is the width of PackedWord.
	maxPackedBits = 64
	maxLevels     = 30
)

// Transformer learns SFA breakpoints from a collection of series.
type Transformer struct {
	cfg    config.Config
	logger logging.Logger
}

// New returns a Transformer for cfg. Options are validated by Fit.
func New(cfg config.Config) *Transformer {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.WithFields(logging.Fields{"component": "sfa"})
	}
	return &Transformer{cfg: cfg, logger: logger}
}

// Config returns the transformer's configuration
func (t *Transformer) Config() config.Config {
	return t.cfg
}

// Model is a fitted SFA transform. It is never mutated after Fit returns
// and is safe for concurrent use.
type Model struct {
	cfg         config.Config
	logger      logging.Logger
	jobs        int
	windowSize  int
	nTimepoints int
	letterBits  int
	support     []int
	coder       *fourier.Coder
	breakpoints binning.Breakpoints
	codec       codec
}

// Fit validates the configuration and input, computes the Fourier
// coefficients of disjoint windows of every series, and learns per-letter
// breakpoints from them. labels holds one target per series; it is
// required by the information gain methods and by ANOVA selection.
func (t *Transformer) Fit(X [][]float64, labels []float64) (*Model, error) {
	cfg := t.cfg
	if err := t.validate(labels); err != nil {
		return nil, err
	}

	n, err := checkCollection(X)
	if err != nil {
		return nil, err
	}
	if labels != nil && len(labels) != len(X) {
		return nil, invalidInput("%d labels for %d series", len(labels), len(X))
	}

	windowSize := cfg.WindowSize
	if windowSize == 0 {
		windowSize = n
	}
	if windowSize > n {
		return nil, invalidInput("window size %d exceeds series length %d", windowSize, n)
	}
	if cfg.Levels > 1 && n < 1<<(cfg.Levels-1) {
		return nil, configError("levels", nil, "%d pyramid levels need at least %d timepoints, got %d", cfg.Levels, 1<<(cfg.Levels-1), n)
	}

	start := 0
	if cfg.Norm {
		start = 2
	}
	dftLength := cfg.WordLength
	if cfg.Anova {
		dftLength = max(windowSize-start, cfg.WordLength)
	}
	dftLength += dftLength % 2

	lowerBounding := cfg.LowerBounding || cfg.LowerBoundingDistances
	params := fourier.Params{
		WindowSize:    windowSize,
		DFTLength:     dftLength,
		Norm:          cfg.Norm,
		LowerBounding: lowerBounding,
		Rescale:       !cfg.LowerBounding || cfg.LowerBoundingDistances,
		Fast:          !cfg.UseFallbackDFT && cfg.WordLength < windowSize-start,
	}
	coder, err := fourier.NewCoder(params)
	if err != nil {
		return nil, configError("window_size", err, "cannot build Fourier coder")
	}

	jobs := cfg.Jobs()
	rows, err := binningCoefficients(X, coder, windowSize, jobs)
	if err != nil {
		return nil, err
	}
	windowsPerSeries := len(rows) / len(X)

	var targets []float64
	if labels != nil {
		targets = make([]float64, 0, len(rows))
		for _, y := range labels {
			for range windowsPerSeries {
				targets = append(targets, y)
			}
		}
	}

	support := make([]int, cfg.WordLength)
	for i := range support {
		support[i] = i
	}
	if cfg.Anova {
		if targets == nil {
			t.logger.Warn("anova requested without labels, using leading coefficients")
		} else {
			var ok bool
			support, ok = binning.SelectSupport(rows, targets, cfg.WordLength)
			if !ok {
				t.logger.Warn("too few non-constant coefficients for anova selection", logging.Fields{
					"word_length": cfg.WordLength,
				})
			}
			rows = project(rows, support)

			// only coefficients up to the highest selected index are needed from now on
			params.DFTLength = slices.Max(support) + 1
			params.DFTLength += params.DFTLength % 2
			if coder, err = fourier.NewCoder(params); err != nil {
				return nil, configError("anova", err, "cannot build Fourier coder")
			}
		}
	}

	learner, err := binning.NewLearner(binning.Params{
		Method:       cfg.BinningMethod,
		WordLength:   cfg.WordLength,
		AlphabetSize: cfg.AlphabetSize,
		MaxIter:      cfg.KMeansMaxIter,
		Tolerance:    cfg.KMeansTolerance,
	}, t.logger)
	if err != nil {
		return nil, configError("binning_method", err, "cannot build breakpoint learner")
	}
	breakpoints, err := learner.Learn(rows, targets)
	if err != nil {
		if errors.Is(err, binning.ErrLabelsRequired) {
			return nil, configError("binning_method", err, "labels are required")
		}
		return nil, fmt.Errorf("learning breakpoints: %w", err)
	}

	m := &Model{
		cfg:         cfg,
		logger:      t.logger,
		jobs:        jobs,
		windowSize:  windowSize,
		nTimepoints: n,
		letterBits:  cfg.LetterBits(),
		support:     support,
		coder:       coder,
		breakpoints: breakpoints,
	}
	if cfg.LargeWords {
		m.codec = newLargeCodec(cfg.WordLength, m.letterBits)
	} else {
		m.codec = packedCodec{wordLength: cfg.WordLength, letterBits: m.letterBits}
	}

	t.logger.Debug("fitted sfa model", logging.Fields{
		"series":      len(X),
		"timepoints":  n,
		"window_size": windowSize,
		"dft_length":  params.DFTLength,
		"fast_dft":    params.Fast,
		"letter_bits": m.letterBits,
		"word_bits":   cfg.WordBits(),
		"large_words": cfg.LargeWords,
		"jobs":        jobs,
	})
	return m, nil
}

// validate performs the data-independent checks, mapping each failure to a ConfigError.
func (t *Transformer) validate(labels []float64) error {
	cfg := t.cfg
	if err := cfg.Validate(); err != nil {
		switch {
		case cfg.AlphabetSize < 2:
			return configError("alphabet_size", err, "must be at least 2, got %d", cfg.AlphabetSize)
		case cfg.WordLength < 1:
			return configError("word_length", err, "must be at least 1, got %d", cfg.WordLength)
		case !cfg.BinningMethod.Valid():
			return configError("binning_method", err, "unknown method %d", int(cfg.BinningMethod))
		default:
			return configError("config", err, "rejected")
		}
	}
	if cfg.Levels > maxLevels {
		return configError("levels", nil, "at most %d pyramid levels are supported, got %d", maxLevels, cfg.Levels)
	}
	if cfg.BinningMethod.Supervised() && labels == nil {
		return configError("binning_method", binning.ErrLabelsRequired, "%s needs labels", cfg.BinningMethod)
	}
	if !cfg.LargeWords && cfg.MaxBits() > maxPackedBits {
		limit := maxPackedBits
		if cfg.Bigrams || cfg.SkipGrams {
			limit /= 2
		}
		return configError("word_length", nil,
			"%d letters of %d bits need %d bits, packed words hold %d; enable large_words",
			cfg.WordLength, cfg.LetterBits(), cfg.WordBits(), limit)
	}
	return nil
}

// checkCollection verifies X is a non-empty set of equal-length finite
// series and returns their length.
func checkCollection(X [][]float64) (int, error) {
	if len(X) == 0 {
		return 0, invalidInput("empty collection")
	}
	n := len(X[0])
	if n == 0 {
		return 0, invalidInput("series 0 is empty")
	}
	for i, series := range X {
		if len(series) != n {
			return 0, invalidInput("series %d has length %d, want %d", i, len(series), n)
		}
		if !common.AllFinite(series) {
			return 0, invalidInput("series %d contains NaN or Inf", i)
		}
	}
	return n, nil
}

// binningCoefficients pools the coefficients of the disjoint windows of every series, series by series.
func binningCoefficients(X [][]float64, coder *fourier.Coder, windowSize, jobs int) ([][]float64, error) {
	perSeries := make([][][]float64, len(X))
	err := parallelMap(len(X), jobs, func(i int) error {
		windows := fourier.DisjointWindows(X[i], windowSize)
		coeffs := make([][]float64, len(windows))
		for w, window := range windows {
			coeffs[w] = coder.Transform(window)
		}
		perSeries[i] = coeffs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Concat(perSeries...), nil
}

// project keeps the support columns of every row, in support order.
func project(rows [][]float64, support []int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = projectRow(row, support)
	}
	return out
}

func projectRow(row []float64, support []int) []float64 {
	out := make([]float64, len(support))
	for j, c := range support {
		out[j] = row[c]
	}
	return out
}

// Config returns the configuration the model was fitted with
func (m *Model) Config() config.Config {
	return m.cfg
}

// Breakpoints returns a copy of the learned breakpoints.
func (m *Model) Breakpoints() binning.Breakpoints {
	return m.breakpoints.Truncate(len(m.breakpoints))
}

// Support returns the coefficient index feeding each letter.
func (m *Model) Support() []int {
	return slices.Clone(m.support)
}

// WindowSize is the resolved window length (the series length in whole-series mode)
func (m *Model) WindowSize() int {
	return m.windowSize
}

// LetterBits is the number of bits per letter
func (m *Model) LetterBits() int {
	return m.letterBits
}
