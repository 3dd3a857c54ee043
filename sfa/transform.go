package sfa

import (
	"github.com/RyanBlaney/sonido-sfa/logging"
)

// Result is the output of a transform: one bag per input series, in input
// order, plus the per-window words when SaveWords is enabled.
type Result struct {
	Bags []Bag
	// Words[i][w] is the full-length word of window w of series i; nil unless SaveWords.
	Words [][]Word
}

// Transform converts every series into its bag of words. Series are
// processed in parallel; each output slot is written by exactly one task.
func (m *Model) Transform(X [][]float64) (*Result, error) {
	coeffs, err := m.Coefficients(X)
	if err != nil {
		return nil, err
	}
	return m.TransformCoefficients(coeffs)
}

// FitTransform fits a model on X and transforms the same collection.
func (t *Transformer) FitTransform(X [][]float64, labels []float64) (*Model, *Result, error) {
	m, err := t.Fit(X, labels)
	if err != nil {
		return nil, nil, err
	}
	res, err := m.Transform(X)
	if err != nil {
		return nil, nil, err
	}
	return m, res, nil
}

// Coefficients returns, per series, the support coefficients of every
// stride-1 window computed with the incremental transform. The result can
// be fed to TransformCoefficients to avoid recomputation.
func (m *Model) Coefficients(X [][]float64) ([][][]float64, error) {
	if err := m.checkTransformInput(X); err != nil {
		return nil, err
	}

	out := make([][][]float64, len(X))
	err := parallelMap(len(X), m.jobs, func(i int) error {
		dfts, err := m.coder.Sliding(X[i])
		if err != nil {
			return invalidInput("series %d: %v", i, err)
		}
		for w, row := range dfts {
			dfts[w] = projectRow(row, m.support)
		}
		out[i] = dfts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransformCoefficients builds bags from precomputed coefficients as returned by Coefficients.
func (m *Model) TransformCoefficients(coeffs [][][]float64) (*Result, error) {
	for i, series := range coeffs {
		if len(series) == 0 {
			return nil, invalidInput("series %d has no windows", i)
		}
		for w, row := range series {
			if len(row) < m.cfg.WordLength {
				return nil, invalidInput("series %d window %d has %d coefficients, need %d", i, w, len(row), m.cfg.WordLength)
			}
		}
	}

	builder := m.bagBuilder(m.codec)
	res := &Result{Bags: make([]Bag, len(coeffs))}
	if m.cfg.SaveWords {
		res.Words = make([][]Word, len(coeffs))
	}

	err := parallelMap(len(coeffs), m.jobs, func(i int) error {
		words := make([]Word, len(coeffs[i]))
		for w, row := range coeffs[i] {
			words[w] = m.codec.encode(row, m.breakpoints)
		}
		res.Bags[i] = builder.build(words)
		if res.Words != nil {
			res.Words[i] = words
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("transformed collection", logging.Fields{
		"series": len(coeffs),
		"saved":  m.cfg.SaveWords,
	})
	return res, nil
}

// TransformWords returns the letters of every window of every series
// together with the coefficients they were quantized from.
func (m *Model) TransformWords(X [][]float64) ([][][]int, [][][]float64, error) {
	coeffs, err := m.Coefficients(X)
	if err != nil {
		return nil, nil, err
	}

	letters := make([][][]int, len(coeffs))
	for i, series := range coeffs {
		letters[i] = make([][]int, len(series))
		for w, row := range series {
			word := make([]int, m.cfg.WordLength)
			for l := range word {
				word[l] = m.breakpoints.Letter(l, row[l])
			}
			letters[i][w] = word
		}
	}
	return letters, coeffs, nil
}

func (m *Model) bagBuilder(c codec) *bagBuilder {
	return &bagBuilder{
		codec:        c,
		windowSize:   m.windowSize,
		nTimepoints:  m.nTimepoints,
		levels:       m.cfg.Levels,
		removeRepeat: m.cfg.RemoveRepeatWords,
		bigrams:      m.cfg.Bigrams,
		skipGrams:    m.cfg.SkipGrams,
	}
}

func (m *Model) checkTransformInput(X [][]float64) error {
	n, err := checkCollection(X)
	if err != nil {
		return err
	}
	if n < m.windowSize {
		return invalidInput("series length %d is shorter than window size %d", n, m.windowSize)
	}
	if m.cfg.Levels > 1 && n != m.nTimepoints {
		return invalidInput("pyramid levels need series of the fitted length %d, got %d", m.nTimepoints, n)
	}
	return nil
}
