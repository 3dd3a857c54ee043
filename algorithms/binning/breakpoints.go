package binning

import (
	"fmt"
	"math"
	"slices"

	"github.com/RyanBlaney/sonido-sfa/logging"
)

// Breakpoints holds one ascending row of alphabetSize thresholds per
// letter. The final entry of every row is +Inf so any value falls in a bin.
type Breakpoints [][]float64

// Letter returns the first bin b of row letter with value <= bp[letter][b].
func (bp Breakpoints) Letter(letter int, value float64) int {
	row := bp[letter]
	for b, threshold := range row {
		if value <= threshold {
			return b
		}
	}
	// only reachable for NaN
	return len(row) - 1
}

// WordLength is the number of letter rows
func (bp Breakpoints) WordLength() int {
	return len(bp)
}

// Truncate returns a copy restricted to the first n letters.
func (bp Breakpoints) Truncate(n int) Breakpoints {
	n = min(n, len(bp))
	out := make(Breakpoints, n)
	for i := range n {
		out[i] = slices.Clone(bp[i])
	}
	return out
}

// Validate checks the row shape, ordering and the trailing +Inf.
func (bp Breakpoints) Validate(alphabetSize int) error {
	for i, row := range bp {
		if len(row) != alphabetSize {
			return fmt.Errorf("%w: letter %d has %d breakpoints, want %d", ErrInvalidParameter, i, len(row), alphabetSize)
		}
		if !math.IsInf(row[len(row)-1], 1) {
			return fmt.Errorf("%w: letter %d does not end with +Inf", ErrInvalidParameter, i)
		}
		for b := 1; b < len(row); b++ {
			if row[b] < row[b-1] {
				return fmt.Errorf("%w: letter %d breakpoints are not ascending", ErrInvalidParameter, i)
			}
		}
	}
	return nil
}

// Params configures a Learner
type Params struct {
	Method       Method  `json:"method"`
	WordLength   int     `json:"word_length"`
	AlphabetSize int     `json:"alphabet_size"`
	MaxIter      int     `json:"max_iter"`  // k-means iterations
	Tolerance    float64 `json:"tolerance"` // k-means center shift tolerance
}

// DefaultParams returns equi-depth binning for 8 letters over 4 symbols.
func DefaultParams() Params {
	return Params{
		Method:       EquiDepth,
		WordLength:   8,
		AlphabetSize: 4,
		MaxIter:      300,
		Tolerance:    1e-4,
	}
}

// Learner derives breakpoints from pooled coefficient samples.
type Learner struct {
	params Params
	logger logging.Logger
}

// NewLearner validates params and returns a Learner
func NewLearner(params Params, logger logging.Logger) (*Learner, error) {
	if params.AlphabetSize < 2 {
		return nil, fmt.Errorf("%w: alphabet size must be at least 2, got %d", ErrInvalidParameter, params.AlphabetSize)
	}
	if params.WordLength < 1 {
		return nil, fmt.Errorf("%w: word length must be at least 1, got %d", ErrInvalidParameter, params.WordLength)
	}
	if !params.Method.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(params.Method))
	}
	if params.MaxIter <= 0 {
		params.MaxIter = DefaultParams().MaxIter
	}
	if params.Tolerance <= 0 {
		params.Tolerance = DefaultParams().Tolerance
	}
	if logger == nil {
		logger = logging.WithFields(logging.Fields{"component": "binning"})
	}
	return &Learner{params: params, logger: logger}, nil
}

// Learn fits breakpoints for the first WordLength columns of rows. labels
// holds one target per row; it is required for the information gain methods
// and ignored otherwise.
func (l *Learner) Learn(rows [][]float64, labels []float64) (Breakpoints, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no training samples", ErrInvalidParameter)
	}
	for i, row := range rows {
		if len(row) < l.params.WordLength {
			return nil, fmt.Errorf("%w: sample %d has %d coefficients, need %d", ErrInvalidParameter, i, len(row), l.params.WordLength)
		}
	}
	if l.params.Method.Supervised() {
		if labels == nil {
			return nil, ErrLabelsRequired
		}
		if len(labels) != len(rows) {
			return nil, fmt.Errorf("%w: %d labels for %d samples", ErrInvalidParameter, len(labels), len(rows))
		}
	}

	a := l.params.AlphabetSize
	bp := make(Breakpoints, l.params.WordLength)
	column := make([]float64, len(rows))
	for letter := range bp {
		for i, row := range rows {
			column[i] = row[letter]
		}

		var thresholds []float64
		switch l.params.Method {
		case EquiDepth:
			thresholds = equiDepth(column, a)
		case EquiWidth:
			thresholds = equiWidth(column, a)
		case InformationGain:
			thresholds = treeThresholds(column, labels, a, &entropyCriterion{})
		case InformationGainMAE:
			thresholds = treeThresholds(column, labels, a, &friedmanCriterion{})
		case KMeans:
			var collapsed bool
			thresholds, collapsed = kmeansEdges(column, a, l.params.MaxIter, l.params.Tolerance)
			if collapsed {
				l.logger.Warn("k-means bins collapsed", logging.Fields{"letter": letter, "bins": len(thresholds) + 1})
			}
		}

		bp[letter] = fill(thresholds, a)
	}

	l.logger.Debug("learned breakpoints", logging.Fields{
		"method":  l.params.Method.String(),
		"letters": l.params.WordLength,
		"samples": len(rows),
	})
	return bp, nil
}

// fill sorts thresholds into a row of size a padded with +Inf.
func fill(thresholds []float64, a int) []float64 {
	row := make([]float64, a)
	for i := range row {
		row[i] = math.Inf(1)
	}
	copy(row, thresholds[:min(len(thresholds), a-1)])
	slices.Sort(row)
	return row
}
