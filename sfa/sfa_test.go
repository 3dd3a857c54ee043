package sfa

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-sfa/algorithms/binning"
	"github.com/RyanBlaney/sonido-sfa/logging"
	"github.com/RyanBlaney/sonido-sfa/sfa/config"
)

// sinusoids returns count noisy sine series; odd series oscillate twice as fast
// and are labelled 1, even ones 0.
func sinusoids(seed int64, count, length int) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, count)
	y := make([]float64, count)
	for i := range X {
		y[i] = float64(i % 2)
		freq := 1.0 + y[i]
		phase := rng.Float64() * 2 * math.Pi
		X[i] = make([]float64, length)
		for t := range X[i] {
			X[i][t] = math.Sin(2*math.Pi*freq*float64(t)/float64(length)*3+phase) + 0.2*rng.NormFloat64()
		}
	}
	return X, y
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Logger = &logging.NoOpLogger{}
	return cfg
}

func fit(t *testing.T, cfg config.Config, X [][]float64, y []float64) *Model {
	t.Helper()
	m, err := New(cfg).Fit(X, y)
	require.NoError(t, err)
	return m
}

func TestScenario_SixteenPointSeries(t *testing.T) {
	X, _ := sinusoids(1, 20, 16)
	cfg := testConfig()
	cfg.WindowSize = 8
	cfg.WordLength = 2
	cfg.AlphabetSize = 4
	cfg.BinningMethod = binning.EquiDepth

	m := fit(t, cfg, X, nil)
	res, err := m.Transform(X)
	require.NoError(t, err)
	require.Len(t, res.Bags, len(X))
	assert.Nil(t, res.Words)

	for i, bag := range res.Bags {
		assert.EqualValues(t, 16-8+1, bag.Total(), "series %d", i)
		for k := range bag {
			w, ok := k.Word.(PackedWord)
			require.True(t, ok)
			assert.LessOrEqual(t, uint64(w), uint64(15))
			assert.Equal(t, 0, k.Quadrant)
		}
	}
}

func TestBreakpointsEndWithInfinity(t *testing.T) {
	X, y := sinusoids(2, 24, 64)
	for _, method := range []binning.Method{binning.EquiDepth, binning.EquiWidth, binning.InformationGain, binning.InformationGainMAE, binning.KMeans} {
		cfg := testConfig()
		cfg.BinningMethod = method
		cfg.WordLength = 4
		cfg.AlphabetSize = 4
		m := fit(t, cfg, X, y)
		assert.NoError(t, m.Breakpoints().Validate(4), method.String())
	}
}

func TestFit_ConfigurationErrors(t *testing.T) {
	X, _ := sinusoids(3, 4, 32)

	cases := map[string]func(*config.Config){
		"alphabet":  func(c *config.Config) { c.AlphabetSize = 1 },
		"word":      func(c *config.Config) { c.WordLength = 0 },
		"method":    func(c *config.Config) { c.BinningMethod = binning.Method(9) },
		"labels":    func(c *config.Config) { c.BinningMethod = binning.InformationGain },
		"labelsMAE": func(c *config.Config) { c.BinningMethod = binning.InformationGainMAE },
		"bits":      func(c *config.Config) { c.WordLength = 17; c.AlphabetSize = 16 },
		"gram bits": func(c *config.Config) { c.WordLength = 9; c.AlphabetSize = 16; c.Bigrams = true },
		"levels":    func(c *config.Config) { c.Levels = 7 },
	}
	for name, mutate := range cases {
		cfg := testConfig()
		mutate(&cfg)
		_, err := New(cfg).Fit(X, nil)
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrConfiguration, name)

		var ce *ConfigError
		assert.True(t, errors.As(err, &ce), name)
	}

	cfg := testConfig()
	cfg.BinningMethod = binning.InformationGain
	_, err := New(cfg).Fit(X, nil)
	assert.ErrorIs(t, err, binning.ErrLabelsRequired)
}

func TestFit_InvalidInput(t *testing.T) {
	cfg := testConfig()
	tr := New(cfg)

	_, err := tr.Fit(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = tr.Fit([][]float64{make([]float64, 20), make([]float64, 19)}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := make([]float64, 20)
	bad[3] = math.NaN()
	_, err = tr.Fit([][]float64{bad}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = tr.Fit([][]float64{make([]float64, 8)}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput, "window longer than series")

	X, _ := sinusoids(4, 4, 32)
	_, err = tr.Fit(X, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidInput)

	m := fit(t, cfg, X, nil)
	_, err = m.Transform([][]float64{make([]float64, 10)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOverflowBoundary(t *testing.T) {
	X, _ := sinusoids(5, 10, 128)
	cfg := testConfig()
	cfg.WordLength = 40
	cfg.AlphabetSize = 256
	cfg.WindowSize = 64
	cfg.SaveWords = true

	_, err := New(cfg).Fit(X, nil)
	require.ErrorIs(t, err, ErrConfiguration)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "word_length", ce.Field)

	cfg.LargeWords = true
	m := fit(t, cfg, X, nil)
	assert.Equal(t, 8, m.LetterBits())

	res, err := m.Transform(X)
	require.NoError(t, err)
	letters, _, err := m.TransformWords(X)
	require.NoError(t, err)

	for i, words := range res.Words {
		require.Len(t, words, 128-64+1)
		for w, word := range words {
			_, ok := word.(LargeWord)
			require.True(t, ok)
			decoded := m.Letters(word)
			require.Len(t, decoded, 40)
			assert.Equal(t, letters[i][w], decoded, "series %d window %d", i, w)
			for _, l := range decoded {
				assert.Less(t, l, 256)
			}
		}
		assert.EqualValues(t, 65, res.Bags[i].Total())
	}
}

func TestLettersRoundTrip(t *testing.T) {
	X, _ := sinusoids(6, 8, 50)
	cfg := testConfig()
	cfg.WordLength = 6
	cfg.AlphabetSize = 5
	cfg.WindowSize = 10
	cfg.SaveWords = true

	for _, large := range []bool{false, true} {
		cfg.LargeWords = large
		m := fit(t, cfg, X, nil)
		res, err := m.Transform(X)
		require.NoError(t, err)
		letters, coeffs, err := m.TransformWords(X)
		require.NoError(t, err)
		require.Len(t, coeffs, len(X))

		for i := range X {
			for w, word := range res.Words[i] {
				assert.Equal(t, letters[i][w], m.Letters(word))
			}
		}
	}
}

func TestNumerosityReduction_ConstantSeries(t *testing.T) {
	series := make([]float64, 30)
	for i := range series {
		series[i] = 3
	}
	X := [][]float64{series, series, series}

	cfg := testConfig()
	cfg.WindowSize = 8
	cfg.WordLength = 1

	m := fit(t, cfg, X, nil)
	res, err := m.Transform(X)
	require.NoError(t, err)
	for _, bag := range res.Bags {
		assert.Len(t, bag, 1)
		assert.EqualValues(t, 30-8+1, bag.Total())
	}

	cfg.RemoveRepeatWords = true
	m = fit(t, cfg, X, nil)
	res, err = m.Transform(X)
	require.NoError(t, err)
	for _, bag := range res.Bags {
		assert.Len(t, bag, 1)
		assert.EqualValues(t, 1, bag.Total())
	}
}

func TestWholeSeriesMode(t *testing.T) {
	X, _ := sinusoids(7, 6, 24)
	cfg := testConfig()
	cfg.WindowSize = 0
	cfg.WordLength = 4

	m := fit(t, cfg, X, nil)
	assert.Equal(t, 24, m.WindowSize())
	res, err := m.Transform(X)
	require.NoError(t, err)
	for _, bag := range res.Bags {
		assert.EqualValues(t, 1, bag.Total())
	}
}

func TestNGramCounts(t *testing.T) {
	X, _ := sinusoids(8, 5, 60)
	cfg := testConfig()
	cfg.WindowSize = 10
	cfg.WordLength = 3
	cfg.Bigrams = true
	cfg.SkipGrams = true

	m := fit(t, cfg, X, nil)
	res, err := m.Transform(X)
	require.NoError(t, err)

	windows := 60 - 10 + 1
	for _, bag := range res.Bags {
		var plain, grams uint64
		for k, c := range bag {
			if k.Quadrant == GramQuadrant {
				grams += uint64(c)
			} else {
				plain += uint64(c)
			}
		}
		assert.EqualValues(t, windows, plain)
		// bigrams, then skip-grams at two and three window lengths
		assert.EqualValues(t, (windows-10)+(windows-20)+(windows-30), grams)
	}
}

func TestPyramidWeights(t *testing.T) {
	X, _ := sinusoids(9, 4, 64)
	cfg := testConfig()
	cfg.WindowSize = 8
	cfg.WordLength = 3
	cfg.Levels = 3

	m := fit(t, cfg, X, nil)
	res, err := m.Transform(X)
	require.NoError(t, err)

	windows := 64 - 8 + 1
	for _, bag := range res.Bags {
		perLevel := make([]uint64, 3)
		for k, c := range bag {
			require.GreaterOrEqual(t, k.Quadrant, 0)
			require.Less(t, k.Quadrant, 7)
			switch {
			case k.Quadrant == 0:
				perLevel[0] += uint64(c)
			case k.Quadrant < 3:
				perLevel[1] += uint64(c)
			default:
				perLevel[2] += uint64(c)
			}
		}
		assert.EqualValues(t, windows, perLevel[0])
		assert.EqualValues(t, 2*windows, perLevel[1])
		assert.EqualValues(t, 4*windows, perLevel[2])
	}
}

func TestLargeWordsMatchPackedWords(t *testing.T) {
	X, _ := sinusoids(10, 6, 48)
	cfg := testConfig()
	cfg.WindowSize = 6
	cfg.WordLength = 4
	cfg.AlphabetSize = 4
	cfg.Levels = 2
	cfg.Bigrams = true
	cfg.SkipGrams = true
	cfg.RemoveRepeatWords = true

	packed := fit(t, cfg, X, nil)
	cfg.LargeWords = true
	large := fit(t, cfg, X, nil)

	pr, err := packed.Transform(X)
	require.NoError(t, err)
	lr, err := large.Transform(X)
	require.NoError(t, err)

	for i := range X {
		assert.Equal(t, len(pr.Bags[i]), len(lr.Bags[i]))
		assert.Equal(t, packed.BagString(pr.Bags[i]), large.BagString(lr.Bags[i]), "series %d", i)
	}
}

func TestShortenMatchesTruncatedTransform(t *testing.T) {
	X, y := sinusoids(11, 10, 40)

	variants := map[string]func(*config.Config){
		"plain":   func(*config.Config) {},
		"repeats": func(c *config.Config) { c.RemoveRepeatWords = true },
		"grams":   func(c *config.Config) { c.Bigrams = true; c.SkipGrams = true },
		"pyramid": func(c *config.Config) { c.Levels = 3; c.RemoveRepeatWords = true },
		"large":   func(c *config.Config) { c.LargeWords = true; c.Levels = 2; c.Bigrams = true },
		"anova":   func(c *config.Config) { c.Anova = true; c.Norm = true },
	}

	for name, mutate := range variants {
		cfg := testConfig()
		cfg.WindowSize = 8
		cfg.WordLength = 5
		cfg.AlphabetSize = 3
		cfg.SaveWords = true
		mutate(&cfg)

		m := fit(t, cfg, X, y)
		full, err := m.Transform(X)
		require.NoError(t, err, name)

		for l := 1; l <= cfg.WordLength; l++ {
			shortened, err := m.Shorten(full, l)
			require.NoError(t, err, name)

			truncated, err := m.Truncate(l)
			require.NoError(t, err, name)
			direct, err := truncated.Transform(X)
			require.NoError(t, err, name)

			require.Len(t, shortened, len(X))
			for i := range X {
				assert.Equal(t, direct.Bags[i], shortened[i], "%s: length %d series %d", name, l, i)
			}
		}
	}
}

func TestShorten_Prerequisites(t *testing.T) {
	X, _ := sinusoids(12, 4, 30)
	cfg := testConfig()
	m := fit(t, cfg, X, nil)

	res, err := m.Transform(X)
	require.NoError(t, err)
	_, err = m.Shorten(res, 4)
	assert.ErrorIs(t, err, ErrPrerequisite)

	cfg.SaveWords = true
	m = fit(t, cfg, X, nil)
	res, err = m.Transform(X)
	require.NoError(t, err)

	clamped, err := m.Shorten(res, 50)
	require.NoError(t, err)
	assert.Equal(t, res.Bags, clamped)

	_, err = m.Shorten(res, 0)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = m.Truncate(9)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestParallelTransformMatchesSequential(t *testing.T) {
	X, _ := sinusoids(13, 40, 64)
	cfg := testConfig()
	cfg.Bigrams = true

	cfg.NJobs = 1
	seq := fit(t, cfg, X, nil)
	cfg.NJobs = 8
	par := fit(t, cfg, X, nil)
	assert.Equal(t, seq.Breakpoints(), par.Breakpoints())

	a, err := seq.Transform(X)
	require.NoError(t, err)
	b, err := par.Transform(X)
	require.NoError(t, err)
	assert.Equal(t, a.Bags, b.Bags)
}

func TestTransformCoefficientsMatchesTransform(t *testing.T) {
	X, _ := sinusoids(14, 6, 40)
	cfg := testConfig()
	cfg.SaveWords = true
	m := fit(t, cfg, X, nil)

	coeffs, err := m.Coefficients(X)
	require.NoError(t, err)
	require.Len(t, coeffs, len(X))
	assert.Len(t, coeffs[0], 40-12+1)
	assert.Len(t, coeffs[0][0], cfg.WordLength)

	a, err := m.Transform(X)
	require.NoError(t, err)
	b, err := m.TransformCoefficients(coeffs)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = m.TransformCoefficients([][][]float64{{{1, 2}}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnovaSupport(t *testing.T) {
	X, y := sinusoids(15, 30, 64)
	cfg := testConfig()
	cfg.Anova = true
	cfg.WindowSize = 16
	cfg.WordLength = 4
	cfg.BinningMethod = binning.InformationGain

	m := fit(t, cfg, X, y)
	support := m.Support()
	require.Len(t, support, 4)
	seen := map[int]bool{}
	for _, s := range support {
		assert.False(t, seen[s])
		seen[s] = true
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, 16)
	}

	res, err := m.Transform(X)
	require.NoError(t, err)
	assert.Len(t, res.Bags, len(X))
}

func TestDescribeKey(t *testing.T) {
	X, _ := sinusoids(16, 4, 32)
	cfg := testConfig()
	cfg.WordLength = 2
	cfg.Levels = 2
	m := fit(t, cfg, X, nil)

	// letters 0 and 1 at two bits each
	w := PackedWord(0b00_01)
	assert.Equal(t, "([0 1], 2)", m.DescribeKey(Key{Word: w, Quadrant: 2}))

	gram := m.codec.compose(w, w)
	assert.Equal(t, "([0 1], [0 1])", m.DescribeKey(Key{Word: gram, Quadrant: GramQuadrant}))
	assert.Equal(t, "{([0 1], 2): 3}", m.BagString(Bag{{Word: w, Quadrant: 2}: 3}))
}

func TestShortenedBagsRenderThroughTruncatedModel(t *testing.T) {
	X, _ := sinusoids(17, 4, 40)
	cfg := testConfig()
	cfg.WindowSize = 8
	cfg.WordLength = 4
	cfg.AlphabetSize = 4
	cfg.Bigrams = true
	cfg.SaveWords = true

	m := fit(t, cfg, X, nil)
	full, err := m.Transform(X)
	require.NoError(t, err)
	shortened, err := m.Shorten(full, 2)
	require.NoError(t, err)

	truncated, err := m.Truncate(2)
	require.NoError(t, err)
	direct, err := truncated.Transform(X)
	require.NoError(t, err)

	for i := range X {
		assert.Equal(t, truncated.BagString(direct.Bags[i]), truncated.BagString(shortened[i]))
		for k := range shortened[i] {
			if k.Quadrant == GramQuadrant {
				assert.Regexp(t, `^\(\[\d \d\], \[\d \d\]\)$`, truncated.DescribeKey(k))
			} else {
				assert.Len(t, truncated.Letters(k.Word), 2)
			}
		}
	}
}

func TestLoadedConfigErrorsAreConfigurationErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sfa.yaml")
	require.NoError(t, os.WriteFile(path, []byte("binning_method: median\n"), 0o644))

	_, err := config.Load(path)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, binning.ErrUnknownMethod)
}
