package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-sfa/algorithms/binning"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sfa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8, cfg.WordLength)
	assert.Equal(t, 4, cfg.AlphabetSize)
	assert.Equal(t, 12, cfg.WindowSize)
	assert.Equal(t, binning.EquiDepth, cfg.BinningMethod)
	assert.True(t, cfg.LowerBounding)
	assert.Equal(t, 2, cfg.LetterBits())
	assert.Equal(t, 16, cfg.WordBits())
	assert.Equal(t, 16, cfg.MaxBits())
}

func TestBitWidths(t *testing.T) {
	cfg := Default()
	cfg.WordLength = 40
	cfg.AlphabetSize = 256
	assert.Equal(t, 8, cfg.LetterBits())
	assert.Equal(t, 320, cfg.WordBits())

	cfg = Default()
	cfg.AlphabetSize = 5
	cfg.Bigrams = true
	assert.Equal(t, 3, cfg.LetterBits())
	assert.Equal(t, 48, cfg.MaxBits())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"alphabet":  func(c *Config) { c.AlphabetSize = 1 },
		"word":      func(c *Config) { c.WordLength = 0 },
		"window":    func(c *Config) { c.WindowSize = -3 },
		"levels":    func(c *Config) { c.Levels = 0 },
		"method":    func(c *Config) { c.BinningMethod = binning.Method(17) },
		"log level": func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalid, name)
	}
}

func TestResolveJobs(t *testing.T) {
	assert.Equal(t, 1, ResolveJobs(0, 8))
	assert.Equal(t, 3, ResolveJobs(3, 8))
	assert.Equal(t, 8, ResolveJobs(-1, 8))
	assert.Equal(t, 7, ResolveJobs(-2, 8))
	assert.Equal(t, 1, ResolveJobs(-20, 8))
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
word_length: 6
alphabet_size: 8
window_size: 20
binning_method: information-gain
bigrams: true
levels: 2
n_jobs: -1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.WordLength)
	assert.Equal(t, 8, cfg.AlphabetSize)
	assert.Equal(t, 20, cfg.WindowSize)
	assert.Equal(t, binning.InformationGain, cfg.BinningMethod)
	assert.True(t, cfg.Bigrams)
	assert.Equal(t, 2, cfg.Levels)
	assert.Equal(t, -1, cfg.NJobs)
	// untouched keys keep their defaults
	assert.True(t, cfg.LowerBounding)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeTempConfig(t, "binning_method: median\n"))
	assert.ErrorIs(t, err, binning.ErrUnknownMethod)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeTempConfig(t, "n_jobs: 1.5\n"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(writeTempConfig(t, "alphabet_size: 1\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}
