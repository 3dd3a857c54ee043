package fourier

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/sonido-sfa/algorithms/common"
)

// Params configures a Coder
type Params struct {
	WindowSize int  `json:"window_size"`
	DFTLength  int  `json:"dft_length"` // coefficients kept after the optional mean pair, made even
	Norm       bool `json:"norm"`       // drop the first (mean) coefficient pair
	// LowerBounding negates every imaginary component.
	LowerBounding bool `json:"lower_bounding"`
	// Rescale multiplies coefficients by 1/sqrt(WindowSize) in addition to 1/std.
	Rescale bool `json:"rescale"`
	// Fast selects the FFT for whole windows; the direct sum is used otherwise.
	Fast bool `json:"fast"`
}

// Coder computes interleaved [re0, im0, re1, im1, ...] Fourier coefficients
// of fixed-length windows. A Coder is immutable and safe for concurrent use.
type Coder struct {
	params         Params
	start          int
	invSqrtWinSize float64
	phis           []float64
	rawLength      int
}

// NewCoder validates params and precomputes the rotation factors used by Sliding.
func NewCoder(params Params) (*Coder, error) {
	if params.WindowSize < 1 {
		return nil, fmt.Errorf("window size must be positive, got %d", params.WindowSize)
	}
	if params.DFTLength < 2 || params.DFTLength%2 != 0 {
		return nil, fmt.Errorf("dft length must be a positive even number, got %d", params.DFTLength)
	}

	c := &Coder{params: params, invSqrtWinSize: 1}
	if params.Norm {
		c.start = 2
	}
	if params.Rescale {
		c.invSqrtWinSize = 1 / math.Sqrt(float64(params.WindowSize))
	}
	c.rawLength = c.start + params.DFTLength
	c.phis = rotations(params.WindowSize, c.rawLength)
	return c, nil
}

// Params returns the configuration the coder was built with
func (c *Coder) Params() Params {
	return c.params
}

// Length is the number of coefficients produced per window.
func (c *Coder) Length() int {
	return c.params.DFTLength
}

// Transform returns the normalized coefficients of a single window using
// the fast transform when enabled, else the direct sum.
func (c *Coder) Transform(window []float64) []float64 {
	if c.params.Fast {
		return c.FastTransform(window)
	}
	return c.DirectTransform(window)
}

// DirectTransform evaluates the DFT sums directly in O(len(window) * DFTLength).
func (c *Coder) DirectTransform(window []float64) []float64 {
	raw := c.direct(window)
	return c.finish(raw, common.NormalizingStdDev(window))
}

// FastTransform computes the full spectrum with an FFT and keeps the leading coefficients.
func (c *Coder) FastTransform(window []float64) []float64 {
	raw := c.fast(window)
	return c.finish(raw, common.NormalizingStdDev(window))
}

// RawCoefficients returns the unnormalized coefficients including the
// mean pair, without sign flip.
func (c *Coder) RawCoefficients(window []float64) []float64 {
	if c.params.Fast {
		return c.fast(window)
	}
	return c.direct(window)
}

func (c *Coder) direct(window []float64) []float64 {
	n := len(window)
	raw := make([]float64, c.rawLength)
	for k := range c.rawLength / 2 {
		var re, im float64
		for j, v := range window {
			angle := 2 * math.Pi * float64(j) * float64(k) / float64(n)
			re += v * math.Cos(angle)
			im -= v * math.Sin(angle)
		}
		raw[2*k] = re
		raw[2*k+1] = im
	}
	return raw
}

func (c *Coder) fast(window []float64) []float64 {
	spectrum := fft.FFTReal(window)
	raw := make([]float64, c.rawLength)
	for k := 0; k < c.rawLength/2 && k < len(spectrum); k++ {
		raw[2*k] = real(spectrum[k])
		raw[2*k+1] = imag(spectrum[k])
	}
	return raw
}

// finish applies sign flip and scaling to raw and drops the mean pair.
func (c *Coder) finish(raw []float64, std float64) []float64 {
	scale := c.invSqrtWinSize / std
	out := make([]float64, c.params.DFTLength)
	for i := range out {
		v := raw[c.start+i] * scale
		if c.params.LowerBounding && i%2 == 1 {
			v = -v
		}
		out[i] = v
	}
	return out
}

// rotations returns the per-frequency factors e^{2*pi*i*k/windowSize}
// interleaved as [re, im] pairs.
func rotations(windowSize, length int) []float64 {
	phis := make([]float64, length)
	for k := range length / 2 {
		angle := 2 * math.Pi * float64(-k) / float64(windowSize)
		phis[2*k] = math.Cos(angle)
		phis[2*k+1] = -math.Sin(angle)
	}
	return phis
}
