package audio

import (
	"math"
	"sync"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Analyser turns the most recent samples of a Tap into byte frequency
// data, the way a browser AnalyserNode does: Blackman window, FFT,
// magnitude scaled by 1/N, exponential smoothing over frames, conversion to
// dB and linear mapping of [minDB, maxDB] onto 0..255.
type Analyser struct {
	tap       *Tap
	size      int
	smoothing float64
	minDB     float64
	maxDB     float64

	mu       sync.Mutex
	fft      *fourier.FFT
	window   []float64
	input    []float64
	coeffs   []complex128
	smoothed []float64
}

// NewAnalyser creates an analyser over tap. size must be a power of two;
// anything else falls back to 256.
func NewAnalyser(tap *Tap, size int, smoothing, minDB, maxDB float64) *Analyser {
	if size < 32 || size&(size-1) != 0 {
		size = 256
	}
	if maxDB <= minDB {
		minDB, maxDB = -100, -30
	}

	a := &Analyser{
		tap:       tap,
		size:      size,
		smoothing: lo.Clamp(smoothing, 0, 1),
		minDB:     minDB,
		maxDB:     maxDB,
		fft:       fourier.NewFFT(size),
		window:    blackman(size),
		input:     make([]float64, size),
		smoothed:  make([]float64, size/2),
	}
	return a
}

// FrequencyBinCount returns the number of bins, half the FFT size.
func (a *Analyser) FrequencyBinCount() int {
	return a.size / 2
}

// ByteFrequencyData fills dst (resized to FrequencyBinCount) with the
// current spectrum and returns it.
func (a *Analyser) ByteFrequencyData(dst []byte) []byte {
	bins := a.size / 2
	if cap(dst) < bins {
		dst = make([]byte, bins)
	}
	dst = dst[:bins]

	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.input)
	got := a.tap.Samples(a.input)
	// Right-align so a short ring still ends at the newest sample.
	if len(got) < a.size {
		copy(a.input[a.size-len(got):], got)
		clear(a.input[:a.size-len(got)])
	}
	for i := range a.input {
		a.input[i] *= a.window[i]
	}

	a.coeffs = a.fft.Coefficients(a.coeffs, a.input)

	scale := 1 / float64(a.size)
	span := a.maxDB - a.minDB
	for k := range bins {
		mag := math.Hypot(real(a.coeffs[k]), imag(a.coeffs[k])) * scale
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag

		db := math.Inf(-1)
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		v := 255 * (db - a.minDB) / span
		dst[k] = byte(lo.Clamp(math.Floor(v), 0, 255))
	}
	return dst
}

// blackman returns the Blackman window (alpha 0.16) of length n.
func blackman(n int) []float64 {
	const alpha = 0.16
	a0 := (1 - alpha) / 2
	a1 := 0.5
	a2 := alpha / 2

	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}
	return w
}
