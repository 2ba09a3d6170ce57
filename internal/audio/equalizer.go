package audio

import (
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/samber/lo"
)

const (
	// MaxGain is the largest boost or cut a band accepts, in dB.
	MaxGain = 12.0

	// BandQ is the quality factor shared by every band.
	BandQ = 1.0
)

// Frequencies are the fixed band center frequencies in Hz, band 0 first.
var Frequencies = []float64{60, 170, 310, 600, 1000, 3000, 6000, 12000}

// Equalizer is a chain of peaking filters applied in series to a streamer.
//
// The band layout never changes after construction; only gains do. Gains
// are published as one immutable slice through an atomic pointer, so the
// audio goroutine sees either all of a preset or none of it. Coefficients
// are recomputed on the audio side when it notices a new gain slice.
//
// An Equalizer built with no bands passes samples through untouched.
type Equalizer struct {
	s     beep.Streamer
	sr    float64
	freqs []float64

	mu    sync.Mutex // serialises writers
	gains atomic.Pointer[[]float64]

	// Audio side only.
	applied *[]float64
	filters []biquad
}

// NewEqualizer wraps s with the standard 8-band chain.
func NewEqualizer(sr beep.SampleRate, s beep.Streamer) *Equalizer {
	return NewEqualizerWithBands(sr, s, Frequencies)
}

// NewEqualizerWithBands wraps s with one band per frequency in freqs.
func NewEqualizerWithBands(sr beep.SampleRate, s beep.Streamer, freqs []float64) *Equalizer {
	eq := &Equalizer{
		s:       s,
		sr:      float64(sr),
		freqs:   slices.Clone(freqs),
		filters: make([]biquad, len(freqs)),
	}
	gains := make([]float64, len(freqs))
	eq.gains.Store(&gains)
	return eq
}

// Bands returns the number of bands.
func (eq *Equalizer) Bands() int {
	return len(eq.freqs)
}

// Frequency returns the center frequency of band i, or 0 when out of range.
func (eq *Equalizer) Frequency(i int) float64 {
	if i < 0 || i >= len(eq.freqs) {
		return 0
	}
	return eq.freqs[i]
}

// SetBandGain sets one band's gain in dB, clamped to ±MaxGain.
// An out-of-range index is ignored.
func (eq *Equalizer) SetBandGain(i int, dB float64) {
	if i < 0 || i >= len(eq.freqs) {
		return
	}

	eq.mu.Lock()
	defer eq.mu.Unlock()

	next := slices.Clone(*eq.gains.Load())
	next[i] = lo.Clamp(dB, -MaxGain, MaxGain)
	eq.gains.Store(&next)
}

// SetGains replaces all gains at once. Missing values are treated as 0 and
// extra values are ignored.
func (eq *Equalizer) SetGains(gains []float64) {
	next := make([]float64, len(eq.freqs))
	for i := range next {
		if i < len(gains) {
			next[i] = lo.Clamp(gains[i], -MaxGain, MaxGain)
		}
	}

	eq.mu.Lock()
	eq.gains.Store(&next)
	eq.mu.Unlock()
}

// ApplyPreset sets all gains from a named preset and returns the name
// actually applied. Unknown names apply "flat".
func (eq *Equalizer) ApplyPreset(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	gains, ok := Preset(name)
	if !ok {
		name = PresetFlat
	}
	eq.SetGains(gains)
	return name
}

// Gains returns a copy of the current gains, band 0 first.
func (eq *Equalizer) Gains() []float64 {
	return slices.Clone(*eq.gains.Load())
}

// Gain returns the gain of band i, or 0 when out of range.
func (eq *Equalizer) Gain(i int) float64 {
	g := *eq.gains.Load()
	if i < 0 || i >= len(g) {
		return 0
	}
	return g[i]
}

// Stream implements beep.Streamer.
func (eq *Equalizer) Stream(samples [][2]float64) (int, bool) {
	n, ok := eq.s.Stream(samples)
	if len(eq.filters) == 0 {
		return n, ok
	}

	if g := eq.gains.Load(); g != eq.applied {
		eq.applied = g
		for i, f := range eq.freqs {
			eq.filters[i].setPeaking(f, (*g)[i], BandQ, eq.sr)
		}
	}

	for i := range samples[:n] {
		l, r := samples[i][0], samples[i][1]
		for b := range eq.filters {
			l, r = eq.filters[b].process(l, r)
		}
		samples[i][0], samples[i][1] = l, r
	}
	return n, ok
}

// Err implements beep.Streamer.
func (eq *Equalizer) Err() error {
	return eq.s.Err()
}

// biquad is a stereo RBJ filter in transposed direct form II.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	z1, z2             [2]float64
}

// setPeaking computes peaking EQ coefficients. Gain 0 or a center
// frequency at or above Nyquist gives an identity filter. Filter state is
// kept so gain changes do not click.
func (f *biquad) setPeaking(freq, gainDB, q, sr float64) {
	if gainDB == 0 || freq <= 0 || freq >= sr/2 {
		f.b0, f.b1, f.b2, f.a1, f.a2 = 1, 0, 0, 0, 0
		return
	}

	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sr
	cos := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	a0 := 1 + alpha/a
	f.b0 = (1 + alpha*a) / a0
	f.b1 = -2 * cos / a0
	f.b2 = (1 - alpha*a) / a0
	f.a1 = -2 * cos / a0
	f.a2 = (1 - alpha/a) / a0
}

func (f *biquad) process(l, r float64) (float64, float64) {
	return f.step(0, l), f.step(1, r)
}

func (f *biquad) step(ch int, x float64) float64 {
	y := f.b0*x + f.z1[ch]
	f.z1[ch] = f.b1*x - f.a1*y + f.z2[ch]
	f.z2[ch] = f.b2*x - f.a2*y
	return y
}
