package audio

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep/v2"
)

const (
	toneAttack  = 100 * time.Millisecond
	toneRelease = 100 * time.Millisecond
	tonePeak    = 0.1
	toneSustain = 0.05
)

// ToneFrequency returns the start frequency of the demo tone for a track
// at the given playlist index.
func ToneFrequency(index int) float64 {
	return 200 + 100*float64(max(index, 0))
}

// ToneDuration draws a demo tone length between 3 and 5 seconds.
func ToneDuration(rng *rand.Rand) time.Duration {
	return time.Duration((3000 + rng.Float64()*2000) * float64(time.Millisecond))
}

// tone is the placeholder sound played for tracks without a source: a sine
// that glides exponentially down to 80% of its start frequency, low-passed
// at twice the start frequency, under a short attack, a slow decay from
// 0.1 to 0.05 and a short release. After its length it streams silence.
type tone struct {
	rate   beep.SampleRate
	sr     float64
	freq   float64
	length int
	pos    int
	phase  float64
	lp     float64
	lpCoef float64
}

func newTone(sr beep.SampleRate, freq float64, d time.Duration) *tone {
	return &tone{
		rate:   sr,
		sr:     float64(sr),
		freq:   freq,
		length: sr.N(d),
		lpCoef: 1 - math.Exp(-2*math.Pi*2*freq/float64(sr)),
	}
}

func (t *tone) Stream(samples [][2]float64) (int, bool) {
	dur := float64(t.length) / t.sr
	for i := range samples {
		if t.pos >= t.length {
			samples[i] = [2]float64{}
			continue
		}

		at := float64(t.pos) / t.sr
		f := t.freq * math.Pow(0.8, at/dur)
		t.phase += 2 * math.Pi * f / t.sr
		if t.phase > 2*math.Pi {
			t.phase -= 2 * math.Pi
		}

		t.lp += t.lpCoef * (math.Sin(t.phase) - t.lp)
		v := t.lp * toneEnvelope(at, dur)
		samples[i] = [2]float64{v, v}
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

func (t *tone) position() time.Duration {
	return t.rate.D(t.pos)
}

// toneEnvelope is the gain at time at (seconds) of a tone lasting dur.
func toneEnvelope(at, dur float64) float64 {
	attack := toneAttack.Seconds()
	releaseStart := dur - toneRelease.Seconds()

	switch {
	case at <= 0 || at >= dur:
		return 0
	case at < attack:
		return tonePeak * at / attack
	case at < releaseStart:
		return tonePeak + (toneSustain-tonePeak)*(at-attack)/(releaseStart-attack)
	default:
		return toneSustain * (dur - at) / toneRelease.Seconds()
	}
}
