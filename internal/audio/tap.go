package audio

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// Tap copies a mono mix of everything that passes through it into a ring
// buffer for analysis. It sits between the equalizer and the output.
type Tap struct {
	s    beep.Streamer
	mu   sync.Mutex
	buf  []float64
	pos  int
	size int
}

// NewTap wraps a streamer with a ring buffer of the given size.
func NewTap(s beep.Streamer, size int) *Tap {
	return &Tap{
		s:    s,
		buf:  make([]float64, size),
		size: size,
	}
}

// Stream passes audio through while capturing a mono mix.
func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.mu.Lock()
	for i := range n {
		t.buf[t.pos] = (samples[i][0] + samples[i][1]) / 2
		t.pos = (t.pos + 1) % t.size
	}
	t.mu.Unlock()
	return n, ok
}

// Err returns the underlying streamer's error.
func (t *Tap) Err() error {
	return t.s.Err()
}

// Samples copies the most recent len(dst) samples into dst, oldest first.
// dst longer than the ring is only partly filled.
func (t *Tap) Samples(dst []float64) []float64 {
	n := min(len(dst), t.size)
	t.mu.Lock()
	start := (t.pos - n + t.size) % t.size
	for i := range n {
		dst[i] = t.buf[(start+i)%t.size]
	}
	t.mu.Unlock()
	return dst[:n]
}
