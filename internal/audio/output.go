package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/rs/zerolog"
)

// Output pulls samples from a single streamer and plays them.
//
// Lock and Unlock guard state shared with the goroutine that pulls samples.
// Every change to the streamer pipeline happens under the lock.
type Output interface {
	SampleRate() beep.SampleRate
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close() error
}

// NewOutput opens the speaker. When that fails (no device, or a build
// without speaker support) it logs a warning and returns a DiscardOutput,
// so playback stays functional but silent.
func NewOutput(sr beep.SampleRate, buffer time.Duration, log zerolog.Logger) Output {
	out, err := newSpeakerOutput(sr, buffer)
	if err == nil {
		log.Debug().Msgf("Speaker initialized with sample rate: %d Hz, buffer: %v", sr, buffer)
		return out
	}
	log.Warn().Err(err).Msg("Audio output unavailable, continuing without sound")
	return NewDiscardOutput(sr, buffer)
}

// DiscardOutput consumes samples in real time and throws them away.
//
// With a positive period a goroutine pulls one period worth of samples per
// tick. With a zero period nothing runs on its own and samples are pulled
// with Drain, which tests use to step playback deterministically.
type DiscardOutput struct {
	mu     sync.Mutex
	sr     beep.SampleRate
	period time.Duration
	s      beep.Streamer
	buf    [][2]float64
	done   chan struct{}
	once   sync.Once
}

// NewDiscardOutput creates a DiscardOutput and starts its pacing loop.
func NewDiscardOutput(sr beep.SampleRate, period time.Duration) *DiscardOutput {
	o := &DiscardOutput{
		sr:     sr,
		period: period,
		done:   make(chan struct{}),
	}
	if period > 0 {
		o.buf = make([][2]float64, sr.N(period))
		go o.loop()
	}
	return o
}

func (o *DiscardOutput) loop() {
	ticker := time.NewTicker(o.period)
	defer ticker.Stop()

	for {
		select {
		case <-o.done:
			return
		case <-ticker.C:
			o.mu.Lock()
			if o.s != nil {
				o.s.Stream(o.buf)
			}
			o.mu.Unlock()
		}
	}
}

// Drain pulls d worth of samples through the streamer synchronously.
func (o *DiscardOutput) Drain(d time.Duration) {
	n := o.sr.N(d)
	if n <= 0 {
		return
	}
	buf := make([][2]float64, 512)

	o.mu.Lock()
	defer o.mu.Unlock()
	for n > 0 && o.s != nil {
		chunk := min(n, len(buf))
		o.s.Stream(buf[:chunk])
		n -= chunk
	}
}

func (o *DiscardOutput) SampleRate() beep.SampleRate { return o.sr }

func (o *DiscardOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	o.s = s
	o.mu.Unlock()
}

func (o *DiscardOutput) Lock()   { o.mu.Lock() }
func (o *DiscardOutput) Unlock() { o.mu.Unlock() }

func (o *DiscardOutput) Close() error {
	o.once.Do(func() { close(o.done) })
	o.mu.Lock()
	o.s = nil
	o.mu.Unlock()
	return nil
}
