package audio

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/handiism/melody/internal/config"
	"github.com/handiism/melody/internal/http"
	"github.com/handiism/melody/internal/model"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Options configure an Engine. Zero values pick defaults.
type Options struct {
	// Output to play through. Nil opens the speaker, falling back to a
	// silent DiscardOutput.
	Output     Output
	SampleRate beep.SampleRate
	Buffer     time.Duration

	// Analyser settings. A negative FFTSize disables the analyser.
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64

	// Fetcher downloads http(s) sources.
	Fetcher Fetcher

	// Rand picks demo tone lengths.
	Rand *rand.Rand

	// AfterFunc schedules the end of demo tones. Defaults to time.AfterFunc.
	AfterFunc func(time.Duration, func()) Timer

	// ProgressInterval is the minimum spacing of Progress events.
	ProgressInterval time.Duration

	Logger zerolog.Logger
}

// OptionsFromSettings builds engine options from settings.
func OptionsFromSettings(s *config.Settings, log zerolog.Logger) Options {
	return Options{
		SampleRate:  beep.SampleRate(s.SampleRate),
		Buffer:      s.BufferDuration(),
		FFTSize:     s.FFTSize,
		Smoothing:   s.Smoothing,
		MinDecibels: s.MinDecibels,
		MaxDecibels: s.MaxDecibels,
		Fetcher:     http.NewClient(s.HTTPTimeoutDuration()),
		Logger:      log,
	}
}

func (o *Options) setDefaults() {
	if o.SampleRate <= 0 {
		o.SampleRate = 44100
	}
	if o.Buffer <= 0 {
		o.Buffer = 100 * time.Millisecond
	}
	if o.FFTSize == 0 {
		o.FFTSize = 256
	}
	if o.MaxDecibels <= o.MinDecibels {
		o.MinDecibels, o.MaxDecibels = -100, -30
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.AfterFunc == nil {
		o.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = 250 * time.Millisecond
	}
}

// Engine plays one track at a time through a fixed pipeline:
//
//	source slot -> volume -> equalizer -> tap -> output
//
// The pipeline is built once and played for the lifetime of the Engine.
// Loading a track swaps what sits in the source slot and starts a new
// generation; events from older generations are never delivered.
//
// Tracks without a source play a generated tone of random length whose end
// is a cancellable timer bound to the generation.
//
// Lock order is e.mu, then the output lock. The audio goroutine only holds
// the output lock and only pushes to the event queue.
type Engine struct {
	opts     Options
	log      zerolog.Logger
	out      Output
	slot     *slot
	volume   *effects.Gain
	eq       *Equalizer
	tap      *Tap
	analyser *Analyser
	events   *eventQueue
	gen      atomic.Uint64
	now      func() time.Time

	mu         sync.Mutex
	track      *model.Track
	index      int
	src        *source
	loadErr    error
	loading    bool
	cancelLoad context.CancelFunc
	tone       *tone
	playing    bool
	vol        float64
	timer      Timer
	timerSeq   uint64
	remaining  time.Duration
	resumedAt  time.Time
	closed     bool
}

// NewEngine builds the pipeline and starts playing it (silence until a
// track is loaded and played).
func NewEngine(opts Options) *Engine {
	opts.setDefaults()

	out := opts.Output
	if out == nil {
		out = NewOutput(opts.SampleRate, opts.Buffer, opts.Logger)
	}
	sr := out.SampleRate()

	e := &Engine{
		opts:   opts,
		log:    opts.Logger,
		out:    out,
		events: newEventQueue(),
		vol:    1,
		now:    time.Now,
	}

	e.slot = &slot{interval: opts.ProgressInterval, emit: e.events.push}
	e.volume = &effects.Gain{Streamer: e.slot, Gain: 0}
	e.eq = NewEqualizer(sr, e.volume)

	tapSize := max(opts.FFTSize, 256)
	e.tap = NewTap(e.eq, tapSize)
	if opts.FFTSize > 0 {
		e.analyser = NewAnalyser(e.tap, opts.FFTSize, opts.Smoothing, opts.MinDecibels, opts.MaxDecibels)
	}

	go e.events.run(e.gen.Load)
	out.Play(e.tap)

	return e
}

// Subscribe registers fn for engine events. Events are delivered in order
// on a single goroutine that holds no engine locks.
func (e *Engine) Subscribe(fn func(Event)) {
	e.events.subscribe(fn)
}

// Equalizer returns the equalizer stage.
func (e *Engine) Equalizer() *Equalizer {
	return e.eq
}

// Analyser returns the analyser, or nil when analysis is disabled.
func (e *Engine) Analyser() *Analyser {
	return e.analyser
}

// Generation returns the current load generation.
func (e *Engine) Generation() uint64 {
	return e.gen.Load()
}

// Load detaches the current source and attaches track. index is the
// track's playlist position and picks the demo tone pitch.
//
// Decoded sources emit MetadataReady once their duration is known. A
// local source that fails to open is reported here and again by Play; the
// previous source is detached either way.
//
// Remote tracks are fetched in the background and Load returns at once.
// The download is cancelled by ctx, by the next Load and by Close. A
// failed download is reported with LoadFailed.
func (e *Engine) Load(ctx context.Context, track *model.Track, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	gen := e.gen.Add(1)
	e.stopTimerLocked()
	e.cancelLoadLocked()
	e.playing = false
	e.tone = nil
	e.remaining = 0

	var (
		src *source
		err error
	)
	switch {
	case track == nil || track.IsSynthetic():
	case track.IsRemote() && IsSupported(track.SourceURL):
		lctx, cancel := context.WithCancel(ctx)
		e.loading, e.cancelLoad = true, cancel
		go e.fetch(lctx, track, gen)
	default:
		src, err = openSource(ctx, track.SourceURL, e.out.SampleRate(), e.opts.Fetcher)
		if err != nil {
			err = fmt.Errorf("load %s: %w", track.Title, err)
		}
	}

	e.out.Lock()
	old := e.slot.cur
	e.slot.cur = nil
	if src != nil {
		e.slot.cur = src
	}
	e.slot.paused = true
	e.slot.gen = gen
	e.slot.lastProgress = 0
	e.out.Unlock()

	if s, ok := old.(*source); ok {
		if cerr := s.close(); cerr != nil {
			e.log.Debug().Err(cerr).Msg("Closing previous source")
		}
	}

	e.track, e.index, e.src, e.loadErr = track, index, src, err

	if track != nil {
		e.log.Debug().Msgf("Loaded %s (generation %d)", track, gen)
	}
	if src != nil {
		if d := src.duration(); d > 0 {
			e.events.push(MetadataReady{Gen: gen, Duration: d})
		}
	}
	return err
}

// fetch downloads and decodes a remote track off the caller's goroutine and
// attaches it if gen is still the live generation.
func (e *Engine) fetch(ctx context.Context, track *model.Track, gen uint64) {
	src, err := openSource(ctx, track.SourceURL, e.out.SampleRate(), e.opts.Fetcher)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || gen != e.gen.Load() {
		if src != nil {
			src.close()
		}
		return
	}
	e.cancelLoadLocked()

	if err != nil {
		err = fmt.Errorf("load %s: %w", track.Title, err)
		e.loadErr = err
		e.playing = false
		e.log.Warn().Err(err).Msg("Remote track unavailable")
		e.events.push(LoadFailed{Gen: gen, Err: err})
		return
	}

	e.src = src
	e.out.Lock()
	e.slot.cur = src
	e.slot.paused = !e.playing
	e.slot.lastProgress = 0
	e.out.Unlock()

	if d := src.duration(); d > 0 {
		e.events.push(MetadataReady{Gen: gen, Duration: d})
	}
}

func (e *Engine) cancelLoadLocked() {
	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}
	e.loading = false
}

// Loading reports whether a remote track is still being fetched.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Play starts or resumes the loaded track. A remote track that is still
// loading starts as soon as its download lands.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.closed:
		return ErrClosed
	case e.track == nil:
		return ErrNoTrack
	case e.loadErr != nil:
		return e.loadErr
	case e.loading:
		e.playing = true
		return nil
	}

	if e.track.IsSynthetic() {
		if e.playing {
			return nil
		}
		e.out.Lock()
		if e.tone == nil {
			d := ToneDuration(e.opts.Rand)
			e.tone = newTone(e.out.SampleRate(), ToneFrequency(e.index), d)
			e.remaining = d
			e.slot.cur = e.tone
			e.slot.lastProgress = 0
		}
		e.slot.paused = false
		e.out.Unlock()
		e.scheduleToneEndLocked()
	} else {
		e.out.Lock()
		if e.src.ended {
			if err := e.src.seek(0); err != nil {
				e.out.Unlock()
				return fmt.Errorf("rewind: %w", err)
			}
			e.slot.lastProgress = 0
		}
		e.slot.paused = false
		e.out.Unlock()
	}

	e.playing = true
	return nil
}

// Pause suspends output without losing position and emits PausedByUser.
// A demo tone's end timer is suspended with it. It reports whether a
// playing track was paused; only then is the event emitted.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.playing || e.closed {
		return false
	}
	e.suspendLocked()
	e.events.push(PausedByUser{Gen: e.gen.Load()})
	return true
}

// Stop suspends output without emitting PausedByUser. A demo tone is
// discarded, so the next Play starts a new one.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.suspendLocked()
	if e.tone != nil {
		e.tone = nil
		e.remaining = 0
	}
}

func (e *Engine) suspendLocked() {
	e.out.Lock()
	e.slot.paused = true
	e.out.Unlock()

	if e.timer != nil {
		e.stopTimerLocked()
		e.remaining = max(0, e.remaining-e.now().Sub(e.resumedAt))
	}
	e.playing = false
}

// Seek moves to fraction (clamped to [0,1]) of the track duration. It is a
// no-op when the duration is unknown, as for demo tones.
func (e *Engine) Seek(fraction float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.src == nil || e.closed {
		return nil
	}
	d := e.src.duration()
	if d <= 0 {
		return nil
	}
	target := time.Duration(lo.Clamp(fraction, 0, 1) * float64(d))

	e.out.Lock()
	err := e.src.seek(target)
	pos := e.src.position()
	e.slot.lastProgress = pos
	if e.playing {
		e.slot.paused = false
	}
	e.out.Unlock()

	if err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	e.events.push(Progress{Gen: e.gen.Load(), Position: pos})
	return nil
}

// SetVolume clamps v to [0,1], applies it and returns the applied value.
func (e *Engine) SetVolume(v float64) float64 {
	v = lo.Clamp(v, 0, 1)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.out.Lock()
	e.volume.Gain = v - 1
	e.out.Unlock()
	e.vol = v
	return v
}

// Volume returns the current volume.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vol
}

// Playing reports whether the engine is producing sound for a track.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// Position returns the playback position of the loaded track.
func (e *Engine) Position() time.Duration {
	e.out.Lock()
	defer e.out.Unlock()
	if e.slot.cur == nil {
		return 0
	}
	return e.slot.cur.position()
}

// Duration returns the length of the loaded track, or 0 when unknown.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return 0
	}
	return e.src.duration()
}

// Close stops playback, cancels timers and releases the source and output.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.gen.Add(1)
	e.stopTimerLocked()
	e.cancelLoadLocked()

	e.out.Lock()
	old := e.slot.cur
	e.slot.cur = nil
	e.out.Unlock()

	if s, ok := old.(*source); ok {
		s.close()
	}
	e.src = nil
	e.playing = false
	e.mu.Unlock()

	e.events.close()
	return e.out.Close()
}

func (e *Engine) scheduleToneEndLocked() {
	e.timerSeq++
	seq, gen := e.timerSeq, e.gen.Load()
	e.resumedAt = e.now()
	e.timer = e.opts.AfterFunc(e.remaining, func() { e.toneEnded(gen, seq) })
}

func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerSeq++
}

// toneEnded runs when a demo tone's timer fires. Timers from an older
// generation, or cancelled after they started firing, are ignored.
func (e *Engine) toneEnded(gen, seq uint64) {
	e.mu.Lock()
	if e.closed || gen != e.gen.Load() || seq != e.timerSeq {
		e.mu.Unlock()
		return
	}

	e.timer = nil
	e.tone = nil
	e.remaining = 0
	e.playing = false
	e.out.Lock()
	e.slot.paused = true
	e.out.Unlock()
	e.mu.Unlock()

	e.events.push(Ended{Gen: gen})
}

// playable is what the source slot can hold.
type playable interface {
	beep.Streamer
	position() time.Duration
}

// slot is the head of the pipeline. It always streams a full buffer,
// filling with silence when empty, paused or drained, so the output never
// drops the pipeline. Fields are guarded by the output lock.
type slot struct {
	cur          playable
	paused       bool
	gen          uint64
	lastProgress time.Duration
	interval     time.Duration
	emit         func(Event)
}

func (s *slot) Stream(samples [][2]float64) (int, bool) {
	if s.cur == nil || s.paused {
		clear(samples)
		return len(samples), true
	}

	n, ok := s.cur.Stream(samples)
	clear(samples[n:])

	pos := s.cur.position()
	if pos < s.lastProgress || pos-s.lastProgress >= s.interval {
		s.lastProgress = pos
		s.emit(Progress{Gen: s.gen, Position: pos})
	}

	if !ok {
		if src, isSource := s.cur.(*source); isSource {
			src.ended = true
		}
		s.paused = true
		s.emit(Ended{Gen: s.gen})
	}
	return len(samples), true
}

func (s *slot) Err() error { return nil }
