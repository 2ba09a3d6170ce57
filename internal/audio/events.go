package audio

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNoTrack is returned by Play when nothing has been loaded.
	ErrNoTrack = errors.New("no track loaded")

	// ErrUnsupportedFormat is returned for sources with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrNoAudioDevice is returned when the build has no speaker support.
	ErrNoAudioDevice = errors.New("no audio device available")

	// ErrClosed is returned by operations on a closed Engine.
	ErrClosed = errors.New("engine closed")
)

// Event is a playback lifecycle notification.
//
// Every event carries the load generation it belongs to. Loading a new
// track starts a new generation; events of older generations are dropped
// before delivery.
type Event interface {
	Generation() uint64
}

// MetadataReady is emitted once a decoded source knows its duration.
type MetadataReady struct {
	Gen      uint64
	Duration time.Duration
}

// Progress is emitted periodically while the source plays, and after a seek.
type Progress struct {
	Gen      uint64
	Position time.Duration
}

// Ended is emitted when the loaded track finished on its own.
type Ended struct {
	Gen uint64
}

// PausedByUser is emitted when Pause suspends a playing track.
type PausedByUser struct {
	Gen uint64
}

// LoadFailed is emitted when a remote track could not be fetched or
// decoded. The engine is left stopped.
type LoadFailed struct {
	Gen uint64
	Err error
}

func (e MetadataReady) Generation() uint64 { return e.Gen }
func (e Progress) Generation() uint64      { return e.Gen }
func (e Ended) Generation() uint64         { return e.Gen }
func (e PausedByUser) Generation() uint64  { return e.Gen }
func (e LoadFailed) Generation() uint64    { return e.Gen }

// eventQueue is an unbounded FIFO drained by a single dispatcher goroutine.
// push never blocks, so it is safe to call from the audio goroutine.
type eventQueue struct {
	mu       sync.Mutex
	items    []Event
	handlers []func(Event)
	signal   chan struct{}
	done     chan struct{}
	once     sync.Once
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *eventQueue) subscribe(fn func(Event)) {
	q.mu.Lock()
	q.handlers = append(q.handlers, fn)
	q.mu.Unlock()
}

// run delivers events in order until close. current reports the live
// generation; anything else is dropped.
func (q *eventQueue) run(current func() uint64) {
	for {
		select {
		case <-q.done:
			return
		case <-q.signal:
		}

		for {
			q.mu.Lock()
			items := q.items
			q.items = nil
			handlers := q.handlers
			q.mu.Unlock()

			if len(items) == 0 {
				break
			}
			for _, ev := range items {
				if ev.Generation() != current() {
					continue
				}
				for _, h := range handlers {
					h(ev)
				}
			}
		}
	}
}

func (q *eventQueue) close() {
	q.once.Do(func() { close(q.done) })
}
