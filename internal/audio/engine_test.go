package audio

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/handiism/melody/internal/model"
	"github.com/rs/zerolog"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (f *fakeTimers) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{d: d, f: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *fakeTimers) last(t *testing.T) *fakeTimer {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.timers) == 0 {
		t.Fatal("no timer scheduled")
	}
	return f.timers[len(f.timers)-1]
}

func newTestEngine(t *testing.T) (*Engine, *DiscardOutput, *fakeTimers) {
	t.Helper()
	out := NewDiscardOutput(testRate, 0)
	timers := &fakeTimers{}
	e := NewEngine(Options{
		Output:    out,
		Rand:      rand.New(rand.NewPCG(7, 7)),
		AfterFunc: timers.AfterFunc,
		Logger:    zerolog.Nop(),
	})
	t.Cleanup(func() { e.Close() })
	return e, out, timers
}

func record(e *Engine) <-chan Event {
	ch := make(chan Event, 1024)
	e.Subscribe(func(ev Event) { ch <- ev })
	return ch
}

// waitFor returns the first event of type T, skipping others.
func waitFor[T Event](t *testing.T, ch <-chan Event) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if v, ok := ev.(T); ok {
				return v
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

// expectNo fails if an event of type T arrives within a short wait.
func expectNo[T Event](t *testing.T, ch <-chan Event) {
	t.Helper()
	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case ev := <-ch:
			if _, ok := ev.(T); ok {
				t.Fatalf("unexpected %T: %+v", ev, ev)
			}
		case <-timeout:
			return
		}
	}
}

// writeWAV writes a stereo 16-bit WAV file of the given length.
func writeWAV(t *testing.T, d time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	format := beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, beep.Take(testRate.N(d), sine(440, 0.3)), format); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	return path
}

// fetcherFunc adapts a function to Fetcher.
type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string, _ func(read, total int64)) ([]byte, error) {
	return f(ctx, url)
}

func newRemoteEngine(t *testing.T, fetch fetcherFunc) (*Engine, *DiscardOutput) {
	t.Helper()
	out := NewDiscardOutput(testRate, 0)
	e := NewEngine(Options{
		Output:  out,
		Fetcher: fetch,
		Rand:    rand.New(rand.NewPCG(7, 7)),
		Logger:  zerolog.Nop(),
	})
	t.Cleanup(func() { e.Close() })
	return e, out
}

func TestEngine_SetVolumeClamps(t *testing.T) {
	e, _, _ := newTestEngine(t)

	tests := []struct {
		in, want float64
	}{
		{150, 1},
		{-10, 0},
		{0.5, 0.5},
	}

	for _, tt := range tests {
		if got := e.SetVolume(tt.in); got != tt.want {
			t.Errorf("SetVolume(%v) = %v, want %v", tt.in, got, tt.want)
		}
		if got := e.Volume(); got != tt.want {
			t.Errorf("Volume() = %v, want %v", got, tt.want)
		}
	}
}

func TestEngine_PlayWithoutTrack(t *testing.T) {
	e, _, _ := newTestEngine(t)
	if err := e.Play(); !errors.Is(err, ErrNoTrack) {
		t.Errorf("Play() = %v, want ErrNoTrack", err)
	}
}

func TestEngine_SyntheticToneEnds(t *testing.T) {
	e, out, timers := newTestEngine(t)
	events := record(e)

	track := model.NewSyntheticTrack("Demo", "Demo", "3:00")
	if err := e.Load(context.Background(), track, 2); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := e.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	timer := timers.last(t)
	if timer.d < 3*time.Second || timer.d > 5*time.Second {
		t.Errorf("tone length = %v, want 3s..5s", timer.d)
	}
	if !e.Playing() {
		t.Error("engine should be playing")
	}

	out.Drain(300 * time.Millisecond)
	if pos := e.Position(); pos <= 0 {
		t.Errorf("Position() = %v, want > 0 while the tone plays", pos)
	}

	timer.f()
	ended := waitFor[Ended](t, events)
	if ended.Gen != e.Generation() {
		t.Errorf("Ended.Gen = %d, want %d", ended.Gen, e.Generation())
	}
	if e.Playing() {
		t.Error("engine should stop after the tone ends")
	}
}

func TestEngine_LoadInvalidatesPendingTone(t *testing.T) {
	e, _, timers := newTestEngine(t)
	events := record(e)
	ctx := context.Background()

	e.Load(ctx, model.NewSyntheticTrack("A", "Demo", "3:00"), 0)
	e.Play()
	first := timers.last(t)

	e.Load(ctx, model.NewSyntheticTrack("B", "Demo", "3:00"), 1)
	if !first.stopped {
		t.Error("Load should cancel the pending tone timer")
	}

	// A timer that was already firing when cancelled must not end track B.
	first.f()
	expectNo[Ended](t, events)

	e.Play()
	second := timers.last(t)
	if second == first {
		t.Fatal("Play should schedule a new timer")
	}
	second.f()
	if got := waitFor[Ended](t, events); got.Gen != e.Generation() {
		t.Errorf("Ended.Gen = %d, want %d", got.Gen, e.Generation())
	}
}

func TestEngine_PauseSuspendsToneTimer(t *testing.T) {
	e, _, timers := newTestEngine(t)
	events := record(e)

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return clock }

	e.Load(context.Background(), model.NewSyntheticTrack("A", "Demo", "3:00"), 0)
	e.Play()
	first := timers.last(t)

	clock = clock.Add(time.Second)
	e.Pause()
	if !first.stopped {
		t.Error("Pause should stop the tone timer")
	}
	waitFor[PausedByUser](t, events)

	// A stale fire from the paused timer is ignored.
	first.f()
	expectNo[Ended](t, events)

	e.Play()
	resumed := timers.last(t)
	if want := first.d - time.Second; resumed.d != want {
		t.Errorf("resumed timer = %v, want %v", resumed.d, want)
	}
}

func TestEngine_SeekWithoutDurationIsNoop(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.Load(context.Background(), model.NewSyntheticTrack("A", "Demo", "3:00"), 0)

	if err := e.Seek(0.5); err != nil {
		t.Errorf("Seek: %v", err)
	}
	if e.Position() != 0 || e.Duration() != 0 {
		t.Errorf("Position() = %v, Duration() = %v", e.Position(), e.Duration())
	}
}

func TestEngine_DecodedSource(t *testing.T) {
	e, out, _ := newTestEngine(t)
	events := record(e)

	path := writeWAV(t, 500*time.Millisecond)
	track := model.NewTrack("tone", "", path, 0)
	if err := e.Load(context.Background(), track, 0); err != nil {
		t.Fatalf("Load: %v", err)
	}

	meta := waitFor[MetadataReady](t, events)
	if meta.Duration < 490*time.Millisecond || meta.Duration > 510*time.Millisecond {
		t.Errorf("Duration = %v, want about 500ms", meta.Duration)
	}

	if err := e.Seek(0.5); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	progress := waitFor[Progress](t, events)
	if progress.Position < 240*time.Millisecond || progress.Position > 260*time.Millisecond {
		t.Errorf("Progress after seek = %v, want about 250ms", progress.Position)
	}

	if err := e.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	out.Drain(time.Second)

	ended := waitFor[Ended](t, events)
	if ended.Gen != e.Generation() {
		t.Errorf("Ended.Gen = %d, want %d", ended.Gen, e.Generation())
	}

	// Playing again after the end restarts from the beginning.
	if err := e.Play(); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if pos := e.Position(); pos != 0 {
		t.Errorf("Position() after replay = %v, want 0", pos)
	}
}

func TestEngine_UnsupportedFormat(t *testing.T) {
	e, _, _ := newTestEngine(t)

	track := model.NewTrack("notes", "", filepath.Join(t.TempDir(), "notes.txt"), 0)
	if err := e.Load(context.Background(), track, 0); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load() = %v, want ErrUnsupportedFormat", err)
	}
	if err := e.Play(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Play() = %v, want ErrUnsupportedFormat", err)
	}
}

func TestEngine_ClosedRejectsLoad(t *testing.T) {
	e, _, _ := newTestEngine(t)
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := e.Load(context.Background(), model.NewSyntheticTrack("A", "", ""), 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after Close = %v, want ErrClosed", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestEventQueue_DropsStaleGenerations(t *testing.T) {
	q := newEventQueue()
	got := make(chan Event, 8)
	q.subscribe(func(ev Event) { got <- ev })

	q.push(Progress{Gen: 1})
	q.push(Ended{Gen: 1})
	q.push(MetadataReady{Gen: 2, Duration: time.Second})
	q.push(Ended{Gen: 2})

	go q.run(func() uint64 { return 2 })
	defer q.close()

	first := (<-got).(MetadataReady)
	if first.Gen != 2 {
		t.Errorf("first event generation = %d", first.Gen)
	}
	if second := <-got; second != (Ended{Gen: 2}) {
		t.Errorf("second event = %+v", second)
	}
	select {
	case ev := <-got:
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestProbeDuration(t *testing.T) {
	path := writeWAV(t, 250*time.Millisecond)

	d, err := ProbeDuration(path)
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	if d < 240*time.Millisecond || d > 260*time.Millisecond {
		t.Errorf("ProbeDuration = %v, want about 250ms", d)
	}

	if _, err := ProbeDuration(filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		location string
		want     bool
	}{
		{"song.mp3", true},
		{"SONG.FLAC", true},
		{"a.ogg", true},
		{"a.wav", true},
		{"cover.jpg", false},
		{"https://example.com/stream.mp3?token=1", true},
		{"https://example.com/page", false},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			if got := IsSupported(tt.location); got != tt.want {
				t.Errorf("IsSupported(%q) = %v, want %v", tt.location, got, tt.want)
			}
		})
	}

	for _, ext := range Extensions() {
		if !IsSupported("track" + ext) {
			t.Errorf("IsSupported(%q) = false", "track"+ext)
		}
	}
}

func TestEngine_RemoteLoadDoesNotBlock(t *testing.T) {
	data, err := os.ReadFile(writeWAV(t, 500*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	release := make(chan struct{})
	e, _ := newRemoteEngine(t, func(ctx context.Context, url string) ([]byte, error) {
		<-release
		return data, nil
	})
	events := record(e)

	track := model.NewTrack("remote", "", "https://example.com/song.wav", 0)
	done := make(chan error, 1)
	go func() { done <- e.Load(context.Background(), track, 0) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Load blocked on the download")
	}
	if !e.Loading() {
		t.Error("Loading() = false while the download is pending")
	}

	// Play before the data lands starts the track once it arrives.
	if err := e.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	close(release)

	meta := waitFor[MetadataReady](t, events)
	if meta.Duration < 490*time.Millisecond || meta.Duration > 510*time.Millisecond {
		t.Errorf("Duration = %v, want about 500ms", meta.Duration)
	}
	if e.Loading() || !e.Playing() {
		t.Errorf("Loading() = %v, Playing() = %v after the download", e.Loading(), e.Playing())
	}
}

func TestEngine_RemoteLoadFailure(t *testing.T) {
	e, _ := newRemoteEngine(t, func(ctx context.Context, url string) ([]byte, error) {
		return nil, errors.New("connection refused")
	})
	events := record(e)

	track := model.NewTrack("remote", "", "https://example.com/song.mp3", 0)
	if err := e.Load(context.Background(), track, 0); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e.Play()

	failed := waitFor[LoadFailed](t, events)
	if failed.Err == nil || failed.Gen != e.Generation() {
		t.Errorf("LoadFailed = %+v", failed)
	}
	if e.Playing() {
		t.Error("engine should not play a failed download")
	}
	if err := e.Play(); err == nil {
		t.Error("Play after a failed download should return the error")
	}
}

func TestEngine_LoadCancelsPendingFetch(t *testing.T) {
	canceled := make(chan struct{})
	e, _ := newRemoteEngine(t, func(ctx context.Context, url string) ([]byte, error) {
		<-ctx.Done()
		close(canceled)
		return nil, ctx.Err()
	})
	events := record(e)
	ctx := context.Background()

	e.Load(ctx, model.NewTrack("remote", "", "https://example.com/song.mp3", 0), 0)
	e.Load(ctx, model.NewSyntheticTrack("B", "Demo", "3:00"), 1)

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded download was not cancelled")
	}
	expectNo[LoadFailed](t, events)
	if e.Loading() {
		t.Error("Loading() = true after a new load")
	}
}

func TestEngine_PauseReportsWhetherPlaying(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.Load(context.Background(), model.NewSyntheticTrack("A", "Demo", "3:00"), 0)

	if e.Pause() {
		t.Error("Pause() = true with nothing playing")
	}
	e.Play()
	if !e.Pause() {
		t.Error("Pause() = false while playing")
	}
}
