package player

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/handiism/melody/internal/audio"
	"github.com/handiism/melody/internal/config"
	"github.com/handiism/melody/internal/model"
	"github.com/handiism/melody/internal/playlist"
	"github.com/rs/zerolog"
)

// fakeEngine records calls and lets tests deliver events by hand.
type fakeEngine struct {
	mu      sync.Mutex
	handler func(audio.Event)
	gen     uint64
	loads   []int
	plays   int
	pauses  int
	stops   int
	volume  float64
	seeks   []float64
	playErr error
	closed  bool
}

func (f *fakeEngine) Subscribe(fn func(audio.Event)) { f.handler = fn }

func (f *fakeEngine) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

func (f *fakeEngine) Load(_ context.Context, _ *model.Track, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.loads = append(f.loads, index)
	return nil
}

func (f *fakeEngine) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	f.plays++
	return nil
}

func (f *fakeEngine) Pause() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return true
}

func (f *fakeEngine) Stop() { f.mu.Lock(); f.stops++; f.mu.Unlock() }

func (f *fakeEngine) Seek(fraction float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, fraction)
	return nil
}

func (f *fakeEngine) SetVolume(v float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = min(max(v, 0), 1)
	return f.volume
}

func (f *fakeEngine) Close() error { f.closed = true; return nil }

// end delivers Ended for the current generation.
func (f *fakeEngine) end() {
	f.handler(audio.Ended{Gen: f.Generation()})
}

// fakeEqualizer stores gains without filtering.
type fakeEqualizer struct {
	gains [8]float64
}

func (f *fakeEqualizer) Bands() int { return len(f.gains) }

func (f *fakeEqualizer) SetBandGain(i int, dB float64) {
	if i >= 0 && i < len(f.gains) {
		f.gains[i] = min(max(dB, -audio.MaxGain), audio.MaxGain)
	}
}

func (f *fakeEqualizer) ApplyPreset(name string) string {
	gains, ok := audio.Preset(name)
	if !ok {
		name = audio.PresetFlat
		gains, _ = audio.Preset(name)
	}
	copy(f.gains[:], gains)
	return name
}

func (f *fakeEqualizer) Gains() []float64 { return append([]float64(nil), f.gains[:]...) }

func threeTracks() []*model.Track {
	return []*model.Track{
		model.NewSyntheticTrack("A", "x", "0:03"),
		model.NewSyntheticTrack("B", "x", "0:03"),
		model.NewSyntheticTrack("C", "x", "0:03"),
	}
}

func newTestController(t *testing.T, store config.PreferenceStore) (*Controller, *fakeEngine) {
	t.Helper()
	if store == nil {
		store = config.NewMemoryStore()
	}
	eng := &fakeEngine{}
	pl := playlist.New(rand.New(rand.NewPCG(1, 2)))
	c := New(context.Background(), eng, &fakeEqualizer{}, pl, store, zerolog.Nop())
	c.AddTracks(threeTracks()...)
	return c, eng
}

func TestController_StartupDoesNotPlay(t *testing.T) {
	c, eng := newTestController(t, nil)

	s := c.Snapshot()
	if s.IsPlaying {
		t.Error("playing after startup")
	}
	if eng.plays != 0 {
		t.Errorf("Play called %d times at startup", eng.plays)
	}
	if len(eng.loads) != 1 || eng.loads[0] != 0 {
		t.Errorf("loads = %v, want [0]", eng.loads)
	}
}

func TestController_SongEnd(t *testing.T) {
	tests := []struct {
		name        string
		repeat      model.RepeatMode
		start       int
		wantIndex   int
		wantPlaying bool
	}{
		{"repeat one replays", model.RepeatOne, 0, 0, true},
		{"repeat all wraps", model.RepeatAll, 2, 0, true},
		{"none advances", model.RepeatNone, 0, 1, true},
		{"none stops at last", model.RepeatNone, 2, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, eng := newTestController(t, nil)
			c.SetRepeat(tt.repeat)
			c.PlayIndex(tt.start)
			c.Play()

			playsBefore := eng.plays
			eng.end()

			s := c.Snapshot()
			if s.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", s.Index, tt.wantIndex)
			}
			if s.IsPlaying != tt.wantPlaying {
				t.Errorf("IsPlaying = %v, want %v", s.IsPlaying, tt.wantPlaying)
			}
			if tt.wantPlaying && eng.plays != playsBefore+1 {
				t.Errorf("Play calls = %d, want %d", eng.plays, playsBefore+1)
			}
			if !tt.wantPlaying && eng.plays != playsBefore {
				t.Errorf("Play called after stop at the last track")
			}
		})
	}
}

func TestController_RepeatOneReplaysWithoutReload(t *testing.T) {
	c, eng := newTestController(t, nil)
	c.SetRepeat(model.RepeatOne)
	c.Play()

	loads := len(eng.loads)
	eng.end()

	if len(eng.loads) != loads {
		t.Errorf("track was reloaded on repeat one")
	}
	if got := c.Snapshot().Index; got != 0 {
		t.Errorf("Index = %d, want 0", got)
	}
}

func TestController_StaleEventsIgnored(t *testing.T) {
	c, eng := newTestController(t, nil)
	c.Play()

	stale := eng.Generation()
	c.Next()

	eng.handler(audio.Ended{Gen: stale})
	eng.handler(audio.MetadataReady{Gen: stale, Duration: time.Minute})

	s := c.Snapshot()
	if s.Index != 1 {
		t.Errorf("Index = %d, want 1", s.Index)
	}
	if s.Duration != 0 {
		t.Errorf("Duration = %v, stale metadata applied", s.Duration)
	}
}

func TestController_EventsUpdateState(t *testing.T) {
	c, eng := newTestController(t, nil)
	c.Play()

	gen := eng.Generation()
	eng.handler(audio.MetadataReady{Gen: gen, Duration: 10 * time.Second})
	eng.handler(audio.Progress{Gen: gen, Position: 4 * time.Second})

	s := c.Snapshot()
	if s.Duration != 10*time.Second || s.Position != 4*time.Second {
		t.Errorf("Duration/Position = %v/%v", s.Duration, s.Position)
	}
	if p := s.Progress(); p < 0.39 || p > 0.41 {
		t.Errorf("Progress = %v, want 0.4", p)
	}

	eng.handler(audio.PausedByUser{Gen: gen})
	if c.Snapshot().IsPlaying {
		t.Error("still playing after PausedByUser")
	}

	c.Play()
	eng.handler(audio.LoadFailed{Gen: gen, Err: errors.New("fetch failed")})
	s = c.Snapshot()
	if s.IsPlaying || s.LastError != "fetch failed" {
		t.Errorf("after LoadFailed: IsPlaying=%v LastError=%q", s.IsPlaying, s.LastError)
	}
}

func TestController_LatePauseEventAfterResume(t *testing.T) {
	c, eng := newTestController(t, nil)

	c.Play()
	c.Pause()
	c.Play()

	// The event caused by Pause arrives after the resume.
	eng.handler(audio.PausedByUser{Gen: eng.Generation()})
	if !c.Snapshot().IsPlaying {
		t.Error("late PausedByUser overrode the resume")
	}
}

func TestController_NavigationKeepsPlayState(t *testing.T) {
	c, eng := newTestController(t, nil)

	c.Next()
	if c.Snapshot().IsPlaying || eng.plays != 0 {
		t.Error("Next while paused started playback")
	}

	c.Play()
	c.Previous()
	s := c.Snapshot()
	if !s.IsPlaying {
		t.Error("Previous while playing stopped playback")
	}
	if s.Index != 0 {
		t.Errorf("Index = %d, want 0", s.Index)
	}

	c.PlayIndex(2)
	if got := eng.loads[len(eng.loads)-1]; got != 2 {
		t.Errorf("last load index = %d, want 2", got)
	}
	if !c.Snapshot().IsPlaying {
		t.Error("selecting while playing should keep playing")
	}
}

func TestController_PlayFailureReverts(t *testing.T) {
	c, eng := newTestController(t, nil)
	eng.playErr = errors.New("device busy")

	c.TogglePlay()

	s := c.Snapshot()
	if s.IsPlaying {
		t.Error("IsPlaying after failed start")
	}
	if s.LastError == "" {
		t.Error("LastError not set")
	}
}

func TestController_TogglePlay(t *testing.T) {
	c, eng := newTestController(t, nil)

	c.TogglePlay()
	if !c.Snapshot().IsPlaying {
		t.Fatal("not playing after toggle")
	}
	c.TogglePlay()
	if c.Snapshot().IsPlaying {
		t.Error("still playing after second toggle")
	}
	if eng.pauses != 1 {
		t.Errorf("pauses = %d, want 1", eng.pauses)
	}
}

func TestController_Volume(t *testing.T) {
	c, _ := newTestController(t, nil)

	tests := []struct {
		name string
		do   func()
		want float64
	}{
		{"set", func() { c.SetVolume(0.5) }, 0.5},
		{"clamp high", func() { c.SetVolume(3) }, 1},
		{"down", func() { c.AdjustVolume(-0.25) }, 0.75},
		{"mute", c.ToggleMute, 0},
		{"unmute", c.ToggleMute, MuteVolume},
		{"clamp low", func() { c.AdjustVolume(-5) }, 0},
	}

	for _, tt := range tests {
		tt.do()
		if got := c.Snapshot().Volume; got != tt.want {
			t.Errorf("%s: Volume = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestController_Seek(t *testing.T) {
	c, eng := newTestController(t, nil)

	c.Seek(0.5)
	if len(eng.seeks) != 0 {
		t.Error("seek forwarded without a known duration")
	}

	eng.handler(audio.MetadataReady{Gen: eng.Generation(), Duration: 10 * time.Second})
	c.Seek(1.5)
	if len(eng.seeks) != 1 {
		t.Fatalf("seeks = %v", eng.seeks)
	}
	if got := c.Snapshot().Position; got != 10*time.Second {
		t.Errorf("Position = %v, want clamped to 10s", got)
	}

	c.SeekBy(-0.25)
	if got := c.Snapshot().Position; got != 7500*time.Millisecond {
		t.Errorf("Position = %v, want 7.5s", got)
	}
}

func TestController_PreferencesAppliedAndSaved(t *testing.T) {
	store := config.NewMemoryStore()
	if err := store.Save(config.Preferences{Volume: 0.3, RepeatMode: "all", IsShuffled: true, Theme: config.ThemeLight}); err != nil {
		t.Fatal(err)
	}

	c, eng := newTestController(t, store)
	s := c.Snapshot()
	if s.Volume != 0.3 || eng.volume != 0.3 {
		t.Errorf("Volume = %v (engine %v), want 0.3", s.Volume, eng.volume)
	}
	if s.Repeat != model.RepeatAll || !s.Shuffled || s.Theme != config.ThemeLight {
		t.Errorf("state = %+v, preferences not applied", s)
	}

	c.CycleRepeat()
	c.ToggleShuffle()
	c.ToggleTheme()
	c.SetVolume(0.9)

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := config.Preferences{Volume: 0.9, RepeatMode: "none", IsShuffled: false, Theme: config.ThemeDark}
	if got != want {
		t.Errorf("saved = %+v, want %+v", got, want)
	}
}

func TestController_MalformedPreferencesUseDefaults(t *testing.T) {
	store := config.NewMemoryStore()
	store.SetRaw([]byte("{not json"))

	c, _ := newTestController(t, store)
	s := c.Snapshot()
	if s.Volume != config.DefaultVolume || s.Repeat != model.RepeatNone || s.Shuffled || s.Theme != config.ThemeDark {
		t.Errorf("state = %+v, want defaults", s)
	}
}

func TestController_CloseSaves(t *testing.T) {
	store := config.NewMemoryStore()
	c, eng := newTestController(t, store)
	c.SetRepeat(model.RepeatOne)

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !eng.closed {
		t.Error("engine not closed")
	}
	got, _ := store.Load()
	if got.RepeatMode != "one" {
		t.Errorf("saved repeat = %q, want one", got.RepeatMode)
	}

	// Mutations after Close are ignored.
	c.Play()
	if c.Snapshot().IsPlaying {
		t.Error("playing after Close")
	}
}

func TestController_Equalizer(t *testing.T) {
	c, _ := newTestController(t, nil)

	c.ApplyPreset("rock")
	s := c.Snapshot()
	if s.Preset != audio.PresetRock || s.Gains[0] != 5 {
		t.Errorf("preset = %q gains = %v", s.Preset, s.Gains)
	}

	c.AdjustBandGain(0, 10)
	s = c.Snapshot()
	if s.Gains[0] != audio.MaxGain {
		t.Errorf("band 0 = %v, want clamped to %v", s.Gains[0], audio.MaxGain)
	}
	if s.Preset != "" {
		t.Errorf("Preset = %q after manual change", s.Preset)
	}

	c.ApplyPreset("nonsense")
	if s := c.Snapshot(); s.Preset != audio.PresetFlat {
		t.Errorf("unknown preset applied %q", s.Preset)
	}

	c.CyclePreset()
	if got := c.Snapshot().Preset; got != audio.NextPreset(audio.PresetFlat) {
		t.Errorf("CyclePreset = %q", got)
	}
}

func TestController_RemoveTrack(t *testing.T) {
	c, eng := newTestController(t, nil)
	c.Play()

	c.RemoveTrack(0)
	s := c.Snapshot()
	if len(s.Tracks) != 2 {
		t.Fatalf("len = %d, want 2", len(s.Tracks))
	}
	if s.Current.Title != "B" {
		t.Errorf("Current = %s, want B", s.Current.Title)
	}
	if !s.IsPlaying {
		t.Error("removing the playing track should continue with the next")
	}
	if eng.stops != 1 {
		t.Errorf("stops = %d, want 1", eng.stops)
	}

	c.RemoveTrack(1)
	if got := c.Snapshot().Current.Title; got != "B" {
		t.Errorf("Current = %s after removing another track", got)
	}
}

func TestController_Subscribe(t *testing.T) {
	c, _ := newTestController(t, nil)

	var states []State
	c.Subscribe(func(s State) { states = append(states, s) })

	c.TogglePlay()
	c.CycleRepeat()

	if len(states) != 2 {
		t.Fatalf("got %d states, want 2", len(states))
	}
	if !states[0].IsPlaying || states[1].Repeat != model.RepeatOne {
		t.Errorf("states = %+v", states)
	}
}

// fetcherFunc adapts a function to audio.Fetcher.
type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string, _ func(read, total int64)) ([]byte, error) {
	return f(ctx, url)
}

// newEngineController wires a Controller to a real engine playing into a
// silent output. The returned channel sees every engine event after the
// Controller has handled it.
func newEngineController(t *testing.T, fetch fetcherFunc, tracks ...*model.Track) (*Controller, *audio.Engine, <-chan audio.Event) {
	t.Helper()
	var fetcher audio.Fetcher
	if fetch != nil {
		fetcher = fetch
	}
	engine := audio.NewEngine(audio.Options{
		Output:  audio.NewDiscardOutput(44100, 0),
		Fetcher: fetcher,
		Rand:    rand.New(rand.NewPCG(5, 6)),
		Logger:  zerolog.Nop(),
	})
	pl := playlist.New(rand.New(rand.NewPCG(1, 2)))
	c := New(context.Background(), engine, engine.Equalizer(), pl, config.NewMemoryStore(), zerolog.Nop())
	t.Cleanup(func() { c.Close() })

	events := make(chan audio.Event, 256)
	engine.Subscribe(func(ev audio.Event) { events <- ev })

	c.AddTracks(tracks...)
	return c, engine, events
}

func waitEvent[T audio.Event](t *testing.T, events <-chan audio.Event) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
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

func TestController_PauseResumeWithEngine(t *testing.T) {
	c, engine, events := newEngineController(t, nil, threeTracks()...)

	c.Play()
	c.Pause()
	c.Play()
	waitEvent[audio.PausedByUser](t, events)

	if s := c.Snapshot(); !s.IsPlaying || !engine.Playing() {
		t.Fatalf("after resume: IsPlaying=%v engine playing=%v", s.IsPlaying, engine.Playing())
	}

	c.TogglePlay()
	waitEvent[audio.PausedByUser](t, events)
	if s := c.Snapshot(); s.IsPlaying || engine.Playing() {
		t.Errorf("after pause: IsPlaying=%v engine playing=%v", s.IsPlaying, engine.Playing())
	}
}

func TestController_RemoteLoadDoesNotBlock(t *testing.T) {
	canceled := make(chan struct{})
	fetch := func(ctx context.Context, url string) ([]byte, error) {
		<-ctx.Done()
		close(canceled)
		return nil, ctx.Err()
	}
	c, _, _ := newEngineController(t, fetch,
		model.NewSyntheticTrack("A", "x", "0:03"),
		model.NewTrack("B", "x", "https://example.com/b.mp3", 0),
	)

	done := make(chan struct{})
	go func() {
		c.Next()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Next blocked on the download")
	}

	if s := c.Snapshot(); s.Index != 1 || s.Current.Title != "B" {
		t.Errorf("Index = %d, Current = %v", s.Index, s.Current)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Error("Close did not cancel the download")
	}
}

func TestController_RemoteLoadFailure(t *testing.T) {
	fetch := func(ctx context.Context, url string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	c, _, events := newEngineController(t, fetch,
		model.NewTrack("B", "x", "https://example.com/b.mp3", 0),
	)

	c.Play()
	waitEvent[audio.LoadFailed](t, events)

	s := c.Snapshot()
	if s.IsPlaying {
		t.Error("playing after a failed download")
	}
	if !strings.Contains(s.LastError, "connection refused") {
		t.Errorf("LastError = %q", s.LastError)
	}
}
