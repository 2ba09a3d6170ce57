package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/handiism/melody/internal/audio"
	"github.com/handiism/melody/internal/config"
	"github.com/handiism/melody/internal/model"
	"github.com/handiism/melody/internal/playlist"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// MuteVolume is the volume ToggleMute restores when unmuting.
const MuteVolume = config.DefaultVolume

// Engine is the playback surface the Controller drives.
type Engine interface {
	Subscribe(fn func(audio.Event))
	Generation() uint64
	Load(ctx context.Context, track *model.Track, index int) error
	Play() error
	// Pause reports whether a playing track was paused. Only then does
	// the engine emit PausedByUser.
	Pause() bool
	Stop()
	Seek(fraction float64) error
	SetVolume(v float64) float64
	Close() error
}

// Equalizer is the gain surface of the EQ chain.
type Equalizer interface {
	Bands() int
	SetBandGain(i int, dB float64)
	ApplyPreset(name string) string
	Gains() []float64
}

// State is a snapshot of everything the view shows.
type State struct {
	IsPlaying bool
	Repeat    model.RepeatMode
	Volume    float64
	Muted     bool
	Shuffled  bool
	Theme     string
	Preset    string
	Gains     []float64

	Position time.Duration
	Duration time.Duration

	Current *model.Track
	Index   int
	Tracks  []*model.Track

	// LastError is the most recent playback failure, cleared by the next
	// successful start.
	LastError string
}

// Progress returns Position as a fraction of Duration, or 0 when unknown.
func (s State) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return lo.Clamp(float64(s.Position)/float64(s.Duration), 0, 1)
}

// Controller owns the application state: playback flags, the playlist and
// the preferences. All mutations are serialised by one mutex.
type Controller struct {
	engine Engine
	eq     Equalizer
	pl     *playlist.Playlist
	store  config.PreferenceStore
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	playing  bool
	pauses   int // PausedByUser events still due for our own Pause calls
	repeat   model.RepeatMode
	volume   float64
	theme    string
	preset   string
	position time.Duration
	duration time.Duration
	loaded   *model.Track
	gen      uint64
	lastErr  string
	closed   bool

	pubMu sync.Mutex
	subs  []func(State)
}

// New creates a Controller and applies the stored preferences. eq may be
// nil when no equalizer is available. Nothing starts playing.
//
// ctx bounds background loads of remote tracks; they are also cancelled
// by Close.
func New(ctx context.Context, engine Engine, eq Equalizer, pl *playlist.Playlist, store config.PreferenceStore, log zerolog.Logger) *Controller {
	c := &Controller{
		engine: engine,
		eq:     eq,
		pl:     pl,
		store:  store,
		log:    log.With().Str("component", "controller").Logger(),
		preset: audio.PresetFlat,
	}
	c.ctx, c.cancel = context.WithCancel(ctx)

	prefs, err := store.Load()
	if err != nil {
		c.log.Warn().Err(err).Msg("Preferences unreadable, using defaults")
	}
	prefs = prefs.Normalize()

	c.repeat = prefs.Repeat()
	c.volume = engine.SetVolume(prefs.Volume)
	c.theme = prefs.Theme
	pl.SetShuffle(prefs.IsShuffled)

	engine.Subscribe(c.handleEvent)
	return c
}

// Subscribe registers fn to receive a State after every change. fn runs
// synchronously and must not call back into the Controller.
func (c *Controller) Subscribe(fn func(State)) {
	c.pubMu.Lock()
	c.subs = append(c.subs, fn)
	c.pubMu.Unlock()
}

// Snapshot returns the current State.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := State{
		IsPlaying: c.playing,
		Repeat:    c.repeat,
		Volume:    c.volume,
		Muted:     c.volume == 0,
		Shuffled:  c.pl.Shuffled(),
		Theme:     c.theme,
		Preset:    c.preset,
		Position:  c.position,
		Duration:  c.duration,
		Current:   c.pl.Current(),
		Index:     c.pl.Index(),
		Tracks:    c.pl.Tracks(),
		LastError: c.lastErr,
	}
	if c.eq != nil {
		s.Gains = c.eq.Gains()
	}
	return s
}

// mutate runs fn under the state lock and publishes the resulting State.
// save persists the preferences afterwards.
func (c *Controller) mutate(save bool, fn func()) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn()
	state := c.snapshotLocked()
	prefs := c.preferencesLocked()
	c.mu.Unlock()

	if save {
		if err := c.store.Save(prefs); err != nil {
			c.log.Warn().Err(err).Msg("Saving preferences")
		}
	}
	for _, fn := range c.subs {
		fn(state)
	}
}

func (c *Controller) preferencesLocked() config.Preferences {
	return config.Preferences{
		Volume:     c.volume,
		RepeatMode: c.repeat.String(),
		IsShuffled: c.pl.Shuffled(),
		Theme:      c.theme,
	}
}

// TogglePlay pauses a playing track or starts the current one.
func (c *Controller) TogglePlay() {
	c.mutate(false, func() {
		if c.playing {
			c.pauseLocked()
			return
		}
		c.startLocked()
	})
}

// Play starts or resumes the current track.
func (c *Controller) Play() {
	c.mutate(false, func() {
		if !c.playing {
			c.startLocked()
		}
	})
}

// Pause suspends playback.
func (c *Controller) Pause() {
	c.mutate(false, func() {
		if c.playing {
			c.pauseLocked()
		}
	})
}

// Next moves to the next track. Playback continues if it was running.
func (c *Controller) Next() {
	c.mutate(false, func() { c.advanceLocked(playlist.Next) })
}

// Previous moves to the previous track. Playback continues if it was
// running.
func (c *Controller) Previous() {
	c.mutate(false, func() { c.advanceLocked(playlist.Previous) })
}

// PlayIndex selects the track at index i of the current order. Selecting
// while playing keeps playing; selecting while paused only loads.
func (c *Controller) PlayIndex(i int) {
	c.mutate(false, func() {
		if !c.pl.Select(i) {
			return
		}
		c.loadLocked()
		if c.playing {
			c.startLocked()
		}
	})
}

// Seek jumps to fraction of the current track.
func (c *Controller) Seek(fraction float64) {
	c.mutate(false, func() {
		if c.duration <= 0 {
			return
		}
		if err := c.engine.Seek(fraction); err != nil {
			c.log.Warn().Err(err).Msg("Seek failed")
			return
		}
		c.position = time.Duration(lo.Clamp(fraction, 0, 1) * float64(c.duration))
	})
}

// SeekBy moves the position by delta, a fraction of the duration.
func (c *Controller) SeekBy(delta float64) {
	s := c.Snapshot()
	if s.Duration <= 0 {
		return
	}
	c.Seek(s.Progress() + delta)
}

// SetVolume sets the volume, clamped to [0,1].
func (c *Controller) SetVolume(v float64) {
	c.mutate(true, func() { c.volume = c.engine.SetVolume(v) })
}

// AdjustVolume changes the volume by delta.
func (c *Controller) AdjustVolume(delta float64) {
	c.mutate(true, func() { c.volume = c.engine.SetVolume(c.volume + delta) })
}

// ToggleMute switches between silence and the default volume.
func (c *Controller) ToggleMute() {
	c.mutate(true, func() {
		if c.volume > 0 {
			c.volume = c.engine.SetVolume(0)
		} else {
			c.volume = c.engine.SetVolume(MuteVolume)
		}
	})
}

// CycleRepeat steps none → one → all → none.
func (c *Controller) CycleRepeat() {
	c.mutate(true, func() { c.repeat = c.repeat.Next() })
}

// SetRepeat sets the repeat mode.
func (c *Controller) SetRepeat(mode model.RepeatMode) {
	c.mutate(true, func() { c.repeat = mode })
}

// ToggleShuffle flips shuffle. The current track stays current.
func (c *Controller) ToggleShuffle() {
	c.mutate(true, func() { c.pl.SetShuffle(!c.pl.Shuffled()) })
}

// SetShuffle enables or disables shuffle.
func (c *Controller) SetShuffle(enable bool) {
	c.mutate(true, func() { c.pl.SetShuffle(enable) })
}

// SetBandGain sets one equalizer band. Manual changes leave no preset
// selected.
func (c *Controller) SetBandGain(band int, dB float64) {
	c.mutate(false, func() {
		if c.eq == nil {
			return
		}
		c.eq.SetBandGain(band, dB)
		c.preset = ""
	})
}

// AdjustBandGain changes one band by delta dB.
func (c *Controller) AdjustBandGain(band int, delta float64) {
	c.mutate(false, func() {
		if c.eq == nil || band < 0 || band >= c.eq.Bands() {
			return
		}
		c.eq.SetBandGain(band, c.eq.Gains()[band]+delta)
		c.preset = ""
	})
}

// ApplyPreset sets all bands from a named preset. Unknown names apply flat.
func (c *Controller) ApplyPreset(name string) {
	c.mutate(false, func() {
		if c.eq == nil {
			return
		}
		c.preset = c.eq.ApplyPreset(name)
	})
}

// CyclePreset applies the preset after the current one.
func (c *Controller) CyclePreset() {
	c.mutate(false, func() {
		if c.eq == nil {
			return
		}
		c.preset = c.eq.ApplyPreset(audio.NextPreset(c.preset))
	})
}

// ToggleTheme switches between the dark and light palettes.
func (c *Controller) ToggleTheme() {
	c.mutate(true, func() {
		if c.theme == config.ThemeLight {
			c.theme = config.ThemeDark
		} else {
			c.theme = config.ThemeLight
		}
	})
}

// AddTracks appends tracks to the playlist.
func (c *Controller) AddTracks(tracks ...*model.Track) {
	c.mutate(false, func() {
		wasEmpty := c.pl.Len() == 0
		c.pl.Add(tracks...)
		if wasEmpty && c.pl.Len() > 0 {
			c.loadLocked()
		}
	})
}

// RemoveTrack drops the track at index i of the current order. Removing
// the loaded track stops it and loads its successor.
func (c *Controller) RemoveTrack(i int) {
	c.mutate(false, func() {
		removed, ok := c.pl.Remove(i)
		if !ok || removed != c.loaded {
			return
		}
		wasPlaying := c.playing
		c.engine.Stop()
		c.playing = false
		c.loaded = nil
		c.position, c.duration = 0, 0
		if c.pl.Len() == 0 {
			c.gen, c.pauses = 0, 0
			return
		}
		c.loadLocked()
		if wasPlaying {
			c.startLocked()
		}
	})
}

// Save writes the current preferences to the store.
func (c *Controller) Save() error {
	c.mu.Lock()
	prefs := c.preferencesLocked()
	c.mu.Unlock()
	return c.store.Save(prefs)
}

// Close saves the preferences and shuts the engine down. The store is
// left open for its owner to close.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	prefs := c.preferencesLocked()
	c.playing = false
	c.mu.Unlock()
	c.cancel()

	return errors.Join(c.store.Save(prefs), c.engine.Close())
}

// advanceLocked moves through the playlist, keeping the play state.
func (c *Controller) advanceLocked(d playlist.Direction) {
	if c.pl.Advance(d) == nil {
		return
	}
	c.loadLocked()
	if c.playing {
		c.startLocked()
	}
}

// loadLocked loads the current track into the engine.
func (c *Controller) loadLocked() {
	track := c.pl.Current()
	if track == nil {
		return
	}

	c.position, c.duration = 0, track.Duration
	err := c.engine.Load(c.ctx, track, c.pl.Index())
	c.loaded = track
	c.gen = c.engine.Generation()
	// Pause events of the old generation are never delivered.
	c.pauses = 0
	if err != nil {
		c.log.Warn().Err(err).Str("track", track.String()).Msg("Load failed")
	}
}

// pauseLocked pauses the engine. The PausedByUser event it causes arrives
// later and must not override a resume that happened in between.
func (c *Controller) pauseLocked() {
	if c.engine.Pause() {
		c.pauses++
	}
	c.playing = false
}

// startLocked starts the current track. Failures are logged and leave the
// player paused.
func (c *Controller) startLocked() {
	if c.pl.Current() == nil {
		return
	}
	if c.loaded != c.pl.Current() {
		c.loadLocked()
	}

	if err := c.engine.Play(); err != nil {
		c.log.Error().Err(err).Str("track", c.loaded.String()).Msg("Playback failed to start")
		c.playing = false
		c.lastErr = err.Error()
		return
	}
	c.playing = true
	c.lastErr = ""
}

// handleEvent applies an engine event. It runs on the engine's dispatcher
// goroutine.
func (c *Controller) handleEvent(ev audio.Event) {
	c.mutate(false, func() {
		if ev.Generation() != c.gen {
			return
		}

		switch ev := ev.(type) {
		case audio.MetadataReady:
			c.duration = ev.Duration
		case audio.Progress:
			c.position = ev.Position
		case audio.PausedByUser:
			if c.pauses > 0 {
				c.pauses--
				return
			}
			c.playing = false
		case audio.LoadFailed:
			c.log.Error().Err(ev.Err).Str("track", c.loaded.String()).Msg("Track failed to load")
			c.playing = false
			c.lastErr = ev.Err.Error()
		case audio.Ended:
			c.log.Debug().Str("repeat", c.repeat.String()).Msg("Track ended")
			c.songEndedLocked()
		}
	})
}

// songEndedLocked decides what follows a finished track.
func (c *Controller) songEndedLocked() {
	c.playing = false
	c.position = c.duration

	switch c.repeat {
	case model.RepeatOne:
		c.position = 0
		c.startLocked()
	case model.RepeatAll:
		c.playing = true
		c.advanceLocked(playlist.Next)
	default:
		if c.pl.IsLast() {
			return
		}
		c.playing = true
		c.advanceLocked(playlist.Next)
	}
}
