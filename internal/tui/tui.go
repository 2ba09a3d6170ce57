// Package tui provides the Bubble Tea terminal user interface for melody.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/handiism/melody/internal/config"
	ioutils "github.com/handiism/melody/internal/io"
	"github.com/handiism/melody/internal/library"
	"github.com/handiism/melody/internal/model"
	"github.com/handiism/melody/internal/player"
	"github.com/handiism/melody/internal/visualizer"
	"github.com/rs/zerolog"
)

const (
	volumeStep = 0.05
	seekStep   = 0.05
	gainStep   = 1.0
	coverSize  = 16
	maxLogs    = 5
)

// Options wires the TUI to the rest of the program.
type Options struct {
	Controller *player.Controller

	// Analyser feeds the visualizer. Nil disables drawing; frames still tick.
	Analyser visualizer.Source

	Settings *config.Settings
	Logger   zerolog.Logger
}

// LogEntry represents an import message in the UI.
type LogEntry struct {
	Message string
	Level   library.ProgressLevel
}

// Model is the Bubble Tea model for the player screen.
type Model struct {
	ctrl     *player.Controller
	settings *config.Settings
	log      zerolog.Logger
	vis      *visualizer.Visualizer
	images   *ioutils.ImageService
	updates  chan player.State

	keys     keyMap
	help     help.Model
	progress progress.Model
	input    textinput.Model
	styles   styles

	state     player.State
	cursor    int
	band      int
	showVis   bool
	adding    bool
	importing bool
	logs      []LogEntry

	cover      string
	coverTrack *model.Track

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

// NewModel creates the player model and subscribes it to the controller.
func NewModel(opts Options) Model {
	settings := opts.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "/path/to/music or song.mp3"
	ti.CharLimit = 1024
	ti.Width = 60

	prog := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	prog.Width = 40

	updates := make(chan player.State, 1)
	opts.Controller.Subscribe(func(s player.State) {
		// Keep only the latest state; the view never needs the ones in between.
		select {
		case updates <- s:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- s:
			default:
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	state := opts.Controller.Snapshot()

	m := Model{
		ctrl:     opts.Controller,
		settings: settings,
		log:      opts.Logger,
		vis:      visualizer.New(opts.Analyser, settings.VisualizerWidth, settings.VisualizerHeight),
		images:   ioutils.NewImageService(),
		updates:  updates,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: prog,
		input:    ti,
		styles:   newStyles(state.Theme),
		cursor:   state.Index,
		showVis:  settings.ShowVisualizer,
		ctx:      ctx,
		cancel:   cancel,
	}
	m.setState(state)
	return m
}

// Message types
type (
	// stateMsg carries a controller snapshot.
	stateMsg player.State

	// frameMsg drives the visualizer.
	frameMsg time.Time

	// importDoneMsg is sent when an import finishes.
	importDoneMsg struct {
		Tracks []*model.Track
		Events []library.ProgressEvent
		Err    error
	}
)

// Init starts the state listener and the frame loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForState(), m.tickFrame())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-30, 20), 80)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateInput(msg)
		}
		if cmd, quit := m.handleKey(msg); quit {
			m.cancel()
			return m, tea.Quit
		} else if cmd != nil {
			cmds = append(cmds, cmd)
		}
		m.setState(m.ctrl.Snapshot())

	case stateMsg:
		m.setState(player.State(msg))
		cmds = append(cmds, m.waitForState())

	case frameMsg:
		if m.showVis {
			m.vis.Frame()
		}
		cmds = append(cmds, m.tickFrame())

	case importDoneMsg:
		m.importing = false
		for _, ev := range msg.Events {
			m.addLog(LogEntry{Message: ev.Message, Level: ev.Level})
		}
		if msg.Err != nil {
			m.addLog(LogEntry{Message: msg.Err.Error(), Level: library.LevelError})
		} else if len(msg.Tracks) > 0 {
			m.ctrl.AddTracks(msg.Tracks...)
			m.setState(m.ctrl.Snapshot())
		}
	}

	return m, tea.Batch(cmds...)
}

// handleKey maps a key press to a controller call.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return nil, true
	case key.Matches(msg, m.keys.TogglePlay):
		m.ctrl.TogglePlay()
	case key.Matches(msg, m.keys.Previous):
		m.ctrl.Previous()
		m.cursor = m.ctrl.Snapshot().Index
	case key.Matches(msg, m.keys.Next):
		m.ctrl.Next()
		m.cursor = m.ctrl.Snapshot().Index
	case key.Matches(msg, m.keys.VolumeUp):
		m.ctrl.AdjustVolume(volumeStep)
	case key.Matches(msg, m.keys.VolumeDown):
		m.ctrl.AdjustVolume(-volumeStep)
	case key.Matches(msg, m.keys.Mute):
		m.ctrl.ToggleMute()
	case key.Matches(msg, m.keys.Repeat):
		m.ctrl.CycleRepeat()
	case key.Matches(msg, m.keys.Shuffle):
		m.ctrl.ToggleShuffle()
		m.cursor = m.ctrl.Snapshot().Index
	case key.Matches(msg, m.keys.Theme):
		m.ctrl.ToggleTheme()
	case key.Matches(msg, m.keys.BandLeft):
		m.band = max(m.band-1, 0)
	case key.Matches(msg, m.keys.BandRight):
		m.band = max(0, min(m.band+1, len(m.state.Gains)-1))
	case key.Matches(msg, m.keys.GainUp):
		m.ctrl.AdjustBandGain(m.band, gainStep)
	case key.Matches(msg, m.keys.GainDown):
		m.ctrl.AdjustBandGain(m.band, -gainStep)
	case key.Matches(msg, m.keys.Preset):
		m.ctrl.CyclePreset()
	case key.Matches(msg, m.keys.SeekBack):
		m.ctrl.SeekBy(-seekStep)
	case key.Matches(msg, m.keys.SeekFwd):
		m.ctrl.SeekBy(seekStep)
	case key.Matches(msg, m.keys.CursorDown):
		m.cursor = min(m.cursor+1, len(m.state.Tracks)-1)
	case key.Matches(msg, m.keys.CursorUp):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Select):
		m.ctrl.PlayIndex(m.cursor)
	case key.Matches(msg, m.keys.Remove):
		m.ctrl.RemoveTrack(m.cursor)
	case key.Matches(msg, m.keys.Visualizer):
		m.showVis = !m.showVis
		if !m.showVis {
			m.vis.Canvas().Clear()
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Add):
		if !m.importing {
			m.adding = true
			m.input.SetValue("")
			return m.input.Focus(), false
		}
	}
	return nil, false
}

// updateInput handles keys while the path prompt is open.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case "esc":
		m.adding = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.adding = false
		m.input.Blur()
		paths := splitPaths(m.input.Value())
		if len(paths) == 0 {
			return m, nil
		}
		m.importing = true
		return m, m.importPaths(paths)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// setState stores a snapshot and refreshes what depends on it.
func (m *Model) setState(s player.State) {
	if s.Theme != m.state.Theme {
		m.styles = newStyles(s.Theme)
	}
	m.state = s
	m.cursor = min(max(m.cursor, 0), max(len(s.Tracks)-1, 0))
	m.band = min(max(m.band, 0), max(len(s.Gains)-1, 0))

	if s.Current != m.coverTrack {
		m.coverTrack = s.Current
		m.cover = m.renderCover(s.Current)
	}
}

// renderCover draws the track's artwork, or the placeholder.
func (m *Model) renderCover(t *model.Track) string {
	if t == nil {
		return ""
	}
	img, err := m.images.Cover(m.ctx, t.Artwork, coverSize, coverSize)
	if err != nil {
		m.log.Debug().Err(err).Str("track", t.String()).Msg("Artwork unreadable, using placeholder")
		img = ioutils.Placeholder(coverSize, coverSize)
	}
	return visualizer.FromImage(img).Render()
}

func (m *Model) addLog(entry LogEntry) {
	if entry.Level == library.LevelVerbose {
		return
	}
	m.logs = append(m.logs, entry)
	// Keep only the last few logs
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// waitForState returns a command that waits for the next controller state.
func (m Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.updates:
			return stateMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// tickFrame returns a command for the next visualizer frame.
func (m Model) tickFrame() tea.Cmd {
	return tea.Tick(m.settings.FrameInterval(), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// importPaths imports in the background.
func (m Model) importPaths(paths []string) tea.Cmd {
	return func() tea.Msg {
		var (
			mu     sync.Mutex
			events []library.ProgressEvent
		)
		importer := library.NewImporter(m.settings, m.log, func(ev library.ProgressEvent) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		})

		tracks, err := importer.Import(m.ctx, paths)

		mu.Lock()
		defer mu.Unlock()
		return importDoneMsg{Tracks: tracks, Events: events, Err: err}
	}
}

// splitPaths splits the prompt on ";" so several paths can be added at once.
func splitPaths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ";") {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Run starts the TUI application and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
