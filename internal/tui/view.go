package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/melody/internal/audio"
	"github.com/handiism/melody/internal/library"
	"github.com/handiism/melody/internal/model"
)

// playlistRows is the number of playlist rows shown around the cursor.
const playlistRows = 8

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder
	s := m.styles

	// Header
	b.WriteString(s.title.Render("♪ melody"))
	b.WriteString("  ")
	b.WriteString(s.dim.Render(fmt.Sprintf("%s theme", m.state.Theme)))
	b.WriteString("\n\n")

	nowPlaying := lipgloss.JoinHorizontal(lipgloss.Top,
		m.cover,
		"  ",
		m.viewTrack(),
	)
	b.WriteString(nowPlaying)
	b.WriteString("\n\n")

	b.WriteString(m.viewEqualizer())
	b.WriteString("\n")

	if m.showVis {
		b.WriteString(m.vis.Render())
		b.WriteString("\n\n")
	}

	b.WriteString(m.viewPlaylist())
	b.WriteString("\n")

	if m.adding {
		b.WriteString(s.subtitle.Render("Add files (separate several with ;):"))
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.importing {
		b.WriteString(s.dim.Render("Importing…"))
		b.WriteString("\n")
	}
	b.WriteString(m.renderLogs())

	// Footer
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) viewTrack() string {
	var b strings.Builder
	s := m.styles
	st := m.state

	if st.Current == nil {
		b.WriteString(s.dim.Render("No tracks. Press a to add files."))
		return b.String()
	}

	b.WriteString(s.playing.Render(st.Current.Title))
	b.WriteString("\n")
	b.WriteString(s.subtitle.Render(st.Current.Artist))
	b.WriteString(s.dim.Render(" • " + st.Current.Album))
	b.WriteString("\n\n")

	status := "❚❚ Paused"
	if st.IsPlaying {
		status = "▶ Playing"
	}
	b.WriteString(s.text.Render(status))
	b.WriteString("\n")

	duration := st.Current.DurationLabel
	if st.Duration > 0 {
		duration = model.FormatTime(st.Duration)
	}
	b.WriteString(m.progress.ViewAs(st.Progress()))
	b.WriteString(" ")
	b.WriteString(s.dim.Render(fmt.Sprintf("%s / %s", model.FormatTime(st.Position), duration)))
	b.WriteString("\n\n")

	volume := fmt.Sprintf("Volume %3.0f%%", st.Volume*100)
	if st.Muted {
		volume = "Volume muted"
	}
	shuffle := "off"
	if st.Shuffled {
		shuffle = "on"
	}
	b.WriteString(s.text.Render(fmt.Sprintf("%s  Repeat %s  Shuffle %s", volume, st.Repeat, shuffle)))

	if st.LastError != "" {
		b.WriteString("\n")
		b.WriteString(s.error.Render("✗ " + st.LastError))
	}

	return b.String()
}

func (m Model) viewEqualizer() string {
	s := m.styles
	gains := m.state.Gains
	if len(gains) == 0 {
		return s.dim.Render("Equalizer unavailable") + "\n"
	}

	preset := m.state.Preset
	if preset == "" {
		preset = "custom"
	}

	labels := make([]string, len(gains))
	values := make([]string, len(gains))
	for i, g := range gains {
		style := s.band
		if i == m.band {
			style = s.bandSel
		}
		labels[i] = style.Render(frequencyLabel(audio.Frequencies[i]))
		values[i] = style.Render(fmt.Sprintf("%+.0f", g))
	}

	var b strings.Builder
	b.WriteString(s.subtitle.Render("Equalizer"))
	b.WriteString(s.dim.Render(" preset " + preset))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labels...))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, values...))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewPlaylist() string {
	s := m.styles
	tracks := m.state.Tracks

	var b strings.Builder
	b.WriteString(s.subtitle.Render(fmt.Sprintf("Playlist (%d)", len(tracks))))
	b.WriteString("\n")

	start := max(0, min(m.cursor-playlistRows/2, len(tracks)-playlistRows))
	end := min(len(tracks), start+playlistRows)

	for i := start; i < end; i++ {
		t := tracks[i]
		marker := "  "
		if i == m.state.Index {
			marker = "♪ "
		}
		line := fmt.Sprintf("%s%s • %s • %s", marker, t.Title, t.Artist, t.DurationLabel)

		switch {
		case i == m.cursor:
			b.WriteString(s.selected.Render("> " + line))
		case i == m.state.Index:
			b.WriteString(s.playing.Render("  " + line))
		default:
			b.WriteString(s.text.Render("  " + line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder
	s := m.styles

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case library.LevelError:
			style = s.error
			prefix = "✗"
		case library.LevelWarning:
			style = s.warning
			prefix = "!"
		case library.LevelSuccess:
			style = s.success
			prefix = "✓"
		case library.LevelInfo:
			style = s.subtitle
			prefix = "›"
		default:
			style = s.dim
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

// frequencyLabel renders 60 as "60", 1000 as "1k" and 12000 as "12k".
func frequencyLabel(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%gk", hz/1000)
	}
	return fmt.Sprintf("%g", hz)
}
