package playlist

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/handiism/melody/internal/model"
)

// Format represents supported playlist file formats.
type Format int

const (
	// FormatM3U creates .m3u files (most compatible).
	FormatM3U Format = iota

	// FormatPLS creates .pls files (Winamp/SHOUTcast format).
	FormatPLS
)

// FormatFromPath picks the format from a file extension. Unknown
// extensions fall back to M3U.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".pls") {
		return FormatPLS
	}
	return FormatM3U
}

// Writer renders tracks as a playlist file.
//
// Local sources are written relative to the playlist directory when
// possible, remote sources are written as-is and synthetic tracks are
// skipped, since they have nothing to point at.
//
// Example:
//
//	w := playlist.NewWriter(playlist.FormatM3U, true, "/music")
//	content := w.Write(pl.Tracks())
//	os.WriteFile("/music/mix.m3u", []byte(content), 0644)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:180,Artist - Song Title
//	// Song Title.mp3
type Writer struct {
	format   Format
	extended bool // For M3U: include EXTINF lines with duration/title
	baseDir  string
}

// NewWriter creates a Writer. baseDir is the directory the playlist will be
// written to; an empty baseDir keeps paths absolute.
func NewWriter(format Format, extended bool, baseDir string) *Writer {
	return &Writer{
		format:   format,
		extended: extended,
		baseDir:  baseDir,
	}
}

// Write generates playlist content for tracks in the given order.
func (w *Writer) Write(tracks []*model.Track) string {
	playable := make([]*model.Track, 0, len(tracks))
	for _, t := range tracks {
		if t != nil && !t.IsSynthetic() {
			playable = append(playable, t)
		}
	}

	switch w.format {
	case FormatPLS:
		return w.writePLS(playable)
	default:
		return w.writeM3U(playable)
	}
}

func (w *Writer) writeM3U(tracks []*model.Track) string {
	var sb strings.Builder

	if w.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, track := range tracks {
		if w.extended {
			fmt.Fprintf(&sb, "#EXTINF:%d,%s\n", lengthSeconds(track), track.String())
		}
		sb.WriteString(w.location(track) + "\n")
	}

	return sb.String()
}

func (w *Writer) writePLS(tracks []*model.Track) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, track := range tracks {
		idx := i + 1
		fmt.Fprintf(&sb, "File%d=%s\n", idx, w.location(track))
		fmt.Fprintf(&sb, "Title%d=%s\n", idx, track.String())
		fmt.Fprintf(&sb, "Length%d=%d\n", idx, lengthSeconds(track))
	}

	fmt.Fprintf(&sb, "NumberOfEntries=%d\n", len(tracks))
	sb.WriteString("Version=2\n")

	return sb.String()
}

func (w *Writer) location(t *model.Track) string {
	if t.IsRemote() || w.baseDir == "" {
		return t.SourceURL
	}
	if rel, err := filepath.Rel(w.baseDir, t.SourceURL); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return t.SourceURL
}

// lengthSeconds returns the length for EXTINF/LengthN, -1 when unknown.
func lengthSeconds(t *model.Track) int {
	if t.Duration <= 0 {
		return -1
	}
	return int(t.Duration / time.Second)
}

// Entry is one item read from an M3U file.
type Entry struct {
	// Location is an absolute path or a URL.
	Location string

	// Title from the #EXTINF line, if any.
	Title string

	// Duration from the #EXTINF line. Zero when absent or unknown.
	Duration time.Duration
}

// ParseM3U reads a plain or extended M3U playlist. Relative locations are
// resolved against baseDir.
func ParseM3U(r io.Reader, baseDir string) ([]Entry, error) {
	var (
		entries []Entry
		pending Entry
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "\ufeff")

		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#EXTINF:"):
			pending = parseExtInf(strings.TrimPrefix(line, "#EXTINF:"))
			continue
		case strings.HasPrefix(line, "#"):
			continue
		}

		loc := line
		if !isURL(loc) && !filepath.IsAbs(loc) {
			loc = filepath.Join(baseDir, filepath.FromSlash(loc))
		}
		pending.Location = loc
		entries = append(entries, pending)
		pending = Entry{}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read m3u: %w", err)
	}
	return entries, nil
}

// parseExtInf parses "180,Artist - Title".
func parseExtInf(s string) Entry {
	var e Entry
	length, title, _ := strings.Cut(s, ",")
	// Attributes such as tvg-id may follow the length.
	length, _, _ = strings.Cut(strings.TrimSpace(length), " ")
	if n, err := strconv.Atoi(length); err == nil && n > 0 {
		e.Duration = time.Duration(n) * time.Second
	}
	e.Title = strings.TrimSpace(title)
	return e
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
