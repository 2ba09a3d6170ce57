package model

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// UnknownArtist is used when a track carries no artist information.
	UnknownArtist = "Unknown Artist"

	// LocalAlbum is the album assigned to tracks imported from disk.
	LocalAlbum = "Local Files"

	// PlaceholderCover is the cover used when a track has no artwork of its own.
	PlaceholderCover = "placeholder:note"
)

// Track represents a single playlist entry.
//
// A Track is immutable once it has been added to a playlist. Identity is the
// pointer: two tracks with equal fields are still different entries.
//
// SourceURL is either a local file path, an http(s) URL, or empty. An empty
// SourceURL marks a synthetic track that is played back as a generated tone.
//
// Example:
//
//	track := NewTrack("Intro", "Unknown Artist", "/music/intro.mp3", 95*time.Second)
//	fmt.Println(track.DurationLabel) // "1:35"
type Track struct {
	// ID uniquely identifies the track for logging and persistence.
	ID string

	// Title is the display title.
	Title string

	// Artist is the display artist.
	Artist string

	// Album is the display album.
	Album string

	// DurationLabel is the human readable duration, e.g. "3:05".
	DurationLabel string

	// Duration is the probed duration. Zero when unknown.
	Duration time.Duration

	// CoverURL points at the cover image, or PlaceholderCover.
	CoverURL string

	// Artwork holds embedded cover art bytes, if the source file has any.
	Artwork []byte

	// SourceURL is the playable source. Empty for synthetic tracks.
	SourceURL string
}

// NewTrack creates a track backed by a real media source.
func NewTrack(title, artist, sourceURL string, duration time.Duration) *Track {
	if artist == "" {
		artist = UnknownArtist
	}
	return &Track{
		ID:            uuid.NewString(),
		Title:         title,
		Artist:        artist,
		Album:         LocalAlbum,
		DurationLabel: FormatTime(duration),
		Duration:      duration,
		CoverURL:      PlaceholderCover,
		SourceURL:     sourceURL,
	}
}

// NewSyntheticTrack creates a demo track without a media source.
// The label is only for display, since synthetic playback length is random.
func NewSyntheticTrack(title, artist, durationLabel string) *Track {
	return &Track{
		ID:            uuid.NewString(),
		Title:         title,
		Artist:        artist,
		Album:         "Demo",
		DurationLabel: durationLabel,
		CoverURL:      PlaceholderCover,
	}
}

// IsSynthetic reports whether the track has no real media source.
func (t *Track) IsSynthetic() bool {
	return t.SourceURL == ""
}

// IsRemote reports whether the source is fetched over HTTP.
func (t *Track) IsRemote() bool {
	return strings.HasPrefix(t.SourceURL, "http://") || strings.HasPrefix(t.SourceURL, "https://")
}

// HasArtwork reports whether embedded cover art is available.
func (t *Track) HasArtwork() bool {
	return len(t.Artwork) > 0
}

// String returns "Artist - Title".
func (t *Track) String() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// TitleFromFileName derives a display title from a file name by stripping
// the directory and the last extension.
//
//	TitleFromFileName("/music/01 Song.remix.mp3") // "01 Song.remix"
func TitleFromFileName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FormatTime renders a duration as m:ss. Negative durations render as 0:00.
func FormatTime(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	seconds := int(math.Floor(d.Seconds()))
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
