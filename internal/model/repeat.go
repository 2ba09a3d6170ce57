package model

import "strings"

// RepeatMode controls what happens when a track ends.
type RepeatMode int

const (
	// RepeatNone advances to the next track and stops after the last one.
	RepeatNone RepeatMode = iota

	// RepeatOne replays the current track.
	RepeatOne

	// RepeatAll advances and wraps around at the end of the playlist.
	RepeatAll
)

// String returns the persisted name of the mode: "none", "one" or "all".
func (r RepeatMode) String() string {
	switch r {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "none"
	}
}

// Next cycles none -> one -> all -> none.
func (r RepeatMode) Next() RepeatMode {
	switch r {
	case RepeatNone:
		return RepeatOne
	case RepeatOne:
		return RepeatAll
	default:
		return RepeatNone
	}
}

// ParseRepeatMode parses a persisted mode name. Unknown names map to
// RepeatNone and ok is false.
func ParseRepeatMode(s string) (mode RepeatMode, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return RepeatNone, true
	case "one":
		return RepeatOne, true
	case "all":
		return RepeatAll, true
	default:
		return RepeatNone, false
	}
}
