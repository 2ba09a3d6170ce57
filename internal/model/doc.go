// Package model defines the core data structures used throughout melody.
//
// # Track
//
// Track is a single playlist entry. Tracks with a SourceURL are decoded and
// played; tracks without one are synthetic demo entries:
//
//	real := model.NewTrack("Song", "Artist", "/music/song.mp3", 3*time.Minute)
//	demo := model.NewSyntheticTrack("Aurora", "Demo Band", "3:30")
//	fmt.Println(demo.IsSynthetic()) // true
//
// # Repeat Mode
//
// RepeatMode is persisted as "none", "one" or "all":
//
//	mode, ok := model.ParseRepeatMode("all")
//	mode = mode.Next() // RepeatNone
//
// # Time Labels
//
// FormatTime renders durations the way the player shows them:
//
//	model.FormatTime(65 * time.Second) // "1:05"
package model
