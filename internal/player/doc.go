// Package player holds the application state object that sits between the
// terminal UI and the playback engine.
//
// A Controller is created once at startup and passed to whatever drives it
// (the TUI or the headless play command). It serialises every mutation,
// applies stored preferences at start and saves them on change:
//
//	ctrl := player.New(ctx, engine, engine.Equalizer(), playlist.New(nil), store, logger)
//	ctrl.Subscribe(func(s player.State) {
//	    fmt.Println(s.Current, s.IsPlaying)
//	})
//	ctrl.AddTracks(tracks...)
//	ctrl.TogglePlay()
//	defer ctrl.Close()
//
// # Song End
//
// When a track ends the repeat mode decides what follows:
//
//	RepeatOne   replay the current track
//	RepeatAll   advance to the next track, wrapping at the end
//	RepeatNone  advance, or stop when the current track is the last one
package player
