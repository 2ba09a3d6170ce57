// Package playlist keeps the ordered track list, the current position and
// the shuffle state, and reads and writes playlist files.
//
// # Shuffle
//
// A Playlist keeps the insertion order next to the active order. Enabling
// shuffle adopts a uniformly random permutation of the insertion order;
// disabling it restores the insertion order. The current track is the same
// object before and after either toggle:
//
//	pl := playlist.New(nil)
//	pl.Add(a, b, c)
//	pl.Select(1)         // b
//	pl.SetShuffle(true)  // still b, at a new index
//	pl.SetShuffle(false) // b at index 1 again
//
// # Advancing
//
// Advance(Next) and Advance(Previous) wrap around when shuffle is off. With
// shuffle on, both pick a uniformly random index over the whole playlist,
// which can be the current one.
//
// Every operation on an empty playlist is a no-op.
//
// # Playlist Files
//
// Writer renders tracks as M3U (optionally extended) or PLS:
//
//	w := playlist.NewWriter(playlist.FormatFromPath(out), true, filepath.Dir(out))
//	err := os.WriteFile(out, []byte(w.Write(pl.Tracks())), 0644)
//
// ParseM3U reads entries back for import.
package playlist
