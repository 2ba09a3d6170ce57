// Package library imports tracks from the file system.
//
// The Importer accepts what a user selects: audio files, directories and
// M3U playlists. It reads tags and probes durations concurrently while
// keeping the selection order:
//
//	importer := library.NewImporter(settings, logger, func(ev library.ProgressEvent) {
//	    fmt.Println(ev.Message)
//	})
//	tracks, err := importer.Import(ctx, []string{"/music/album", "/music/single.mp3"})
//
// Imported tracks are titled after their file name, with the artist taken
// from tags when present and "Unknown Artist" otherwise.
package library
