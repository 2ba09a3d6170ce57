// Package http fetches remote tracks for the playback engine.
//
// Remote sources are downloaded whole and decoded from memory, so a
// response larger than MaxTrackSize is rejected with ErrTooLarge:
//
//	client := http.NewClient(settings.HTTPTimeoutDuration())
//	data, err := client.Fetch(ctx, "https://example.com/song.ogg", func(read, total int64) {
//	    fmt.Printf("%d / %d bytes\n", read, total)
//	})
//
// The Client satisfies audio.Fetcher.
package http
