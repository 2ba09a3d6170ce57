// Package audio provides the playback engine, the graphic equalizer, the
// analysis tap and tag reading.
//
// # Playback Engine
//
// The Engine builds one pipeline and keeps it for its lifetime:
//
//	source slot -> volume -> equalizer -> tap -> output
//
// Loading a track swaps the source in the slot:
//
//	engine := audio.NewEngine(audio.OptionsFromSettings(settings, logger))
//	engine.Subscribe(func(ev audio.Event) {
//	    switch ev := ev.(type) {
//	    case audio.MetadataReady:
//	        fmt.Println("duration", ev.Duration)
//	    case audio.Ended:
//	        fmt.Println("track finished")
//	    }
//	})
//	err := engine.Load(ctx, track, 0)
//	err = engine.Play()
//
// Local files and http(s) URLs are decoded by extension (MP3, WAV, FLAC,
// Ogg Vorbis). URLs are downloaded in the background, so Load never waits
// on the network; a failed download arrives as LoadFailed. Tracks without a source play a short generated tone instead;
// its end is a timer bound to the load, so a tone from a replaced track can
// never end the new one.
//
// When no audio device is available the engine plays into a DiscardOutput:
// silent, but positions, events and analysis keep working.
//
// # Equalizer
//
// Eight peaking filters at 60, 170, 310, 600, 1k, 3k, 6k and 12k Hz (Q = 1)
// run in series. Gains are clamped to ±12 dB:
//
//	eq := engine.Equalizer()
//	eq.SetBandGain(0, 6)        // +6 dB at 60 Hz
//	eq.ApplyPreset("rock")      // all eight gains at once
//	fmt.Println(audio.Presets()) // [flat rock pop jazz classical bass vocal]
//
// # Analysis
//
// The Tap keeps the latest output samples; the Analyser turns them into
// 0..255 frequency bins for the visualizer:
//
//	bins := engine.Analyser().ByteFrequencyData(nil) // 128 bins for FFT size 256
//
// # Tags
//
// ReadTags reads artist, title and embedded artwork (id3v2 for MP3,
// dhowden/tag for other formats). ProbeDuration decodes a file header to
// find its length.
package audio
