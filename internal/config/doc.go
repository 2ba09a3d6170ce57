// Package config provides configuration and preference storage for melody.
//
// This package handles:
//   - Loading and saving settings from JSON or TOML files
//   - Default configuration values
//   - The persisted user preference record (volume, repeat, shuffle, theme)
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// 44.1 kHz output, 256-point analyser, 30 fps visualizer
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.toml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Preferences
//
// Preferences live in a bolt file under a single key:
//
//	store, err := config.OpenBoltStore(settings.PreferencesPath)
//	prefs, err := store.Load() // defaults when missing or unreadable
//	prefs.Volume = 0.5
//	err = store.Save(prefs)
package config
