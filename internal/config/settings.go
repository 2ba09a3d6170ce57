package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Settings holds all configuration options.
type Settings struct {
	// Audio output
	SampleRate   int `json:"sample_rate" toml:"sample_rate"`
	BufferMillis int `json:"buffer_millis" toml:"buffer_millis"`

	// Analyser settings
	FFTSize     int     `json:"fft_size" toml:"fft_size"`
	Smoothing   float64 `json:"smoothing" toml:"smoothing"`
	MinDecibels float64 `json:"min_decibels" toml:"min_decibels"`
	MaxDecibels float64 `json:"max_decibels" toml:"max_decibels"`

	// Visualizer settings
	FrameRate        int  `json:"frame_rate" toml:"frame_rate"`
	VisualizerWidth  int  `json:"visualizer_width" toml:"visualizer_width"`
	VisualizerHeight int  `json:"visualizer_height" toml:"visualizer_height"`
	ShowVisualizer   bool `json:"show_visualizer" toml:"show_visualizer"`

	// Storage
	PreferencesPath string `json:"preferences_path" toml:"preferences_path"`

	// Logging
	LogPath  string `json:"log_path" toml:"log_path"`
	LogLevel string `json:"log_level" toml:"log_level"`

	// Import settings
	ImportConcurrency int     `json:"import_concurrency" toml:"import_concurrency"`
	HTTPTimeout       float64 `json:"http_timeout" toml:"http_timeout"` // seconds
	DemoTracks        bool    `json:"demo_tracks" toml:"demo_tracks"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}

	return &Settings{
		SampleRate:   44100,
		BufferMillis: 100,

		FFTSize:     256,
		Smoothing:   0.8,
		MinDecibels: -100,
		MaxDecibels: -30,

		FrameRate:        30,
		VisualizerWidth:  40,
		VisualizerHeight: 20,
		ShowVisualizer:   true,

		PreferencesPath: filepath.Join(configDir, "melody", "preferences.db"),

		LogPath:  filepath.Join(cacheDir, "melody", "melody.log"),
		LogLevel: "info",

		ImportConcurrency: 4,
		HTTPTimeout:       60,
		DemoTracks:        true,
	}
}

// Load reads settings from a JSON or TOML file. The format is picked by
// extension; anything other than ".toml" is parsed as JSON.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, settings); err != nil {
			return nil, err
		}
	} else if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON or TOML file, by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return toml.NewEncoder(f).Encode(s)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// BufferDuration returns the audio output buffer length.
func (s *Settings) BufferDuration() time.Duration {
	if s.BufferMillis <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(s.BufferMillis) * time.Millisecond
}

// FrameInterval returns the visualizer frame period.
func (s *Settings) FrameInterval() time.Duration {
	if s.FrameRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(s.FrameRate)
}

// HTTPTimeoutDuration returns the timeout for fetching remote sources.
func (s *Settings) HTTPTimeoutDuration() time.Duration {
	if s.HTTPTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.HTTPTimeout * float64(time.Second))
}
