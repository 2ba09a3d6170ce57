package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.FFTSize != 256 {
		t.Errorf("FFTSize = %d, want 256", settings.FFTSize)
	}
}

func TestSettings_RoundTrip(t *testing.T) {
	for _, name := range []string{"settings.json", "settings.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			settings := DefaultSettings()
			settings.FrameRate = 60
			settings.LogLevel = "debug"
			if err := settings.Save(path); err != nil {
				t.Fatalf("Save: %v", err)
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if loaded.FrameRate != 60 || loaded.LogLevel != "debug" {
				t.Errorf("got FrameRate=%d LogLevel=%q", loaded.FrameRate, loaded.LogLevel)
			}
		})
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("frame_rate = 12\n"), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.FrameRate != 12 {
		t.Errorf("FrameRate = %d, want 12", settings.FrameRate)
	}
	if settings.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want default 44100", settings.SampleRate)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSettings_Durations(t *testing.T) {
	s := &Settings{}
	if got := s.FrameInterval(); got != time.Second/30 {
		t.Errorf("FrameInterval() = %v, want %v", got, time.Second/30)
	}
	if got := s.BufferDuration(); got != 100*time.Millisecond {
		t.Errorf("BufferDuration() = %v", got)
	}

	s.FrameRate = 60
	if got := s.FrameInterval(); got != time.Second/60 {
		t.Errorf("FrameInterval() = %v, want %v", got, time.Second/60)
	}
}

func TestPreferences_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Preferences
		want Preferences
	}{
		{
			name: "volume above range",
			in:   Preferences{Volume: 150, RepeatMode: "one", Theme: "light"},
			want: Preferences{Volume: 1, RepeatMode: "one", Theme: "light"},
		},
		{
			name: "volume below range",
			in:   Preferences{Volume: -10, RepeatMode: "all", Theme: "dark"},
			want: Preferences{Volume: 0, RepeatMode: "all", Theme: "dark"},
		},
		{
			name: "unknown repeat and empty theme",
			in:   Preferences{Volume: 0.3, RepeatMode: "forever", IsShuffled: true},
			want: Preferences{Volume: 0.3, RepeatMode: "none", IsShuffled: true, Theme: ThemeDark},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs", "preferences.db")

	store, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("OpenBoltStore: %v", err)
	}

	prefs, err := store.Load()
	if err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}
	if prefs != DefaultPreferences() {
		t.Errorf("empty store should yield defaults, got %+v", prefs)
	}

	want := Preferences{Volume: 0.25, RepeatMode: "all", IsShuffled: true, Theme: ThemeLight}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestMemoryStore_MalformedRecord(t *testing.T) {
	store := NewMemoryStore()
	store.SetRaw([]byte(`{"volume": "loud"`))

	prefs, err := store.Load()
	if err == nil {
		t.Error("expected decode error for malformed record")
	}
	if prefs != DefaultPreferences() {
		t.Errorf("malformed record should yield defaults, got %+v", prefs)
	}
}

func TestMemoryStore_MissingFieldsKeepDefaults(t *testing.T) {
	store := NewMemoryStore()
	store.SetRaw([]byte(`{"repeatMode":"one"}`))

	prefs, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if prefs.Volume != DefaultVolume {
		t.Errorf("Volume = %v, want default %v", prefs.Volume, DefaultVolume)
	}
	if prefs.Repeat().String() != "one" {
		t.Errorf("RepeatMode = %q, want one", prefs.RepeatMode)
	}
}
