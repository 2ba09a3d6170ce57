package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/handiism/melody/internal/audio"
	"github.com/handiism/melody/internal/config"
	"github.com/handiism/melody/internal/logging"
	"github.com/handiism/melody/internal/player"
	"github.com/handiism/melody/internal/playlist"
	"github.com/rs/zerolog"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
}

// app holds what a command needs: settings, a logger and the resources to
// release on exit.
type app struct {
	settings *config.Settings
	log      zerolog.Logger
	closers  []io.Closer
}

// newApp loads settings and builds the logger. console selects a stderr
// logger for headless commands; the TUI logs to a file.
func newApp(flags *globalFlags, console bool) (*app, error) {
	path := flags.configPath
	if path == "" {
		path = defaultConfigPath()
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if flags.logLevel != "" {
		settings.LogLevel = flags.logLevel
	}

	a := &app{settings: settings}
	if console {
		a.log = logging.NewConsole(os.Stderr, settings.LogLevel)
		return a, nil
	}

	log, closer, err := logging.NewFile(settings.LogPath, settings.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", settings.LogPath, err)
	}
	a.log = log
	a.closers = append(a.closers, closer)
	return a, nil
}

// openStore opens the preference file. When it cannot be opened, for
// example because another instance holds its lock, preferences are kept in
// memory for this run.
func (a *app) openStore() config.PreferenceStore {
	store, err := config.OpenBoltStore(a.settings.PreferencesPath)
	if err != nil {
		a.log.Warn().Err(err).Str("path", a.settings.PreferencesPath).Msg("Preferences unavailable, keeping them in memory")
		return config.NewMemoryStore()
	}
	a.closers = append(a.closers, store)
	return store
}

// newPlayer builds the engine and the controller. ctx bounds remote track
// downloads.
func (a *app) newPlayer(ctx context.Context) (*player.Controller, *audio.Engine) {
	engine := audio.NewEngine(audio.OptionsFromSettings(a.settings, a.log))
	ctrl := player.New(ctx, engine, engine.Equalizer(), playlist.New(nil), a.openStore(), a.log)
	return ctrl, engine
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for _, c := range slices.Backward(a.closers) {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "melody", "config.toml")
}
