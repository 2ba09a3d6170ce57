package main

import (
	"github.com/handiism/melody/internal/library"
	"github.com/handiism/melody/internal/tui"
	"github.com/handiism/melody/internal/visualizer"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "melody [paths...]",
		Short: "Terminal audio player with equalizer and visualizer",
		Long: "melody plays local files, directories, M3U playlists and http(s) audio URLs.\n" +
			"Without paths it starts with a demo playlist of generated tones.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags, args)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a JSON or TOML settings file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newPlayCmd(flags),
		newPresetsCmd(),
		newPrefsCmd(flags),
		newExportCmd(flags),
	)
	return cmd
}

func runTUI(cmd *cobra.Command, flags *globalFlags, args []string) error {
	a, err := newApp(flags, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl, engine := a.newPlayer(cmd.Context())
	defer ctrl.Close()

	tracks, err := library.NewImporter(a.settings, a.log, nil).Import(cmd.Context(), args)
	if err != nil {
		return err
	}
	if len(args) == 0 && a.settings.DemoTracks {
		tracks = library.DemoTracks()
	}
	ctrl.AddTracks(tracks...)

	var analyser visualizer.Source
	if an := engine.Analyser(); an != nil {
		analyser = an
	}

	a.log.Info().Int("tracks", len(tracks)).Msg("Starting")
	return tui.Run(tui.Options{
		Controller: ctrl,
		Analyser:   analyser,
		Settings:   a.settings,
		Logger:     a.log,
	})
}
