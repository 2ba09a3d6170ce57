package main

import (
	"fmt"

	"github.com/handiism/melody/internal/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newPrefsCmd(global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show the stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(global, true)
			if err != nil {
				return err
			}
			defer a.Close()

			prefs, err := a.openStore().Load()
			if err != nil {
				a.log.Warn().Err(err).Msg("Stored preferences unreadable, showing defaults")
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Key", "Value"})
			t.AppendRows([]table.Row{
				{"volume", fmt.Sprintf("%.0f%%", prefs.Volume*100)},
				{"repeatMode", prefs.RepeatMode},
				{"isShuffled", prefs.IsShuffled},
				{"theme", prefs.Theme},
			})
			t.SetCaption("%s", a.settings.PreferencesPath)
			t.Render()
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(global, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.openStore().Save(config.DefaultPreferences()); err != nil {
				return fmt.Errorf("reset preferences: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Preferences reset")
			return nil
		},
	})

	return cmd
}
