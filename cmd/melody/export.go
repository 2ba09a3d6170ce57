package main

import (
	"errors"
	"fmt"
	"path/filepath"

	ioutils "github.com/handiism/melody/internal/io"
	"github.com/handiism/melody/internal/library"
	"github.com/handiism/melody/internal/playlist"
	"github.com/spf13/cobra"
)

type exportFlags struct {
	output   string
	name     string
	extended bool
	absolute bool
	shuffle  bool
}

func newExportCmd(global *globalFlags) *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export [paths...]",
		Short: "Write the imported tracks as an M3U or PLS playlist",
		Long: "export imports paths the same way the player does and writes a playlist.\n" +
			"The format follows the output extension (.m3u or .pls).",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(global, true)
			if err != nil {
				return err
			}
			defer a.Close()

			tracks, err := library.NewImporter(a.settings, a.log, printProgress(false)).Import(cmd.Context(), args)
			if err != nil {
				return err
			}
			if len(tracks) == 0 {
				return errors.New("no playable tracks")
			}

			pl := playlist.New(nil)
			pl.Add(tracks...)
			pl.SetShuffle(flags.shuffle)

			out := flags.output
			if out == "" {
				out = ioutils.SanitizeFileName(flags.name) + ".m3u"
			}
			out, err = filepath.Abs(out)
			if err != nil {
				return err
			}

			baseDir := filepath.Dir(out)
			if flags.absolute {
				baseDir = ""
			}
			content := playlist.NewWriter(playlist.FormatFromPath(out), flags.extended, baseDir).Write(pl.Tracks())

			if err := ioutils.WriteFile(out, []byte(content)); err != nil {
				return fmt.Errorf("write playlist: %w", err)
			}
			fmt.Printf("✓ Wrote %d track(s) to %s\n", len(tracks), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (.m3u or .pls)")
	cmd.Flags().StringVar(&flags.name, "name", "playlist", "playlist name used when --output is not set")
	cmd.Flags().BoolVar(&flags.extended, "extended", true, "write #EXTINF lines")
	cmd.Flags().BoolVar(&flags.absolute, "absolute", false, "write absolute paths")
	cmd.Flags().BoolVar(&flags.shuffle, "shuffle", false, "shuffle before writing")
	return cmd
}
