package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/handiism/melody/internal/audio"
	"github.com/handiism/melody/internal/library"
	"github.com/handiism/melody/internal/model"
	"github.com/handiism/melody/internal/player"
	"github.com/spf13/cobra"
)

type playFlags struct {
	repeat  string
	shuffle bool
	preset  string
	volume  float64
	demo    bool
	verbose bool
}

func newPlayCmd(global *globalFlags) *cobra.Command {
	flags := &playFlags{}

	cmd := &cobra.Command{
		Use:   "play [paths...]",
		Short: "Play without the interface, printing events",
		Long: "play runs the player headless. It exits when playback stops at the end of\n" +
			"the playlist, or on interrupt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, global, flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.repeat, "repeat", "", "repeat mode: none, one or all")
	cmd.Flags().BoolVar(&flags.shuffle, "shuffle", false, "shuffle the playlist")
	cmd.Flags().StringVar(&flags.preset, "preset", "", "equalizer preset")
	cmd.Flags().Float64Var(&flags.volume, "volume", 0, "volume from 0 to 1")
	cmd.Flags().BoolVar(&flags.demo, "demo", false, "add the demo tracks")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "print progress events")
	return cmd
}

func runPlay(cmd *cobra.Command, global *globalFlags, flags *playFlags, args []string) error {
	repeat, ok := model.ParseRepeatMode(flags.repeat)
	if cmd.Flags().Changed("repeat") && !ok {
		return fmt.Errorf("invalid repeat mode %q", flags.repeat)
	}

	a, err := newApp(global, true)
	if err != nil {
		return err
	}
	defer a.Close()

	importer := library.NewImporter(a.settings, a.log, printProgress(flags.verbose))
	tracks, err := importer.Import(cmd.Context(), args)
	if err != nil {
		return err
	}
	if flags.demo || (len(args) == 0 && a.settings.DemoTracks) {
		tracks = append(tracks, library.DemoTracks()...)
	}
	if len(tracks) == 0 {
		return errors.New("no playable tracks")
	}

	ctrl, engine := a.newPlayer(cmd.Context())
	defer ctrl.Close()

	if cmd.Flags().Changed("repeat") {
		ctrl.SetRepeat(repeat)
	}
	if cmd.Flags().Changed("shuffle") {
		ctrl.SetShuffle(flags.shuffle)
	}
	if cmd.Flags().Changed("volume") {
		ctrl.SetVolume(flags.volume)
	}
	if flags.preset != "" {
		ctrl.ApplyPreset(flags.preset)
	}
	ctrl.AddTracks(tracks...)

	if flags.verbose {
		engine.Subscribe(func(ev audio.Event) {
			switch ev := ev.(type) {
			case audio.MetadataReady:
				fmt.Printf("   duration %s\n", model.FormatTime(ev.Duration))
			case audio.Progress:
				fmt.Printf("   at %s\n", model.FormatTime(ev.Position))
			case audio.Ended:
				fmt.Println("   ended")
			case audio.LoadFailed:
				fmt.Printf("   load failed: %v\n", ev.Err)
			}
		})
	}

	var (
		done    = make(chan struct{})
		once    sync.Once
		current *model.Track
		playing bool
	)
	ctrl.Subscribe(func(s player.State) {
		if s.Current != current && s.Current != nil {
			current = s.Current
			fmt.Printf("▶ %s [%d/%d]\n", s.Current, s.Index+1, len(s.Tracks))
		}
		if playing && !s.IsPlaying {
			once.Do(func() { close(done) })
		}
		playing = s.IsPlaying
	})

	s := ctrl.Snapshot()
	fmt.Printf("Repeat %s • Shuffle %v • Volume %.0f%% • Preset %s\n", s.Repeat, s.Shuffled, s.Volume*100, s.Preset)

	ctrl.Play()
	if s := ctrl.Snapshot(); !s.IsPlaying {
		return fmt.Errorf("playback failed: %s", s.LastError)
	}

	select {
	case <-done:
		if s := ctrl.Snapshot(); s.LastError != "" {
			return fmt.Errorf("playback failed: %s", s.LastError)
		}
		fmt.Println("✓ Playback finished")
	case <-cmd.Context().Done():
		fmt.Println("\nInterrupted, stopping...")
	}
	return nil
}

// printProgress returns an import progress printer.
func printProgress(verbose bool) func(library.ProgressEvent) {
	var mu sync.Mutex
	return func(event library.ProgressEvent) {
		if event.Level == library.LevelVerbose && !verbose {
			return
		}

		prefix := ""
		switch event.Level {
		case library.LevelError:
			prefix = "✗ "
		case library.LevelWarning:
			prefix = "! "
		case library.LevelSuccess:
			prefix = "✓ "
		case library.LevelInfo:
			prefix = "› "
		default:
			prefix = "  "
		}

		mu.Lock()
		fmt.Println(prefix + event.Message)
		mu.Unlock()
	}
}
