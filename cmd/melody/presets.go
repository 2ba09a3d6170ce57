package main

import (
	"fmt"

	"github.com/handiism/melody/internal/audio"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the equalizer presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(presetHeader())

			for _, name := range audio.Presets() {
				gains, _ := audio.Preset(name)
				row := table.Row{text.FgCyan.Sprint(name)}
				for _, g := range gains {
					row = append(row, formatGain(g))
				}
				t.AppendRow(row)
			}
			t.Render()
		},
	}
}

func presetHeader() table.Row {
	row := table.Row{"Preset"}
	for _, hz := range audio.Frequencies {
		if hz >= 1000 {
			row = append(row, fmt.Sprintf("%gk", hz/1000))
		} else {
			row = append(row, fmt.Sprintf("%g", hz))
		}
	}
	return row
}

func formatGain(g float64) string {
	s := fmt.Sprintf("%+.0f", g)
	switch {
	case g > 0:
		return text.FgGreen.Sprint(s)
	case g < 0:
		return text.FgYellow.Sprint(s)
	}
	return text.FgHiBlack.Sprint(s)
}
