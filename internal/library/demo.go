package library

import "github.com/handiism/melody/internal/model"

// DemoTracks returns the synthetic tracks shown on first start. They have
// no source and play a generated tone.
func DemoTracks() []*model.Track {
	return []*model.Track{
		model.NewSyntheticTrack("Morning Drift", "Demo Ensemble", "0:04"),
		model.NewSyntheticTrack("Neon Avenue", "Demo Ensemble", "0:04"),
		model.NewSyntheticTrack("Slow Orbit", "The Placeholders", "0:05"),
		model.NewSyntheticTrack("Paper Lanterns", "The Placeholders", "0:03"),
		model.NewSyntheticTrack("Low Tide", "Sine Wave Club", "0:05"),
	}
}
