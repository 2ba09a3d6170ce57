package audio

import (
	"slices"
	"strings"
)

// Preset names.
const (
	PresetFlat      = "flat"
	PresetRock      = "rock"
	PresetPop       = "pop"
	PresetJazz      = "jazz"
	PresetClassical = "classical"
	PresetBass      = "bass"
	PresetVocal     = "vocal"
)

// presetOrder is the display and cycling order.
var presetOrder = []string{
	PresetFlat, PresetRock, PresetPop, PresetJazz, PresetClassical, PresetBass, PresetVocal,
}

var presets = map[string][]float64{
	PresetFlat:      {0, 0, 0, 0, 0, 0, 0, 0},
	PresetRock:      {5, 3, -1, -2, 1, 3, 4, 5},
	PresetPop:       {2, 1, 0, -1, -2, -1, 1, 2},
	PresetJazz:      {4, 2, 0, 1, 2, 2, 1, 3},
	PresetClassical: {0, 0, 0, 0, 0, 0, -2, -2},
	PresetBass:      {6, 4, 2, 0, 0, 0, 0, 0},
	PresetVocal:     {0, 0, 2, 4, 4, 2, 0, 0},
}

// Presets returns the preset names in display order.
func Presets() []string {
	return slices.Clone(presetOrder)
}

// Preset returns a copy of the gains for name. Lookup is case-insensitive.
func Preset(name string) ([]float64, bool) {
	gains, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return slices.Clone(presets[PresetFlat]), false
	}
	return slices.Clone(gains), true
}

// NextPreset returns the preset after name in display order, wrapping.
// Unknown names return the first preset.
func NextPreset(name string) string {
	i := slices.Index(presetOrder, strings.ToLower(name))
	return presetOrder[(i+1)%len(presetOrder)]
}
