//go:build !((linux && cgo) || windows || darwin)

package audio

import (
	"time"

	"github.com/gopxl/beep/v2"
)

// SpeakerAvailable indicates whether this build can open an audio device.
// Speaker output needs cgo on Linux.
const SpeakerAvailable = false

func newSpeakerOutput(beep.SampleRate, time.Duration) (Output, error) {
	return nil, ErrNoAudioDevice
}
