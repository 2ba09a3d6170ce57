//go:build (linux && cgo) || windows || darwin

package audio

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// SpeakerAvailable indicates whether this build can open an audio device.
const SpeakerAvailable = true

// speakerOutput plays through the system audio device.
type speakerOutput struct {
	sr beep.SampleRate
}

func newSpeakerOutput(sr beep.SampleRate, buffer time.Duration) (Output, error) {
	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		return nil, err
	}
	return &speakerOutput{sr: sr}, nil
}

func (o *speakerOutput) SampleRate() beep.SampleRate { return o.sr }
func (o *speakerOutput) Play(s beep.Streamer)        { speaker.Play(s) }
func (o *speakerOutput) Lock()                       { speaker.Lock() }
func (o *speakerOutput) Unlock()                     { speaker.Unlock() }

func (o *speakerOutput) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}
