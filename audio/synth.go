package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// SampleRate is the rate every clip is synthesized at.
const SampleRate = 44100

// envelope is the attack and release ramp applied to every tone, in seconds.
const envelope = 0.005

var ErrBadTone = errors.New("audio: invalid tone")

// Wave is the oscillator shape of a tone.
type Wave string

const (
	WaveSine     Wave = "sine"
	WaveSquare   Wave = "square"
	WaveTriangle Wave = "triangle"
)

// Tone is a short synthesized sound. Slide bends the pitch linearly in Hz
// per second.
type Tone struct {
	Frequency float64 `yaml:"frequency"`
	Slide     float64 `yaml:"slide"`
	Duration  float64 `yaml:"duration"`
	Volume    float64 `yaml:"volume"`
	Wave      Wave    `yaml:"wave"`
}

// Validate rejects tones that cannot be rendered.
func (t Tone) Validate() error {
	if t.Frequency <= 0 {
		return fmt.Errorf("%w: frequency %.2f", ErrBadTone, t.Frequency)
	}
	if t.Duration <= 0 {
		return fmt.Errorf("%w: duration %.2f", ErrBadTone, t.Duration)
	}
	if t.Volume < 0 || t.Volume > 1 {
		return fmt.Errorf("%w: volume %.2f", ErrBadTone, t.Volume)
	}
	switch t.Wave {
	case "", WaveSine, WaveSquare, WaveTriangle:
		return nil
	default:
		return fmt.Errorf("%w: wave %q", ErrBadTone, t.Wave)
	}
}

// Synthesize renders t as 16-bit little-endian stereo PCM.
func Synthesize(t Tone, sampleRate int) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}
	n := int(math.Round(t.Duration * float64(sampleRate)))
	out := make([]byte, n*4)
	ramp := envelope * float64(sampleRate)

	phase := 0.0
	for i := range n {
		sec := float64(i) / float64(sampleRate)
		freq := math.Max(t.Frequency+t.Slide*sec, 1)
		phase += freq / float64(sampleRate)
		phase -= math.Floor(phase)

		gain := t.Volume
		if fi := float64(i); fi < ramp {
			gain *= fi / ramp
		}
		if rest := float64(n - 1 - i); rest < ramp {
			gain *= rest / ramp
		}

		v := int16(math.Round(oscillate(t.Wave, phase) * gain * math.MaxInt16))
		binary.LittleEndian.PutUint16(out[i*4:], uint16(v))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(v))
	}
	return out, nil
}

// oscillate returns the wave value in [-1,1] at phase in [0,1).
func oscillate(w Wave, phase float64) float64 {
	switch w {
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case WaveTriangle:
		return 1 - 4*math.Abs(phase-0.5)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// DefaultTones returns the sound table the game ships with.
func DefaultTones() map[string]Tone {
	return map[string]Tone{
		"land":         {Frequency: 180, Slide: -200, Duration: 0.08, Volume: 0.5, Wave: WaveTriangle},
		"trap":         {Frequency: 440, Slide: -900, Duration: 0.25, Volume: 0.4, Wave: WaveSquare},
		"level_up":     {Frequency: 520, Slide: 800, Duration: 0.3, Volume: 0.4, Wave: WaveSine},
		"item_collect": {Frequency: 880, Slide: 400, Duration: 0.15, Volume: 0.4, Wave: WaveSine},
		"game_over":    {Frequency: 300, Slide: -250, Duration: 0.6, Volume: 0.5, Wave: WaveTriangle},
	}
}
