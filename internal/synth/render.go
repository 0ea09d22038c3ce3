package synth

import "github.com/tphakala/simd/f32"

// RenderTrack synthesizes the modulated stimulus offline and returns
// interleaved stereo samples, one mono waveform written to both
// channels. It produces bit-identical audio to the live engine for the
// same parameters and frame count.
func RenderTrack(p Params, frames int) ([]float32, error) {
	m, err := NewModulator(p)
	if err != nil {
		return nil, err
	}
	mono := make([]float32, frames)
	m.Render(mono)

	out := make([]float32, frames*channelCount)
	f32.Interleave2(out, mono, mono)
	return out, nil
}
