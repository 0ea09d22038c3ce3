package entrain

import (
	"errors"
	"fmt"
	"math"

	"github.com/entrainlab/entrain/internal/synth"
)

// Default session parameters.
const (
	// DefaultCarrierHz is a comfortable audible carrier.
	DefaultCarrierHz = 440.0

	// DefaultModulationHz is an alpha-band entrainment rate.
	DefaultModulationHz = 10.0

	// DefaultModulationDepth is full-depth modulation.
	DefaultModulationDepth = 1.0

	// DefaultSampleRate matches common shared-mode output streams.
	DefaultSampleRate = 48000.0

	// DefaultRefreshRate matches the most common display.
	DefaultRefreshRate = 60.0
)

// flickerExactTolerance absorbs float error when testing whether the
// refresh rate is an integer multiple of twice the modulation rate.
const flickerExactTolerance = 1e-9

// ErrInvalidConfig indicates out-of-range stimulation parameters.
var ErrInvalidConfig = errors.New("invalid stimulation configuration")

// StimulationConfig holds one session's stimulus parameters. It is
// immutable once the session starts; changing parameters means stopping
// and restarting the affected engines.
type StimulationConfig struct {
	// CarrierHz is the audio carrier frequency. Must be positive.
	CarrierHz float64

	// ModulationHz is the entrainment rate shared by the audio
	// envelope and the visual flicker. Must be positive.
	ModulationHz float64

	// ModulationDepth is the audio AM depth in [0, 1].
	ModulationDepth float64

	// SampleRate is the audio output rate in Hz. Must be positive.
	SampleRate float64

	// RefreshRate is the display refresh rate in Hz. Must be positive.
	RefreshRate float64
}

// DefaultConfig returns a valid baseline configuration.
func DefaultConfig() StimulationConfig {
	return StimulationConfig{
		CarrierHz:       DefaultCarrierHz,
		ModulationHz:    DefaultModulationHz,
		ModulationDepth: DefaultModulationDepth,
		SampleRate:      DefaultSampleRate,
		RefreshRate:     DefaultRefreshRate,
	}
}

// Validate checks all parameter ranges.
func (c *StimulationConfig) Validate() error {
	if c.CarrierHz <= 0 {
		return fmt.Errorf("%w: carrier must be positive, got %v", ErrInvalidConfig, c.CarrierHz)
	}
	if c.ModulationHz <= 0 {
		return fmt.Errorf("%w: modulation rate must be positive, got %v", ErrInvalidConfig, c.ModulationHz)
	}
	if c.ModulationDepth < 0 || c.ModulationDepth > 1 {
		return fmt.Errorf("%w: modulation depth must be in [0, 1], got %v", ErrInvalidConfig, c.ModulationDepth)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %v", ErrInvalidConfig, c.SampleRate)
	}
	if c.RefreshRate <= 0 {
		return fmt.Errorf("%w: refresh rate must be positive, got %v", ErrInvalidConfig, c.RefreshRate)
	}
	return nil
}

// FlickerExact reports whether the binary vsync-locked flicker can hit
// ModulationHz exactly: true only when RefreshRate is an integer
// multiple of 2*ModulationHz (one on-frame and one off-frame per
// cycle). When false, the achieved rate appears in telemetry as
// effective_hz rather than being forced.
func (c *StimulationConfig) FlickerExact() bool {
	if c.ModulationHz <= 0 || c.RefreshRate <= 0 {
		return false
	}
	ratio := c.RefreshRate / (2 * c.ModulationHz)
	if ratio < 1 {
		return false
	}
	return math.Abs(ratio-math.Round(ratio)) < flickerExactTolerance
}

// synthParams maps the audio-relevant fields to the synthesis engine.
func (c *StimulationConfig) synthParams() synth.Params {
	return synth.Params{
		CarrierHz:    c.CarrierHz,
		ModulationHz: c.ModulationHz,
		Depth:        c.ModulationDepth,
		SampleRate:   c.SampleRate,
	}
}
