// Package synth implements the real-time audio synthesis engine: a pair
// of phase accumulators producing an amplitude-modulated carrier, and a
// render loop that feeds an output sink just-in-time under backpressure.
//
// The envelope is the open-loop sinusoidal form
// 0.5 + 0.5*depth*sin(phase). A raised-cosine pulse envelope is a
// planned extension; the sinusoidal form is the contract reproduced by
// the tests.
package synth

import (
	"errors"
	"fmt"
	"math"
)

const twoPi = 2 * math.Pi

// Sentinel errors for engine construction and startup.
var (
	// ErrInvalidParams indicates out-of-range synthesis parameters.
	ErrInvalidParams = errors.New("invalid synthesis parameters")

	// ErrNilSink indicates the engine was constructed without a sink.
	ErrNilSink = errors.New("nil output sink")
)

// Params configures the synthesized waveform.
type Params struct {
	// CarrierHz is the audible carrier frequency. Must be positive.
	CarrierHz float64

	// ModulationHz is the amplitude-modulation (entrainment) rate.
	// Must be positive.
	ModulationHz float64

	// Depth is the modulation depth in [0, 1].
	Depth float64

	// SampleRate is the output sample rate in Hz. Must be positive.
	SampleRate float64
}

// Validate checks the waveform parameters.
func (p *Params) Validate() error {
	if p.CarrierHz <= 0 {
		return fmt.Errorf("%w: carrier must be positive, got %v", ErrInvalidParams, p.CarrierHz)
	}
	if p.ModulationHz <= 0 {
		return fmt.Errorf("%w: modulation rate must be positive, got %v", ErrInvalidParams, p.ModulationHz)
	}
	if p.Depth < 0 || p.Depth > 1 {
		return fmt.Errorf("%w: depth must be in [0, 1], got %v", ErrInvalidParams, p.Depth)
	}
	if p.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %v", ErrInvalidParams, p.SampleRate)
	}
	return nil
}

// Modulator is the carrier/modulator phase-accumulator pair. Computing
// from accumulated phase rather than sample-index*frequency keeps the
// waveform drift-free over arbitrarily long sessions and makes
// parameter changes glitch-free at a buffer boundary.
//
// Not safe for concurrent use; the render goroutine owns it exclusively.
type Modulator struct {
	carrierStep float64
	modStep     float64

	carrierPhase float64
	modPhase     float64

	depth float64
}

// NewModulator creates a modulator with both phases at zero.
func NewModulator(p Params) (*Modulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Modulator{
		carrierStep: twoPi * p.CarrierHz / p.SampleRate,
		modStep:     twoPi * p.ModulationHz / p.SampleRate,
		depth:       p.Depth,
	}, nil
}

// Render fills dst with mono samples, advancing both phases.
// Each sample is sin(carrier) * (0.5 + 0.5*depth*sin(mod)).
func (m *Modulator) Render(dst []float32) {
	for i := range dst {
		carrier := math.Sin(m.carrierPhase)
		envelope := 0.5 + 0.5*m.depth*math.Sin(m.modPhase)
		dst[i] = float32(carrier * envelope)

		m.carrierPhase += m.carrierStep
		m.modPhase += m.modStep
		// Wrap by subtracting exactly one period. Resetting to zero
		// instead would break phase continuity and click audibly.
		if m.carrierPhase >= twoPi {
			m.carrierPhase -= twoPi
		}
		if m.modPhase >= twoPi {
			m.modPhase -= twoPi
		}
	}
}

// Phases returns the current carrier and modulator phase in radians.
func (m *Modulator) Phases() (carrier, mod float64) {
	return m.carrierPhase, m.modPhase
}
