// Package testutil provides reusable test helpers: assertions shared by
// the subsystem tests and deterministic signal generators for the
// calibration and synthesis tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	PhaseTolerance   = 1e-6
	ScoreTolerance   = 0.05
)

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	if value < minVal || value > maxVal {
		return assert.Fail(t, "value out of range",
			"value %f is outside range [%f, %f]", value, minVal, maxVal)
	}
	return true
}

// AssertMonotonicInt64 verifies that a slice is monotonically non-decreasing.
func AssertMonotonicInt64(t *testing.T, s []int64, msgAndArgs ...any) bool {
	t.Helper()
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return assert.Fail(t, "not monotonic",
				"s[%d]=%d < s[%d]=%d", i, s[i], i-1, s[i-1])
		}
	}
	return true
}

// AMToneConfig describes a synthetic amplitude-modulated tone.
type AMToneConfig struct {
	CarrierHz    float64
	ModulationHz float64
	Depth        float64
	SampleRate   float64
}

// GenerateAMTone creates a mono AM tone using the same open-loop
// sinusoidal envelope the synthesis engine produces:
// sin(carrier) * (0.5 + 0.5*depth*sin(mod)).
func GenerateAMTone(cfg AMToneConfig, frames int) []float64 {
	buf := make([]float64, frames)
	carrierStep := 2 * math.Pi * cfg.CarrierHz / cfg.SampleRate
	modStep := 2 * math.Pi * cfg.ModulationHz / cfg.SampleRate
	for i := range frames {
		carrier := math.Sin(carrierStep * float64(i))
		envelope := 0.5 + 0.5*cfg.Depth*math.Sin(modStep*float64(i))
		buf[i] = carrier * envelope
	}
	return buf
}

// GenerateClick creates a short windowed tone burst starting at onset,
// suitable as a latency-trial stimulus.
func GenerateClick(frames, onset, burstLen int, freqHz, sampleRate float64) []float64 {
	buf := make([]float64, frames)
	omega := 2 * math.Pi * freqHz / sampleRate
	for i := range burstLen {
		if onset+i >= frames {
			break
		}
		// Hann-shaped burst avoids hard edges in the correlation peak.
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(burstLen-1))
		buf[onset+i] = w * math.Sin(omega*float64(i))
	}
	return buf
}

// DelaySignal returns a copy of x shifted right by delay samples and
// scaled by gain, zero-padded to the same length.
func DelaySignal(x []float64, delay int, gain float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if i+delay >= len(out) {
			break
		}
		out[i+delay] = v * gain
	}
	return out
}
