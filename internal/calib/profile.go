package calib

import (
	"errors"
	"fmt"
	"time"
)

// Analyzer input errors.
var (
	// ErrInvalidSampleRate indicates a non-positive capture rate.
	ErrInvalidSampleRate = errors.New("invalid capture sample rate")

	// ErrEmptyCapture indicates a capture set with nothing to analyze.
	ErrEmptyCapture = errors.New("capture set has no segments or trials")
)

// CaptureSet is one calibration run's worth of captured buffers for a
// single physical device.
type CaptureSet struct {
	// DeviceID identifies the physical playback chain under test.
	DeviceID string

	// SampleRate is the capture rate shared by all buffers, in Hz.
	SampleRate int

	// Segments are the per-rate AM loopback captures (Stage B).
	Segments []RateSegment

	// Trials are the click stimulus/response pairs (Stage C).
	Trials []LatencyTrial
}

// HardwareProfile is the result of one calibration run. A later run for
// the same device supersedes the profile entirely; profiles are never
// merged.
type HardwareProfile struct {
	// DeviceID identifies the tested playback chain.
	DeviceID string `json:"device_id"`

	// MTFScores maps modulation rate (formatted to the nearest Hz) to
	// normalized modulation depth in [0, 1].
	MTFScores map[string]float64 `json:"mtf_scores"`

	// MTFPassHz is the highest rate with a passing score, 0 when no
	// rate passed.
	MTFPassHz float64 `json:"mtf_pass_hz"`

	// LatencyMs and LatencyJitterMs summarize the round-trip timing.
	LatencyMs       float64 `json:"latency_ms"`
	LatencyJitterMs float64 `json:"latency_jitter_ms"`

	// ExcludedTrials counts latency trials with no detectable
	// correlation peak.
	ExcludedTrials int `json:"excluded_trials"`

	// TestedAt is when the analysis ran.
	TestedAt time.Time `json:"tested_at"`
}

// Analyzer runs both calibration stages over captured buffers.
// The zero value is ready to use.
type Analyzer struct{}

// Analyze produces a HardwareProfile from a capture set. The analysis
// is deterministic over the input buffers; only TestedAt varies.
func (Analyzer) Analyze(capture CaptureSet) (*HardwareProfile, error) {
	if capture.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, capture.SampleRate)
	}
	if len(capture.Segments) == 0 && len(capture.Trials) == 0 {
		return nil, ErrEmptyCapture
	}

	scores, passHz := ComputeMTF(capture.SampleRate, capture.Segments)
	latency := EstimateLatency(capture.Trials, capture.SampleRate)

	return &HardwareProfile{
		DeviceID:        capture.DeviceID,
		MTFScores:       scores,
		MTFPassHz:       passHz,
		LatencyMs:       latency.LatencyMs,
		LatencyJitterMs: latency.JitterMs,
		ExcludedTrials:  latency.Excluded,
		TestedAt:        time.Now().UTC(),
	}, nil
}
