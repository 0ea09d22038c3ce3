package calib

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDeviceID = "default-output:loopback"

func testCaptureSet() CaptureSet {
	return CaptureSet{
		DeviceID:   testDeviceID,
		SampleRate: testSampleRate,
		Segments: []RateSegment{
			{RateHz: 10, Samples: amCaptureAt(1.0, 10)},
			{RateHz: 40, Samples: amCaptureAt(0.9, 40)},
		},
		Trials: []LatencyTrial{
			delayedTrial(injectedDelaySamples),
			delayedTrial(injectedDelaySamples),
		},
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	profile, err := Analyzer{}.Analyze(testCaptureSet())
	require.NoError(t, err)

	assert.Equal(t, testDeviceID, profile.DeviceID)
	assert.Len(t, profile.MTFScores, 2)
	assert.InDelta(t, 40.0, profile.MTFPassHz, 1e-12)
	assert.InDelta(t, injectedDelayMs, profile.LatencyMs, latencyToleranceMs)
	assert.Zero(t, profile.ExcludedTrials)
	assert.WithinDuration(t, time.Now().UTC(), profile.TestedAt, time.Minute)
}

func TestAnalyzer_InputErrors(t *testing.T) {
	t.Run("invalid sample rate", func(t *testing.T) {
		capture := testCaptureSet()
		capture.SampleRate = 0
		_, err := Analyzer{}.Analyze(capture)
		assert.ErrorIs(t, err, ErrInvalidSampleRate)
	})

	t.Run("empty capture", func(t *testing.T) {
		_, err := Analyzer{}.Analyze(CaptureSet{DeviceID: testDeviceID, SampleRate: testSampleRate})
		assert.ErrorIs(t, err, ErrEmptyCapture)
	})
}

func TestHardwareProfile_JSONFields(t *testing.T) {
	profile, err := Analyzer{}.Analyze(testCaptureSet())
	require.NoError(t, err)

	data, err := json.Marshal(profile)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{
		"device_id", "mtf_scores", "mtf_pass_hz",
		"latency_ms", "latency_jitter_ms", "excluded_trials", "tested_at",
	} {
		assert.Contains(t, decoded, key)
	}
}
