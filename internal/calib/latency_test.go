package calib

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrainlab/entrain/internal/testutil"
)

const (
	trialFrames   = 4800 // 100 ms per trial buffer
	clickOnset    = 240
	clickBurstLen = 480 // 10 ms burst
	clickFreqHz   = 1000.0

	// 12 ms at 48 kHz.
	injectedDelaySamples = 576
	injectedDelayMs      = 12.0
	latencyToleranceMs   = 1.0

	loopbackGain = 0.8
	noiseSeed    = 42
)

func clickStimulus() []float64 {
	return testutil.GenerateClick(trialFrames, clickOnset, clickBurstLen, clickFreqHz, testSampleRate)
}

func delayedTrial(delaySamples int) LatencyTrial {
	stim := clickStimulus()
	return LatencyTrial{
		Stimulus: stim,
		Response: testutil.DelaySignal(stim, delaySamples, loopbackGain),
	}
}

func noiseTrial() LatencyTrial {
	rng := rand.New(rand.NewSource(noiseSeed))
	resp := make([]float64, trialFrames)
	for i := range resp {
		resp[i] = 0.1 * (rng.Float64()*2 - 1)
	}
	return LatencyTrial{Stimulus: clickStimulus(), Response: resp}
}

// TestEstimateLatency_KnownDelay is the end-to-end Stage C property: an
// injected 12 ms delay must be recovered within 1 ms.
func TestEstimateLatency_KnownDelay(t *testing.T) {
	trials := []LatencyTrial{
		delayedTrial(injectedDelaySamples),
		delayedTrial(injectedDelaySamples),
		delayedTrial(injectedDelaySamples),
	}

	result := EstimateLatency(trials, testSampleRate)

	assert.Equal(t, 3, result.Included)
	assert.Zero(t, result.Excluded)
	assert.InDelta(t, injectedDelayMs, result.LatencyMs, latencyToleranceMs)
	assert.InDelta(t, 0, result.JitterMs, latencyToleranceMs)
}

func TestEstimateLatency_JitterAcrossTrials(t *testing.T) {
	// Delays of 11.5, 12.0 and 12.5 ms.
	trials := []LatencyTrial{
		delayedTrial(552),
		delayedTrial(576),
		delayedTrial(600),
	}

	result := EstimateLatency(trials, testSampleRate)

	assert.Equal(t, 3, result.Included)
	assert.InDelta(t, injectedDelayMs, result.LatencyMs, latencyToleranceMs)
	assert.Greater(t, result.JitterMs, 0.0)
	assert.Less(t, result.JitterMs, 1.0)
}

// TestEstimateLatency_NoiseTrialExcluded verifies that a trial with no
// detectable correlation peak is excluded and counted, not averaged in.
func TestEstimateLatency_NoiseTrialExcluded(t *testing.T) {
	trials := []LatencyTrial{
		delayedTrial(injectedDelaySamples),
		noiseTrial(),
		delayedTrial(injectedDelaySamples),
	}

	result := EstimateLatency(trials, testSampleRate)

	assert.Equal(t, 2, result.Included)
	assert.Equal(t, 1, result.Excluded)
	assert.InDelta(t, injectedDelayMs, result.LatencyMs, latencyToleranceMs,
		"excluded trial must not shift the mean")
}

func TestEstimateLatency_DegenerateInputs(t *testing.T) {
	t.Run("no trials", func(t *testing.T) {
		result := EstimateLatency(nil, testSampleRate)
		assert.Zero(t, result.LatencyMs)
		assert.Zero(t, result.JitterMs)
		assert.Zero(t, result.Included)
	})

	t.Run("zero sample rate excludes all", func(t *testing.T) {
		result := EstimateLatency([]LatencyTrial{delayedTrial(10)}, 0)
		assert.Equal(t, 1, result.Excluded)
		assert.Zero(t, result.Included)
	})

	t.Run("empty buffers excluded", func(t *testing.T) {
		result := EstimateLatency([]LatencyTrial{{}}, testSampleRate)
		assert.Equal(t, 1, result.Excluded)
	})

	t.Run("silent response excluded", func(t *testing.T) {
		trial := LatencyTrial{
			Stimulus: clickStimulus(),
			Response: make([]float64, trialFrames),
		}
		result := EstimateLatency([]LatencyTrial{trial}, testSampleRate)
		assert.Equal(t, 1, result.Excluded)
	})
}

// TestEstimateLatency_Deterministic verifies the pure-function contract.
func TestEstimateLatency_Deterministic(t *testing.T) {
	trials := []LatencyTrial{delayedTrial(injectedDelaySamples), noiseTrial()}

	first := EstimateLatency(trials, testSampleRate)
	second := EstimateLatency(trials, testSampleRate)

	require.Equal(t, first, second)
}
