package calib

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrainlab/entrain/internal/testutil"
)

const (
	testSampleRate = 48000
	testCarrierHz  = 1000.0
	testRateHz     = 40.0

	// One second of capture: rate 40 Hz lands exactly on bin 40.
	testCaptureFrames = testSampleRate
)

func amCapture(depth float64) []float64 {
	return testutil.GenerateAMTone(testutil.AMToneConfig{
		CarrierHz:    testCarrierHz,
		ModulationHz: testRateHz,
		Depth:        depth,
		SampleRate:   testSampleRate,
	}, testCaptureFrames)
}

// TestAnalyticEnvelope_RecoversAMEnvelope checks the Hilbert magnitude
// against the known envelope away from the transform's edge artifacts.
func TestAnalyticEnvelope_RecoversAMEnvelope(t *testing.T) {
	const depth = 1.0
	samples := amCapture(depth)

	env := AnalyticEnvelope(samples)
	require.Len(t, env, len(samples))
	testutil.AssertNoNaNOrInf(t, env)

	// The true envelope is 0.5 + 0.5*depth*sin(mod phase). Skip the
	// transform's edge regions.
	margin := testSampleRate / 10
	for i := margin; i < len(env)-margin; i += 97 {
		phase := 2 * math.Pi * testRateHz * float64(i) / testSampleRate
		expected := 0.5 + 0.5*depth*math.Sin(phase)
		assert.InDelta(t, expected, env[i], testutil.ScoreTolerance, "envelope at sample %d", i)
	}
}

func TestMTFScore_CleanCaptureFullDepth(t *testing.T) {
	score := MTFScore(amCapture(1.0), testSampleRate, testRateHz)

	assert.GreaterOrEqual(t, score, 0.9,
		"undegraded full-depth AM must score at least 0.9")
	testutil.AssertInRange(t, score, 0, 1)
}

func TestMTFScore_TracksModulationDepth(t *testing.T) {
	tests := []struct {
		name  string
		depth float64
	}{
		{"depth 1.0", 1.0},
		{"depth 0.5", 0.5},
		{"depth 0.25", 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := MTFScore(amCapture(tt.depth), testSampleRate, testRateHz)
			assert.InDelta(t, tt.depth, score, testutil.ScoreTolerance)
		})
	}
}

// TestMTFScore_Idempotent verifies the pure-function contract: the same
// buffer yields the identical score on repeated runs.
func TestMTFScore_Idempotent(t *testing.T) {
	samples := amCapture(0.8)

	first := MTFScore(samples, testSampleRate, testRateHz)
	second := MTFScore(samples, testSampleRate, testRateHz)

	assert.Equal(t, first, second)
}

func TestMTFScore_DegenerateInputs(t *testing.T) {
	tests := []struct {
		name       string
		samples    []float64
		sampleRate int
		rateHz     float64
	}{
		{"short capture", amCapture(1.0)[:testSampleRate/8], testSampleRate, testRateHz},
		{"empty capture", nil, testSampleRate, testRateHz},
		{"zero sample rate", amCapture(1.0), 0, testRateHz},
		{"zero rate", amCapture(1.0), testSampleRate, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Zero(t, MTFScore(tt.samples, tt.sampleRate, tt.rateHz))
		})
	}
}

func TestMTFScore_SilenceScoresZero(t *testing.T) {
	silence := make([]float64, testCaptureFrames)
	score := MTFScore(silence, testSampleRate, testRateHz)
	assert.Zero(t, score)
}

func TestGradeScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Grade
	}{
		{0.95, GradePass},
		{MTFPassThreshold, GradePass},
		{0.5, GradeMarginal},
		{MTFFailThreshold, GradeMarginal},
		{0.39, GradeFail},
		{0, GradeFail},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeScore(tt.score), "score %v", tt.score)
	}
}

func TestComputeMTF_HighestPassingRate(t *testing.T) {
	segments := []RateSegment{
		{RateHz: 10, Samples: amCaptureAt(1.0, 10)},
		{RateHz: 40, Samples: amCaptureAt(0.9, 40)},
		{RateHz: 80, Samples: amCaptureAt(0.2, 80)},
	}

	scores, passHz := ComputeMTF(testSampleRate, segments)

	require.Len(t, scores, 3)
	assert.InDelta(t, 40.0, passHz, 1e-12, "highest passing rate")
	assert.GreaterOrEqual(t, scores["10"], MTFPassThreshold)
	assert.GreaterOrEqual(t, scores["40"], MTFPassThreshold)
	assert.Less(t, scores["80"], MTFFailThreshold)
}

func TestComputeMTF_NoPassingRate(t *testing.T) {
	segments := []RateSegment{
		{RateHz: 40, Samples: amCaptureAt(0.1, 40)},
	}

	_, passHz := ComputeMTF(testSampleRate, segments)

	assert.Zero(t, passHz, "no passing rate reports 0")
}

func TestSortedRates(t *testing.T) {
	scores := map[string]float64{"100": 0.1, "8": 0.9, "40": 0.7}
	assert.Equal(t, []string{"8", "40", "100"}, SortedRates(scores))
}

// amCaptureAt generates a capture at an arbitrary modulation rate.
func amCaptureAt(depth, rateHz float64) []float64 {
	return testutil.GenerateAMTone(testutil.AMToneConfig{
		CarrierHz:    testCarrierHz,
		ModulationHz: rateHz,
		Depth:        depth,
		SampleRate:   testSampleRate,
	}, testCaptureFrames)
}
