package calib

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrainlab/entrain/internal/synth"
	"github.com/entrainlab/entrain/internal/wavio"
)

// TestMTF_EndToEndThroughSynthAndWAV renders the engine's own stimulus,
// round-trips it through a 16-bit WAV file like a loopback capture, and
// verifies the analyzer still reads near-full modulation depth. This is
// the no-degradation baseline a real capture is compared against.
func TestMTF_EndToEndThroughSynthAndWAV(t *testing.T) {
	track, err := synth.RenderTrack(synth.Params{
		CarrierHz:    testCarrierHz,
		ModulationHz: testRateHz,
		Depth:        1.0,
		SampleRate:   testSampleRate,
	}, testCaptureFrames)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "loopback.wav")
	require.NoError(t, wavio.WriteStereo(path, track, testSampleRate))

	captured, rate, err := wavio.ReadMono(path)
	require.NoError(t, err)
	require.Equal(t, testSampleRate, rate)

	score := MTFScore(captured, rate, testRateHz)
	assert.GreaterOrEqual(t, score, 0.9,
		"16-bit quantization alone must not degrade the MTF score below 0.9")
}
