package present

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrainlab/entrain/internal/telemetry"
)

const (
	testRefreshHz  = 60.0
	testFrameCount = 8
	testVSyncWait  = 5 * time.Millisecond
)

// fakeSurface is a scripted Surface for loop tests. Each AwaitVSync
// returns immediately (or times out when told to).
type fakeSurface struct {
	acquireErr error
	presentErr error

	timeouts int32

	acquired  bool
	released  bool
	presented int
	waits     int
}

func (s *fakeSurface) Acquire() error {
	if s.acquireErr != nil {
		return s.acquireErr
	}
	s.acquired = true
	return nil
}

func (s *fakeSurface) AwaitVSync(timeout time.Duration) error {
	s.waits++
	if n := atomic.LoadInt32(&s.timeouts); n > 0 {
		atomic.AddInt32(&s.timeouts, -1)
		return ErrVSyncTimeout
	}
	return nil
}

func (s *fakeSurface) Present() error {
	if s.presentErr != nil {
		return s.presentErr
	}
	s.presented++
	return nil
}

func (s *fakeSurface) Release() { s.released = true }

// frameLimiter returns a predicate that allows n loop iterations.
func frameLimiter(n int) func() bool {
	remaining := n
	return func() bool {
		if remaining <= 0 {
			return false
		}
		remaining--
		return true
	}
}

func TestEffectiveHz(t *testing.T) {
	tests := []struct {
		name    string
		deltaMs float64
		want    float64
	}{
		{"normal frame", 16.0, 62.5},
		{"exact zero delta", 0, 0},
		{"negative delta", -4.2, 0},
		{"one ms", 1.0, 1000.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveHz(tt.deltaMs)
			assert.False(t, math.IsNaN(got))
			assert.False(t, math.IsInf(got, 0))
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestController_StateMachine(t *testing.T) {
	rec := telemetry.NewRecorder(testRefreshHz)
	c := NewController(rec)
	assert.Equal(t, Uninitialized, c.State())

	surface := &fakeSurface{}
	require.NoError(t, c.Initialize(surface))
	assert.Equal(t, Ready, c.State())
	assert.True(t, surface.acquired)

	require.NoError(t, c.Run(frameLimiter(testFrameCount)))
	assert.Equal(t, Stopped, c.State())
	assert.True(t, surface.released, "surface must be released on stop")
}

func TestController_InitializeFailures(t *testing.T) {
	rec := telemetry.NewRecorder(testRefreshHz)

	t.Run("nil surface", func(t *testing.T) {
		c := NewController(rec)
		assert.ErrorIs(t, c.Initialize(nil), ErrNilSurface)
		assert.Equal(t, Uninitialized, c.State())
	})

	t.Run("acquire failure is fatal", func(t *testing.T) {
		acquireErr := errors.New("no adapter")
		c := NewController(rec)
		err := c.Initialize(&fakeSurface{acquireErr: acquireErr})
		assert.ErrorIs(t, err, acquireErr)
		assert.Equal(t, Uninitialized, c.State(), "failed init must not reach Ready")
	})
}

func TestController_RunRequiresReady(t *testing.T) {
	c := NewController(telemetry.NewRecorder(testRefreshHz))
	assert.ErrorIs(t, c.Run(frameLimiter(1)), ErrNotReady)
}

func TestController_TogglesFlickerAndRecords(t *testing.T) {
	rec := telemetry.NewRecorder(testRefreshHz)
	c := NewController(rec)
	surface := &fakeSurface{}
	require.NoError(t, c.Initialize(surface))

	require.NoError(t, c.Run(frameLimiter(testFrameCount)))

	assert.Equal(t, testFrameCount, surface.presented)
	assert.Equal(t, testFrameCount, rec.Len(), "one sample per presented frame")

	// Flicker alternates strictly, starting on.
	samples := rec.Samples()
	for i, s := range samples {
		assert.Equal(t, i%2 == 0, s.VisualOn, "flicker state at frame %d", i)
		assert.False(t, math.IsNaN(s.EffectiveHz))
		assert.False(t, math.IsInf(s.EffectiveHz, 0))
	}
}

// TestController_VSyncTimeoutIsNotFatal verifies the liveness-guard
// contract: a timed-out pacing wait produces a (late) frame instead of
// aborting the loop.
func TestController_VSyncTimeoutIsNotFatal(t *testing.T) {
	rec := telemetry.NewRecorder(testRefreshHz)
	c := NewController(rec)
	c.SetMaxVSyncWait(testVSyncWait)
	surface := &fakeSurface{timeouts: 2}
	require.NoError(t, c.Initialize(surface))

	require.NoError(t, c.Run(frameLimiter(testFrameCount)))

	assert.Equal(t, testFrameCount, surface.presented,
		"timed-out waits still present their frame")
	assert.Equal(t, Stopped, c.State())
}

func TestController_PresentFailureStopsLoop(t *testing.T) {
	rec := telemetry.NewRecorder(testRefreshHz)
	c := NewController(rec)
	presentErr := errors.New("device removed")
	surface := &fakeSurface{presentErr: presentErr}
	require.NoError(t, c.Initialize(surface))

	err := c.Run(frameLimiter(testFrameCount))
	assert.ErrorIs(t, err, presentErr)
	assert.Equal(t, Stopped, c.State())
	assert.True(t, surface.released, "surface released on every exit path")
}

func TestController_ZeroFramesIsValidSession(t *testing.T) {
	rec := telemetry.NewRecorder(testRefreshHz)
	c := NewController(rec)
	require.NoError(t, c.Initialize(&fakeSurface{}))

	require.NoError(t, c.Run(frameLimiter(0)))

	assert.Equal(t, Stopped, c.State())
	assert.Equal(t, 0, rec.Len())
	assert.Equal(t, telemetry.SessionSummary{}, rec.Summarize(),
		"session stopped immediately after start is valid, not an error")
}
