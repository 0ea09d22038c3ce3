// Package present implements the vsync-paced visual presentation loop.
// The controller toggles a binary flicker state once per display refresh
// and reports per-frame timing to the telemetry recorder. Toggling once
// per vsync phase-locks the flicker to the integer submultiples of the
// refresh rate the display can actually produce; the gap between the
// configured rate and what was achieved shows up as effective_hz in the
// telemetry, not as an error.
package present

import (
	"errors"
	"fmt"
	"time"

	"github.com/entrainlab/entrain/internal/telemetry"
)

// State is the controller lifecycle state.
type State int

const (
	// Uninitialized is the state before a surface is acquired.
	Uninitialized State = iota

	// Ready means the surface and pacing primitive are acquired.
	Ready

	// Presenting means the frame loop is running.
	Presenting

	// Stopped means the loop has exited and resources are released.
	Stopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Presenting:
		return "presenting"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DefaultMaxVSyncWait bounds the pacing wait so a display that stops
// delivering vsync signals cannot deadlock shutdown.
const DefaultMaxVSyncWait = 100 * time.Millisecond

const (
	msPerSecond = 1000.0
	usPerMs     = 1000.0
)

// Sentinel errors.
var (
	// ErrNilSurface indicates Initialize was called without a surface.
	ErrNilSurface = errors.New("nil presentation surface")

	// ErrNotReady indicates Run was called outside the Ready state.
	ErrNotReady = errors.New("controller not in ready state")

	// ErrVSyncTimeout is returned by surfaces whose bounded pacing
	// wait expired. The loop treats it as a late frame, not a failure.
	ErrVSyncTimeout = errors.New("vsync wait timed out")
)

// Surface is the presentation collaborator: a swap chain bound to a
// window with a frame-pacing wait handle limited to one in-flight frame.
type Surface interface {
	// Acquire creates the device resources and pacing handle.
	// A failure is fatal to initialization and is never retried.
	Acquire() error

	// AwaitVSync blocks until the display is ready for the next frame,
	// bounded by timeout. Returns ErrVSyncTimeout when the bound
	// expires before a pacing signal arrives.
	AwaitVSync(timeout time.Duration) error

	// Present submits the current frame buffer.
	Present() error

	// Release frees the pacing handle and device resources.
	Release()
}

// Controller drives the presentation loop and feeds frame telemetry.
type Controller struct {
	surface  Surface
	recorder *telemetry.Recorder

	state    State
	visualOn bool

	// maxWait is the liveness bound on each pacing wait.
	maxWait time.Duration
}

// NewController creates an Uninitialized controller reporting to rec.
func NewController(rec *telemetry.Recorder) *Controller {
	return &Controller{
		recorder: rec,
		maxWait:  DefaultMaxVSyncWait,
	}
}

// SetMaxVSyncWait overrides the pacing-wait bound. Must be called
// before Run.
func (c *Controller) SetMaxVSyncWait(d time.Duration) {
	if d > 0 {
		c.maxWait = d
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Initialize acquires the presentation surface, moving the controller
// to Ready. Acquisition failure is fatal and leaves the controller
// Uninitialized; callers re-initialize rather than retry.
func (c *Controller) Initialize(surface Surface) error {
	if surface == nil {
		return ErrNilSurface
	}
	if err := surface.Acquire(); err != nil {
		return fmt.Errorf("present: acquire surface: %w", err)
	}
	c.surface = surface
	c.state = Ready
	return nil
}

// EffectiveHz converts an inter-frame interval to an instantaneous
// frame rate. Non-positive intervals yield exactly 0, never NaN or Inf.
func EffectiveHz(deltaMs float64) float64 {
	if deltaMs <= 0 {
		return 0
	}
	return msPerSecond / deltaMs
}

// Run executes the presentation loop until keepGoing returns false,
// then releases the surface and transitions to Stopped. Each iteration:
// bounded vsync wait, monotonic delta measurement, flicker toggle,
// telemetry record, present. A timed-out pacing wait proceeds with the
// frame; a single late frame is reflected in jitter, never an error.
func (c *Controller) Run(keepGoing func() bool) error {
	if c.state != Ready {
		return fmt.Errorf("%w: %s", ErrNotReady, c.state)
	}
	c.state = Presenting
	defer func() {
		c.surface.Release()
		c.state = Stopped
	}()

	prev := time.Now()
	for keepGoing() {
		if err := c.surface.AwaitVSync(c.maxWait); err != nil && !errors.Is(err, ErrVSyncTimeout) {
			return fmt.Errorf("present: vsync wait: %w", err)
		}

		now := time.Now()
		deltaMs := float64(now.Sub(prev).Microseconds()) / usPerMs
		prev = now

		c.visualOn = !c.visualOn
		c.recorder.Record(c.visualOn, EffectiveHz(deltaMs), deltaMs)

		if err := c.surface.Present(); err != nil {
			return fmt.Errorf("present: submit frame: %w", err)
		}
	}
	return nil
}
