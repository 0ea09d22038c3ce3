package synth

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tphakala/simd/f32"
)

// Render loop constants.
const (
	// channelCount is fixed: the stimulus is written identically to
	// both channels of a stereo sink.
	channelCount = 2

	// maxChunkFrames caps a single render so a huge device buffer
	// cannot stall cancellation for longer than one chunk.
	maxChunkFrames = 4096

	// backpressureYield is the sleep before re-polling a full sink.
	backpressureYield = 500 * time.Microsecond

	// renderYield is the pause between successive buffer submissions.
	renderYield = time.Millisecond
)

// Sink is the audio output collaborator. Implementations wrap a real
// device (or a simulated one) opened as stereo float32 at the engine's
// sample rate.
type Sink interface {
	// Start activates the output stream. A failure here is fatal to
	// engine startup and is never retried.
	Start() error

	// Stop halts the output stream.
	Stop() error

	// BufferCapacity returns the device buffer size in frames.
	BufferCapacity() int

	// FramesQueued returns how many frames are currently queued.
	FramesQueued() int

	// Write submits interleaved stereo float32 samples.
	Write(interleaved []float32) error
}

// Engine renders the modulated stimulus to a Sink on a dedicated
// goroutine. Start and Stop are idempotent; the atomic run flag is the
// only cancellation point and is observed within one buffer fill.
type Engine struct {
	sink Sink
	mod  *Modulator

	running atomic.Bool
	done    chan struct{}

	mono        []float32
	interleaved []float32
}

// NewEngine creates a stopped engine for the given waveform and sink.
func NewEngine(p Params, sink Sink) (*Engine, error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	mod, err := NewModulator(p)
	if err != nil {
		return nil, err
	}
	return &Engine{
		sink:        sink,
		mod:         mod,
		mono:        make([]float32, maxChunkFrames),
		interleaved: make([]float32, maxChunkFrames*channelCount),
	}, nil
}

// Start activates the sink and launches the render goroutine.
// Calling Start on a running engine is a no-op. If the sink fails to
// start, no goroutine is left running and the error is returned.
func (e *Engine) Start() error {
	if !e.running.CompareAndSwap(false, true) {
		return nil
	}
	if err := e.sink.Start(); err != nil {
		e.running.Store(false)
		return fmt.Errorf("synth: sink start: %w", err)
	}
	e.done = make(chan struct{})
	go e.renderLoop()
	return nil
}

// Stop clears the run flag, joins the render goroutine and stops the
// sink. Calling Stop on a stopped engine is a no-op.
func (e *Engine) Stop() error {
	if !e.running.CompareAndSwap(true, false) {
		return nil
	}
	<-e.done
	if err := e.sink.Stop(); err != nil {
		return fmt.Errorf("synth: sink stop: %w", err)
	}
	return nil
}

// Running reports whether the render goroutine is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

func (e *Engine) renderLoop() {
	defer close(e.done)

	for e.running.Load() {
		avail := e.sink.BufferCapacity() - e.sink.FramesQueued()
		if avail <= 0 {
			// Backpressure, not an error.
			time.Sleep(backpressureYield)
			continue
		}
		if avail > maxChunkFrames {
			avail = maxChunkFrames
		}

		mono := e.mono[:avail]
		e.mod.Render(mono)
		buf := e.interleaved[:avail*channelCount]
		f32.Interleave2(buf, mono, mono)

		if err := e.sink.Write(buf); err != nil {
			// Transient submission failure; back off and retry with
			// freshly rendered samples.
			time.Sleep(backpressureYield)
			continue
		}
		time.Sleep(renderYield)
	}
}
