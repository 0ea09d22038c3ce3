// Package device provides simulated playback backends: a wall-clock
// paced audio sink and a ticker-paced presentation surface. They let a
// full session run on machines without real output devices and double
// as loopback capture sources for calibration smoke runs.
package device

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Sink simulation constants.
const (
	// DefaultSinkCapacityFrames mirrors a ~85 ms device buffer at
	// 48 kHz, the same order as a shared-mode output stream.
	DefaultSinkCapacityFrames = 4096

	sinkChannels = 2
)

// Sentinel errors.
var (
	// ErrSinkNotStarted indicates a write to a stopped sink.
	ErrSinkNotStarted = errors.New("sink not started")

	// ErrBadSinkConfig indicates invalid simulation parameters.
	ErrBadSinkConfig = errors.New("invalid sink configuration")
)

// SimSink is an audio output sink that drains its queue at the
// configured sample rate, driven by the wall clock. It optionally keeps
// every written sample for loopback inspection.
type SimSink struct {
	mu sync.Mutex

	sampleRate float64
	capacity   int

	started   bool
	queued    float64
	lastDrain time.Time

	captureOn bool
	capture   []float32
}

// NewSimSink creates a stopped simulated sink. capacityFrames <= 0
// selects DefaultSinkCapacityFrames. When captureLoopback is set, all
// written samples are retained and available via Captured.
func NewSimSink(sampleRate float64, capacityFrames int, captureLoopback bool) (*SimSink, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %v", ErrBadSinkConfig, sampleRate)
	}
	if capacityFrames <= 0 {
		capacityFrames = DefaultSinkCapacityFrames
	}
	return &SimSink{
		sampleRate: sampleRate,
		capacity:   capacityFrames,
		captureOn:  captureLoopback,
	}, nil
}

// Start begins draining the queue.
func (s *SimSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	s.queued = 0
	s.lastDrain = time.Now()
	return nil
}

// Stop halts the stream.
func (s *SimSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return nil
}

// BufferCapacity returns the simulated device buffer size in frames.
func (s *SimSink) BufferCapacity() int {
	return s.capacity
}

// FramesQueued returns how many frames remain queued after draining at
// the configured sample rate since the last observation.
func (s *SimSink) FramesQueued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drainLocked()
	return int(s.queued)
}

// Write queues interleaved stereo samples.
func (s *SimSink) Write(interleaved []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrSinkNotStarted
	}
	s.drainLocked()
	s.queued += float64(len(interleaved) / sinkChannels)
	if s.captureOn {
		s.capture = append(s.capture, interleaved...)
	}
	return nil
}

// Captured returns a copy of all samples written so far. Empty unless
// the sink was created with loopback capture.
func (s *SimSink) Captured() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float32, len(s.capture))
	copy(out, s.capture)
	return out
}

// drainLocked consumes queued frames for the wall-clock time elapsed
// since the previous drain. Callers hold s.mu.
func (s *SimSink) drainLocked() {
	if !s.started {
		return
	}
	now := time.Now()
	elapsed := now.Sub(s.lastDrain).Seconds()
	s.lastDrain = now
	s.queued -= elapsed * s.sampleRate
	if s.queued < 0 {
		s.queued = 0
	}
}
