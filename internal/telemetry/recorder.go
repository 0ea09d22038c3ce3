// Package telemetry records per-frame timing samples during a live
// stimulation session and derives session-quality statistics from them.
//
// The Recorder is the only piece of state shared between the presentation
// and audio loops. Its hot path (Record) holds the mutex for a single
// slice append, so contention can never delay a real-time loop by more
// than that constant-time critical section.
package telemetry

import (
	"math"
	"slices"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Percentile ranks reported in a SessionSummary.
const (
	percentileP50 = 0.50
	percentileP95 = 0.95
	percentileP99 = 0.99
)

// droppedFrameFactor marks a frame as dropped when its interval exceeds
// this multiple of the ideal refresh interval.
const droppedFrameFactor = 1.5

// msPerSecond converts between Hz and millisecond intervals.
const msPerSecond = 1000.0

// FrameSample is one presented frame's timing record. Samples are
// immutable once recorded and owned by the Recorder for the session.
type FrameSample struct {
	// TimestampUS is microseconds since the recorder was created,
	// taken from the monotonic clock.
	TimestampUS int64

	// VisualOn is the flicker state presented with this frame.
	VisualOn bool

	// EffectiveHz is the instantaneous frame rate (1000 / delta_ms).
	EffectiveHz float64

	// JitterMs is the observed inter-frame interval in milliseconds.
	JitterMs float64
}

// SessionSummary aggregates a full session's frame samples.
// It is recomputed from the sample sequence on demand, never maintained
// incrementally.
type SessionSummary struct {
	// EffectiveHz is the mean instantaneous frame rate.
	EffectiveHz float64

	// JitterP50, JitterP95 and JitterP99 are nearest-rank percentiles
	// of the recorded inter-frame intervals.
	JitterP50 float64
	JitterP95 float64
	JitterP99 float64

	// DroppedFrames counts frames whose interval exceeded 1.5x the
	// ideal refresh interval.
	DroppedFrames int
}

// Recorder is a thread-safe append-only log of FrameSamples.
type Recorder struct {
	mu      sync.Mutex
	samples []FrameSample

	epoch time.Time

	// idealMs is the expected inter-frame interval; zero disables
	// dropped-frame classification.
	idealMs float64
}

// NewRecorder creates an empty recorder. refreshHz is the display refresh
// rate used to classify dropped frames; pass 0 when unknown, which
// reports DroppedFrames as 0.
func NewRecorder(refreshHz float64) *Recorder {
	r := &Recorder{epoch: time.Now()}
	if refreshHz > 0 {
		r.idealMs = msPerSecond / refreshHz
	}
	return r
}

// Record appends a sample with a monotonic timestamp. Safe to call
// concurrently with Summarize and ExportCSV.
func (r *Recorder) Record(visualOn bool, effectiveHz, jitterMs float64) {
	ts := time.Since(r.epoch).Microseconds()
	r.mu.Lock()
	r.samples = append(r.samples, FrameSample{
		TimestampUS: ts,
		VisualOn:    visualOn,
		EffectiveHz: effectiveHz,
		JitterMs:    jitterMs,
	})
	r.mu.Unlock()
}

// Len returns the number of recorded samples.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Samples returns a copy of the recorded sequence in recording order.
func (r *Recorder) Samples() []FrameSample {
	return r.snapshot()
}

// snapshot copies the sample sequence under the lock so summary and
// export work never holds the mutex beyond the copy.
func (r *Recorder) snapshot() []FrameSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FrameSample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Summarize derives a SessionSummary from all samples recorded so far.
// An empty recorder yields the zero summary; that is a valid result,
// not an error.
func (r *Recorder) Summarize() SessionSummary {
	samples := r.snapshot()
	if len(samples) == 0 {
		return SessionSummary{}
	}

	hz := make([]float64, len(samples))
	jitter := make([]float64, len(samples))
	dropped := 0
	for i, s := range samples {
		hz[i] = s.EffectiveHz
		jitter[i] = s.JitterMs
		if r.idealMs > 0 && s.JitterMs > droppedFrameFactor*r.idealMs {
			dropped++
		}
	}
	slices.Sort(jitter)

	return SessionSummary{
		EffectiveHz:   stat.Mean(hz, nil),
		JitterP50:     nearestRank(jitter, percentileP50),
		JitterP95:     nearestRank(jitter, percentileP95),
		JitterP99:     nearestRank(jitter, percentileP99),
		DroppedFrames: dropped,
	}
}

// nearestRank returns the zero-indexed nearest-rank percentile
// sorted[floor(p*(n-1))] of an ascending-sorted slice.
func nearestRank(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	return sorted[idx]
}
