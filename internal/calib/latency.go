package calib

import (
	"math"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/stat"
)

// Latency estimation constants.
const (
	// noiseCorrFloor excludes a trial when its peak cross-correlation,
	// normalized by the signal energies, falls below this floor. Such
	// a trial has no detectable response and would poison the mean.
	noiseCorrFloor = 0.2

	// latencyMsPerSecond converts a sample lag to milliseconds.
	latencyMsPerSecond = 1000.0
)

// LatencyTrial is one emitted click stimulus and its recorded loopback
// response, both mono at the capture sample rate.
type LatencyTrial struct {
	Stimulus []float64
	Response []float64
}

// LatencyResult summarizes Stage C over a set of trials.
type LatencyResult struct {
	// LatencyMs is the mean peak-correlation lag of included trials.
	LatencyMs float64

	// JitterMs is the sample standard deviation of included trial
	// lags; 0 with fewer than two included trials.
	JitterMs float64

	// Included and Excluded count trials with and without a
	// detectable correlation peak.
	Included int
	Excluded int
}

// EstimateLatency computes the per-trial lag of peak cross-correlation
// between stimulus and response and reports the mean and spread in
// milliseconds. Trials with no peak above the noise floor are excluded
// and counted, never silently averaged in. Pure over its inputs.
func EstimateLatency(trials []LatencyTrial, sampleRate int) LatencyResult {
	var result LatencyResult
	if sampleRate <= 0 {
		result.Excluded = len(trials)
		return result
	}

	var lags []float64
	for _, trial := range trials {
		lag, ok := correlationLag(trial.Stimulus, trial.Response)
		if !ok {
			result.Excluded++
			continue
		}
		lags = append(lags, latencyMsPerSecond*float64(lag)/float64(sampleRate))
	}

	result.Included = len(lags)
	if len(lags) > 0 {
		result.LatencyMs = stat.Mean(lags, nil)
	}
	if len(lags) > 1 {
		result.JitterMs = stat.StdDev(lags, nil)
	}
	return result
}

// correlationLag returns the lag (in samples, response relative to
// stimulus) of the peak of the full cross-correlation, or ok=false when
// the normalized peak sits below the noise floor.
func correlationLag(stimulus, response []float64) (lag int, ok bool) {
	if len(stimulus) == 0 || len(response) == 0 {
		return 0, false
	}

	ref := removeMean(stimulus)
	rec := removeMean(response)

	refEnergy := f64.DotProductUnsafe(ref, ref)
	recEnergy := f64.DotProductUnsafe(rec, rec)
	if refEnergy <= 0 || recEnergy <= 0 {
		return 0, false
	}
	norm := math.Sqrt(refEnergy * recEnergy)

	// Full cross-correlation: lags -(len(ref)-1) .. len(rec)-1.
	best := math.Inf(-1)
	bestLag := 0
	for l := -(len(ref) - 1); l < len(rec); l++ {
		var v float64
		if l >= 0 {
			n := min(len(ref), len(rec)-l)
			if n <= 0 {
				continue
			}
			v = f64.DotProductUnsafe(ref[:n], rec[l:l+n])
		} else {
			n := min(len(ref)+l, len(rec))
			if n <= 0 {
				continue
			}
			v = f64.DotProductUnsafe(ref[-l:-l+n], rec[:n])
		}
		if v > best {
			best = v
			bestLag = l
		}
	}

	if best/norm < noiseCorrFloor {
		return 0, false
	}
	return bestLag, true
}

// removeMean returns a mean-free copy of x.
func removeMean(x []float64) []float64 {
	mean := f64.Sum(x) / float64(len(x))
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v - mean
	}
	return out
}
