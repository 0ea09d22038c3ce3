package calib

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Modulation-transfer scoring constants.
const (
	// MTFPassThreshold is the score at or above which a rate passes.
	MTFPassThreshold = 0.6

	// MTFFailThreshold is the score below which a rate fails; scores
	// between the thresholds are reported as marginal, not classified.
	MTFFailThreshold = 0.4

	// minCaptureDivisor rejects captures shorter than
	// sampleRate/minCaptureDivisor (250 ms) as too short to score.
	minCaptureDivisor = 4

	// spectralFold compensates the single-sided spectrum: a sinusoid
	// of amplitude A lands in its bin with magnitude A/2 relative to
	// the DC bin's full magnitude, so the ratio is doubled to read as
	// modulation depth.
	spectralFold = 2.0

	// dcFloor guards the normalization against an all-zero capture.
	dcFloor = 1e-9

	// scoreDecimals rounds reported scores to 4 decimal places.
	scoreDecimals = 1e4
)

// Grade classifies a modulation-transfer score.
type Grade int

const (
	// GradeFail marks scores below MTFFailThreshold.
	GradeFail Grade = iota

	// GradeMarginal marks scores between the thresholds.
	GradeMarginal

	// GradePass marks scores at or above MTFPassThreshold.
	GradePass
)

// String returns the grade name.
func (g Grade) String() string {
	switch g {
	case GradePass:
		return "pass"
	case GradeMarginal:
		return "marginal"
	}
	return "fail"
}

// GradeScore classifies a score against the pass/fail thresholds.
func GradeScore(score float64) Grade {
	switch {
	case score >= MTFPassThreshold:
		return GradePass
	case score < MTFFailThreshold:
		return GradeFail
	}
	return GradeMarginal
}

// RateSegment is one captured playback of an AM tone at a known
// modulation rate.
type RateSegment struct {
	// RateHz is the modulation rate the segment was stimulated with.
	RateHz float64

	// Samples is the mono loopback capture.
	Samples []float64
}

// MTFScore measures how much of the amplitude modulation at rateHz
// survived in a captured waveform. The capture's analytic envelope is
// Hann-windowed, transformed, and the magnitude in the bin nearest
// rateHz is read relative to the envelope's DC magnitude. The result is
// clamped to [0, 1]; a clean capture at depth d scores approximately d.
//
// Captures shorter than 250 ms score 0. The function is pure: the same
// buffer always yields the identical score.
func MTFScore(samples []float64, sampleRate int, rateHz float64) float64 {
	n := len(samples)
	if sampleRate <= 0 || rateHz <= 0 || n < sampleRate/minCaptureDivisor {
		return 0
	}

	env := AnalyticEnvelope(samples)
	window.Hann(env)

	fft := fourier.NewFFT(n)
	spectrum := fft.Coefficients(nil, env)

	bin := int(math.Round(rateHz * float64(n) / float64(sampleRate)))
	if bin >= len(spectrum) {
		bin = len(spectrum) - 1
	}
	modMag := cmplx.Abs(spectrum[bin])
	dcMag := cmplx.Abs(spectrum[0])
	if dcMag < dcFloor {
		dcMag = dcFloor
	}

	score := spectralFold * modMag / dcMag
	score = math.Round(score*scoreDecimals) / scoreDecimals
	return math.Min(math.Max(score, 0), 1)
}

// ComputeMTF scores every segment and returns the per-rate scores keyed
// by the rate formatted to the nearest Hz, plus the highest passing
// rate. Scores are assumed non-increasing with rate for a given device;
// that assumption is only used for the summary field, never enforced.
// passHz is 0 when no rate passes.
func ComputeMTF(sampleRate int, segments []RateSegment) (scores map[string]float64, passHz float64) {
	scores = make(map[string]float64, len(segments))
	for _, seg := range segments {
		score := MTFScore(seg.Samples, sampleRate, seg.RateHz)
		scores[rateKey(seg.RateHz)] = score
		if score >= MTFPassThreshold && seg.RateHz > passHz {
			passHz = seg.RateHz
		}
	}
	return scores, passHz
}

// SortedRates returns the score map's rates in ascending numeric order,
// for deterministic reporting.
func SortedRates(scores map[string]float64) []string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.ParseFloat(keys[i], 64)
		b, _ := strconv.ParseFloat(keys[j], 64)
		return a < b
	})
	return keys
}

func rateKey(rateHz float64) string {
	return fmt.Sprintf("%.0f", rateHz)
}
