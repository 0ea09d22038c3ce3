// Package calib implements the offline hardware-calibration analyzer.
// It measures how faithfully a physical playback chain preserves
// amplitude modulation (Stage B, modulation-transfer scores) and the
// chain's round-trip latency and jitter (Stage C, cross-correlation of
// emitted and recorded click trials). Both measurements are pure
// functions of captured sample buffers; capture itself is a collaborator
// and no device I/O happens here.
package calib

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// AnalyticEnvelope returns the magnitude of the analytic signal of x
// (the Hilbert-transform envelope). The analytic signal is built in the
// frequency domain: keep DC and Nyquist, double the positive
// frequencies, zero the negative ones, then invert.
func AnalyticEnvelope(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	fft := fourier.NewCmplxFFT(n)
	buf := make([]complex128, n)
	for i, v := range x {
		buf[i] = complex(v, 0)
	}
	coeff := fft.Coefficients(nil, buf)

	// Positive frequencies occupy indices 1..ceil(n/2)-1; negative
	// frequencies occupy indices above n/2.
	for i := 1; i < (n+1)/2; i++ {
		coeff[i] *= 2
	}
	for i := n/2 + 1; i < n; i++ {
		coeff[i] = 0
	}

	analytic := fft.Sequence(nil, coeff)
	// gonum's inverse transform is unnormalized.
	scale := 1 / float64(n)
	env := make([]float64, n)
	for i, c := range analytic {
		env[i] = cmplx.Abs(c) * scale
	}
	return env
}
