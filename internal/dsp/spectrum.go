package dsp

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// SpectrumAnalyzer computes the magnitude of the first half of the real
// spectrum of fixed-size blocks. It is a diagnostic/visualization aid and
// plays no part in classification. The FFT plan and coefficient buffer are
// reused across calls; the analyzer is not safe for concurrent use.
type SpectrumAnalyzer struct {
	fft    *fourier.FFT
	coeffs []complex128
	n      int
}

// NewSpectrumAnalyzer creates an analyzer for blocks of n samples.
func NewSpectrumAnalyzer(n int) (*SpectrumAnalyzer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", n)
	}
	fft := fourier.NewFFT(n)
	return &SpectrumAnalyzer{
		fft:    fft,
		coeffs: make([]complex128, n/2+1),
		n:      n,
	}, nil
}

// BlockSize returns the expected input length.
func (a *SpectrumAnalyzer) BlockSize() int {
	return a.n
}

// Bins returns the number of magnitude bins produced per block.
func (a *SpectrumAnalyzer) Bins() int {
	return a.n / 2
}

// BinWidth returns the frequency resolution in Hz for the given sample rate.
func (a *SpectrumAnalyzer) BinWidth(sampleRate float64) float64 {
	return sampleRate / float64(a.n)
}

// Magnitudes fills dst with the magnitude of the first n/2 bins of the real
// spectrum of x. len(x) must equal the block size and len(dst) must be at
// least n/2.
func (a *SpectrumAnalyzer) Magnitudes(x []float64, dst []float64) error {
	if len(x) != a.n {
		return fmt.Errorf("expected %d samples, got %d", a.n, len(x))
	}
	if len(dst) < a.n/2 {
		return fmt.Errorf("destination too small: need %d bins, have %d", a.n/2, len(dst))
	}
	a.fft.Coefficients(a.coeffs, x)
	for i := 0; i < a.n/2; i++ {
		dst[i] = cmplx.Abs(a.coeffs[i])
	}
	return nil
}
