package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the FFT of a real signal using mjibson/go-dsp
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes, including non-power-of-2
	return fft.FFTReal(x)
}

// Magnitude writes |X[k]| for the fftSize/2+1 non-negative frequency bins of
// frame into dst. frame is zero-padded (or truncated) to fftSize.
func (f *FFT) Magnitude(frame []float64, fftSize int, dst []float64) []float64 {
	bins := fftSize/2 + 1
	if cap(dst) < bins {
		dst = make([]float64, bins)
	}
	dst = dst[:bins]

	padded := frame
	if len(frame) != fftSize {
		padded = make([]float64, fftSize)
		copy(padded, frame)
	}

	spectrum := f.Compute(padded)
	for k := range bins {
		dst[k] = cmplx.Abs(spectrum[k])
	}
	return dst
}
