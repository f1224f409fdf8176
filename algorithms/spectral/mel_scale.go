package spectral

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MelScale converts between Hz and the HTK mel scale and builds triangular
// mel filter banks.
type MelScale struct{}

// NewMelScale creates a new mel scale converter
func NewMelScale() *MelScale {
	return &MelScale{}
}

// HzToMel converts frequency in Hz to mel scale
func (ms *MelScale) HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mel scale to frequency in Hz
func (ms *MelScale) MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// CreateMelFilterBank returns a numFilters x (fftSize/2+1) matrix of
// triangular filters with edges equally spaced in mel between lowFreq and
// highFreq. Weights are evaluated at each bin's exact centre frequency, so
// narrow low-frequency filters that fall between two bins may be all zero.
func (ms *MelScale) CreateMelFilterBank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) *mat.Dense {
	if numFilters <= 0 || fftSize <= 0 || sampleRate <= 0 {
		return nil
	}

	lowMel := ms.HzToMel(lowFreq)
	highMel := ms.HzToMel(highFreq)

	// numFilters+2 edge frequencies
	edges := make([]float64, numFilters+2)
	melStep := (highMel - lowMel) / float64(numFilters+1)
	for i := range edges {
		edges[i] = ms.MelToHz(lowMel + float64(i)*melStep)
	}

	bins := fftSize/2 + 1
	binHz := float64(sampleRate) / float64(fftSize)

	filterBank := mat.NewDense(numFilters, bins, nil)
	for m := range numFilters {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		for k := range bins {
			f := float64(k) * binHz
			rising := (f - left) / (center - left)
			falling := (right - f) / (right - center)
			if w := math.Min(rising, falling); w > 0 {
				filterBank.Set(m, k, w)
			}
		}
	}

	return filterBank
}

// ApplyFilterBank applies the filter bank to a power spectrum
func (ms *MelScale) ApplyFilterBank(powerSpectrum []float64, filterBank *mat.Dense) []float64 {
	rows, cols := filterBank.Dims()
	if len(powerSpectrum) != cols {
		return nil
	}

	melSpectrum := mat.NewVecDense(rows, nil)
	melSpectrum.MulVec(filterBank, mat.NewVecDense(cols, powerSpectrum))
	return melSpectrum.RawVector().Data
}
