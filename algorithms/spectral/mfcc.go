package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MFCC computes Mel-Frequency Cepstral Coefficients from magnitude spectra.
//
// Per frame: power spectrum, mel filter bank, log(1+E) compression and an
// orthonormal DCT-II keeping the first numCoefficients terms. The log1p
// compression maps a silent frame to an all-zero coefficient vector.
type MFCC struct {
	numCoefficients int
	numMelFilters   int
	sampleRate      int
	lowFreq         float64
	highFreq        float64

	melScale   *MelScale
	filterBank *mat.Dense
	dctMatrix  *mat.Dense
	fftSize    int
}

// MFCCParams contains parameters for MFCC computation
type MFCCParams struct {
	NumCoefficients int     `json:"num_coefficients"` // default 13
	NumMelFilters   int     `json:"num_mel_filters"`  // default 128
	LowFreq         float64 `json:"low_freq"`         // default 0
	HighFreq        float64 `json:"high_freq"`        // default sampleRate/2
}

// NewMFCC creates a new MFCC computer with default parameters
func NewMFCC(sampleRate, numCoefficients int) *MFCC {
	return NewMFCCWithParams(sampleRate, MFCCParams{NumCoefficients: numCoefficients})
}

// NewMFCCWithParams creates a new MFCC computer with custom parameters
func NewMFCCWithParams(sampleRate int, params MFCCParams) *MFCC {
	if params.NumCoefficients <= 0 {
		params.NumCoefficients = 13
	}
	if params.NumMelFilters <= 0 {
		params.NumMelFilters = 128
	}
	nyquist := float64(sampleRate) / 2.0
	if params.HighFreq <= 0 || params.HighFreq > nyquist {
		params.HighFreq = nyquist
	}

	return &MFCC{
		numCoefficients: params.NumCoefficients,
		numMelFilters:   params.NumMelFilters,
		sampleRate:      sampleRate,
		lowFreq:         params.LowFreq,
		highFreq:        params.HighFreq,
		melScale:        NewMelScale(),
	}
}

// Initialize prepares the filter bank and DCT matrix for the given FFT size
func (mfcc *MFCC) Initialize(fftSize int) error {
	if fftSize <= 0 {
		return fmt.Errorf("invalid FFT size: %d", fftSize)
	}
	if mfcc.numCoefficients > mfcc.numMelFilters {
		return fmt.Errorf("num coefficients (%d) exceeds num mel filters (%d)", mfcc.numCoefficients, mfcc.numMelFilters)
	}
	if mfcc.lowFreq < 0 || mfcc.lowFreq >= mfcc.highFreq {
		return fmt.Errorf("invalid frequency range [%g, %g]", mfcc.lowFreq, mfcc.highFreq)
	}

	mfcc.filterBank = mfcc.melScale.CreateMelFilterBank(
		mfcc.numMelFilters,
		fftSize,
		mfcc.sampleRate,
		mfcc.lowFreq,
		mfcc.highFreq,
	)
	if mfcc.filterBank == nil {
		return fmt.Errorf("failed to create mel filter bank")
	}

	mfcc.dctMatrix = dctII(mfcc.numCoefficients, mfcc.numMelFilters)
	mfcc.fftSize = fftSize
	return nil
}

// Compute calculates MFCC coefficients from one magnitude spectrum
func (mfcc *MFCC) Compute(magnitudeSpectrum []float64) ([]float64, error) {
	if len(magnitudeSpectrum) == 0 {
		return nil, fmt.Errorf("empty magnitude spectrum")
	}

	fftSize := (len(magnitudeSpectrum) - 1) * 2
	if mfcc.filterBank == nil || mfcc.fftSize != fftSize {
		if err := mfcc.Initialize(fftSize); err != nil {
			return nil, fmt.Errorf("failed to initialize MFCC: %w", err)
		}
	}

	power := make([]float64, len(magnitudeSpectrum))
	for i, m := range magnitudeSpectrum {
		power[i] = m * m
	}

	melSpectrum := mfcc.melScale.ApplyFilterBank(power, mfcc.filterBank)
	for i, e := range melSpectrum {
		melSpectrum[i] = math.Log1p(e)
	}

	coeffs := mat.NewVecDense(mfcc.numCoefficients, nil)
	coeffs.MulVec(mfcc.dctMatrix, mat.NewVecDense(len(melSpectrum), melSpectrum))
	return coeffs.RawVector().Data, nil
}

// ComputeFrames computes coefficients for every frame of a spectrogram.
// The result is numCoefficients x frames, one column per frame.
func (mfcc *MFCC) ComputeFrames(spectrogram [][]float64) (*mat.Dense, error) {
	if len(spectrogram) == 0 {
		return nil, fmt.Errorf("empty spectrogram")
	}

	out := mat.NewDense(mfcc.numCoefficients, len(spectrogram), nil)
	for t, magnitudeSpectrum := range spectrogram {
		coeffs, err := mfcc.Compute(magnitudeSpectrum)
		if err != nil {
			return nil, fmt.Errorf("failed to compute MFCC for frame %d: %w", t, err)
		}
		out.SetCol(t, coeffs)
	}

	return out, nil
}

// dctII builds the orthonormal DCT-II basis, truncated to rows coefficients
func dctII(rows, n int) *mat.Dense {
	d := mat.NewDense(rows, n, nil)
	for k := range rows {
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		for i := range n {
			d.Set(k, i, scale*math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/float64(n)))
		}
	}
	return d
}

// FilterBank returns the mel filter bank (for diagnostics)
func (mfcc *MFCC) FilterBank() *mat.Dense {
	return mfcc.filterBank
}

// Params returns the current MFCC parameters
func (mfcc *MFCC) Params() MFCCParams {
	return MFCCParams{
		NumCoefficients: mfcc.numCoefficients,
		NumMelFilters:   mfcc.numMelFilters,
		LowFreq:         mfcc.lowFreq,
		HighFreq:        mfcc.highFreq,
	}
}
