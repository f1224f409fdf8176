package filters

import (
	"fmt"
)

// PreEmphasis is the first-order high-pass y[n] = x[n] - α*x[n-1].
// It flattens the spectral tilt of voiced speech before MFCC analysis.
// Typical α is 0.95-0.97.
type PreEmphasis struct {
	coefficient float64 // α
	lastSample  float64 // x[n-1]
}

// DefaultPreEmphasisCoefficient is the coefficient widely used for speech
const DefaultPreEmphasisCoefficient = 0.97

// NewPreEmphasis creates a pre-emphasis filter. coefficient must be in [0, 1).
func NewPreEmphasis(coefficient float64) (*PreEmphasis, error) {
	if coefficient < 0.0 || coefficient >= 1.0 {
		return nil, fmt.Errorf("coefficient must be in [0, 1), got %f", coefficient)
	}
	return &PreEmphasis{coefficient: coefficient}, nil
}

// Process filters a single sample
func (pe *PreEmphasis) Process(input float64) float64 {
	output := input - pe.coefficient*pe.lastSample
	pe.lastSample = input
	return output
}

// ProcessBuffer filters a whole buffer, returning a new slice. The filter
// state carries over between calls; call Reset for discontinuous input.
func (pe *PreEmphasis) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = pe.Process(sample)
	}
	return output
}

// Reset clears the filter's internal state
func (pe *PreEmphasis) Reset() {
	pe.lastSample = 0.0
}

// Coefficient returns α
func (pe *PreEmphasis) Coefficient() float64 {
	return pe.coefficient
}
