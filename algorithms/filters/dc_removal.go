package filters

import (
	"fmt"
	"math"
)

// DCRemoval is a one-pole DC blocker:
//
//	y[n] = x[n] - x[n-1] + R*y[n-1]
//
// with R = 1 - 2*pi*fc/fs, valid for fc much smaller than fs/2.
type DCRemoval struct {
	poleLocation float64

	x1 float64 // x[n-1]
	y1 float64 // y[n-1]
}

// NewDCRemovalWithCutoff creates a DC blocker with an approximate -3dB
// cutoff of cutoffFreq Hz at sampleRate.
func NewDCRemovalWithCutoff(sampleRate int, cutoffFreq float64) (*DCRemoval, error) {
	if sampleRate <= 0 || cutoffFreq <= 0 || cutoffFreq >= float64(sampleRate)/2 {
		return nil, fmt.Errorf("invalid DC cutoff %g Hz at %d Hz", cutoffFreq, sampleRate)
	}

	pole := 1.0 - 2.0*math.Pi*cutoffFreq/float64(sampleRate)
	return &DCRemoval{poleLocation: min(0.9999, max(0.001, pole))}, nil
}

// Process filters one sample
func (dc *DCRemoval) Process(input float64) float64 {
	output := input - dc.x1 + dc.poleLocation*dc.y1
	dc.x1 = input
	dc.y1 = output
	return output
}

// ProcessBuffer filters a buffer into a new slice, continuing from the
// current state.
func (dc *DCRemoval) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = dc.Process(sample)
	}
	return output
}

// Reset clears the filter state
func (dc *DCRemoval) Reset() {
	dc.x1 = 0
	dc.y1 = 0
}

// PoleLocation returns R
func (dc *DCRemoval) PoleLocation() float64 {
	return dc.poleLocation
}

// CutoffFrequency returns the approximate -3dB cutoff at sampleRate
func (dc *DCRemoval) CutoffFrequency(sampleRate int) float64 {
	return (1.0 - dc.poleLocation) * float64(sampleRate) / (2.0 * math.Pi)
}
