package common

import (
	"gonum.org/v1/gonum/floats"
)

// NormalizationType defines normalization method
type NormalizationType int

const (
	// Peak divides by the largest absolute sample
	Peak NormalizationType = iota
	// RMSNorm divides by the root mean square
	RMSNorm
	// UnitNorm divides by the L2 norm, giving a unit-length vector
	UnitNorm
)

// Normalizer scales a vector by one of the NormalizationType factors.
// A vector whose factor is exactly zero is returned as an unchanged copy,
// so all-zero input never produces NaN.
type Normalizer struct {
	method NormalizationType
}

// NewNormalizer creates a new normalizer
func NewNormalizer(method NormalizationType) *Normalizer {
	return &Normalizer{
		method: method,
	}
}

// Normalize returns a normalised copy of signal
func (n *Normalizer) Normalize(signal []float64) []float64 {
	normalized := make([]float64, len(signal))
	copy(normalized, signal)
	n.NormalizeInPlace(normalized)
	return normalized
}

// NormalizeInPlace normalizes signal in place
func (n *Normalizer) NormalizeInPlace(signal []float64) {
	if len(signal) == 0 {
		return
	}

	var factor float64
	switch n.method {
	case Peak:
		factor = PeakAbs(signal)
	case RMSNorm:
		factor = RMS(signal)
	default:
		factor = floats.Norm(signal, 2)
	}

	if factor == 0 {
		return
	}
	floats.Scale(1/factor, signal)
}
