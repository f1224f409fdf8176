package stats

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DistanceMetric selects the local distance between two feature vectors
type DistanceMetric int

const (
	EuclideanDistance DistanceMetric = iota
	ManhattanDistance
	CosineDistance
	ChebyshevDistance
)

// DistanceFunction is a function type for computing distance between two vectors.
// Both vectors have the same length.
type DistanceFunction func(a, b []float64) float64

// String returns the config name of the metric
func (m DistanceMetric) String() string {
	switch m {
	case EuclideanDistance:
		return "euclidean"
	case ManhattanDistance:
		return "manhattan"
	case CosineDistance:
		return "cosine"
	case ChebyshevDistance:
		return "chebyshev"
	default:
		return "unknown"
	}
}

// ParseDistanceMetric maps a config name to a DistanceMetric. Empty means Euclidean.
func ParseDistanceMetric(name string) (DistanceMetric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "euclidean":
		return EuclideanDistance, nil
	case "manhattan":
		return ManhattanDistance, nil
	case "cosine":
		return CosineDistance, nil
	case "chebyshev":
		return ChebyshevDistance, nil
	default:
		return EuclideanDistance, fmt.Errorf("unknown distance metric: %q", name)
	}
}

// GetDistanceFunction returns the distance function for the given metric
func GetDistanceFunction(metric DistanceMetric) DistanceFunction {
	switch metric {
	case ManhattanDistance:
		return ManhattanDistanceFunc
	case CosineDistance:
		return CosineDistanceFunc
	case ChebyshevDistance:
		return ChebyshevDistanceFunc
	default:
		return EuclideanDistanceFunc
	}
}

// EuclideanDistanceFunc calculates Euclidean (L2) distance
func EuclideanDistanceFunc(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// ManhattanDistanceFunc calculates Manhattan (L1) distance
func ManhattanDistanceFunc(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// ChebyshevDistanceFunc calculates Chebyshev (L-infinity) distance
func ChebyshevDistanceFunc(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}

// CosineDistanceFunc calculates 1 - cosine similarity. A zero vector is at
// distance 1 from everything, including another zero vector.
func CosineDistanceFunc(a, b []float64) float64 {
	return 1.0 - CosineSimilarity(a, b)
}

// CosineSimilarity returns dot(a,b)/(|a||b|) clamped to [-1, 1], or 0 when
// either vector has zero norm.
func CosineSimilarity(a, b []float64) float64 {
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0.0
	}

	cos := floats.Dot(a, b) / (normA * normB)
	return math.Max(-1, math.Min(1, cos))
}
