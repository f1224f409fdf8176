package comparison

import (
	"fmt"

	"github.com/RyanBlaney/sonido-eco/algorithms/stats"
	"github.com/RyanBlaney/sonido-eco/comparison/config"
	"github.com/RyanBlaney/sonido-eco/logging"
)

// AlignmentPath is a monotonic warping path from (0,0) to (Ta-1, Tb-1).
// QueryIndex indexes the first matrix passed to Align, RefIndex the second.
type AlignmentPath []stats.AlignPoint

// Alignment is the result of aligning two feature matrices
type Alignment struct {
	Cost           float64       `json:"cost"`
	NormalizedCost float64       `json:"normalized_cost"`
	Path           AlignmentPath `json:"path"`
}

// Aligner runs DTW over the frames of two feature matrices
type Aligner struct {
	dtw *stats.DTWAlignment
}

// NewAligner creates an aligner from the comparison configuration
func NewAligner(cfg config.ComparisonConfig) (*Aligner, error) {
	metric, err := stats.ParseDistanceMetric(cfg.DistanceMetric)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return &Aligner{dtw: stats.NewDTWAlignmentWithParams(cfg.BandRadius, metric)}, nil
}

// NewAlignerWithDistance creates an unconstrained aligner with a custom
// local distance. fn should be symmetric.
func NewAlignerWithDistance(fn stats.DistanceFunction) *Aligner {
	return &Aligner{dtw: stats.NewDTWAlignment().WithDistanceFunction(fn)}
}

// Align returns the cumulative cost and warping path between a and b
func (al *Aligner) Align(a, b *FeatureMatrix) (*Alignment, error) {
	if err := validatePair(a, b); err != nil {
		return nil, err
	}

	result, err := al.dtw.Align(a.FrameVectors(), b.FrameVectors())
	if err != nil {
		return nil, err
	}

	logging.Debug("Frames aligned", logging.Fields{
		"component":   "aligner",
		"a_frames":    result.QueryLength,
		"b_frames":    result.RefLength,
		"path_length": len(result.Path),
		"cost":        result.Distance,
	})

	return &Alignment{
		Cost:           result.Distance,
		NormalizedCost: result.NormalizedDistance,
		Path:           result.Path,
	}, nil
}

// Cost returns only the cumulative cost, using O(Tb) memory
func (al *Aligner) Cost(a, b *FeatureMatrix) (float64, error) {
	if err := validatePair(a, b); err != nil {
		return 0, err
	}
	return al.dtw.Cost(a.FrameVectors(), b.FrameVectors())
}

func validatePair(a, b *FeatureMatrix) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: nil feature matrix", ErrInvalidFeature)
	}
	if a.Coefficients() != b.Coefficients() {
		return fmt.Errorf("%w: %d vs %d coefficients", ErrInvalidFeature, a.Coefficients(), b.Coefficients())
	}
	if !a.Finite() || !b.Finite() {
		return fmt.Errorf("%w: non-finite coefficient", ErrInvalidFeature)
	}
	return nil
}
