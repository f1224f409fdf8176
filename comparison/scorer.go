package comparison

import (
	"fmt"

	"github.com/RyanBlaney/sonido-eco/algorithms/common"
	"github.com/RyanBlaney/sonido-eco/algorithms/stats"
	"github.com/RyanBlaney/sonido-eco/comparison/config"
	"gonum.org/v1/gonum/stat"
)

// SimilarityResult is the outcome of scoring two feature matrices.
//
// PercentageSimilarity comes only from the cosine of the per-coefficient
// means. The alignment fields are diagnostics and never feed the percentage.
type SimilarityResult struct {
	PercentageSimilarity    float64       `json:"percentage_similarity"`
	CosineSimilarity        float64       `json:"cosine_similarity"`
	AlignmentCost           float64       `json:"alignment_cost"`
	NormalizedAlignmentCost float64       `json:"normalized_alignment_cost"`
	DTWSimilarity           *float64      `json:"dtw_similarity,omitempty"`
	Path                    AlignmentPath `json:"path"`
	ReferenceFrames         int           `json:"reference_frames"`
	CandidateFrames         int           `json:"candidate_frames"`
}

// SimilarityScorer scores a candidate matrix against a reference matrix
type SimilarityScorer struct {
	aligner        *Aligner
	maxDTWDistance float64
}

// NewSimilarityScorer creates a scorer. A positive MaxDTWDistance enables
// DTWSimilarity in results.
func NewSimilarityScorer(cfg config.ComparisonConfig) (*SimilarityScorer, error) {
	aligner, err := NewAligner(cfg)
	if err != nil {
		return nil, err
	}
	return &SimilarityScorer{aligner: aligner, maxDTWDistance: cfg.MaxDTWDistance}, nil
}

// NewSimilarityScorerWithAligner creates a scorer around a caller-built
// aligner, e.g. one with a custom local distance
func NewSimilarityScorerWithAligner(aligner *Aligner, maxDTWDistance float64) *SimilarityScorer {
	return &SimilarityScorer{aligner: aligner, maxDTWDistance: max(0, maxDTWDistance)}
}

// NewDefaultSimilarityScorer creates a scorer with Euclidean unconstrained DTW
func NewDefaultSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{aligner: &Aligner{dtw: stats.NewDTWAlignment()}}
}

// Score compares reference and candidate features.
func (s *SimilarityScorer) Score(reference, candidate *FeatureMatrix) (*SimilarityResult, error) {
	if err := validatePair(reference, candidate); err != nil {
		return nil, err
	}

	cos, err := MeanCosineSimilarity(reference, candidate)
	if err != nil {
		return nil, err
	}

	alignment, err := s.aligner.Align(reference, candidate)
	if err != nil {
		return nil, err
	}

	result := &SimilarityResult{
		PercentageSimilarity:    common.Clamp(cos*100, 0, 100),
		CosineSimilarity:        cos,
		AlignmentCost:           alignment.Cost,
		NormalizedAlignmentCost: alignment.NormalizedCost,
		Path:                    alignment.Path,
		ReferenceFrames:         reference.Frames(),
		CandidateFrames:         candidate.Frames(),
	}

	if s.maxDTWDistance > 0 {
		dtwSim := DTWSimilarity(alignment.Cost, s.maxDTWDistance)
		result.DTWSimilarity = &dtwSim
	}

	return result, nil
}

// MeanCosineSimilarity row-normalises both matrices, pads them to equal
// length and returns the cosine between their per-coefficient means,
// clamped to [-1, 1]. A zero mean vector gives 0.
func MeanCosineSimilarity(a, b *FeatureMatrix) (float64, error) {
	na, nb, err := EqualizeLength(NormalizeRows(a), NormalizeRows(b))
	if err != nil {
		return 0, err
	}
	return stats.CosineSimilarity(rowMeans(na), rowMeans(nb)), nil
}

// DTWSimilarity maps an alignment cost to a percentage against maxDistance
func DTWSimilarity(cost, maxDistance float64) float64 {
	if maxDistance <= 0 {
		return 0
	}
	return common.Clamp((1-cost/maxDistance)*100, 0, 100)
}

func rowMeans(m *FeatureMatrix) []float64 {
	means := make([]float64, m.Coefficients())
	for c := range means {
		means[c] = stat.Mean(m.data.RawRowView(c), nil)
	}
	return means
}

// String summarises the result on one line
func (r *SimilarityResult) String() string {
	return fmt.Sprintf("similarity=%.2f%% cosine=%.4f dtw_cost=%.4f frames=%d/%d",
		r.PercentageSimilarity, r.CosineSimilarity, r.AlignmentCost, r.ReferenceFrames, r.CandidateFrames)
}
