package comparison

import (
	"time"

	"github.com/RyanBlaney/sonido-eco/algorithms/temporal"
)

// SignalSummary describes one side of a comparison after preprocessing
type SignalSummary struct {
	Source     string        `json:"source,omitempty"`
	Format     string        `json:"format,omitempty"`
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
	Frames     int           `json:"frames"`
	Trimmed    bool          `json:"trimmed,omitempty"`

	Levels temporal.LevelStats `json:"levels"`
}

// Report is the full outcome of a comparison
type Report struct {
	Result         *SimilarityResult `json:"result"`
	Reference      SignalSummary     `json:"reference"`
	Candidate      SignalSummary     `json:"candidate"`
	Resampled      bool              `json:"resampled"` // candidate was resampled to the reference rate
	ProcessingTime time.Duration     `json:"processing_time"`
}

// Pair names two files to compare
type Pair struct {
	Reference string `json:"reference"`
	Candidate string `json:"candidate"`
}

// BatchResult is the outcome of one pair in CompareBatch. Exactly one of
// Report and Err is set.
type BatchResult struct {
	Pair   Pair    `json:"pair"`
	Report *Report `json:"report,omitempty"`
	Err    error   `json:"-"`
	Error  string  `json:"error,omitempty"`
}

// HashComparison holds MD5 digests of two files
type HashComparison struct {
	ReferenceMD5 string `json:"reference_md5"`
	CandidateMD5 string `json:"candidate_md5"`
	Identical    bool   `json:"identical"`
}
