package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrEmptySequence is returned when either sequence has no frames
	ErrEmptySequence = errors.New("empty sequence")

	// ErrInvalidFeature is returned for NaN/Inf values, ragged frames or
	// frames of different dimension. It indicates an upstream extraction bug.
	ErrInvalidFeature = errors.New("invalid feature value")

	// ErrNoAlignment is returned when the band constraint makes the end cell unreachable
	ErrNoAlignment = errors.New("no alignment within band")
)

// DTWAlignment computes Dynamic Time Warping between two sequences of
// equal-dimension feature vectors.
//
// The cumulative cost table is a single flat slice of (n+1)*(m+1) cells with
// D[0][0] = 0 and the rest of row 0 and column 0 at +Inf. Each interior cell is
//
//	D[i][j] = d(q[i-1], r[j-1]) + min(D[i-1][j-1], D[i-1][j], D[i][j-1])
//
// The path is recovered iteratively from (n, m). On equal predecessor costs
// the diagonal is preferred, then the vertical step (i-1, j), then the
// horizontal step (i, j-1), which makes the result deterministic.
type DTWAlignment struct {
	bandRadius int // Sakoe-Chiba radius, 0 disables the band
	metric     DistanceMetric
	distance   DistanceFunction
}

// DTWResult contains DTW alignment results
type DTWResult struct {
	Distance           float64      `json:"distance"`            // D[n][m]
	NormalizedDistance float64      `json:"normalized_distance"` // Distance / len(Path)
	Path               []AlignPoint `json:"path"`
	QueryLength        int          `json:"query_length"`
	RefLength          int          `json:"ref_length"`
	BandRadius         int          `json:"band_radius"`
}

// AlignPoint represents a point in the alignment path
type AlignPoint struct {
	QueryIndex int     `json:"query_index"` // Index in query sequence
	RefIndex   int     `json:"ref_index"`   // Index in reference sequence
	Cost       float64 `json:"cost"`        // Local cost at this point
}

// NewDTWAlignment creates an unconstrained Euclidean DTW
func NewDTWAlignment() *DTWAlignment {
	return NewDTWAlignmentWithParams(0, EuclideanDistance)
}

// NewDTWAlignmentWithParams creates DTW with a band radius and distance metric.
// A negative radius is treated as 0.
func NewDTWAlignmentWithParams(bandRadius int, metric DistanceMetric) *DTWAlignment {
	return &DTWAlignment{
		bandRadius: max(0, bandRadius),
		metric:     metric,
		distance:   GetDistanceFunction(metric),
	}
}

// WithDistanceFunction returns a copy that uses fn as local distance.
// fn must be symmetric for Align(a,b) and Align(b,a) to agree on cost.
func (dtw *DTWAlignment) WithDistanceFunction(fn DistanceFunction) *DTWAlignment {
	cp := *dtw
	cp.distance = fn
	return &cp
}

// Metric returns the configured built-in metric
func (dtw *DTWAlignment) Metric() DistanceMetric {
	return dtw.metric
}

// Align performs DTW alignment between two sequences and recovers the path
func (dtw *DTWAlignment) Align(query, reference [][]float64) (*DTWResult, error) {
	if err := validateSequences(query, reference); err != nil {
		return nil, err
	}

	n, m := len(query), len(reference)
	cols := m + 1

	table := make([]float64, (n+1)*cols)
	for i := range table {
		table[i] = math.Inf(1)
	}
	table[0] = 0

	for i := 1; i <= n; i++ {
		lo, hi := dtw.bandLimits(i, m)
		row := i * cols
		prev := (i - 1) * cols
		for j := lo; j <= hi; j++ {
			local, err := dtw.localDistance(query[i-1], reference[j-1], i-1, j-1)
			if err != nil {
				return nil, err
			}

			best := min(table[prev+j-1], table[prev+j], table[row+j-1])
			if math.IsInf(best, 1) {
				continue
			}
			table[row+j] = local + best
		}
	}

	total := table[n*cols+m]
	if math.IsInf(total, 1) {
		return nil, fmt.Errorf("%w: lengths %d and %d, radius %d", ErrNoAlignment, n, m, dtw.bandRadius)
	}

	path, err := backtrack(table, n, m)
	if err != nil {
		return nil, err
	}

	return &DTWResult{
		Distance:           total,
		NormalizedDistance: total / float64(len(path)),
		Path:               path,
		QueryLength:        n,
		RefLength:          m,
		BandRadius:         dtw.bandRadius,
	}, nil
}

// Cost computes D[n][m] with two rolling rows and no path, using O(m) memory
func (dtw *DTWAlignment) Cost(query, reference [][]float64) (float64, error) {
	if err := validateSequences(query, reference); err != nil {
		return 0, err
	}

	n, m := len(query), len(reference)
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := range prev {
		prev[j] = math.Inf(1)
	}
	prev[0] = 0

	for i := 1; i <= n; i++ {
		for j := range curr {
			curr[j] = math.Inf(1)
		}

		lo, hi := dtw.bandLimits(i, m)
		for j := lo; j <= hi; j++ {
			local, err := dtw.localDistance(query[i-1], reference[j-1], i-1, j-1)
			if err != nil {
				return 0, err
			}

			best := min(prev[j-1], prev[j], curr[j-1])
			if !math.IsInf(best, 1) {
				curr[j] = local + best
			}
		}
		prev, curr = curr, prev
	}

	if math.IsInf(prev[m], 1) {
		return 0, fmt.Errorf("%w: lengths %d and %d, radius %d", ErrNoAlignment, n, m, dtw.bandRadius)
	}
	return prev[m], nil
}

// bandLimits returns the inclusive column range evaluated for row i
func (dtw *DTWAlignment) bandLimits(i, m int) (int, int) {
	if dtw.bandRadius <= 0 {
		return 1, m
	}
	return max(1, i-dtw.bandRadius), min(m, i+dtw.bandRadius)
}

func (dtw *DTWAlignment) localDistance(a, b []float64, i, j int) (float64, error) {
	d := dtw.distance(a, b)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("%w: local distance %v at (%d, %d)", ErrInvalidFeature, d, i, j)
	}
	return d, nil
}

// backtrack walks from (n, m) to (1, 1) choosing the cheapest predecessor
// with diagonal, vertical, horizontal tie-break order, then reverses the path.
func backtrack(table []float64, n, m int) ([]AlignPoint, error) {
	cols := m + 1
	at := func(i, j int) float64 { return table[i*cols+j] }

	path := make([]AlignPoint, 0, n+m-1)
	i, j := n, m
	for i > 0 && j > 0 {
		diag, up, left := at(i-1, j-1), at(i-1, j), at(i, j-1)

		pi, pj := i-1, j-1
		switch {
		case diag <= up && diag <= left:
		case up <= left:
			pi, pj = i-1, j
		default:
			pi, pj = i, j-1
		}

		cost := at(i, j)
		if pi > 0 || pj > 0 {
			cost -= at(pi, pj)
		}
		path = append(path, AlignPoint{QueryIndex: i - 1, RefIndex: j - 1, Cost: cost})
		i, j = pi, pj
	}

	if i != 0 || j != 0 {
		return nil, fmt.Errorf("%w: backtrack stopped at (%d, %d)", ErrNoAlignment, i, j)
	}

	slices.Reverse(path)
	return path, nil
}

func validateSequences(query, reference [][]float64) error {
	if len(query) == 0 || len(reference) == 0 {
		return fmt.Errorf("%w: lengths %d and %d", ErrEmptySequence, len(query), len(reference))
	}

	dim := len(query[0])
	if dim == 0 {
		return fmt.Errorf("%w: zero-dimension frames", ErrInvalidFeature)
	}

	check := func(name string, seq [][]float64) error {
		for t, frame := range seq {
			if len(frame) != dim {
				return fmt.Errorf("%w: %s frame %d has dimension %d, want %d", ErrInvalidFeature, name, t, len(frame), dim)
			}
			for c, v := range frame {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("%w: %s frame %d coefficient %d is %v", ErrInvalidFeature, name, t, c, v)
				}
			}
		}
		return nil
	}

	if err := check("query", query); err != nil {
		return err
	}
	return check("reference", reference)
}
