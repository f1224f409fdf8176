package comparison

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-eco/algorithms/common"
	"gonum.org/v1/gonum/mat"
)

// FeatureMatrix is a C x T matrix of cepstral coefficients, one column per
// analysis frame. It is immutable; accessors return copies.
type FeatureMatrix struct {
	data       *mat.Dense
	sampleRate int
	hopLength  int
}

// NewFeatureMatrix wraps data, which must have at least one row and column.
// The matrix is copied. sampleRate and hopLength may be 0 when unknown.
func NewFeatureMatrix(data mat.Matrix, sampleRate, hopLength int) (*FeatureMatrix, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrInvalidFeature)
	}
	if r, c := data.Dims(); r == 0 || c == 0 {
		return nil, fmt.Errorf("%w: empty %dx%d matrix", ErrInvalidFeature, r, c)
	}
	return &FeatureMatrix{
		data:       mat.DenseCopyOf(data),
		sampleRate: sampleRate,
		hopLength:  hopLength,
	}, nil
}

// NewFeatureMatrixFromRows builds a matrix from coefficient rows of equal length
func NewFeatureMatrixFromRows(rows [][]float64) (*FeatureMatrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrInvalidFeature)
	}

	frames := len(rows[0])
	d := mat.NewDense(len(rows), frames, nil)
	for c, row := range rows {
		if len(row) != frames {
			return nil, fmt.Errorf("%w: row %d has %d frames, want %d", ErrInvalidFeature, c, len(row), frames)
		}
		d.SetRow(c, row)
	}
	return &FeatureMatrix{data: d}, nil
}

// withData returns a matrix sharing m's metadata but holding data
func (m *FeatureMatrix) withData(data *mat.Dense) *FeatureMatrix {
	return &FeatureMatrix{data: data, sampleRate: m.sampleRate, hopLength: m.hopLength}
}

// Coefficients returns C, the number of rows
func (m *FeatureMatrix) Coefficients() int {
	r, _ := m.data.Dims()
	return r
}

// Frames returns T, the number of columns
func (m *FeatureMatrix) Frames() int {
	_, c := m.data.Dims()
	return c
}

// At returns coefficient c of frame t
func (m *FeatureMatrix) At(c, t int) float64 {
	return m.data.At(c, t)
}

// Row returns a copy of coefficient row c across all frames
func (m *FeatureMatrix) Row(c int) []float64 {
	return mat.Row(nil, c, m.data)
}

// Frame returns a copy of the coefficient vector of frame t
func (m *FeatureMatrix) Frame(t int) []float64 {
	return mat.Col(nil, t, m.data)
}

// FrameVectors returns every frame as its own coefficient vector
func (m *FeatureMatrix) FrameVectors() [][]float64 {
	out := make([][]float64, m.Frames())
	for t := range out {
		out[t] = m.Frame(t)
	}
	return out
}

// Dense returns a copy of the underlying matrix
func (m *FeatureMatrix) Dense() *mat.Dense {
	return mat.DenseCopyOf(m.data)
}

// SampleRate returns the rate of the signal the features came from, or 0
func (m *FeatureMatrix) SampleRate() int {
	return m.sampleRate
}

// HopLength returns the hop in samples between frames, or 0
func (m *FeatureMatrix) HopLength() int {
	return m.hopLength
}

// FrameTime returns the start time of frame t, or 0 without timing metadata
func (m *FeatureMatrix) FrameTime(t int) time.Duration {
	if m.sampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(t) * int64(m.hopLength) * int64(time.Second) / int64(m.sampleRate))
}

// Finite reports whether every value is finite
func (m *FeatureMatrix) Finite() bool {
	return common.AllFinite(m.data.RawMatrix().Data)
}

// MarshalJSON encodes the matrix as its coefficient rows
func (m *FeatureMatrix) MarshalJSON() ([]byte, error) {
	rows := make([][]float64, m.Coefficients())
	for c := range rows {
		rows[c] = m.Row(c)
	}
	return json.Marshal(struct {
		SampleRate int         `json:"sample_rate,omitempty"`
		HopLength  int         `json:"hop_length,omitempty"`
		Rows       [][]float64 `json:"rows"`
	}{m.sampleRate, m.hopLength, rows})
}
