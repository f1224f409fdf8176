package comparison

import (
	"fmt"

	"github.com/RyanBlaney/sonido-eco/algorithms/common"
	"gonum.org/v1/gonum/mat"
)

var rowNormalizer = common.NewNormalizer(common.UnitNorm)

// NormalizeRows scales every coefficient row to unit L2 norm. Rows whose norm
// is exactly zero stay zero. The input is not modified.
func NormalizeRows(m *FeatureMatrix) *FeatureMatrix {
	out := m.Dense()
	rows, _ := out.Dims()
	for c := range rows {
		row := out.RawRowView(c)
		rowNormalizer.NormalizeInPlace(row)
	}
	return m.withData(out)
}

// EqualizeLength pads the shorter matrix with zero frames on the right so
// both have max(Ta, Tb) frames. Both results are new matrices.
func EqualizeLength(a, b *FeatureMatrix) (*FeatureMatrix, *FeatureMatrix, error) {
	if a.Coefficients() != b.Coefficients() {
		return nil, nil, fmt.Errorf("%w: %d vs %d coefficients", ErrShapeMismatch, a.Coefficients(), b.Coefficients())
	}

	width := max(a.Frames(), b.Frames())
	return a.withData(padFrames(a.data, width)), b.withData(padFrames(b.data, width)), nil
}

func padFrames(src *mat.Dense, width int) *mat.Dense {
	rows, cols := src.Dims()
	out := mat.NewDense(rows, width, nil)
	out.Slice(0, rows, 0, cols).(*mat.Dense).Copy(src)
	return out
}
