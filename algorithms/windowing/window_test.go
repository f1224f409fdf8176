package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodicHann(t *testing.T) {
	h := NewPeriodicHann(4)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5}, h.Coefficients(), 1e-12)
}

func TestSymmetricHann(t *testing.T) {
	h := NewHann(5, true)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5, 0}, h.Coefficients(), 1e-12)
}

func TestHannApplyInPlace(t *testing.T) {
	h := NewPeriodicHann(4)
	sig := []float64{2, 2, 2, 2}
	require.NoError(t, h.ApplyInPlace(sig))
	assert.InDeltaSlice(t, []float64{0, 1, 2, 1}, sig, 1e-12)

	assert.Error(t, h.ApplyInPlace([]float64{1, 2}))
}

func TestPeriodicHamming(t *testing.T) {
	h := NewHamming(4, false)
	assert.InDeltaSlice(t, []float64{0.08, 0.54, 1, 0.54}, h.Coefficients(), 1e-12)
	assert.Equal(t, HammingType, h.Type())
}

func TestSingleSampleWindow(t *testing.T) {
	assert.Equal(t, []float64{1}, NewHamming(1, true).Coefficients())
	assert.Equal(t, []float64{1}, NewHann(1, false).Coefficients())
}

func TestParseType(t *testing.T) {
	for name, want := range map[string]Type{"": HannType, "Hann": HannType, "hamming": HammingType} {
		got, err := ParseType(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseType("kaiser")
	assert.Error(t, err)
	assert.Equal(t, "hamming", HammingType.String())
}
