package windowing

import (
	"fmt"
	"math"
	"strings"
)

// Type selects a raised-cosine window shape
type Type int

const (
	HannType Type = iota
	HammingType
)

func (t Type) String() string {
	switch t {
	case HammingType:
		return "hamming"
	default:
		return "hann"
	}
}

// ParseType maps a config name to a Type. Empty means Hann.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hann", "hanning":
		return HannType, nil
	case "hamming":
		return HammingType, nil
	default:
		return HannType, fmt.Errorf("unknown window: %q", name)
	}
}

// Window is a raised-cosine window a - (1-a)*cos(2*pi*n/D).
// The periodic form (symmetric=false, D = size) is the usual choice for
// spectral analysis; the symmetric form uses D = size-1.
type Window struct {
	kind         Type
	size         int
	symmetric    bool
	coefficients []float64
}

// New creates a window of the given type
func New(kind Type, size int, symmetric bool) *Window {
	w := &Window{
		kind:      kind,
		size:      size,
		symmetric: symmetric,
	}
	w.generate()
	return w
}

// NewHann creates a new Hann window
func NewHann(size int, symmetric bool) *Window {
	return New(HannType, size, symmetric)
}

// NewPeriodicHann creates the DFT-even Hann window used for STFT framing
func NewPeriodicHann(size int) *Window {
	return New(HannType, size, false)
}

// NewHamming creates a new Hamming window
func NewHamming(size int, symmetric bool) *Window {
	return New(HammingType, size, symmetric)
}

func (w *Window) generate() {
	w.coefficients = make([]float64, w.size)
	if w.size == 1 {
		w.coefficients[0] = 1
		return
	}

	a := 0.5
	if w.kind == HammingType {
		a = 0.54
	}

	denominator := float64(w.size)
	if w.symmetric {
		denominator = float64(w.size - 1)
	}

	for i := range w.size {
		w.coefficients[i] = a - (1-a)*math.Cos(2*math.Pi*float64(i)/denominator)
	}
}

// ApplyInPlace applies the window to a signal in-place
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != w.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), w.size)
	}

	for i, c := range w.coefficients {
		signal[i] *= c
	}

	return nil
}

// Coefficients returns a copy of the window coefficients
func (w *Window) Coefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// Size returns the window size
func (w *Window) Size() int {
	return w.size
}

// Type returns the window shape
func (w *Window) Type() Type {
	return w.kind
}
