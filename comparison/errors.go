package comparison

import (
	"errors"

	"github.com/RyanBlaney/sonido-eco/algorithms/stats"
)

var (
	// ErrInsufficientSamples is returned when a signal is shorter than one analysis frame
	ErrInsufficientSamples = errors.New("insufficient samples for one frame")

	// ErrShapeMismatch is returned when two feature matrices have different coefficient counts
	ErrShapeMismatch = errors.New("feature matrix shape mismatch")

	// ErrInvalidFeature is returned when non-finite or malformed features reach the aligner
	ErrInvalidFeature = stats.ErrInvalidFeature

	// ErrNoAlignment is returned when a band constraint leaves no valid path
	ErrNoAlignment = stats.ErrNoAlignment
)
