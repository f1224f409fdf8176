package transcode

import (
	"fmt"

	"github.com/RyanBlaney/sonido-eco/algorithms/common"
	"github.com/RyanBlaney/sonido-eco/logging"
)

// Resample converts sig to targetRate with band-limited windowed-sinc
// interpolation. When the rates already match sig itself is returned.
func Resample(sig *Signal, targetRate int) (*Signal, error) {
	if targetRate <= 0 {
		return nil, fmt.Errorf("%w: invalid target sample rate %d", ErrDecode, targetRate)
	}
	if sig.SampleRate == targetRate {
		return sig, nil
	}

	logger := logging.WithFields(logging.Fields{
		"component": "resampler",
		"function":  "Resample",
		"from_rate": sig.SampleRate,
		"to_rate":   targetRate,
	})

	samples := common.NewInterpolator(common.Lanczos).ResampleSignal(sig.Samples, sig.SampleRate, targetRate)
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: resampling produced no samples", ErrEmptySignal)
	}

	logger.Debug("Signal resampled", logging.Fields{
		"input_samples":  sig.Len(),
		"output_samples": len(samples),
	})

	return sig.withSamples(samples, targetRate), nil
}

// ResampleToMatch resamples sig to the rate of ref. The comparison engine
// always resamples the candidate to the reference, never the other way round.
func ResampleToMatch(sig, ref *Signal) (*Signal, error) {
	return Resample(sig, ref.SampleRate)
}
