package comparison

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-eco/algorithms/common"
	"github.com/RyanBlaney/sonido-eco/algorithms/filters"
	"github.com/RyanBlaney/sonido-eco/algorithms/spectral"
	"github.com/RyanBlaney/sonido-eco/algorithms/windowing"
	"github.com/RyanBlaney/sonido-eco/comparison/config"
	"github.com/RyanBlaney/sonido-eco/logging"
	"github.com/RyanBlaney/sonido-eco/transcode"
)

// FeatureExtractor turns a mono signal into an MFCC matrix
type FeatureExtractor struct {
	config config.ExtractorConfig
	stft   *spectral.STFT
}

// NewFeatureExtractor validates cfg and creates an extractor
func NewFeatureExtractor(cfg config.ExtractorConfig) (*FeatureExtractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FeatureExtractor{
		config: cfg,
		stft:   spectral.NewSTFT(),
	}, nil
}

// Config returns the extractor configuration
func (fe *FeatureExtractor) Config() config.ExtractorConfig {
	return fe.config
}

// ExtractMFCC computes a C x T cepstral matrix. Frames are windowed with a
// periodic Hann (or Hamming) window and zero-padded to the FFT size before
// the mel bank.
func (fe *FeatureExtractor) ExtractMFCC(sig *transcode.Signal) (*FeatureMatrix, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "feature_extractor",
		"function":  "ExtractMFCC",
	})

	if sig == nil || sig.Len() == 0 {
		return nil, transcode.ErrEmptySignal
	}
	if sig.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %d", transcode.ErrDecode, sig.SampleRate)
	}

	frameLength, hopLength := fe.config.FrameAndHop(sig.SampleRate)
	if frameLength <= 0 || hopLength <= 0 {
		return nil, fmt.Errorf("%w: frame %d / hop %d samples at %d Hz", ErrInsufficientSamples, frameLength, hopLength, sig.SampleRate)
	}
	if sig.Len() < frameLength {
		return nil, fmt.Errorf("%w: %d samples, frame length %d", ErrInsufficientSamples, sig.Len(), frameLength)
	}

	fftSize := fe.config.FFTSize
	if fftSize <= 0 {
		fftSize = common.NextPowerOfTwo(frameLength)
	}
	// frame_duration only resolves to samples here
	if fftSize < frameLength {
		return nil, fmt.Errorf("%w: fft_size (%d) smaller than frame length (%d) at %d Hz",
			config.ErrInvalidConfig, fftSize, frameLength, sig.SampleRate)
	}

	samples := sig.Samples
	if fe.config.PreEmphasis > 0 {
		pe, err := filters.NewPreEmphasis(fe.config.PreEmphasis)
		if err != nil {
			return nil, err
		}
		samples = pe.ProcessBuffer(samples)
	}

	logger.Debug("Extracting MFCC", logging.Fields{
		"samples":      len(samples),
		"sample_rate":  sig.SampleRate,
		"frame_length": frameLength,
		"hop_length":   hopLength,
		"fft_size":     fftSize,
		"window":       fe.config.Window,
	})

	windowType, err := windowing.ParseType(fe.config.Window)
	if err != nil {
		return nil, err
	}

	spectrogram, err := fe.stft.ComputeWithWindow(samples, frameLength, hopLength, fftSize, sig.SampleRate, windowing.New(windowType, frameLength, false))
	if err != nil {
		if errors.Is(err, spectral.ErrSignalTooShort) {
			return nil, fmt.Errorf("%w: %w", ErrInsufficientSamples, err)
		}
		logger.Error(err, "STFT failed")
		return nil, err
	}

	mfcc := spectral.NewMFCCWithParams(sig.SampleRate, spectral.MFCCParams{
		NumCoefficients: fe.config.NumCoefficients,
		NumMelFilters:   fe.config.NumMelFilters,
		LowFreq:         fe.config.LowFreq,
		HighFreq:        fe.config.HighFreq,
	})
	if err := mfcc.Initialize(fftSize); err != nil {
		return nil, err
	}

	coeffs, err := mfcc.ComputeFrames(spectrogram.Magnitude)
	if err != nil {
		logger.Error(err, "MFCC computation failed")
		return nil, err
	}

	features := &FeatureMatrix{data: coeffs, sampleRate: sig.SampleRate, hopLength: hopLength}
	if !features.Finite() {
		return nil, fmt.Errorf("%w: non-finite MFCC output", ErrInvalidFeature)
	}

	logger.Debug("MFCC extracted", logging.Fields{
		"coefficients": features.Coefficients(),
		"frames":       features.Frames(),
	})

	return features, nil
}
