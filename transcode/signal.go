package transcode

import (
	"errors"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-eco/algorithms/common"
)

var (
	// ErrDecode is returned when a source cannot be parsed as audio
	ErrDecode = errors.New("decode failed")

	// ErrEmptySignal is returned when a source decodes to zero samples
	ErrEmptySignal = errors.New("empty signal")

	// ErrSampleRateMismatch is returned by operations that require two
	// signals at the same rate and do not resample
	ErrSampleRateMismatch = errors.New("sample rate mismatch")

	// ErrFFmpegUnavailable is returned when the ffmpeg fallback is enabled
	// but its binaries cannot be executed
	ErrFFmpegUnavailable = errors.New("ffmpeg unavailable")
)

// Signal is a mono PCM signal. It is not modified after construction;
// every transformation returns a new Signal.
type Signal struct {
	Samples    []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"` // channel count of the source before down-mixing
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source,omitempty"`
	Format     string        `json:"format,omitempty"` // wav, mp3, pcm or the ffmpeg codec name
}

// NewSignal builds a Signal over samples without copying them
func NewSignal(samples []float64, sampleRate int) (*Signal, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %d", ErrDecode, sampleRate)
	}
	if len(samples) == 0 {
		return nil, ErrEmptySignal
	}

	return &Signal{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   samplesToDuration(len(samples), sampleRate),
		Format:     "pcm",
	}, nil
}

func samplesToDuration(n, sampleRate int) time.Duration {
	return time.Duration(int64(n) * int64(time.Second) / int64(sampleRate))
}

// Len returns the number of samples
func (s *Signal) Len() int {
	return len(s.Samples)
}

// withSamples returns a copy of s carrying samples instead
func (s *Signal) withSamples(samples []float64, sampleRate int) *Signal {
	cp := *s
	cp.Samples = samples
	cp.SampleRate = sampleRate
	cp.Duration = samplesToDuration(len(samples), sampleRate)
	return &cp
}

// PeakNormalized returns a copy scaled so max |x| is 1. An all-zero signal
// is returned unchanged.
func (s *Signal) PeakNormalized() *Signal {
	if common.PeakAbs(s.Samples) == 0 {
		return s
	}
	return s.withSamples(common.NewNormalizer(common.Peak).Normalize(s.Samples), s.SampleRate)
}

// Slice returns the [start, end) sample range as a new Signal sharing the
// underlying samples. Out-of-range bounds are clamped.
func (s *Signal) Slice(start, end int) *Signal {
	start = max(0, min(start, len(s.Samples)))
	end = max(start, min(end, len(s.Samples)))
	return s.withSamples(s.Samples[start:end], s.SampleRate)
}

// RequireSameRate fails with ErrSampleRateMismatch unless both signals share a rate
func RequireSameRate(a, b *Signal) error {
	if a.SampleRate != b.SampleRate {
		return fmt.Errorf("%w: %d Hz vs %d Hz", ErrSampleRateMismatch, a.SampleRate, b.SampleRate)
	}
	return nil
}
