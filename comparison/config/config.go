package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by the Validate methods.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete configuration of a comparison run.
type Config struct {
	LogLevel   string           `json:"log_level" toml:"log_level" yaml:"log_level"`
	Extractor  ExtractorConfig  `json:"extractor" toml:"extractor" yaml:"extractor"`
	Comparison ComparisonConfig `json:"comparison" toml:"comparison" yaml:"comparison"`
	Loader     LoaderConfig     `json:"loader" toml:"loader" yaml:"loader"`
}

// ExtractorConfig configures MFCC extraction.
//
// FrameLength/HopLength are sample counts. When zero they are derived from
// FrameDuration/HopDuration at the sample rate of the signal being analysed.
type ExtractorConfig struct {
	NumCoefficients int      `json:"num_coefficients" toml:"num_coefficients" yaml:"num_coefficients"` // default 13
	NumMelFilters   int      `json:"num_mel_filters" toml:"num_mel_filters" yaml:"num_mel_filters"`    // default 128
	FrameDuration   Duration `json:"frame_duration" toml:"frame_duration" yaml:"frame_duration"`       // default 25ms
	HopDuration     Duration `json:"hop_duration" toml:"hop_duration" yaml:"hop_duration"`             // default 10ms
	FrameLength     int      `json:"frame_length,omitempty" toml:"frame_length" yaml:"frame_length"`
	HopLength       int      `json:"hop_length,omitempty" toml:"hop_length" yaml:"hop_length"`
	FFTSize         int      `json:"fft_size,omitempty" toml:"fft_size" yaml:"fft_size"` // 0 = next power of two >= frame length
	LowFreq         float64  `json:"low_freq" toml:"low_freq" yaml:"low_freq"`
	HighFreq        float64  `json:"high_freq,omitempty" toml:"high_freq" yaml:"high_freq"`          // 0 = Nyquist
	PreEmphasis     float64  `json:"pre_emphasis,omitempty" toml:"pre_emphasis" yaml:"pre_emphasis"` // 0 disables
	Window          string   `json:"window" toml:"window" yaml:"window"`                             // hann or hamming
}

// ComparisonConfig configures alignment and scoring.
type ComparisonConfig struct {
	DistanceMetric   string  `json:"distance_metric" toml:"distance_metric" yaml:"distance_metric"` // euclidean, manhattan, cosine, chebyshev
	BandRadius       int     `json:"band_radius" toml:"band_radius" yaml:"band_radius"`             // Sakoe-Chiba radius in frames, 0 = none
	MaxDTWDistance   float64 `json:"max_dtw_distance,omitempty" toml:"max_dtw_distance" yaml:"max_dtw_distance"`
	PeakNormalize    bool    `json:"peak_normalize" toml:"peak_normalize" yaml:"peak_normalize"`
	RemoveDC         bool    `json:"remove_dc" toml:"remove_dc" yaml:"remove_dc"` // high-pass below DCCutoff before trimming
	DCCutoff         float64 `json:"dc_cutoff,omitempty" toml:"dc_cutoff" yaml:"dc_cutoff"`
	TrimSilence      bool    `json:"trim_silence" toml:"trim_silence" yaml:"trim_silence"`
	SilenceThreshold float64 `json:"silence_threshold" toml:"silence_threshold" yaml:"silence_threshold"` // RMS, relative to peak 1.0
	Workers          int     `json:"workers" toml:"workers" yaml:"workers"`                               // CompareBatch pool size, 0 = NumCPU
}

// LoaderConfig configures signal decoding.
type LoaderConfig struct {
	EnableFFmpeg bool     `json:"enable_ffmpeg" toml:"enable_ffmpeg" yaml:"enable_ffmpeg"`
	FFmpegPath   string   `json:"ffmpeg_path" toml:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFprobePath  string   `json:"ffprobe_path" toml:"ffprobe_path" yaml:"ffprobe_path"`
	Timeout      Duration `json:"timeout" toml:"timeout" yaml:"timeout"`
	MaxDuration  Duration `json:"max_duration,omitempty" toml:"max_duration" yaml:"max_duration"` // 0 = no limit
}

// Duration wraps time.Duration so it can be written as "25ms" in config files
type Duration struct {
	time.Duration
}

// D is shorthand for building a Duration in code.
func D(d time.Duration) Duration {
	return Duration{Duration: d}
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the full default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "info",
		Extractor:  DefaultExtractorConfig(),
		Comparison: DefaultComparisonConfig(),
		Loader:     DefaultLoaderConfig(),
	}
}

// DefaultExtractorConfig returns conventional speech-processing defaults:
// 13 coefficients, 128 mel filters, 25ms frames every 10ms.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		NumCoefficients: 13,
		NumMelFilters:   128,
		FrameDuration:   D(25 * time.Millisecond),
		HopDuration:     D(10 * time.Millisecond),
		Window:          "hann",
	}
}

// DefaultComparisonConfig returns the default scoring configuration
func DefaultComparisonConfig() ComparisonConfig {
	return ComparisonConfig{
		DistanceMetric:   "euclidean",
		PeakNormalize:    true,
		DCCutoff:         10,
		SilenceThreshold: 0.01,
	}
}

// DefaultLoaderConfig returns default decoder configuration. The ffmpeg
// fallback is off so the library works without external binaries.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		EnableFFmpeg: false,
		FFmpegPath:   "ffmpeg",  // Assume in PATH
		FFprobePath:  "ffprobe", // Assume in PATH
		Timeout:      D(30 * time.Second),
	}
}

// FrameAndHop resolves frame and hop lengths in samples for sampleRate.
func (c ExtractorConfig) FrameAndHop(sampleRate int) (frameLength, hopLength int) {
	frameLength = c.FrameLength
	if frameLength <= 0 {
		frameLength = int(c.FrameDuration.Seconds() * float64(sampleRate))
	}
	hopLength = c.HopLength
	if hopLength <= 0 {
		hopLength = int(c.HopDuration.Seconds() * float64(sampleRate))
	}
	return frameLength, hopLength
}

// Validate checks the extractor configuration
func (c ExtractorConfig) Validate() error {
	if c.NumCoefficients <= 0 {
		return fmt.Errorf("%w: num_coefficients must be positive: %d", ErrInvalidConfig, c.NumCoefficients)
	}
	if c.NumMelFilters <= 0 {
		return fmt.Errorf("%w: num_mel_filters must be positive: %d", ErrInvalidConfig, c.NumMelFilters)
	}
	if c.NumCoefficients > c.NumMelFilters {
		return fmt.Errorf("%w: num_coefficients (%d) exceeds num_mel_filters (%d)",
			ErrInvalidConfig, c.NumCoefficients, c.NumMelFilters)
	}
	if c.FrameLength <= 0 && c.FrameDuration.Duration <= 0 {
		return fmt.Errorf("%w: frame_length or frame_duration is required", ErrInvalidConfig)
	}
	if c.HopLength <= 0 && c.HopDuration.Duration <= 0 {
		return fmt.Errorf("%w: hop_length or hop_duration is required", ErrInvalidConfig)
	}
	if c.FFTSize < 0 {
		return fmt.Errorf("%w: fft_size must not be negative: %d", ErrInvalidConfig, c.FFTSize)
	}
	if c.FrameLength > 0 && c.FFTSize > 0 && c.FFTSize < c.FrameLength {
		return fmt.Errorf("%w: fft_size (%d) smaller than frame_length (%d)", ErrInvalidConfig, c.FFTSize, c.FrameLength)
	}
	if c.LowFreq < 0 || (c.HighFreq > 0 && c.HighFreq <= c.LowFreq) {
		return fmt.Errorf("%w: invalid frequency range [%g, %g]", ErrInvalidConfig, c.LowFreq, c.HighFreq)
	}
	if c.PreEmphasis < 0 || c.PreEmphasis >= 1 {
		return fmt.Errorf("%w: pre_emphasis must be in [0, 1): %g", ErrInvalidConfig, c.PreEmphasis)
	}
	switch strings.ToLower(c.Window) {
	case "", "hann", "hanning", "hamming":
	default:
		return fmt.Errorf("%w: unknown window %q", ErrInvalidConfig, c.Window)
	}
	return nil
}

// Validate checks the comparison configuration
func (c ComparisonConfig) Validate() error {
	switch strings.ToLower(c.DistanceMetric) {
	case "", "euclidean", "manhattan", "cosine", "chebyshev":
	default:
		return fmt.Errorf("%w: unknown distance_metric %q", ErrInvalidConfig, c.DistanceMetric)
	}
	if c.BandRadius < 0 {
		return fmt.Errorf("%w: band_radius must not be negative: %d", ErrInvalidConfig, c.BandRadius)
	}
	if c.MaxDTWDistance < 0 {
		return fmt.Errorf("%w: max_dtw_distance must not be negative: %g", ErrInvalidConfig, c.MaxDTWDistance)
	}
	if c.RemoveDC && c.DCCutoff <= 0 {
		return fmt.Errorf("%w: dc_cutoff must be positive when remove_dc is set: %g", ErrInvalidConfig, c.DCCutoff)
	}
	if c.SilenceThreshold < 0 || c.SilenceThreshold >= 1 {
		return fmt.Errorf("%w: silence_threshold must be in [0, 1): %g", ErrInvalidConfig, c.SilenceThreshold)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative: %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// Validate checks the loader configuration
func (c LoaderConfig) Validate() error {
	if c.EnableFFmpeg && (c.FFmpegPath == "" || c.FFprobePath == "") {
		return fmt.Errorf("%w: ffmpeg_path and ffprobe_path are required when ffmpeg is enabled", ErrInvalidConfig)
	}
	if c.Timeout.Duration < 0 || c.MaxDuration.Duration < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Extractor.Validate(); err != nil {
		return fmt.Errorf("extractor: %w", err)
	}
	if err := c.Comparison.Validate(); err != nil {
		return fmt.Errorf("comparison: %w", err)
	}
	if err := c.Loader.Validate(); err != nil {
		return fmt.Errorf("loader: %w", err)
	}
	return nil
}

// Load reads a TOML, YAML or JSON file (chosen by extension) on top of
// DefaultConfig and validates the result.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
