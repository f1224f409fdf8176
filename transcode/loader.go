package transcode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/RyanBlaney/sonido-eco/comparison/config"
	"github.com/RyanBlaney/sonido-eco/logging"
)

// Container formats recognised by magic bytes
const (
	FormatUnknown = ""
	FormatWAV     = "wav"
	FormatMP3     = "mp3"
)

// Loader decodes audio sources into mono Signals. WAV and MP3 are decoded
// in-process; anything else goes to ffmpeg when it is enabled.
type Loader struct {
	config config.LoaderConfig
	ffmpeg *FFmpegDecoder
}

// NewLoader creates a loader
func NewLoader(cfg config.LoaderConfig) *Loader {
	l := &Loader{config: cfg}
	if cfg.EnableFFmpeg {
		l.ffmpeg = NewFFmpegDecoder(cfg)
	}
	return l
}

// NewDefaultLoader creates a loader with DefaultLoaderConfig
func NewDefaultLoader() *Loader {
	return NewLoader(config.DefaultLoaderConfig())
}

// CheckDecoders fails when the ffmpeg fallback is enabled but cannot run.
// It is a no-op otherwise.
func (l *Loader) CheckDecoders(ctx context.Context) error {
	if l.ffmpeg == nil {
		return nil
	}
	return l.ffmpeg.CheckAvailability(ctx)
}

// SniffFormat identifies the container from the leading bytes of data
func SniffFormat(data []byte) string {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG frame sync
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// LoadFile reads and decodes path
func (l *Loader) LoadFile(ctx context.Context, path string) (*Signal, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "signal_loader",
		"function":  "LoadFile",
		"path":      path,
	})

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error(err, "Failed to read audio file")
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var sig *Signal
	if SniffFormat(data) == FormatUnknown && l.ffmpeg != nil {
		// ffmpeg probes seekable files more reliably than stdin
		sig, err = l.ffmpeg.DecodeFile(ctx, path)
		if err == nil {
			sig = l.limit(sig)
		}
	} else {
		sig, err = l.LoadBytes(ctx, data)
	}
	if err != nil {
		logger.Error(err, "Failed to decode audio file")
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	sig.Source = path
	logger.Debug("Audio file loaded", logging.Fields{
		"format":      sig.Format,
		"sample_rate": sig.SampleRate,
		"channels":    sig.Channels,
		"duration":    sig.Duration.Seconds(),
	})
	return sig, nil
}

// LoadReader reads r to the end and decodes it
func (l *Loader) LoadReader(ctx context.Context, r io.Reader) (*Signal, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}
	return l.LoadBytes(ctx, data)
}

// LoadBytes decodes an in-memory audio file
func (l *Loader) LoadBytes(ctx context.Context, data []byte) (*Signal, error) {
	if len(data) == 0 {
		return nil, ErrEmptySignal
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		sig *Signal
		err error
	)
	switch format := SniffFormat(data); format {
	case FormatWAV:
		sig, err = decodeWAV(bytes.NewReader(data))
		if err != nil && l.ffmpeg != nil {
			// float and companded WAV encodings are left to ffmpeg
			sig, err = l.ffmpeg.DecodeBytes(ctx, data)
		}
	case FormatMP3:
		sig, err = decodeMP3(bytes.NewReader(data))
	default:
		if l.ffmpeg == nil {
			return nil, fmt.Errorf("%w: unrecognised audio container and ffmpeg is disabled", ErrDecode)
		}
		sig, err = l.ffmpeg.DecodeBytes(ctx, data)
	}
	if err != nil {
		return nil, err
	}

	return l.limit(sig), nil
}

// LoadPCM builds a Signal from caller-owned mono samples, copying them
func (l *Loader) LoadPCM(samples []float64, sampleRate int) (*Signal, error) {
	owned := make([]float64, len(samples))
	copy(owned, samples)

	sig, err := NewSignal(owned, sampleRate)
	if err != nil {
		return nil, err
	}
	return l.limit(sig), nil
}

// limit truncates sig to MaxDuration when one is configured
func (l *Loader) limit(sig *Signal) *Signal {
	maxDuration := l.config.MaxDuration.Duration
	if maxDuration <= 0 || sig.Duration <= maxDuration {
		return sig
	}

	n := int(maxDuration.Seconds() * float64(sig.SampleRate))
	return sig.Slice(0, max(1, n))
}
