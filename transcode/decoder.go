package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-eco/comparison/config"
	"github.com/RyanBlaney/sonido-eco/logging"
)

// FFmpegDecoder decodes any container ffmpeg understands to mono float64
// PCM at the source's native sample rate. It is the fallback for inputs
// that are neither WAV nor MP3.
type FFmpegDecoder struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
	maxDuration time.Duration
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
}

// NewFFmpegDecoder creates a decoder from loader configuration
func NewFFmpegDecoder(cfg config.LoaderConfig) *FFmpegDecoder {
	return &FFmpegDecoder{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		timeout:     cfg.Timeout.Duration,
		maxDuration: cfg.MaxDuration.Duration,
	}
}

// DecodeFile decodes an audio file
func (d *FFmpegDecoder) DecodeFile(ctx context.Context, filename string) (*Signal, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "ffmpeg_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	logger.Debug("Starting audio file decode")

	sig, err := d.decode(ctx, filename, nil, logger)
	if err != nil {
		return nil, err
	}
	sig.Source = filename
	return sig, nil
}

// DecodeBytes decodes audio piped through stdin
func (d *FFmpegDecoder) DecodeBytes(ctx context.Context, data []byte) (*Signal, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "ffmpeg_decoder",
		"function":  "DecodeBytes",
		"data_size": len(data),
	})

	logger.Debug("Starting audio bytes decode")

	if len(data) == 0 {
		return nil, ErrEmptySignal
	}
	return d.decode(ctx, "pipe:0", data, logger)
}

// decode probes input then runs ffmpeg. stdin is used when input is pipe:0.
func (d *FFmpegDecoder) decode(ctx context.Context, input string, stdin []byte, logger logging.Logger) (*Signal, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	metadata, err := d.probe(ctx, input, stdin)
	if err != nil {
		logger.Error(err, "Failed to probe audio")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
		"input_bitrate":     metadata.Bitrate,
	})

	args := append([]string{"-v", "error", "-i", input}, d.buildFFmpegArgs(metadata)...)
	args = append(args, "pipe:1")

	output, err := d.run(ctx, d.ffmpegPath, args, stdin)
	if err != nil {
		logger.Error(err, "FFmpeg decode failed", logging.Fields{
			"args": strings.Join(args, " "),
		})
		return nil, err
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, ErrEmptySignal
	}

	sig, err := NewSignal(samples, metadata.SampleRate)
	if err != nil {
		return nil, err
	}
	sig.Channels = metadata.Channels
	sig.Format = metadata.Codec

	logger.Debug("FFmpeg decode completed successfully", logging.Fields{
		"output_samples":  len(samples),
		"output_duration": sig.Duration.Seconds(),
	})

	return sig, nil
}

// buildFFmpegArgs keeps the native rate and down-mixes to mono f64le
func (d *FFmpegDecoder) buildFFmpegArgs(metadata *AudioMetadata) []string {
	args := []string{
		"-map", "0:a:0",
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(metadata.SampleRate),
	}

	if d.maxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", d.maxDuration.Seconds()))
	}

	return args
}

func (d *FFmpegDecoder) probe(ctx context.Context, input string, stdin []byte) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0", // First audio stream only
		input,
	}

	output, err := d.run(ctx, d.ffprobePath, args, stdin)
	if err != nil {
		return nil, err
	}
	return parseFFprobeOutput(output)
}

func (d *FFmpegDecoder) run(ctx context.Context, bin string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", bin, ctxErr)
		}
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("%w: %s failed: %w, stderr: %s", ErrDecode, bin, err, strings.TrimSpace(string(exitError.Stderr)))
		}
		return nil, fmt.Errorf("%w: %s failed: %w", ErrDecode, bin, err)
	}
	return output, nil
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
			BitRate    string `json:"bit_rate"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("%w: failed to parse ffprobe output: %w", ErrDecode, err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("%w: no audio streams found", ErrDecode)
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("%w: stream is not audio type: %s", ErrDecode, stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %q", ErrDecode, stream.SampleRate)
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("%w: invalid channel count: %d", ErrDecode, stream.Channels)
	}

	// Optional fields
	duration, _ := strconv.ParseFloat(stream.Duration, 64)
	bitrate, _ := strconv.Atoi(stream.BitRate)

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
	}, nil
}

// bytesToFloat64 converts raw f64le bytes, dropping a trailing partial sample
func bytesToFloat64(data []byte) []float64 {
	sampleCount := len(data) / 8
	if sampleCount == 0 {
		return nil
	}

	samples := make([]float64, sampleCount)
	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// CheckAvailability verifies that ffmpeg and ffprobe can be executed
func (d *FFmpegDecoder) CheckAvailability(ctx context.Context) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	for _, bin := range []string{d.ffmpegPath, d.ffprobePath} {
		if err := exec.CommandContext(ctx, bin, "-version").Run(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrFFmpegUnavailable, bin, err)
		}
	}
	return nil
}
