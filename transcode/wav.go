package transcode

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// decodeWAV decodes integer PCM WAV data, scaling to [-1, 1] and averaging
// channels down to mono.
func decodeWAV(r io.ReadSeeker) (*Signal, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid wav file", ErrDecode)
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: unsupported wav encoding %d", ErrDecode, decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: wav header has no usable format", ErrDecode)
	}

	samples := downmixIntBuffer(buf, int(decoder.BitDepth))
	if len(samples) == 0 {
		return nil, ErrEmptySignal
	}

	sig, err := NewSignal(samples, buf.Format.SampleRate)
	if err != nil {
		return nil, err
	}
	sig.Channels = buf.Format.NumChannels
	sig.Format = "wav"
	return sig, nil
}

// downmixIntBuffer averages interleaved channels and scales integer samples
// of the given bit depth into [-1, 1]. 8-bit WAV is unsigned.
func downmixIntBuffer(buf *audio.IntBuffer, bitDepth int) []float64 {
	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels

	offset := 0.0
	scale := float64(int64(1) << (max(bitDepth, 8) - 1))
	if bitDepth == 8 {
		offset = 128
	}

	out := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += (float64(buf.Data[i*channels+c]) - offset) / scale
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// WriteWAV encodes sig as mono PCM WAV with the given bit depth (16 or 24).
// Samples are clipped to [-1, 1].
func WriteWAV(w io.WriteSeeker, sig *Signal, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	peak := float64(int64(1)<<(bitDepth-1) - 1)
	data := make([]int, sig.Len())
	for i, s := range sig.Samples {
		s = max(-1, min(1, s))
		data[i] = int(s * peak)
	}

	encoder := wav.NewEncoder(w, sig.SampleRate, bitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sig.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	return encoder.Close()
}
