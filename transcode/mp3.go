package transcode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// decodeMP3 decodes MPEG audio. go-mp3 always produces signed 16-bit
// little-endian stereo, which is averaged to mono.
func decodeMP3(r io.Reader) (*Signal, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read PCM data: %w", ErrDecode, err)
	}

	// 2 bytes per sample * 2 channels
	frames := len(pcm) / 4
	if frames == 0 {
		return nil, ErrEmptySignal
	}

	samples := make([]float64, frames)
	for i := range frames {
		left := int16(binary.LittleEndian.Uint16(pcm[i*4:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
		samples[i] = (float64(left) + float64(right)) / 2 / 32768.0
	}

	sig, err := NewSignal(samples, decoder.SampleRate())
	if err != nil {
		return nil, err
	}
	sig.Channels = 2
	sig.Format = "mp3"
	return sig, nil
}
