package spectral

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ErrSignalTooShort is returned when a signal holds fewer samples than one frame
var ErrSignalTooShort = errors.New("signal shorter than one frame")

// Window is applied to each frame before the FFT
type Window interface {
	ApplyInPlace(signal []float64) error
}

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft *FFT
}

// STFTResult holds the magnitude spectrogram of a signal
type STFTResult struct {
	Magnitude   [][]float64 `json:"magnitude"`    // Time x Frequency magnitude matrix
	TimeFrames  int         `json:"time_frames"`  // Number of time frames
	FreqBins    int         `json:"freq_bins"`    // fftSize/2 + 1
	SampleRate  int         `json:"sample_rate"`  // Sample rate
	FrameLength int         `json:"frame_length"` // Samples per frame before padding
	FFTSize     int         `json:"fft_size"`     // Padded transform size
	HopSize     int         `json:"hop_size"`     // Hop size between frames
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft: NewFFT(),
	}
}

// NumFrames returns floor((n-frameLength)/hopSize)+1, or 0 when n < frameLength
func NumFrames(n, frameLength, hopSize int) int {
	if frameLength <= 0 || hopSize <= 0 || n < frameLength {
		return 0
	}
	return (n-frameLength)/hopSize + 1
}

// ComputeWithWindow frames the signal, windows each frame, zero-pads it to
// fftSize and computes its magnitude spectrum. Frames are processed by a pool
// of workers; the output order always matches frame order.
func (s *STFT) ComputeWithWindow(signal []float64, frameLength, hopSize, fftSize, sampleRate int, window Window) (*STFTResult, error) {
	if frameLength <= 0 {
		return nil, fmt.Errorf("frame length must be positive: %d", frameLength)
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive: %d", hopSize)
	}
	if fftSize < frameLength {
		return nil, fmt.Errorf("fft size (%d) smaller than frame length (%d)", fftSize, frameLength)
	}

	numFrames := NumFrames(len(signal), frameLength, hopSize)
	if numFrames == 0 {
		return nil, fmt.Errorf("%w: %d samples, frame length %d", ErrSignalTooShort, len(signal), frameLength)
	}

	freqBins := fftSize/2 + 1
	magnitude := make([][]float64, numFrames)
	for i := range magnitude {
		magnitude[i] = make([]float64, freqBins)
	}

	numWorkers := s.getOptimalWorkerCount(numFrames)
	jobs := make(chan int, numFrames)
	errs := make(chan error, numWorkers)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse the padded frame buffer for this worker
			frameBuffer := make([]float64, fftSize)

			for frameIdx := range jobs {
				start := frameIdx * hopSize
				clear(frameBuffer)
				copy(frameBuffer, signal[start:start+frameLength])

				if window != nil {
					if err := window.ApplyInPlace(frameBuffer[:frameLength]); err != nil {
						errs <- fmt.Errorf("frame %d: %w", frameIdx, err)
						return
					}
				}

				s.fft.Magnitude(frameBuffer, fftSize, magnitude[frameIdx])
			}
		}()
	}

	for frameIdx := range numFrames {
		jobs <- frameIdx
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}

	return &STFTResult{
		Magnitude:   magnitude,
		TimeFrames:  numFrames,
		FreqBins:    freqBins,
		SampleRate:  sampleRate,
		FrameLength: frameLength,
		FFTSize:     fftSize,
		HopSize:     hopSize,
	}, nil
}

// getOptimalWorkerCount determines the number of workers based on workload
func (s *STFT) getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	// Cap medium workloads at 8
	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
