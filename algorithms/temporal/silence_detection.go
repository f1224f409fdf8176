package temporal

// SilenceDetection finds low-energy regions from a 25ms RMS envelope with
// 50% overlap.
type SilenceDetection struct {
	envelopeExtractor *Envelope
}

// NewSilenceDetection creates a new silence detector
func NewSilenceDetection() *SilenceDetection {
	return &SilenceDetection{
		envelopeExtractor: NewEnvelope(),
	}
}

func frameAndHop(sampleRate int) (int, int) {
	frameSize := max(1, int(0.025*float64(sampleRate)))
	return frameSize, max(1, frameSize/2)
}

// DetectSilence returns [start, end) sample ranges whose RMS stays below
// energyThreshold for at least minSilenceDuration seconds.
func (sd *SilenceDetection) DetectSilence(signal []float64, sampleRate int, energyThreshold, minSilenceDuration float64) [][2]int {
	frameSize, hopSize := frameAndHop(sampleRate)
	energies := sd.envelopeExtractor.ComputeRMS(signal, frameSize, hopSize)
	if len(energies) == 0 {
		return nil
	}

	minSilenceFrames := int(minSilenceDuration * float64(sampleRate) / float64(hopSize))

	var segments [][2]int
	start := -1
	for i := 0; i <= len(energies); i++ {
		silent := i < len(energies) && energies[i] < energyThreshold
		switch {
		case silent && start == -1:
			start = i
		case !silent && start != -1:
			if i-start >= minSilenceFrames {
				end := i * hopSize
				if i == len(energies) {
					end = len(signal)
				}
				segments = append(segments, [2]int{start * hopSize, end})
			}
			start = -1
		}
	}

	return segments
}

// ComputeSilenceRatio calculates the ratio of silent frames
func (sd *SilenceDetection) ComputeSilenceRatio(signal []float64, sampleRate int, energyThreshold float64) float64 {
	frameSize, hopSize := frameAndHop(sampleRate)
	energies := sd.envelopeExtractor.ComputeRMS(signal, frameSize, hopSize)
	if len(energies) == 0 {
		return 0.0
	}

	silentFrames := 0
	for _, energy := range energies {
		if energy < energyThreshold {
			silentFrames++
		}
	}

	return float64(silentFrames) / float64(len(energies))
}

// TrimBounds returns the [start, end) range left after dropping leading and
// trailing frames whose RMS is below energyThreshold. A signal that is silent
// throughout, or too short to frame, is returned whole.
func (sd *SilenceDetection) TrimBounds(signal []float64, sampleRate int, energyThreshold float64) (int, int) {
	frameSize, hopSize := frameAndHop(sampleRate)
	energies := sd.envelopeExtractor.ComputeRMS(signal, frameSize, hopSize)

	first, last := -1, -1
	for i, energy := range energies {
		if energy >= energyThreshold {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 {
		return 0, len(signal)
	}

	end := last*hopSize + frameSize
	if last == len(energies)-1 {
		end = len(signal)
	}
	return first * hopSize, end
}
