package temporal

import (
	"math"
	"slices"

	"github.com/RyanBlaney/sonido-eco/algorithms/common"
	"gonum.org/v1/gonum/stat"
)

// MinDBFS is the floor reported for silent signals
const MinDBFS = -120.0

// LevelStats summarises signal amplitude. Levels are relative to full scale 1.0.
type LevelStats struct {
	PeakDBFS     float64 `json:"peak_dbfs"`
	RMSDBFS      float64 `json:"rms_dbfs"`
	CrestFactor  float64 `json:"crest_factor"`     // peak / RMS, 0 for silence
	DynamicRange float64 `json:"dynamic_range_db"` // 95th over 10th percentile frame RMS
	SilenceRatio float64 `json:"silence_ratio"`
}

// DynamicRange analyzes amplitude dynamics over the 25ms RMS envelope
type DynamicRange struct {
	envelopeExtractor *Envelope
	silence           *SilenceDetection
}

// NewDynamicRange creates a new dynamic range analyzer
func NewDynamicRange() *DynamicRange {
	return &DynamicRange{
		envelopeExtractor: NewEnvelope(),
		silence:           NewSilenceDetection(),
	}
}

// Analyze computes level statistics. Frames below silenceThreshold RMS
// count as silent.
func (dr *DynamicRange) Analyze(signal []float64, sampleRate int, silenceThreshold float64) LevelStats {
	if len(signal) == 0 {
		return LevelStats{PeakDBFS: MinDBFS, RMSDBFS: MinDBFS}
	}

	peak := common.PeakAbs(signal)
	rms := common.RMS(signal)

	stats := LevelStats{
		PeakDBFS:     ToDBFS(peak),
		RMSDBFS:      ToDBFS(rms),
		SilenceRatio: dr.silence.ComputeSilenceRatio(signal, sampleRate, silenceThreshold),
	}
	if rms > 0 {
		stats.CrestFactor = peak / rms
	}

	frameSize, hopSize := frameAndHop(sampleRate)
	stats.DynamicRange = dr.percentileRange(dr.envelopeExtractor.ComputeRMS(signal, frameSize, hopSize), 0.10, 0.95)

	return stats
}

// percentileRange returns the ratio in dB between two percentiles of values
func (dr *DynamicRange) percentileRange(values []float64, lowPercentile, highPercentile float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	low := stat.Quantile(lowPercentile, stat.Empirical, sorted, nil)
	high := stat.Quantile(highPercentile, stat.Empirical, sorted, nil)
	if high <= 0 {
		return 0.0
	}

	return ToDBFS(high) - ToDBFS(low)
}

// ToDBFS converts a linear amplitude to dB full scale, floored at MinDBFS
func ToDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return MinDBFS
	}
	return math.Max(MinDBFS, 20*math.Log10(amplitude))
}
