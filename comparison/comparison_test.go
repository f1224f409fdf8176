package comparison

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-eco/comparison/config"
	"github.com/RyanBlaney/sonido-eco/transcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(t *testing.T, freq float64, sampleRate int, seconds float64) *transcode.Signal {
	t.Helper()
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	sig, err := transcode.NewSignal(samples, sampleRate)
	require.NoError(t, err)
	return sig
}

func silence(t *testing.T, sampleRate int, seconds float64) *transcode.Signal {
	t.Helper()
	sig, err := transcode.NewSignal(make([]float64, int(seconds*float64(sampleRate))), sampleRate)
	require.NoError(t, err)
	return sig
}

func writeWAV(t *testing.T, dir, name string, sig *transcode.Signal) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, transcode.WriteWAV(f, sig, 16))
	return path
}

func newComparator(t *testing.T, mutate func(*config.Config)) *Comparator {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	c, err := NewComparator(cfg)
	require.NoError(t, err)
	return c
}

func TestExtractMFCCShape(t *testing.T) {
	fe, err := NewFeatureExtractor(config.DefaultExtractorConfig())
	require.NoError(t, err)

	features, err := fe.ExtractMFCC(sine(t, 440, 16000, 1.0))
	require.NoError(t, err)

	assert.Equal(t, 13, features.Coefficients())
	assert.Equal(t, 98, features.Frames())
	assert.Equal(t, 16000, features.SampleRate())
	assert.Equal(t, 160, features.HopLength())
	assert.Equal(t, 100*time.Millisecond, features.FrameTime(10))
	assert.True(t, features.Finite())
}

func TestExtractMFCCInsufficientSamples(t *testing.T) {
	fe, err := NewFeatureExtractor(config.DefaultExtractorConfig())
	require.NoError(t, err)

	short, err := transcode.NewSignal(make([]float64, 100), 16000)
	require.NoError(t, err)

	_, err = fe.ExtractMFCC(short)
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = fe.ExtractMFCC(nil)
	assert.ErrorIs(t, err, transcode.ErrEmptySignal)
}

func TestExtractMFCCPreEmphasis(t *testing.T) {
	cfg := config.DefaultExtractorConfig()
	cfg.PreEmphasis = 0.97
	fe, err := NewFeatureExtractor(cfg)
	require.NoError(t, err)

	plain, err := NewFeatureExtractor(config.DefaultExtractorConfig())
	require.NoError(t, err)

	sig := sine(t, 440, 16000, 0.5)
	a, err := fe.ExtractMFCC(sig)
	require.NoError(t, err)
	b, err := plain.ExtractMFCC(sig)
	require.NoError(t, err)

	assert.Equal(t, a.Frames(), b.Frames())
	assert.NotEqual(t, a.Frame(10), b.Frame(10))
}

func TestExtractMFCCFFTSizeBelowDerivedFrame(t *testing.T) {
	cfg := config.DefaultExtractorConfig()
	cfg.FFTSize = 256 // 25ms at 16 kHz is 400 samples
	fe, err := NewFeatureExtractor(cfg)
	require.NoError(t, err)

	_, err = fe.ExtractMFCC(sine(t, 440, 16000, 1.0))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	// the same size is fine at a rate where the frame fits
	features, err := fe.ExtractMFCC(sine(t, 440, 8000, 1.0))
	require.NoError(t, err)
	assert.Equal(t, 98, features.Frames())
}

func TestNewFeatureExtractorRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultExtractorConfig()
	cfg.NumCoefficients = 200
	_, err := NewFeatureExtractor(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNormalizeRows(t *testing.T) {
	m, err := NewFeatureMatrixFromRows([][]float64{
		{3, 4},
		{0, 0},
	})
	require.NoError(t, err)

	n := NormalizeRows(m)
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, n.Row(0), 1e-12)
	assert.Equal(t, []float64{0, 0}, n.Row(1))

	// input untouched
	assert.Equal(t, []float64{3, 4}, m.Row(0))
}

func TestEqualizeLength(t *testing.T) {
	short, err := NewFeatureMatrixFromRows([][]float64{{1, 2, 3, 4, 5}})
	require.NoError(t, err)
	long, err := NewFeatureMatrixFromRows([][]float64{{1, 1, 1, 1, 1, 1, 1, 1}})
	require.NoError(t, err)

	a, b, err := EqualizeLength(short, long)
	require.NoError(t, err)

	assert.Equal(t, 8, a.Frames())
	assert.Equal(t, 8, b.Frames())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 0, 0, 0}, a.Row(0))
	assert.Equal(t, long.Row(0), b.Row(0))
	assert.Equal(t, 5, short.Frames())
}

func TestEqualizeLengthShapeMismatch(t *testing.T) {
	a, err := NewFeatureMatrixFromRows([][]float64{{1}, {2}})
	require.NoError(t, err)
	b, err := NewFeatureMatrixFromRows([][]float64{{1}})
	require.NoError(t, err)

	_, _, err = EqualizeLength(a, b)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestFeatureMatrixConstruction(t *testing.T) {
	_, err := NewFeatureMatrixFromRows(nil)
	assert.ErrorIs(t, err, ErrInvalidFeature)

	_, err = NewFeatureMatrixFromRows([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrInvalidFeature)

	m, err := NewFeatureMatrixFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5}, m.Frame(1))
	assert.Zero(t, m.FrameTime(2))
	assert.Equal(t, 6.0, m.At(1, 2))
	assert.Len(t, m.FrameVectors(), 3)
}

func TestAlignerRejectsInvalidFeatures(t *testing.T) {
	al := NewAlignerWithDistance(func(a, b []float64) float64 { return 0 })

	a, err := NewFeatureMatrixFromRows([][]float64{{1, math.NaN()}})
	require.NoError(t, err)
	b, err := NewFeatureMatrixFromRows([][]float64{{1, 2}})
	require.NoError(t, err)
	c, err := NewFeatureMatrixFromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	_, err = al.Align(a, b)
	assert.ErrorIs(t, err, ErrInvalidFeature)

	_, err = al.Align(b, c)
	assert.ErrorIs(t, err, ErrInvalidFeature)

	_, err = al.Cost(b, c)
	assert.ErrorIs(t, err, ErrInvalidFeature)
}

func TestAlignerBand(t *testing.T) {
	al, err := NewAligner(config.ComparisonConfig{BandRadius: 1})
	require.NoError(t, err)

	a, err := NewFeatureMatrixFromRows([][]float64{{1, 2}})
	require.NoError(t, err)
	b, err := NewFeatureMatrixFromRows([][]float64{{1, 2, 3, 4, 5, 6}})
	require.NoError(t, err)

	_, err = al.Align(a, b)
	assert.ErrorIs(t, err, ErrNoAlignment)
}

func TestScoreIdentity(t *testing.T) {
	fe, err := NewFeatureExtractor(config.DefaultExtractorConfig())
	require.NoError(t, err)
	features, err := fe.ExtractMFCC(sine(t, 440, 16000, 1.0))
	require.NoError(t, err)

	result, err := NewDefaultSimilarityScorer().Score(features, features)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, result.PercentageSimilarity, 1e-6)
	assert.Equal(t, 0.0, result.AlignmentCost)
	assert.Len(t, result.Path, features.Frames())
	for i, p := range result.Path {
		assert.Equal(t, i, p.QueryIndex)
		assert.Equal(t, i, p.RefIndex)
	}
	assert.Nil(t, result.DTWSimilarity)
}

func TestScoreDTWSimilarity(t *testing.T) {
	cfg := config.DefaultComparisonConfig()
	cfg.MaxDTWDistance = 10
	scorer, err := NewSimilarityScorer(cfg)
	require.NoError(t, err)

	a, err := NewFeatureMatrixFromRows([][]float64{{0, 0}})
	require.NoError(t, err)
	b, err := NewFeatureMatrixFromRows([][]float64{{1, 1}})
	require.NoError(t, err)

	result, err := scorer.Score(a, b)
	require.NoError(t, err)

	require.NotNil(t, result.DTWSimilarity)
	assert.InDelta(t, 2.0, result.AlignmentCost, 1e-12)
	assert.InDelta(t, 80.0, *result.DTWSimilarity, 1e-9)
	// a is all zero, so the cosine path scores 0
	assert.Equal(t, 0.0, result.PercentageSimilarity)

	assert.Equal(t, 0.0, DTWSimilarity(50, 10))
	assert.Equal(t, 100.0, DTWSimilarity(0, 10))
}

func TestScoreWithCustomDistance(t *testing.T) {
	squared := func(a, b []float64) float64 {
		var sum float64
		for i := range a {
			d := a[i] - b[i]
			sum += d * d
		}
		return sum
	}
	scorer := NewSimilarityScorerWithAligner(NewAlignerWithDistance(squared), 0)

	a, err := NewFeatureMatrixFromRows([][]float64{{0, 0}})
	require.NoError(t, err)
	b, err := NewFeatureMatrixFromRows([][]float64{{2, 2}})
	require.NoError(t, err)

	result, err := scorer.Score(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, result.AlignmentCost, 1e-12)
	assert.InDelta(t, 4.0, result.NormalizedAlignmentCost, 1e-12)
}

func TestScoreOppositeSignsClampToZero(t *testing.T) {
	a, err := NewFeatureMatrixFromRows([][]float64{{1, 1}, {2, 2}})
	require.NoError(t, err)
	b, err := NewFeatureMatrixFromRows([][]float64{{-1, -1}, {-2, -2}})
	require.NoError(t, err)

	result, err := NewDefaultSimilarityScorer().Score(a, b)
	require.NoError(t, err)

	assert.InDelta(t, -1.0, result.CosineSimilarity, 1e-12)
	assert.Equal(t, 0.0, result.PercentageSimilarity)
}

func TestCompareSignalsIdentical(t *testing.T) {
	c := newComparator(t, nil)
	sig := sine(t, 440, 16000, 1.0)

	report, err := c.CompareSignals(context.Background(), sig, sig)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, report.Result.PercentageSimilarity, 1e-6)
	assert.Equal(t, 0.0, report.Result.AlignmentCost)
	assert.False(t, report.Resampled)
	assert.Equal(t, 98, report.Reference.Frames)
	assert.Equal(t, 98, report.Candidate.Frames)
}

func TestCompareSignalsDifferentLengths(t *testing.T) {
	c := newComparator(t, nil)
	ref := sine(t, 500, 16000, 1.0)
	cand := sine(t, 500, 16000, 1.5)

	report, err := c.CompareSignals(context.Background(), ref, cand)
	require.NoError(t, err)

	result := report.Result
	assert.Greater(t, result.PercentageSimilarity, 80.0)
	assert.Equal(t, 98, result.ReferenceFrames)
	assert.Equal(t, 148, result.CandidateFrames)
	assert.GreaterOrEqual(t, len(result.Path), max(result.ReferenceFrames, result.CandidateFrames))

	first, last := result.Path[0], result.Path[len(result.Path)-1]
	assert.Equal(t, 0, first.QueryIndex)
	assert.Equal(t, 0, first.RefIndex)
	assert.Equal(t, result.ReferenceFrames-1, last.QueryIndex)
	assert.Equal(t, result.CandidateFrames-1, last.RefIndex)
}

func TestCompareSignalsSilence(t *testing.T) {
	c := newComparator(t, nil)

	report, err := c.CompareSignals(context.Background(), silence(t, 16000, 1.0), sine(t, 440, 16000, 1.0))
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.Result.PercentageSimilarity)
	assert.Equal(t, 0.0, report.Result.CosineSimilarity)
	assert.False(t, math.IsNaN(report.Result.AlignmentCost))
	assert.Equal(t, 1.0, report.Reference.Levels.SilenceRatio)
	assert.InDelta(t, 0, report.Candidate.Levels.PeakDBFS, 1e-6)

	report, err = c.CompareSignals(context.Background(), silence(t, 16000, 1.0), silence(t, 16000, 1.0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Result.PercentageSimilarity)
}

func TestCompareSignalsResamplesCandidate(t *testing.T) {
	c := newComparator(t, nil)

	report, err := c.CompareSignals(context.Background(), sine(t, 440, 16000, 1.0), sine(t, 440, 8000, 1.0))
	require.NoError(t, err)

	assert.True(t, report.Resampled)
	assert.Equal(t, 16000, report.Candidate.SampleRate)
	assert.Equal(t, 98, report.Candidate.Frames)
	assert.GreaterOrEqual(t, report.Result.PercentageSimilarity, 0.0)
	assert.LessOrEqual(t, report.Result.PercentageSimilarity, 100.0)
}

func TestCompareSignalsTrimSilence(t *testing.T) {
	c := newComparator(t, func(cfg *config.Config) {
		cfg.Comparison.TrimSilence = true
	})

	tone := sine(t, 500, 16000, 1.0)
	padded := make([]float64, 8000, 8000+tone.Len()+8000)
	padded = append(padded, tone.Samples...)
	padded = append(padded, make([]float64, 8000)...)
	cand, err := transcode.NewSignal(padded, 16000)
	require.NoError(t, err)

	report, err := c.CompareSignals(context.Background(), tone, cand)
	require.NoError(t, err)

	assert.False(t, report.Reference.Trimmed)
	assert.True(t, report.Candidate.Trimmed)
	assert.Less(t, report.Candidate.Duration, cand.Duration)
	assert.Less(t, report.Candidate.Frames, 198)
	assert.Greater(t, report.Result.PercentageSimilarity, 50.0)
}

func TestCompareSignalsRemoveDC(t *testing.T) {
	c := newComparator(t, func(cfg *config.Config) {
		cfg.Comparison.RemoveDC = true
	})

	tone := sine(t, 500, 16000, 1.0)
	offset := make([]float64, tone.Len())
	for i, v := range tone.Samples {
		offset[i] = v + 0.3
	}
	cand, err := transcode.NewSignal(offset, 16000)
	require.NoError(t, err)

	report, err := c.CompareSignals(context.Background(), tone, cand)
	require.NoError(t, err)

	assert.InDelta(t, 0, report.Candidate.Levels.PeakDBFS, 1e-6)
	assert.Equal(t, 98, report.Candidate.Frames)
	// the source signal is never modified
	assert.InDelta(t, 0.3, cand.Samples[0], 1e-12)
}

func TestCompareSignalsCancelled(t *testing.T) {
	c := newComparator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sig := sine(t, 440, 16000, 0.5)
	_, err := c.CompareSignals(ctx, sig, sig)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	ref := writeWAV(t, dir, "ref.wav", sine(t, 440, 16000, 1.0))
	same := writeWAV(t, dir, "same.wav", sine(t, 440, 16000, 1.0))

	c := newComparator(t, nil)
	report, err := c.CompareFiles(context.Background(), ref, same)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, report.Result.PercentageSimilarity, 1e-6)
	assert.Equal(t, ref, report.Reference.Source)
	assert.Equal(t, "wav", report.Reference.Format)

	_, err = c.CompareFiles(context.Background(), ref, filepath.Join(dir, "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCompareBatch(t *testing.T) {
	dir := t.TempDir()
	a := writeWAV(t, dir, "a.wav", sine(t, 440, 16000, 1.0))
	b := writeWAV(t, dir, "b.wav", silence(t, 16000, 1.0))

	c := newComparator(t, func(cfg *config.Config) {
		cfg.Comparison.Workers = 2
	})

	pairs := []Pair{
		{Reference: a, Candidate: a},
		{Reference: a, Candidate: filepath.Join(dir, "missing.wav")},
		{Reference: b, Candidate: a},
	}
	results := c.CompareBatch(context.Background(), pairs)
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Equal(t, pairs[i], res.Pair)
	}

	require.NoError(t, results[0].Err)
	assert.InDelta(t, 100.0, results[0].Report.Result.PercentageSimilarity, 1e-6)

	assert.ErrorIs(t, results[1].Err, os.ErrNotExist)
	assert.Nil(t, results[1].Report)
	assert.NotEmpty(t, results[1].Error)

	require.NoError(t, results[2].Err)
	assert.Equal(t, 0.0, results[2].Report.Result.PercentageSimilarity)
}

func TestCompareBatchCancelled(t *testing.T) {
	c := newComparator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := c.CompareBatch(ctx, []Pair{{"x.wav", "y.wav"}, {"y.wav", "x.wav"}})
	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}

	assert.Empty(t, c.CompareBatch(context.Background(), nil))
}

func TestHashFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeWAV(t, dir, "a.wav", sine(t, 440, 16000, 0.1))
	b := writeWAV(t, dir, "b.wav", sine(t, 440, 16000, 0.1))
	c := writeWAV(t, dir, "c.wav", sine(t, 880, 16000, 0.1))

	same, err := HashFiles(a, b)
	require.NoError(t, err)
	assert.True(t, same.Identical)
	assert.Len(t, same.ReferenceMD5, 32)

	diff, err := HashFiles(a, c)
	require.NoError(t, err)
	assert.False(t, diff.Identical)

	_, err = HashFiles(a, filepath.Join(dir, "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWaveformDifference(t *testing.T) {
	a, err := transcode.NewSignal([]float64{1, 2, 3, 4}, 8000)
	require.NoError(t, err)
	b, err := transcode.NewSignal([]float64{1, 0, 3}, 8000)
	require.NoError(t, err)
	c, err := transcode.NewSignal([]float64{1, 2, 3}, 16000)
	require.NoError(t, err)

	diff, err := WaveformDifference(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2.0, diff)

	_, err = WaveformDifference(a, c)
	assert.ErrorIs(t, err, transcode.ErrSampleRateMismatch)
}

func TestNewComparatorRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Comparison.DistanceMetric = "hamming"
	_, err := NewComparator(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	c, err := NewComparator(nil)
	require.NoError(t, err)
	assert.NotNil(t, c.Loader())
	assert.NotNil(t, c.Extractor())
}

func TestNewComparatorFailsWithoutFFmpeg(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Loader.EnableFFmpeg = true
	cfg.Loader.FFprobePath = filepath.Join(t.TempDir(), "missing-ffprobe")
	cfg.Loader.FFmpegPath = cfg.Loader.FFprobePath

	_, err := NewComparator(cfg)
	assert.ErrorIs(t, err, transcode.ErrFFmpegUnavailable)
}
