package comparison

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-eco/algorithms/filters"
	"github.com/RyanBlaney/sonido-eco/algorithms/temporal"
	"github.com/RyanBlaney/sonido-eco/comparison/config"
	"github.com/RyanBlaney/sonido-eco/logging"
	"github.com/RyanBlaney/sonido-eco/transcode"
	"gonum.org/v1/gonum/floats"
)

// Comparator runs the full pipeline: load, align sample rates, preprocess,
// extract MFCCs and score. The candidate is always brought to the
// reference's sample rate.
type Comparator struct {
	config    *config.Config
	loader    *transcode.Loader
	extractor *FeatureExtractor
	scorer    *SimilarityScorer
	silence   *temporal.SilenceDetection
	dynamics  *temporal.DynamicRange
}

// NewComparator validates cfg and wires the pipeline. A nil cfg means
// DefaultConfig.
func NewComparator(cfg *config.Config) (*Comparator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	extractor, err := NewFeatureExtractor(cfg.Extractor)
	if err != nil {
		return nil, err
	}
	scorer, err := NewSimilarityScorer(cfg.Comparison)
	if err != nil {
		return nil, err
	}

	loader := transcode.NewLoader(cfg.Loader)
	if err := loader.CheckDecoders(context.Background()); err != nil {
		return nil, err
	}

	return &Comparator{
		config:    cfg,
		loader:    loader,
		extractor: extractor,
		scorer:    scorer,
		silence:   temporal.NewSilenceDetection(),
		dynamics:  temporal.NewDynamicRange(),
	}, nil
}

// Loader returns the signal loader used by the comparator
func (c *Comparator) Loader() *transcode.Loader {
	return c.loader
}

// Extractor returns the feature extractor used by the comparator
func (c *Comparator) Extractor() *FeatureExtractor {
	return c.extractor
}

// CompareFiles loads and compares two audio files
func (c *Comparator) CompareFiles(ctx context.Context, referencePath, candidatePath string) (*Report, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "comparator",
		"function":  "CompareFiles",
		"reference": referencePath,
		"candidate": candidatePath,
	})

	ref, err := c.loader.LoadFile(ctx, referencePath)
	if err != nil {
		logger.Error(err, "Failed to load reference")
		return nil, fmt.Errorf("reference: %w", err)
	}

	cand, err := c.loader.LoadFile(ctx, candidatePath)
	if err != nil {
		logger.Error(err, "Failed to load candidate")
		return nil, fmt.Errorf("candidate: %w", err)
	}

	return c.CompareSignals(ctx, ref, cand)
}

// CompareSignals compares two decoded signals
func (c *Comparator) CompareSignals(ctx context.Context, reference, candidate *transcode.Signal) (*Report, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "comparator",
		"function":  "CompareSignals",
	})
	start := time.Now()

	if reference == nil || candidate == nil {
		return nil, transcode.ErrEmptySignal
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{}
	var err error

	if candidate.SampleRate != reference.SampleRate {
		logger.Debug("Resampling candidate to reference rate", logging.Fields{
			"from": candidate.SampleRate,
			"to":   reference.SampleRate,
		})
		var resampled *transcode.Signal
		resampled, err = transcode.ResampleToMatch(candidate, reference)
		if err != nil {
			return nil, fmt.Errorf("candidate: %w", err)
		}
		candidate = resampled
		report.Resampled = true
	}

	reference, report.Reference.Trimmed, err = c.preprocess(reference)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	candidate, report.Candidate.Trimmed, err = c.preprocess(candidate)
	if err != nil {
		return nil, fmt.Errorf("candidate: %w", err)
	}

	refFeatures, err := c.extractor.ExtractMFCC(reference)
	if err != nil {
		logger.Error(err, "Reference feature extraction failed")
		return nil, fmt.Errorf("reference: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candFeatures, err := c.extractor.ExtractMFCC(candidate)
	if err != nil {
		logger.Error(err, "Candidate feature extraction failed")
		return nil, fmt.Errorf("candidate: %w", err)
	}

	result, err := c.scorer.Score(refFeatures, candFeatures)
	if err != nil {
		logger.Error(err, "Scoring failed")
		return nil, err
	}

	report.Result = result
	report.Reference = c.summarize(reference, refFeatures, report.Reference.Trimmed)
	report.Candidate = c.summarize(candidate, candFeatures, report.Candidate.Trimmed)
	report.ProcessingTime = time.Since(start)

	logger.Info("Comparison complete", logging.Fields{
		"percentage_similarity": fmt.Sprintf("%.2f", result.PercentageSimilarity),
		"alignment_cost":        result.AlignmentCost,
		"processing_time":       report.ProcessingTime,
	})

	return report, nil
}

// preprocess applies optional DC removal, silence trimming and peak
// normalisation, in that order
func (c *Comparator) preprocess(sig *transcode.Signal) (*transcode.Signal, bool, error) {
	if c.config.Comparison.RemoveDC {
		dc, err := filters.NewDCRemovalWithCutoff(sig.SampleRate, c.config.Comparison.DCCutoff)
		if err != nil {
			return nil, false, err
		}
		filtered, err := transcode.NewSignal(dc.ProcessBuffer(sig.Samples), sig.SampleRate)
		if err != nil {
			return nil, false, err
		}
		filtered.Source, filtered.Format, filtered.Channels = sig.Source, sig.Format, sig.Channels
		sig = filtered
	}

	trimmed := false
	if c.config.Comparison.TrimSilence {
		start, end := c.silence.TrimBounds(sig.Samples, sig.SampleRate, c.config.Comparison.SilenceThreshold)
		if start > 0 || end < sig.Len() {
			sig = sig.Slice(start, end)
			trimmed = true
		}
	}
	if c.config.Comparison.PeakNormalize {
		sig = sig.PeakNormalized()
	}
	return sig, trimmed, nil
}

func (c *Comparator) summarize(sig *transcode.Signal, features *FeatureMatrix, trimmed bool) SignalSummary {
	return SignalSummary{
		Source:     sig.Source,
		Format:     sig.Format,
		SampleRate: sig.SampleRate,
		Duration:   sig.Duration,
		Frames:     features.Frames(),
		Trimmed:    trimmed,
		Levels:     c.dynamics.Analyze(sig.Samples, sig.SampleRate, c.config.Comparison.SilenceThreshold),
	}
}

// CompareBatch compares independent pairs on a bounded worker pool. Results
// are returned in input order; a failed pair carries its error. Pairs not
// started before ctx is cancelled fail with the context error.
func (c *Comparator) CompareBatch(ctx context.Context, pairs []Pair) []BatchResult {
	results := make([]BatchResult, len(pairs))
	if len(pairs) == 0 {
		return results
	}

	numWorkers := c.config.Comparison.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = min(numWorkers, len(pairs))

	logging.WithContext(ctx).Debug("Starting batch comparison", logging.Fields{
		"component": "comparator",
		"function":  "CompareBatch",
		"pairs":     len(pairs),
		"workers":   numWorkers,
	})

	jobs := make(chan int, len(pairs))
	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				pair := pairs[idx]
				res := BatchResult{Pair: pair}
				if err := ctx.Err(); err != nil {
					res.Err = err
				} else {
					pairCtx := logging.ContextWithFields(ctx, logging.Fields{"pair": idx})
					res.Report, res.Err = c.CompareFiles(pairCtx, pair.Reference, pair.Candidate)
				}
				if res.Err != nil {
					res.Error = res.Err.Error()
				}
				results[idx] = res
			}
		}()
	}

	for idx := range pairs {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results
}

// HashFiles compares the MD5 digests of two files
func HashFiles(referencePath, candidatePath string) (*HashComparison, error) {
	refHash, err := md5File(referencePath)
	if err != nil {
		return nil, err
	}
	candHash, err := md5File(candidatePath)
	if err != nil {
		return nil, err
	}
	return &HashComparison{
		ReferenceMD5: refHash,
		CandidateMD5: candHash,
		Identical:    refHash == candHash,
	}, nil
}

func md5File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WaveformDifference returns the sum of |a[n]-b[n]| over the common prefix
// of two signals. Both must share a sample rate.
func WaveformDifference(a, b *transcode.Signal) (float64, error) {
	if err := transcode.RequireSameRate(a, b); err != nil {
		return 0, err
	}
	n := min(a.Len(), b.Len())
	if n == 0 {
		return 0, nil
	}
	return floats.Distance(a.Samples[:n], b.Samples[:n], 1), nil
}
