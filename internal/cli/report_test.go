package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-eco/comparison"
	"github.com/stretchr/testify/assert"
)

func TestRenderReport(t *testing.T) {
	dtw := 72.5
	diff := 1.25
	report := &comparison.Report{
		Result: &comparison.SimilarityResult{
			PercentageSimilarity:    91.5,
			CosineSimilarity:        0.915,
			AlignmentCost:           12.5,
			NormalizedAlignmentCost: 0.125,
			DTWSimilarity:           &dtw,
			ReferenceFrames:         98,
			CandidateFrames:         148,
		},
		Reference:      comparison.SignalSummary{Source: "/tmp/ref.wav", SampleRate: 16000, Duration: time.Second, Frames: 98},
		Candidate:      comparison.SignalSummary{Source: "/tmp/cand.mp3", SampleRate: 16000, Duration: 1500 * time.Millisecond, Frames: 148, Trimmed: true},
		Resampled:      true,
		ProcessingTime: 20 * time.Millisecond,
	}

	var buf bytes.Buffer
	RenderReport(&buf, report, &Diagnostics{
		Hash:               &comparison.HashComparison{ReferenceMD5: "aa", CandidateMD5: "bb"},
		WaveformDifference: &diff,
	})

	out := buf.String()
	assert.Contains(t, out, "ref.wav vs cand.mp3")
	assert.Contains(t, out, "91.50%")
	assert.Contains(t, out, "72.50%")
	assert.Contains(t, out, "12.5000")
	assert.Contains(t, out, "silence trimmed")
	assert.Contains(t, out, "candidate to reference rate")
	assert.Contains(t, out, "1.2500")
	assert.Contains(t, out, "false")
}

func TestRenderBatchError(t *testing.T) {
	var buf bytes.Buffer
	RenderBatchError(&buf, comparison.BatchResult{
		Pair:  comparison.Pair{Reference: "a.wav", Candidate: "dir/b.wav"},
		Error: "decode failed",
	})

	assert.Contains(t, buf.String(), "a.wav vs b.wav")
	assert.Contains(t, buf.String(), "decode failed")
}
