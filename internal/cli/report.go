package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/RyanBlaney/sonido-eco/comparison"
)

// Diagnostics holds the optional file-level checks printed under a report
type Diagnostics struct {
	Hash               *comparison.HashComparison `json:"hash,omitempty"`
	WaveformDifference *float64                   `json:"waveform_difference,omitempty"`
}

// RenderReport writes a styled summary of one comparison to w
func RenderReport(w io.Writer, report *comparison.Report, diag *Diagnostics) {
	r := report.Result

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s vs %s", name(report.Reference), name(report.Candidate))))

	row(w, "Similarity:", percentStyle(r.PercentageSimilarity).Render(fmt.Sprintf("%.2f%%", r.PercentageSimilarity)))
	row(w, "Cosine similarity:", fmt.Sprintf("%.4f", r.CosineSimilarity))
	row(w, "DTW cost:", fmt.Sprintf("%.4f", r.AlignmentCost))
	row(w, "DTW cost per step:", fmt.Sprintf("%.4f", r.NormalizedAlignmentCost))
	if r.DTWSimilarity != nil {
		row(w, "DTW similarity:", percentStyle(*r.DTWSimilarity).Render(fmt.Sprintf("%.2f%%", *r.DTWSimilarity)))
	}
	row(w, "Path length:", fmt.Sprintf("%d", len(r.Path)))

	fmt.Fprintln(w, SectionStyle.Render("Signals"))
	signalRow(w, "Reference:", report.Reference)
	signalRow(w, "Candidate:", report.Candidate)
	if report.Resampled {
		row(w, "Resampled:", "candidate to reference rate")
	}
	row(w, "Processing time:", report.ProcessingTime.String())

	if diag != nil && (diag.Hash != nil || diag.WaveformDifference != nil) {
		fmt.Fprintln(w, SectionStyle.Render("Diagnostics"))
		if diag.Hash != nil {
			row(w, "Reference MD5:", diag.Hash.ReferenceMD5)
			row(w, "Candidate MD5:", diag.Hash.CandidateMD5)
			row(w, "Identical files:", fmt.Sprintf("%t", diag.Hash.Identical))
		}
		if diag.WaveformDifference != nil {
			row(w, "Waveform difference:", fmt.Sprintf("%.4f", *diag.WaveformDifference))
		}
	}
	fmt.Fprintln(w)
}

// RenderBatchError writes a failed pair
func RenderBatchError(w io.Writer, res comparison.BatchResult) {
	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s vs %s", filepath.Base(res.Pair.Reference), filepath.Base(res.Pair.Candidate))))
	fmt.Fprintf(w, "%s %s\n\n", ErrorStyle.Render("Error:"), res.Error)
}

func row(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(key), ValueStyle.Render(value))
}

func signalRow(w io.Writer, key string, s comparison.SignalSummary) {
	value := fmt.Sprintf("%d Hz, %s, %d frames", s.SampleRate, s.Duration, s.Frames)
	if s.Trimmed {
		value += ", silence trimmed"
	}
	row(w, key, value)
	row(w, "", fmt.Sprintf("peak %.1f dBFS, rms %.1f dBFS, %.0f%% silent",
		s.Levels.PeakDBFS, s.Levels.RMSDBFS, s.Levels.SilenceRatio*100))
}

func name(s comparison.SignalSummary) string {
	if s.Source == "" {
		return "signal"
	}
	return filepath.Base(s.Source)
}
