package stats_test

import (
	"math/rand/v2"
	"testing"

	"github.com/RyanBlaney/sonido-eco/algorithms/stats"
)

// benchmarkDTW runs Align or Cost on random 13-dimensional sequences of lengths n and m
func benchmarkDTW(b *testing.B, n, m int, pathless bool) {
	rng := rand.New(rand.NewPCG(11, 12))
	q := randomFrames(rng, n, 13)
	r := randomFrames(rng, m, 13)
	dtw := stats.NewDTWAlignment()

	for b.Loop() {
		var err error
		if pathless {
			_, err = dtw.Cost(q, r)
		} else {
			_, err = dtw.Align(q, r)
		}
		if err != nil {
			b.Fatalf("DTW failed: %v", err)
		}
	}
}

// BenchmarkDTW_AlignOneSecond aligns two one-second utterances at a 10ms hop
func BenchmarkDTW_AlignOneSecond(b *testing.B) { benchmarkDTW(b, 98, 98, false) }

// BenchmarkDTW_AlignTenSeconds aligns two ten-second recordings
func BenchmarkDTW_AlignTenSeconds(b *testing.B) { benchmarkDTW(b, 998, 1200, false) }

// BenchmarkDTW_CostTenSeconds is the rolling-row variant of the above
func BenchmarkDTW_CostTenSeconds(b *testing.B) { benchmarkDTW(b, 998, 1200, true) }
