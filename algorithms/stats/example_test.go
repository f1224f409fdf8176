package stats_test

import (
	"fmt"

	"github.com/RyanBlaney/sonido-eco/algorithms/stats"
)

// ExampleDTWAlignment_Align aligns a sequence against a time-stretched copy of itself
func ExampleDTWAlignment_Align() {
	query := [][]float64{{1}, {2}, {3}}
	reference := [][]float64{{1}, {2}, {2}, {3}}

	res, err := stats.NewDTWAlignment().Align(query, reference)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("cost=%.1f\n", res.Distance)
	for _, p := range res.Path {
		fmt.Printf("(%d,%d) ", p.QueryIndex, p.RefIndex)
	}
	fmt.Println()
	// Output:
	// cost=0.0
	// (0,0) (1,1) (1,2) (2,3)
}
