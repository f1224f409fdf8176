package comparison_test

import (
	"fmt"

	"github.com/RyanBlaney/sonido-eco/comparison"
)

func ExampleSimilarityScorer_Score() {
	reference, _ := comparison.NewFeatureMatrixFromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	candidate, _ := comparison.NewFeatureMatrixFromRows([][]float64{
		{1, 2, 2, 3},
		{4, 5, 5, 6},
	})

	result, err := comparison.NewDefaultSimilarityScorer().Score(reference, candidate)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("cost=%.1f path=%d\n", result.AlignmentCost, len(result.Path))
	fmt.Printf("similarity>99: %v\n", result.PercentageSimilarity > 99)
	// Output:
	// cost=0.0 path=4
	// similarity>99: true
}
