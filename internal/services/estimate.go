package services

import (
	"github.com/shopspring/decimal"
)

// BlendEstimate computes the blended market-value estimate for a set of
// current per-source price values: the unweighted arithmetic mean, rounded
// to two decimal places. It returns nil when no values are available; an
// absent estimate is not zero and not an error.
//
// The deliberately simple mean keeps the estimate reproducible. Alternate
// weighting strategies can replace this function without touching ingestion
// or query code, as long as the values-in, one-value-out boundary holds.
func BlendEstimate(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}

	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	mean, _ := sum.Div(decimal.NewFromInt(int64(len(values)))).Round(2).Float64()
	return &mean
}
