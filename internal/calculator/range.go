package calculator

import (
	"github.com/shopspring/decimal"

	"ProfitPortal/internal/model"
)

// Range scans the most recent window samples (all of them when window <= 0)
// and returns the highest high and lowest low.
func Range(series model.PriceSeries, window int) (high, low decimal.Decimal, err error) {
	n := series.Len()
	if n == 0 {
		return decimal.Zero, decimal.Zero, &model.InsufficientDataError{Metric: "range", Need: 1, Have: 0}
	}
	start := 0
	if window > 0 && n > window {
		start = n - window
	}
	high = series.Samples[start].High
	low = series.Samples[start].Low
	for _, s := range series.Samples[start+1:] {
		if s.High.GreaterThan(high) {
			high = s.High
		}
		if s.Low.LessThan(low) {
			low = s.Low
		}
	}
	return high, low, nil
}

// Position returns where price sits within [low, high], clamped to 0..1.
// A flat range reports the midpoint.
func Position(price, high, low decimal.Decimal) (decimal.Decimal, error) {
	if high.Equal(low) {
		return decimal.NewFromFloat(0.5), nil
	}
	if high.LessThan(low) {
		return decimal.Zero, &model.ValidationError{Field: "range", Reason: "high must be >= low"}
	}
	pos := price.Sub(low).DivRound(high.Sub(low), percentPlaces)
	if pos.IsNegative() {
		return decimal.Zero, nil
	}
	if pos.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1), nil
	}
	return pos, nil
}
