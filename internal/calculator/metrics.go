// Package calculator derives valuation figures from a price series. All
// functions are pure and use decimal arithmetic.
package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"ProfitPortal/internal/model"
)

// percentPlaces is the precision of DayChangePercent, a fraction (0.0097 = 0.97%).
const percentPlaces = 8

// TargetFormula blends the latest close toward the analyst consensus:
//
//	target = close + Weight × (estimate − close)
//
// Weight 1 reports the consensus as published; 0 reports the close.
type TargetFormula struct {
	Weight decimal.Decimal
}

// DefaultTargetFormula reports the consensus unchanged.
func DefaultTargetFormula() TargetFormula {
	return TargetFormula{Weight: decimal.NewFromInt(1)}
}

// Price returns the close of the last sample.
func Price(series model.PriceSeries) (decimal.Decimal, error) {
	last, ok := series.Last()
	if !ok {
		return decimal.Zero, &model.InsufficientDataError{Metric: "price", Need: 1, Have: 0}
	}
	return last.Close, nil
}

// Change returns the last close minus the one before it, and that difference
// as a fraction of the earlier close. pct is Unavailable when the earlier close is zero.
func Change(series model.PriceSeries) (abs decimal.Decimal, pct decimal.NullDecimal, err error) {
	n := series.Len()
	if n < 2 {
		return decimal.Zero, decimal.NullDecimal{}, &model.InsufficientDataError{Metric: "change", Need: 2, Have: n}
	}
	prev := series.Samples[n-2].Close
	abs = series.Samples[n-1].Close.Sub(prev)
	if prev.IsZero() {
		return abs, decimal.NullDecimal{}, nil
	}
	return abs, decimal.NewNullDecimal(abs.DivRound(prev, percentPlaces)), nil
}

// OneYearTarget applies formula to the latest close and the analyst estimate.
// Without an estimate, or without a close, the target is Unavailable.
func OneYearTarget(series model.PriceSeries, estimate decimal.NullDecimal, formula TargetFormula) decimal.NullDecimal {
	if !estimate.Valid {
		return decimal.NullDecimal{}
	}
	last, ok := series.Last()
	if !ok {
		return decimal.NullDecimal{}
	}
	target := last.Close.Add(formula.Weight.Mul(estimate.Decimal.Sub(last.Close)))
	return decimal.NewNullDecimal(target)
}

// Value composes Price, Change and OneYearTarget into a Valuation. A series
// too short for Change leaves the change fields Unavailable.
func Value(series model.PriceSeries, class model.AssetClass, estimate decimal.NullDecimal, formula TargetFormula) (model.Valuation, error) {
	price, err := Price(series)
	if err != nil {
		return model.Valuation{}, err
	}
	last, _ := series.Last()

	v := model.Valuation{
		Symbol:        series.Symbol,
		AssetClass:    class,
		Currency:      series.Currency,
		Price:         price,
		OneYearTarget: OneYearTarget(series, estimate, formula),
		AsOf:          last.Time,
	}

	abs, pct, err := Change(series)
	var insufficient *model.InsufficientDataError
	switch {
	case err == nil:
		v.DayChange = decimal.NewNullDecimal(abs)
		v.DayChangePercent = pct
	case !errors.As(err, &insufficient):
		return model.Valuation{}, err
	}
	return v, nil
}

// PositionValue returns price × shares. shares must be positive.
func PositionValue(price, shares decimal.Decimal) (decimal.Decimal, error) {
	if !shares.IsPositive() {
		return decimal.Zero, &model.ValidationError{Field: "shares", Reason: "must be greater than zero"}
	}
	return price.Mul(shares), nil
}
