// Package symbol normalizes tickers and confirms they resolve to an instrument.
package symbol

import (
	"context"
	"errors"
	"strings"
	"time"

	"ProfitPortal/internal/collector"
	"ProfitPortal/internal/model"
)

const (
	MaxLength       = 10
	DefaultLookback = 7 * 24 * time.Hour
)

// Normalize trims and uppercases raw. Empty input is a ValidationError; input
// that cannot be a ticker is an InvalidSymbolError, decided without any I/O.
func Normalize(raw string) (model.Symbol, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", &model.ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if len(s) > MaxLength {
		return "", &model.InvalidSymbolError{Symbol: s}
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return "", &model.InvalidSymbolError{Symbol: s}
		}
	}
	return model.Symbol(s), nil
}

// Resolution is a resolved symbol together with the window fetched to resolve it,
// so callers can compute from it without fetching again.
type Resolution struct {
	Symbol model.Symbol
	Class  model.AssetClass
	Series model.PriceSeries
}

// Validator resolves symbols with one short-window fetch.
type Validator struct {
	collector *collector.Collector
	lookback  time.Duration
	now       func() time.Time
}

// NewValidator creates a Validator. lookback <= 0 uses DefaultLookback.
func NewValidator(c *collector.Collector, lookback time.Duration) *Validator {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Validator{collector: c, lookback: lookback, now: time.Now}
}

// Resolve fetches the recent window of sym. An empty window or a definitive
// not-found from the feed is an InvalidSymbolError; other fetch errors pass through.
func (v *Validator) Resolve(ctx context.Context, sym model.Symbol, class model.AssetClass) (Resolution, error) {
	end := v.now().UTC()
	start := end.Add(-v.lookback)

	series, err := v.collector.FetchSeries(ctx, sym, class, start, end)
	if err != nil {
		var fe *model.FetchError
		if errors.As(err, &fe) && fe.Kind == model.FetchNotFound {
			return Resolution{}, &model.InvalidSymbolError{Symbol: sym.String()}
		}
		return Resolution{}, err
	}
	if series.IsEmpty() {
		return Resolution{}, &model.InvalidSymbolError{Symbol: sym.String()}
	}
	return Resolution{Symbol: sym, Class: class, Series: series}, nil
}

// Validate normalizes raw and resolves it.
func (v *Validator) Validate(ctx context.Context, raw string, class model.AssetClass) (Resolution, error) {
	sym, err := Normalize(raw)
	if err != nil {
		return Resolution{}, err
	}
	return v.Resolve(ctx, sym, class)
}
