package collector

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"ProfitPortal/internal/model"
)

// Fetcher defines the interface for fetching market data from one feed.
// Implementations return *model.FetchError for every failure.
type Fetcher interface {
	FetchDailySeries(ctx context.Context, symbol model.Symbol, class model.AssetClass, start, end time.Time) (model.PriceSeries, error)
	FetchAnalystTarget(ctx context.Context, symbol model.Symbol, class model.AssetClass) (decimal.NullDecimal, error)
	Name() string
}

// newSample builds a sample from nullable feed values. Bars with a missing or
// non-finite price are dropped (holidays, halted sessions); when that bar is the
// newest one, the latest sample and so the valuation's AsOf fall on the session
// before. A missing or non-finite volume stays nil.
func newSample(ts int64, o, h, l, c, v *float64) (model.PriceSample, bool) {
	for _, p := range []*float64{o, h, l, c} {
		if p == nil || !finite(*p) {
			return model.PriceSample{}, false
		}
	}
	var volume *int64
	if v != nil && finite(*v) {
		n := int64(*v)
		volume = &n
	}
	return model.PriceSample{
		Time:   time.Unix(ts, 0).UTC(),
		Open:   decimal.NewFromFloat(*o),
		High:   decimal.NewFromFloat(*h),
		Low:    decimal.NewFromFloat(*l),
		Close:  decimal.NewFromFloat(*c),
		Volume: volume,
	}, true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
