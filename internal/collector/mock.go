package collector

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ProfitPortal/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Errors queued in SeriesErrs/TargetErrs are returned, in order, before data is served.
type MockFetcher struct {
	mu sync.Mutex

	Series     map[model.Symbol][]model.PriceSample
	Targets    map[model.Symbol]decimal.NullDecimal
	SeriesErrs []error
	TargetErrs []error

	// Gate, when non-nil, holds every series call until it is closed.
	Gate chan struct{}

	seriesCalls int
	targetCalls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailySeries(ctx context.Context, symbol model.Symbol, _ model.AssetClass, _, _ time.Time) (model.PriceSeries, error) {
	m.mu.Lock()
	m.seriesCalls++
	var err error
	if len(m.SeriesErrs) > 0 {
		err, m.SeriesErrs = m.SeriesErrs[0], m.SeriesErrs[1:]
	}
	samples := append([]model.PriceSample(nil), m.Series[symbol]...)
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return model.PriceSeries{}, ctx.Err()
		}
	}
	if err != nil {
		return model.PriceSeries{}, err
	}
	return model.PriceSeries{Symbol: symbol, Currency: "USD", Samples: samples}, nil
}

func (m *MockFetcher) FetchAnalystTarget(_ context.Context, symbol model.Symbol, _ model.AssetClass) (decimal.NullDecimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targetCalls++
	if len(m.TargetErrs) > 0 {
		var err error
		err, m.TargetErrs = m.TargetErrs[0], m.TargetErrs[1:]
		return decimal.NullDecimal{}, err
	}
	return m.Targets[symbol], nil
}

// SetSeries replaces the samples served for symbol.
func (m *MockFetcher) SetSeries(symbol model.Symbol, samples []model.PriceSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Series == nil {
		m.Series = make(map[model.Symbol][]model.PriceSample)
	}
	m.Series[symbol] = samples
}

func (m *MockFetcher) SeriesCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seriesCalls
}

func (m *MockFetcher) TargetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.targetCalls
}

// DailySamples builds one sample per day ending on end, one per close.
func DailySamples(end time.Time, closes ...float64) []model.PriceSample {
	end = end.UTC().Truncate(24 * time.Hour)
	samples := make([]model.PriceSample, len(closes))
	for i, c := range closes {
		p := decimal.NewFromFloat(c)
		volume := int64(1000000)
		samples[i] = model.PriceSample{
			Time:   end.AddDate(0, 0, -(len(closes) - 1 - i)),
			Open:   p,
			High:   p,
			Low:    p,
			Close:  p,
			Volume: &volume,
		}
	}
	return samples
}
