package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Symbol is a normalized ticker: uppercase, trimmed, 1-10 characters.
type Symbol string

func (s Symbol) String() string { return string(s) }

// AssetClass tags the kind of instrument a Symbol names.
type AssetClass string

const (
	AssetClassStock AssetClass = "STOCK"
)

// ParseAssetClass maps a caller-supplied tag to a supported AssetClass.
// An empty tag defaults to STOCK.
func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(AssetClassStock):
		return AssetClassStock, nil
	default:
		return "", &ValidationError{Field: "asset_class", Reason: "unsupported asset class " + s}
	}
}

// PriceSample represents a single daily candlestick bar. Volume is nil when
// the feed did not report one.
type PriceSample struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume *int64
}

// PriceSeries holds the samples of one symbol, ascending by time with unique timestamps.
// An empty series means the feed knows nothing about the symbol for the requested range.
type PriceSeries struct {
	Symbol   Symbol
	Currency string
	Samples  []PriceSample
}

func (s PriceSeries) Len() int { return len(s.Samples) }

func (s PriceSeries) IsEmpty() bool { return len(s.Samples) == 0 }

// Last returns the most recent sample. ok is false on an empty series.
func (s PriceSeries) Last() (PriceSample, bool) {
	if len(s.Samples) == 0 {
		return PriceSample{}, false
	}
	return s.Samples[len(s.Samples)-1], true
}
