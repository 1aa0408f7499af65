package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Valuation is the computed view of a symbol at the time of its latest sample.
// NullDecimal fields with Valid=false are Unavailable and must not be rendered as zero.
type Valuation struct {
	Symbol           Symbol              `json:"symbol"`
	AssetClass       AssetClass          `json:"asset_class"`
	Currency         string              `json:"currency"`
	Price            decimal.Decimal     `json:"price"`
	DayChange        decimal.NullDecimal `json:"day_change"`
	DayChangePercent decimal.NullDecimal `json:"day_change_percent"`
	OneYearTarget    decimal.NullDecimal `json:"one_year_target"`
	AsOf             time.Time           `json:"as_of"`
}

// Holding is a Valuation scaled to a number of shares.
type Holding struct {
	Valuation  Valuation       `json:"valuation"`
	Shares     decimal.Decimal `json:"shares"`
	TotalValue decimal.Decimal `json:"total_value"`
}
