package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"ProfitPortal/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMoney(t *testing.T) {
	assert.Equal(t, "$104.00", Money(dec("104"), "USD"))
	assert.Equal(t, "$1,234.57", Money(dec("1234.567"), "USD"))
	assert.Equal(t, "$0.10", Money(dec("0.1"), ""))
	assert.Equal(t, "+$1.00", SignedMoney(dec("1"), "USD"))
	assert.Equal(t, "-$2.50", SignedMoney(dec("-2.5"), "USD"))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "+0.97%", Percent(decimal.NewNullDecimal(dec("0.00970874"))))
	assert.Equal(t, "-20.00%", Percent(decimal.NewNullDecimal(dec("-0.2"))))
	assert.Equal(t, "0.00%", Percent(decimal.NewNullDecimal(decimal.Zero)))
	assert.Equal(t, Unavailable, Percent(decimal.NullDecimal{}))
}

func TestFormatValuation_UnavailableIsNeverZero(t *testing.T) {
	v := model.Valuation{
		Symbol:     "NEWCO",
		AssetClass: model.AssetClassStock,
		Currency:   "USD",
		Price:      dec("21.5"),
		AsOf:       time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
	}
	out := FormatValuation(v)
	assert.Contains(t, out, "NEWCO (STOCK) | 2024-03-08")
	assert.Contains(t, out, "$21.50")
	assert.Contains(t, out, "Change:          N/A (N/A)")
	assert.Contains(t, out, "1y Target Est.:  N/A")
	assert.NotContains(t, out, "$0.00")
}

func TestFormatValuation(t *testing.T) {
	v := model.Valuation{
		Symbol:           "AAPL",
		AssetClass:       model.AssetClassStock,
		Currency:         "USD",
		Price:            dec("104"),
		DayChange:        decimal.NewNullDecimal(dec("1")),
		DayChangePercent: decimal.NewNullDecimal(dec("0.00970874")),
		OneYearTarget:    decimal.NewNullDecimal(dec("150.255")),
	}
	out := FormatValuation(v)
	assert.Contains(t, out, "Price:           $104.00")
	assert.Contains(t, out, "Change:          +$1.00 (+0.97%)")
	assert.Contains(t, out, "1y Target Est.:  $150.26")
}

func TestFormatHoldings(t *testing.T) {
	holdings := []model.Holding{
		{
			Valuation:  model.Valuation{Symbol: "AAPL", Currency: "USD", Price: dec("104")},
			Shares:     dec("2"),
			TotalValue: dec("208"),
		},
		{
			Valuation:  model.Valuation{Symbol: "MSFT", Currency: "USD", Price: dec("400.5")},
			Shares:     dec("1"),
			TotalValue: dec("400.5"),
		},
	}
	out := FormatHoldings(holdings)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Total Value")
	assert.Contains(t, lines[1], "$208.00")
	assert.Contains(t, lines[2], "$400.50")
	assert.Contains(t, lines[3], "$608.50")
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&model.InvalidSymbolError{Symbol: "ZZZZ"}, "Not a valid ticker: ZZZZ"},
		{fmt.Errorf("quote: %w", &model.InvalidSymbolError{Symbol: "ZZZZ"}), "Not a valid ticker: ZZZZ"},
		{&model.ValidationError{Field: "shares", Reason: "must be greater than zero"}, "Invalid shares: must be greater than zero"},
		{&model.FetchError{Kind: model.FetchRateLimited}, "Market data is busy right now. Please try again in a moment."},
		{&model.FetchError{Kind: model.FetchTimeout}, "Market data is temporarily unavailable. Please try again."},
		{&model.FetchError{Kind: model.FetchUnavailable}, "Market data is temporarily unavailable. Please try again."},
		{&model.FetchError{Kind: model.FetchMalformed}, "Market data could not be read. Please try again later."},
		{context.Canceled, "The request was canceled before market data arrived. Please try again."},
		{errors.New("boom"), "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorMessage(tt.err))
	}
}
