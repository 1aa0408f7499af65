// Package report renders valuations as text and maps errors to user-facing messages.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"ProfitPortal/internal/model"
)

// Unavailable is shown in place of a figure the feed could not supply.
const Unavailable = "N/A"

// Money formats amount in currency, rounded to the currency's minor unit.
func Money(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = money.USD
	}
	// money.New never returns a nil currency, even for unknown codes
	cur := *money.New(0, currency).Currency()
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// SignedMoney is Money with an explicit + on positive amounts.
func SignedMoney(amount decimal.Decimal, currency string) string {
	if amount.IsPositive() {
		return "+" + Money(amount, currency)
	}
	return Money(amount, currency)
}

// Figure formats an optional amount, Unavailable when absent.
func Figure(d decimal.NullDecimal, currency string) string {
	if !d.Valid {
		return Unavailable
	}
	return Money(d.Decimal, currency)
}

// Percent formats a fraction (0.0097) as a signed percentage (+0.97%).
func Percent(d decimal.NullDecimal) string {
	if !d.Valid {
		return Unavailable
	}
	p := d.Decimal.Shift(2).StringFixed(2)
	if d.Decimal.IsPositive() {
		p = "+" + p
	}
	return p + "%"
}

// FormatValuation renders one valuation for the terminal.
func FormatValuation(v model.Valuation) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s (%s) | %s\n", v.Symbol, v.AssetClass, v.AsOf.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Price:           %s\n", Money(v.Price, v.Currency)))
	change := Unavailable
	if v.DayChange.Valid {
		change = SignedMoney(v.DayChange.Decimal, v.Currency)
	}
	b.WriteString(fmt.Sprintf("Change:          %s (%s)\n", change, Percent(v.DayChangePercent)))
	b.WriteString(fmt.Sprintf("1y Target Est.:  %s\n", Figure(v.OneYearTarget, v.Currency)))
	return b.String()
}

// FormatHoldings renders holdings as an aligned table with a total row per currency.
func FormatHoldings(holdings []model.Holding) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Symbol\tShares\tPrice\tChange\t1y Target Est.\tTotal Value\t")

	totals := map[string]decimal.Decimal{}
	var currencies []string
	for _, h := range holdings {
		v := h.Valuation
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			v.Symbol, h.Shares.String(), Money(v.Price, v.Currency), Percent(v.DayChangePercent),
			Figure(v.OneYearTarget, v.Currency), Money(h.TotalValue, v.Currency))
		if _, ok := totals[v.Currency]; !ok {
			currencies = append(currencies, v.Currency)
		}
		totals[v.Currency] = totals[v.Currency].Add(h.TotalValue)
	}
	for _, cur := range currencies {
		fmt.Fprintf(w, "Total\t\t\t\t\t%s\t\n", Money(totals[cur], cur))
	}
	w.Flush()
	return b.String()
}

// ErrorMessage maps an engine error to the message shown to the user.
func ErrorMessage(err error) string {
	var (
		invalid    *model.InvalidSymbolError
		fetch      *model.FetchError
		validation *model.ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &invalid):
		return fmt.Sprintf("Not a valid ticker: %s", invalid.Symbol)
	case errors.As(err, &validation):
		return fmt.Sprintf("Invalid %s: %s", validation.Field, validation.Reason)
	case errors.As(err, &fetch):
		switch fetch.Kind {
		case model.FetchRateLimited:
			return "Market data is busy right now. Please try again in a moment."
		case model.FetchMalformed, model.FetchRejected:
			return "Market data could not be read. Please try again later."
		case model.FetchNotFound:
			return fmt.Sprintf("Not a valid ticker: %s", fetch.Symbol)
		default:
			return "Market data is temporarily unavailable. Please try again."
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request was canceled before market data arrived. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
