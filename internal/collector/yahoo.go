package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"ProfitPortal/internal/model"
)

const (
	DefaultYahooChartURL   = "https://query1.finance.yahoo.com"
	DefaultYahooSummaryURL = "https://query2.finance.yahoo.com"
	DefaultYahooTargetPath = "$.quoteSummary.result[0].financialData.targetMeanPrice.raw"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	feedClient
	ChartURL   string
	SummaryURL string
	TargetPath string
	SymbolMap  map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher. A non-empty BaseURL
// replaces both Yahoo hosts.
func NewYahooFetcher(opts FeedOptions) *YahooFetcher {
	f := &YahooFetcher{
		feedClient: newFeedClient(opts),
		ChartURL:   DefaultYahooChartURL,
		SummaryURL: DefaultYahooSummaryURL,
		TargetPath: opts.TargetPath,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
	if opts.BaseURL != "" {
		f.ChartURL = opts.BaseURL
		f.SummaryURL = opts.BaseURL
	}
	if f.TargetPath == "" {
		f.TargetPath = DefaultYahooTargetPath
	}
	f.header.Set("User-Agent", "Mozilla/5.0")
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol model.Symbol) string {
	if mapped, ok := f.SymbolMap[symbol.String()]; ok {
		return mapped
	}
	return symbol.String()
}

// yahooChart is the response structure from Yahoo Finance chart API.
// Prices are pointers because Yahoo sends null for bars without trades.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDailySeries fetches daily bars over [start, end].
func (f *YahooFetcher) FetchDailySeries(ctx context.Context, symbol model.Symbol, _ model.AssetClass, start, end time.Time) (model.PriceSeries, error) {
	const op = "yahoo chart"
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		f.ChartURL, url.PathEscape(f.yahooSymbol(symbol)), start.Unix(), end.AddDate(0, 0, 1).Unix())

	body, err := f.get(ctx, op, symbol, u)
	if err != nil {
		return model.PriceSeries{}, err
	}
	return parseYahooChart(op, symbol, body)
}

func parseYahooChart(op string, symbol model.Symbol, body []byte) (model.PriceSeries, error) {
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return model.PriceSeries{}, malformed(op, symbol, fmt.Errorf("yahoo decode: %w", err))
	}
	if e := chart.Chart.Error; e != nil {
		kind := model.FetchRejected
		if e.Code == "Not Found" {
			kind = model.FetchNotFound
		}
		return model.PriceSeries{}, &model.FetchError{Kind: kind, Op: op, Symbol: symbol.String(), Err: errors.New(e.Description)}
	}

	series := model.PriceSeries{Symbol: symbol, Currency: "USD"}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return series, nil
	}

	result := chart.Chart.Result[0]
	if result.Meta.Currency != "" {
		series.Currency = result.Meta.Currency
	}
	if len(result.Indicators.Quote) == 0 {
		return model.PriceSeries{}, malformed(op, symbol, errors.New("timestamps without quotes"))
	}
	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n || len(quote.Close) != n {
		return model.PriceSeries{}, malformed(op, symbol, fmt.Errorf("%d timestamps but quote arrays of %d/%d/%d/%d",
			n, len(quote.Open), len(quote.High), len(quote.Low), len(quote.Close)))
	}

	series.Samples = make([]model.PriceSample, 0, n)
	for i, ts := range result.Timestamp {
		var vol *float64
		if i < len(quote.Volume) {
			vol = quote.Volume[i]
		}
		if s, ok := newSample(ts, quote.Open[i], quote.High[i], quote.Low[i], quote.Close[i], vol); ok {
			series.Samples = append(series.Samples, s)
		}
	}
	return series, nil
}

// FetchAnalystTarget reads the consensus one-year target from quoteSummary.
func (f *YahooFetcher) FetchAnalystTarget(ctx context.Context, symbol model.Symbol, _ model.AssetClass) (decimal.NullDecimal, error) {
	const op = "yahoo quoteSummary"
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=financialData",
		f.SummaryURL, url.PathEscape(f.yahooSymbol(symbol)))

	body, err := f.get(ctx, op, symbol, u)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	target, err := extractFigure(body, f.TargetPath)
	if err != nil {
		return decimal.NullDecimal{}, malformed(op, symbol, fmt.Errorf("yahoo decode: %w", err))
	}
	return target, nil
}
