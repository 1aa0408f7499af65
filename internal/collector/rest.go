package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ProfitPortal/internal/model"
)

const DefaultRESTTargetPath = "$.target_mean"

// RESTFetcher implements Fetcher against a plain REST market-data API:
//
//	GET {base}/api/v1/bars/daily?symbol=X&from=YYYY-MM-DD&to=YYYY-MM-DD
//	GET {base}/api/v1/estimates?symbol=X
type RESTFetcher struct {
	feedClient
	BaseURL    string
	Currency   string
	TargetPath string
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(opts FeedOptions) *RESTFetcher {
	f := &RESTFetcher{
		feedClient: newFeedClient(opts),
		BaseURL:    strings.TrimRight(opts.BaseURL, "/"),
		Currency:   "USD",
		TargetPath: opts.TargetPath,
	}
	if f.TargetPath == "" {
		f.TargetPath = DefaultRESTTargetPath
	}
	if opts.APIKey != "" {
		f.header.Set("Authorization", "Bearer "+opts.APIKey)
	}
	return f
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars endpoint.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
}

func (f *RESTFetcher) FetchDailySeries(ctx context.Context, symbol model.Symbol, _ model.AssetClass, start, end time.Time) (model.PriceSeries, error) {
	const op = "rest bars"
	params := url.Values{}
	params.Set("symbol", symbol.String())
	params.Set("from", start.Format("2006-01-02"))
	params.Set("to", end.Format("2006-01-02"))

	body, err := f.get(ctx, op, symbol, f.BaseURL+"/api/v1/bars/daily?"+params.Encode())
	if err != nil {
		return model.PriceSeries{}, err
	}

	var bars []restBar
	if err := json.Unmarshal(body, &bars); err != nil {
		return model.PriceSeries{}, malformed(op, symbol, fmt.Errorf("decode bars: %w", err))
	}
	series := model.PriceSeries{Symbol: symbol, Currency: f.Currency, Samples: make([]model.PriceSample, 0, len(bars))}
	for _, b := range bars {
		if s, ok := newSample(b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume); ok {
			series.Samples = append(series.Samples, s)
		}
	}
	return series, nil
}

func (f *RESTFetcher) FetchAnalystTarget(ctx context.Context, symbol model.Symbol, _ model.AssetClass) (decimal.NullDecimal, error) {
	const op = "rest estimates"
	body, err := f.get(ctx, op, symbol, f.BaseURL+"/api/v1/estimates?symbol="+url.QueryEscape(symbol.String()))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	target, err := extractFigure(body, f.TargetPath)
	if err != nil {
		return decimal.NullDecimal{}, malformed(op, symbol, fmt.Errorf("decode estimates: %w", err))
	}
	return target, nil
}
