package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"ProfitPortal/internal/cache"
	"ProfitPortal/internal/collector"
	"ProfitPortal/internal/common"
	"ProfitPortal/internal/config"
	"ProfitPortal/internal/engine"
	"ProfitPortal/internal/model"
)

func newTestEngine() *engine.Engine {
	mock := &collector.MockFetcher{}
	mock.SetSeries("AAPL", collector.DailySamples(time.Now(), 100, 101, 99, 102, 105, 103, 104))
	mock.SetSeries("MSFT", collector.DailySamples(time.Now(), 400, 404))
	col := collector.NewCollector(mock, collector.DefaultRetryPolicy(), common.NewSilentLogger())
	return engine.New(col, cache.New(cache.Options{}), nil, nil, engine.Options{})
}

func TestQuote_Valuations(t *testing.T) {
	var out, errOut bytes.Buffer
	failed := quote(context.Background(), newTestEngine(), &out, &errOut, []string{"aapl", "QQQQ"}, model.AssetClassStock, false, decimal.Zero)

	assert.Equal(t, 1, failed)
	assert.Contains(t, out.String(), "AAPL (STOCK)")
	assert.Contains(t, out.String(), "$104.00")
	assert.Contains(t, out.String(), "+$1.00 (+0.97%)")
	assert.Equal(t, "QQQQ: Not a valid ticker: QQQQ\n", errOut.String())
}

func TestQuote_Holdings(t *testing.T) {
	var out, errOut bytes.Buffer
	failed := quote(context.Background(), newTestEngine(), &out, &errOut, []string{"AAPL", "MSFT"}, model.AssetClassStock, true, decimal.NewFromInt(2))

	assert.Zero(t, failed)
	assert.Contains(t, out.String(), "$208.00")
	assert.Contains(t, out.String(), "$808.00")
	assert.Contains(t, out.String(), "$1,016.00")
	assert.Empty(t, errOut.String())
}

func TestQuote_RejectsNonPositiveShares(t *testing.T) {
	var out, errOut bytes.Buffer
	failed := quote(context.Background(), newTestEngine(), &out, &errOut, []string{"AAPL"}, model.AssetClassStock, true, decimal.Zero)

	assert.Equal(t, 1, failed)
	assert.Contains(t, errOut.String(), "Invalid shares")
}

func TestNewFetcher(t *testing.T) {
	cfg := &config.Config{}
	cfg.DataSource.Provider = "rest"
	cfg.DataSource.BaseURL = "http://localhost:9000"
	assert.Equal(t, "rest", newFetcher(cfg, common.NewSilentLogger()).Name())

	cfg.DataSource.Provider = "yahoo"
	assert.Equal(t, "yahoo", newFetcher(cfg, common.NewSilentLogger()).Name())
}
