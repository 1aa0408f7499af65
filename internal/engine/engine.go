// Package engine is the valuation facade: it validates a ticker, fetches its
// recent series once, derives the figures and memoizes the result.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ProfitPortal/internal/cache"
	"ProfitPortal/internal/calculator"
	"ProfitPortal/internal/collector"
	"ProfitPortal/internal/common"
	"ProfitPortal/internal/model"
	"ProfitPortal/internal/recorder"
	"ProfitPortal/internal/symbol"
)

const DefaultWarmConcurrency = 4

// Options tunes an Engine. Zero values select defaults.
type Options struct {
	Lookback        time.Duration
	Target          *calculator.TargetFormula // nil reports the consensus unchanged
	WarmConcurrency int
}

// Engine answers valuation requests. It is safe for concurrent use.
type Engine struct {
	collector *collector.Collector
	validator *symbol.Validator
	cache     *cache.Cache
	recorder  recorder.Recorder
	logger    *common.Logger

	formula   calculator.TargetFormula
	warmLimit int
}

// New creates an Engine over one collector and one cache.
func New(c *collector.Collector, vc *cache.Cache, rec recorder.Recorder, logger *common.Logger, opts Options) *Engine {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	e := &Engine{
		collector: c,
		validator: symbol.NewValidator(c, opts.Lookback),
		cache:     vc,
		recorder:  rec,
		logger:    logger,
		formula:   calculator.DefaultTargetFormula(),
		warmLimit: opts.WarmConcurrency,
	}
	if opts.Target != nil {
		e.formula = *opts.Target
	}
	if e.warmLimit <= 0 {
		e.warmLimit = DefaultWarmConcurrency
	}
	return e
}

// GetValuation returns the valuation of raw, served from the cache when fresh.
// Errors are *model.ValidationError, *model.InvalidSymbolError or *model.FetchError,
// or ctx.Err() when the caller gives up first.
func (e *Engine) GetValuation(ctx context.Context, raw string, class model.AssetClass) (model.Valuation, error) {
	started := time.Now()
	v, hit, err := e.getValuation(ctx, raw, class)
	e.record(raw, class, err, hit, time.Since(started))
	return v, err
}

func (e *Engine) getValuation(ctx context.Context, raw string, class model.AssetClass) (model.Valuation, bool, error) {
	sym, class, err := e.parse(raw, class)
	if err != nil {
		return model.Valuation{}, false, err
	}

	// the load outlives callers that give up; others may be waiting on it
	loadCtx := context.WithoutCancel(ctx)
	v, hit, err := e.cache.Do(ctx, sym, class, func() (model.Valuation, bool, error) {
		return e.load(loadCtx, sym, class)
	})
	if err == nil {
		e.logger.Debug().Str("symbol", sym.String()).Bool("cache_hit", hit).Msg("valuation served")
	}
	return v, hit, err
}

// load builds the valuation of sym. partial is set when the analyst target
// failed, so the cache keeps the result only briefly and the next lookup asks
// for the target again.
func (e *Engine) load(ctx context.Context, sym model.Symbol, class model.AssetClass) (v model.Valuation, partial bool, err error) {
	res, err := e.validator.Resolve(ctx, sym, class)
	if err != nil {
		return model.Valuation{}, false, err
	}

	target, err := e.collector.FetchTarget(ctx, sym, class)
	if err != nil {
		e.logger.Warn().Err(err).Str("symbol", sym.String()).Msg("analyst target unavailable")
		target = decimal.NullDecimal{}
		partial = true
	}

	v, err = calculator.Value(res.Series, class, target, e.formula)
	if err != nil {
		return model.Valuation{}, false, err
	}
	e.logger.Info().
		Str("symbol", sym.String()).
		Str("price", v.Price.String()).
		Int("samples", res.Series.Len()).
		Bool("partial", partial).
		Msg("valuation loaded")
	return v, partial, nil
}

// Position values a holding of shares in raw. shares must be positive and is
// checked before any fetch.
func (e *Engine) Position(ctx context.Context, raw string, class model.AssetClass, shares decimal.Decimal) (model.Holding, error) {
	if !shares.IsPositive() {
		err := &model.ValidationError{Field: "shares", Reason: "must be greater than zero"}
		e.record(raw, class, err, false, 0)
		return model.Holding{}, err
	}
	v, err := e.GetValuation(ctx, raw, class)
	if err != nil {
		return model.Holding{}, err
	}
	total, err := calculator.PositionValue(v.Price, shares)
	if err != nil {
		return model.Holding{}, err
	}
	return model.Holding{Valuation: v, Shares: shares, TotalValue: total}, nil
}

// History returns the uncached daily series of raw over [start, end]. An empty
// series is returned as is; a feed that does not know the symbol is an InvalidSymbolError.
func (e *Engine) History(ctx context.Context, raw string, class model.AssetClass, start, end time.Time) (model.PriceSeries, error) {
	started := time.Now()
	series, err := e.history(ctx, raw, class, start, end)
	e.record(raw, class, err, false, time.Since(started))
	return series, err
}

func (e *Engine) history(ctx context.Context, raw string, class model.AssetClass, start, end time.Time) (model.PriceSeries, error) {
	sym, class, err := e.parse(raw, class)
	if err != nil {
		return model.PriceSeries{}, err
	}
	series, err := e.collector.FetchSeries(ctx, sym, class, start, end)
	if err != nil {
		var fe *model.FetchError
		if errors.As(err, &fe) && fe.Kind == model.FetchNotFound {
			return model.PriceSeries{}, &model.InvalidSymbolError{Symbol: sym.String()}
		}
		return model.PriceSeries{}, err
	}
	return series, nil
}

// Warm loads every symbol not already cached, at most WarmConcurrency at a time.
// It returns the joined errors of the symbols that failed.
func (e *Engine) Warm(ctx context.Context, symbols []string, class model.AssetClass) error {
	errs := make([]error, len(symbols))
	g := new(errgroup.Group)
	g.SetLimit(e.warmLimit)
	for i, s := range symbols {
		g.Go(func() error {
			if _, err := e.GetValuation(ctx, s, class); err != nil {
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		e.logger.Warn().Err(err).Int("symbols", len(symbols)).Msg("cache warm incomplete")
	} else {
		e.logger.Info().Int("symbols", len(symbols)).Msg("cache warmed")
	}
	return err
}

// RecentLookups returns the latest recorded lookups, newest first.
func (e *Engine) RecentLookups(limit int) ([]recorder.LookupEvent, error) {
	return e.recorder.Recent(limit)
}

func (e *Engine) parse(raw string, class model.AssetClass) (model.Symbol, model.AssetClass, error) {
	c, err := model.ParseAssetClass(string(class))
	if err != nil {
		return "", "", err
	}
	sym, err := symbol.Normalize(raw)
	if err != nil {
		return "", "", err
	}
	return sym, c, nil
}

func (e *Engine) record(raw string, class model.AssetClass, err error, hit bool, latency time.Duration) {
	name := raw
	if sym, nerr := symbol.Normalize(raw); nerr == nil {
		name = sym.String()
	}
	if class == "" {
		class = model.AssetClassStock
	}
	if rerr := e.recorder.RecordLookup(recorder.NewLookupEvent(name, class, err, hit, latency)); rerr != nil {
		e.logger.Error().Err(rerr).Str("symbol", name).Msg("record lookup")
	}
}
