package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"ProfitPortal/internal/common"
	"ProfitPortal/internal/model"
)

// RetryPolicy bounds the attempts made for one feed call.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	Factor         float64
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy is 3 attempts, 250ms then 500ms apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseDelay:      250 * time.Millisecond,
		Factor:         2,
		AttemptTimeout: DefaultTimeout,
	}
}

// Collector wraps a Fetcher with range validation, retries and series normalization.
type Collector struct {
	Fetcher Fetcher
	Policy  RetryPolicy
	Logger  *common.Logger

	// OnRetry, if set, is called before each backoff wait.
	OnRetry func(attempt int, delay time.Duration, err error)

	timer backoff.Timer // nil uses the real clock
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, policy RetryPolicy, logger *common.Logger) *Collector {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Collector{Fetcher: fetcher, Policy: policy, Logger: logger}
}

// FetchSeries returns the daily series of symbol over [start, end], sorted
// ascending with duplicate timestamps collapsed (the later one wins).
func (c *Collector) FetchSeries(ctx context.Context, symbol model.Symbol, class model.AssetClass, start, end time.Time) (model.PriceSeries, error) {
	if start.After(end) {
		return model.PriceSeries{}, &model.ValidationError{
			Field:  "range",
			Reason: fmt.Sprintf("start %s is after end %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		}
	}

	var series model.PriceSeries
	err := c.retry(ctx, "fetch series", symbol, func(ctx context.Context) error {
		s, err := c.Fetcher.FetchDailySeries(ctx, symbol, class, start, end)
		if err != nil {
			return err
		}
		series = s
		return nil
	})
	if err != nil {
		return model.PriceSeries{}, err
	}

	series.Symbol = symbol
	series.Samples = normalize(series.Samples)
	return series, nil
}

// FetchTarget returns the analyst one-year consensus, or Unavailable when the
// feed has none.
func (c *Collector) FetchTarget(ctx context.Context, symbol model.Symbol, class model.AssetClass) (decimal.NullDecimal, error) {
	if class != model.AssetClassStock {
		return decimal.NullDecimal{}, nil
	}
	var target decimal.NullDecimal
	err := c.retry(ctx, "fetch target", symbol, func(ctx context.Context) error {
		t, err := c.Fetcher.FetchAnalystTarget(ctx, symbol, class)
		if err != nil {
			return err
		}
		target = t
		return nil
	})
	return target, err
}

func (c *Collector) retry(ctx context.Context, op string, symbol model.Symbol, call func(context.Context) error) error {
	policy := c.Policy
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}

	attempts := 0
	operation := func() error {
		attempts++
		actx := ctx
		if policy.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, policy.AttemptTimeout)
			defer cancel()
		}
		err := call(actx)
		if err == nil {
			return nil
		}
		var fe *model.FetchError
		if !errors.As(err, &fe) {
			fe = transportError(op, symbol, err)
			err = fe
		}
		if !fe.Kind.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.BaseDelay
	exp.Multiplier = policy.Factor
	exp.RandomizationFactor = 0
	exp.MaxInterval = time.Minute
	exp.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(policy.MaxAttempts-1)), ctx)

	notify := func(err error, delay time.Duration) {
		c.Logger.Warn().Err(err).
			Str("symbol", symbol.String()).
			Int("attempt", attempts).
			Dur("retry_in", delay).
			Msg(op + " failed, retrying")
		if c.OnRetry != nil {
			c.OnRetry(attempts, delay, err)
		}
	}

	err := backoff.RetryNotifyWithTimer(operation, b, notify, c.timer)
	if err == nil {
		return nil
	}
	var fe *model.FetchError
	if errors.As(err, &fe) {
		out := *fe
		out.Attempts = attempts
		return &out
	}
	// ctx ended while waiting between attempts
	return &model.FetchError{Kind: model.FetchTimeout, Op: op, Symbol: symbol.String(), Attempts: attempts, Err: err}
}

func normalize(samples []model.PriceSample) []model.PriceSample {
	sorted := make([]model.PriceSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := sorted[:0]
	for _, s := range sorted {
		if n := len(out); n > 0 && out[n-1].Time.Equal(s.Time) {
			out[n-1] = s
			continue
		}
		out = append(out, s)
	}
	return out
}
