package main

import (
	"fmt"

	"ProfitPortal/internal/cache"
	"ProfitPortal/internal/calculator"
	"ProfitPortal/internal/collector"
	"ProfitPortal/internal/common"
	"ProfitPortal/internal/config"
	"ProfitPortal/internal/engine"
	"ProfitPortal/internal/recorder"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *common.Logger
	cache    *cache.Cache
	recorder recorder.Recorder
	engine   *engine.Engine
}

func newApp() (*app, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	logger := common.NewLogger(cfg.Log.Level)

	fetcher := newFetcher(cfg, logger)
	logger.Info().Str("provider", fetcher.Name()).Msg("data source ready")

	col := collector.NewCollector(fetcher, collector.RetryPolicy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		BaseDelay:      cfg.Retry.BaseDelay,
		Factor:         cfg.Retry.Factor,
		AttemptTimeout: cfg.Retry.AttemptTimeout,
	}, logger)

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}

	weight, err := cfg.TargetWeight()
	if err != nil {
		return nil, err
	}

	vc := cache.New(cache.Options{TTL: cfg.Cache.TTL, NegativeTTL: *cfg.Cache.NegativeTTL})
	e := engine.New(col, vc, rec, logger, engine.Options{
		Lookback:        cfg.Lookback(),
		Target:          &calculator.TargetFormula{Weight: weight},
		WarmConcurrency: cfg.Warm.Concurrency,
	})

	return &app{cfg: cfg, logger: logger, cache: vc, recorder: rec, engine: e}, nil
}

func newFetcher(cfg *config.Config, logger *common.Logger) collector.Fetcher {
	opts := collector.FeedOptions{
		BaseURL:    cfg.DataSource.BaseURL,
		APIKey:     cfg.DataSource.APIKey,
		ProxyURL:   cfg.Proxy,
		Timeout:    cfg.DataSource.Timeout,
		RateLimit:  cfg.DataSource.RateLimit,
		TargetPath: cfg.DataSource.TargetPath,
		Logger:     logger,
	}
	if cfg.DataSource.Provider == "rest" {
		return collector.NewRESTFetcher(opts)
	}
	return collector.NewYahooFetcher(opts)
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		a.logger.Error().Err(err).Msg("close recorder")
	}
}
