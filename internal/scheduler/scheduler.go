package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"ProfitPortal/internal/cache"
	"ProfitPortal/internal/common"
	"ProfitPortal/internal/model"
)

// Warmer refreshes a watch list of symbols.
type Warmer interface {
	Warm(ctx context.Context, symbols []string, class model.AssetClass) error
}

// Scheduler manages the background cache jobs.
type Scheduler struct {
	Cron   *cron.Cron
	Cache  *cache.Cache
	Warmer Warmer
	Logger *common.Logger
	Ctx    context.Context

	symbols []string
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, c *cache.Cache, w Warmer, logger *common.Logger) *Scheduler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Cache:  c,
		Warmer: w,
		Logger: logger,
		Ctx:    ctx,
	}
}

// RegisterAll registers the sweep job and, when symbols is not empty, the warm job.
func (s *Scheduler) RegisterAll(sweepCron, warmCron string, symbols []string) error {
	if _, err := s.Cron.AddFunc(sweepCron, s.sweepTask); err != nil {
		return fmt.Errorf("register sweep task: %w", err)
	}
	if len(symbols) == 0 {
		return nil
	}
	s.symbols = append([]string(nil), symbols...)
	if _, err := s.Cron.AddFunc(warmCron, s.warmTask); err != nil {
		return fmt.Errorf("register warm task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info().Msg("scheduler stopped")
}

// RunWarmNow executes the warm job immediately (startup prefetch).
func (s *Scheduler) RunWarmNow() {
	s.warmTask()
}

func (s *Scheduler) sweepTask() {
	removed := s.Cache.Sweep()
	s.Logger.Debug().Int("removed", removed).Int("remaining", s.Cache.Len()).Msg("cache swept")
}

func (s *Scheduler) warmTask() {
	if len(s.symbols) == 0 {
		return
	}
	s.Logger.Info().Strs("symbols", s.symbols).Msg("running warm task")
	if err := s.Warmer.Warm(s.Ctx, s.symbols, model.AssetClassStock); err != nil {
		s.Logger.Error().Err(err).Msg("warm task")
	}
}
