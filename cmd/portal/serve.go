package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"ProfitPortal/internal/scheduler"
	"ProfitPortal/internal/server"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the valuation API over HTTP" }
func (*serveCmd) Usage() string {
	return `portal serve [-addr host:port]

  Starts the JSON API, the cache sweeper and, when warm.symbols is set,
  the cache warmer. Stops on SIGINT or SIGTERM.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address, overrides server.addr")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, a.cache, a.engine, a.logger)
	if err := sched.RegisterAll(a.cfg.Cache.SweepCron, a.cfg.Warm.Cron, a.cfg.Warm.Symbols); err != nil {
		a.logger.Error().Err(err).Msg("register cron tasks")
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()
	if len(a.cfg.Warm.Symbols) > 0 {
		go sched.RunWarmNow()
	}

	addr := a.cfg.Server.Addr
	if c.addr != "" {
		addr = c.addr
	}
	srv := server.NewServer(a.engine, addr, a.logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("HTTP server")
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		a.logger.Info().Msg("shutdown signal received, stopping...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("HTTP shutdown")
			return subcommands.ExitFailure
		}
	}
	a.logger.Info().Msg("ProfitPortal stopped")
	return subcommands.ExitSuccess
}
