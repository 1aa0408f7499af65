// Package server exposes the valuation engine as a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"ProfitPortal/internal/common"
	"ProfitPortal/internal/model"
	"ProfitPortal/internal/recorder"
)

// Engine is the part of the valuation engine the API serves.
type Engine interface {
	GetValuation(ctx context.Context, raw string, class model.AssetClass) (model.Valuation, error)
	Position(ctx context.Context, raw string, class model.AssetClass, shares decimal.Decimal) (model.Holding, error)
	History(ctx context.Context, raw string, class model.AssetClass, start, end time.Time) (model.PriceSeries, error)
	RecentLookups(limit int) ([]recorder.LookupEvent, error)
}

// Server wraps the HTTP server and the engine it serves.
type Server struct {
	engine Engine
	server *http.Server
	logger *common.Logger
	now    func() time.Time
}

// NewServer creates a new HTTP API server listening on addr.
func NewServer(e Engine, addr string, logger *common.Logger) *Server {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Server{
		engine: e,
		logger: logger,
		now:    time.Now,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      applyMiddleware(mux, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking). It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("starting HTTP API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
