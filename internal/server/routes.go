package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"ProfitPortal/internal/calculator"
	"ProfitPortal/internal/model"
)

const (
	dateLayout         = "2006-01-02"
	defaultHistoryDays = 365
	defaultLookupLimit = 50
)

// registerRoutes sets up all API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/valuation/{symbol}", s.handleValuation)
	mux.HandleFunc("GET /api/position/{symbol}", s.handlePosition)
	mux.HandleFunc("GET /api/history/{symbol}", s.handleHistory)
	mux.HandleFunc("GET /api/lookups", s.handleLookups)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleValuation handles GET /api/valuation/{symbol}?class=STOCK.
func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.GetValuation(r.Context(), r.PathValue("symbol"), assetClass(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, v)
}

// handlePosition handles GET /api/position/{symbol}?class=STOCK&shares=N.
func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("shares")
	shares, err := decimal.NewFromString(raw)
	if err != nil {
		WriteError(w, &model.ValidationError{Field: "shares", Reason: "must be a number, got " + strconv.Quote(raw)})
		return
	}
	h, err := s.engine.Position(r.Context(), r.PathValue("symbol"), assetClass(r), shares)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h)
}

type sampleResponse struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume *int64          `json:"volume"` // null when the feed reported none
}

type historyResponse struct {
	Symbol   model.Symbol        `json:"symbol"`
	Currency string              `json:"currency"`
	From     string              `json:"from"`
	To       string              `json:"to"`
	High     decimal.NullDecimal `json:"high"`
	Low      decimal.NullDecimal `json:"low"`
	Samples  []sampleResponse    `json:"samples"`
}

// handleHistory handles GET /api/history/{symbol}?class=STOCK&from=YYYY-MM-DD&to=YYYY-MM-DD.
// The range defaults to the year ending today.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to := s.now().UTC().Truncate(24 * time.Hour)
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			WriteError(w, &model.ValidationError{Field: "to", Reason: "want YYYY-MM-DD"})
			return
		}
		to = t
	}
	from := to.AddDate(0, 0, -defaultHistoryDays)
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			WriteError(w, &model.ValidationError{Field: "from", Reason: "want YYYY-MM-DD"})
			return
		}
		from = t
	}

	series, err := s.engine.History(r.Context(), r.PathValue("symbol"), assetClass(r), from, to)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := historyResponse{
		Symbol:   series.Symbol,
		Currency: series.Currency,
		From:     from.Format(dateLayout),
		To:       to.Format(dateLayout),
		Samples:  make([]sampleResponse, 0, series.Len()),
	}
	if high, low, err := calculator.Range(series, 0); err == nil {
		resp.High = decimal.NewNullDecimal(high)
		resp.Low = decimal.NewNullDecimal(low)
	}
	for _, p := range series.Samples {
		resp.Samples = append(resp.Samples, sampleResponse(p))
	}
	WriteJSON(w, http.StatusOK, resp)
}

type lookupResponse struct {
	ID         string  `json:"id"`
	Time       string  `json:"time"`
	Symbol     string  `json:"symbol"`
	AssetClass string  `json:"asset_class"`
	Outcome    string  `json:"outcome"`
	ErrorKind  string  `json:"error_kind,omitempty"`
	CacheHit   bool    `json:"cache_hit"`
	LatencyMS  float64 `json:"latency_ms"`
}

// handleLookups handles GET /api/lookups?limit=N, newest first.
func (s *Server) handleLookups(w http.ResponseWriter, r *http.Request) {
	limit := defaultLookupLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			WriteError(w, &model.ValidationError{Field: "limit", Reason: "must be a positive integer"})
			return
		}
		limit = n
	}
	events, err := s.engine.RecentLookups(limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("read lookups")
		WriteError(w, err)
		return
	}
	resp := make([]lookupResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, lookupResponse{
			ID:         e.ID.String(),
			Time:       e.Time.Format(time.RFC3339),
			Symbol:     e.Symbol,
			AssetClass: string(e.AssetClass),
			Outcome:    string(e.Outcome),
			ErrorKind:  e.ErrorKind,
			CacheHit:   e.CacheHit,
			LatencyMS:  float64(e.Latency.Microseconds()) / 1000,
		})
	}
	WriteJSON(w, http.StatusOK, resp)
}

func assetClass(r *http.Request) model.AssetClass {
	return model.AssetClass(r.URL.Query().Get("class"))
}
