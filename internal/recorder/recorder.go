package recorder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"ProfitPortal/internal/model"
)

// Outcome classifies how a lookup ended.
type Outcome string

const (
	OutcomeOK            Outcome = "OK"
	OutcomeInvalidSymbol Outcome = "INVALID_SYMBOL"
	OutcomeFetchError    Outcome = "FETCH_ERROR"
	OutcomeRejected      Outcome = "REJECTED"
	OutcomeCanceled      Outcome = "CANCELED"
	OutcomeError         Outcome = "ERROR"
)

// LookupEvent is one answered lookup. It records how the lookup ended, never
// the valuation figures themselves.
type LookupEvent struct {
	ID         uuid.UUID
	Time       time.Time
	Symbol     string
	AssetClass model.AssetClass
	Outcome    Outcome
	ErrorKind  string // FetchErrorKind for FETCH_ERROR, empty otherwise
	CacheHit   bool
	Latency    time.Duration
}

// NewLookupEvent builds the event for a lookup of symbol that ended with err.
func NewLookupEvent(symbol string, class model.AssetClass, err error, cacheHit bool, latency time.Duration) *LookupEvent {
	evt := &LookupEvent{
		ID:         uuid.New(),
		Time:       time.Now().UTC(),
		Symbol:     symbol,
		AssetClass: class,
		CacheHit:   cacheHit,
		Latency:    latency,
	}
	evt.Outcome, evt.ErrorKind = classify(err)
	return evt
}

func classify(err error) (Outcome, string) {
	var (
		invalid    *model.InvalidSymbolError
		fetch      *model.FetchError
		validation *model.ValidationError
	)
	switch {
	case err == nil:
		return OutcomeOK, ""
	case errors.As(err, &invalid):
		return OutcomeInvalidSymbol, ""
	case errors.As(err, &fetch):
		return OutcomeFetchError, string(fetch.Kind)
	case errors.As(err, &validation):
		return OutcomeRejected, ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled, ""
	default:
		return OutcomeError, ""
	}
}

// Recorder persists the lookup audit log.
type Recorder interface {
	RecordLookup(evt *LookupEvent) error
	Recent(limit int) ([]LookupEvent, error)
	Close() error
}
