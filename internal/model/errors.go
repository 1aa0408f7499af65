package model

import "fmt"

// InvalidSymbolError reports a symbol that does not resolve to any instrument.
type InvalidSymbolError struct {
	Symbol string
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("invalid symbol %q", e.Symbol)
}

// FetchErrorKind classifies a failed call to the market-data feed.
type FetchErrorKind string

const (
	FetchTimeout     FetchErrorKind = "TIMEOUT"
	FetchRateLimited FetchErrorKind = "RATE_LIMITED"
	FetchUnavailable FetchErrorKind = "UNAVAILABLE"
	FetchNotFound    FetchErrorKind = "NOT_FOUND"
	FetchMalformed   FetchErrorKind = "MALFORMED"
	FetchRejected    FetchErrorKind = "REJECTED"
)

// Retryable reports whether another attempt may succeed.
func (k FetchErrorKind) Retryable() bool {
	switch k {
	case FetchTimeout, FetchRateLimited, FetchUnavailable:
		return true
	}
	return false
}

// FetchError is returned by feed calls. Attempts is set once retries are exhausted.
type FetchError struct {
	Kind       FetchErrorKind
	Op         string
	Symbol     string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Op, e.Symbol, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// InsufficientDataError reports a series too short for the requested metric.
type InsufficientDataError struct {
	Metric string
	Need   int
	Have   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s needs %d samples, have %d", e.Metric, e.Need, e.Have)
}

// ValidationError reports a malformed request, rejected before any I/O.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
