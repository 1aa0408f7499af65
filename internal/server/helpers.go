package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ProfitPortal/internal/model"
	"ProfitPortal/internal/report"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	FetchKind string `json:"fetch_kind,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError maps an engine error to its status code and user message.
func WriteError(w http.ResponseWriter, err error) {
	var (
		invalid    *model.InvalidSymbolError
		fetch      *model.FetchError
		validation *model.ValidationError
	)
	resp := ErrorResponse{Error: report.ErrorMessage(err)}
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validation):
		status, resp.Kind = http.StatusBadRequest, "validation"
	case errors.As(err, &invalid):
		status, resp.Kind = http.StatusNotFound, "invalid_symbol"
	case errors.As(err, &fetch):
		status, resp.Kind, resp.FetchKind = http.StatusServiceUnavailable, "fetch", string(fetch.Kind)
		if fetch.Kind == model.FetchRateLimited {
			w.Header().Set("Retry-After", "1")
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, resp.Kind = http.StatusServiceUnavailable, "canceled"
	default:
		resp.Kind = "internal"
	}
	WriteJSON(w, status, resp)
}
