package recorder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProfitPortal/internal/common"
	"ProfitPortal/internal/model"
)

func TestNewLookupEvent_Classifies(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome Outcome
		kind    string
	}{
		{"ok", nil, OutcomeOK, ""},
		{"invalid", &model.InvalidSymbolError{Symbol: "NOPE"}, OutcomeInvalidSymbol, ""},
		{"fetch", fmt.Errorf("load: %w", &model.FetchError{Kind: model.FetchRateLimited}), OutcomeFetchError, "RATE_LIMITED"},
		{"validation", &model.ValidationError{Field: "shares"}, OutcomeRejected, ""},
		{"canceled", context.Canceled, OutcomeCanceled, ""},
		{"other", errors.New("boom"), OutcomeError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := NewLookupEvent("AAPL", model.AssetClassStock, tt.err, false, time.Millisecond)
			assert.Equal(t, tt.outcome, evt.Outcome)
			assert.Equal(t, tt.kind, evt.ErrorKind)
			assert.NotEqual(t, evt.ID.String(), NewLookupEvent("AAPL", model.AssetClassStock, nil, false, 0).ID.String())
		})
	}
}

func TestSQLiteRecorder_RecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.db")
	r, err := NewSQLiteRecorder(path, common.NewSilentLogger())
	require.NoError(t, err)
	defer r.Close()

	first := NewLookupEvent("AAPL", model.AssetClassStock, nil, false, 120*time.Millisecond)
	second := NewLookupEvent("AAPL", model.AssetClassStock, nil, true, 0)
	third := NewLookupEvent("ZZZZ", model.AssetClassStock, &model.FetchError{Kind: model.FetchTimeout}, false, 3*time.Second)
	second.Time = first.Time.Add(time.Second)
	third.Time = first.Time.Add(2 * time.Second)
	for _, evt := range []*LookupEvent{first, second, third} {
		require.NoError(t, r.RecordLookup(evt))
	}

	events, err := r.Recent(2)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, third.ID, events[0].ID)
	assert.Equal(t, "ZZZZ", events[0].Symbol)
	assert.Equal(t, OutcomeFetchError, events[0].Outcome)
	assert.Equal(t, "TIMEOUT", events[0].ErrorKind)
	assert.Equal(t, 3*time.Second, events[0].Latency)

	assert.Equal(t, second.ID, events[1].ID)
	assert.True(t, events[1].CacheHit)
	assert.Equal(t, model.AssetClassStock, events[1].AssetClass)
	assert.True(t, second.Time.Truncate(time.Millisecond).Equal(events[1].Time))
}

func TestSQLiteRecorder_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.db")
	r, err := NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	require.NoError(t, r.RecordLookup(NewLookupEvent("MSFT", model.AssetClassStock, nil, false, 0)))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, nil)
	require.NoError(t, err)
	defer r.Close()
	events, err := r.Recent(0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "MSFT", events[0].Symbol)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordLookup(NewLookupEvent("AAPL", model.AssetClassStock, nil, false, 0)))
	events, err := r.Recent(10)
	assert.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, r.Close())
}
