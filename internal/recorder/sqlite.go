package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ProfitPortal/internal/common"
	"ProfitPortal/internal/model"
)

// SQLiteRecorder persists lookup events to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *common.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *common.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the server writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lookups (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			asset_class TEXT,
			outcome     TEXT NOT NULL,
			error_kind  TEXT,
			cache_hit   INTEGER NOT NULL DEFAULT 0,
			latency_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lookups_ts ON lookups(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_lookups_symbol ON lookups(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordLookup(evt *LookupEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO lookups
		(id, timestamp, symbol, asset_class, outcome, error_kind, cache_hit, latency_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		evt.ID.String(), evt.Time.UnixMilli(), evt.Symbol, string(evt.AssetClass),
		string(evt.Outcome), evt.ErrorKind, evt.CacheHit, evt.Latency.Milliseconds(),
	)
	return err
}

// Recent returns up to limit events, newest first.
func (r *SQLiteRecorder) Recent(limit int) ([]LookupEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`SELECT id, timestamp, symbol, asset_class, outcome, error_kind, cache_hit, latency_ms
		FROM lookups ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query lookups: %w", err)
	}
	defer rows.Close()

	var events []LookupEvent
	for rows.Next() {
		var (
			id, symbol, class, outcome, kind string
			ts, latency                      int64
			hit                              bool
		)
		if err := rows.Scan(&id, &ts, &symbol, &class, &outcome, &kind, &hit, &latency); err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("lookup id %q: %w", id, err)
		}
		events = append(events, LookupEvent{
			ID:         parsed,
			Time:       time.UnixMilli(ts).UTC(),
			Symbol:     symbol,
			AssetClass: model.AssetClass(class),
			Outcome:    Outcome(outcome),
			ErrorKind:  kind,
			CacheHit:   hit,
			Latency:    time.Duration(latency) * time.Millisecond,
		})
	}
	return events, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
