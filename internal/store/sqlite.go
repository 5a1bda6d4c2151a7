package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements AnalyticsStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed analytics store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		taken_at DATETIME NOT NULL,
		spot_price REAL NOT NULL,
		max_pain REAL NOT NULL,
		put_call_ratio REAL NOT NULL,
		atm_iv REAL NOT NULL,
		contracts INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, taken_at)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_taken
		ON snapshots(symbol, taken_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshot inserts one analytics row, replacing any earlier row for the
// same symbol and snapshot time.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, rec *SnapshotRecord) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshots (symbol, taken_at, spot_price, max_pain, put_call_ratio, atm_iv, contracts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.Symbol, rec.TakenAt, rec.SpotPrice, rec.MaxPain, rec.PutCallRatio, rec.ATMIV, rec.Contracts)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// History returns the most recent snapshots for a symbol, newest first.
// A non-positive limit defaults to 50.
func (s *SQLiteStore) History(ctx context.Context, symbol string, limit int) ([]SnapshotRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, taken_at, spot_price, max_pain, put_call_ratio, atm_iv, contracts
		FROM snapshots
		WHERE symbol = ?
		ORDER BY taken_at DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		var r SnapshotRecord
		if err := rows.Scan(&r.ID, &r.Symbol, &r.TakenAt, &r.SpotPrice, &r.MaxPain, &r.PutCallRatio, &r.ATMIV, &r.Contracts); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return records, nil
}
