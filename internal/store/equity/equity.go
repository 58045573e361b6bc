// Package equity stores the account equity curve as timestamped snapshots in
// a dedicated SQLite file, one row per processed price update.
package equity

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"papertrade/internal/engine"
)

type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

func Open(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("equity store root cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(root, "equity.db")
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func ensureSchema(db *sql.DB) error {
	const stmt = `CREATE TABLE IF NOT EXISTS equity_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		balance REAL NOT NULL,
		equity REAL NOT NULL,
		used_margin REAL NOT NULL,
		margin_level REAL NOT NULL,
		positions INTEGER NOT NULL
	);`
	if _, err := db.Exec(stmt); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_equity_ts ON equity_snapshots(ts);`)
	return err
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Insert(ctx context.Context, snap engine.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("equity store is closed")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO equity_snapshots (ts, balance, equity, used_margin, margin_level, positions)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snap.Timestamp.UnixMilli(), snap.Balance, snap.Equity,
		snap.UsedMargin, snap.MarginLevel, snap.Positions)
	return err
}

// Range returns snapshots between start and end inclusive, oldest first. Zero
// bounds mean unbounded.
func (s *Store) Range(ctx context.Context, start, end time.Time, limit int) ([]engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("equity store is closed")
	}
	if limit <= 0 {
		limit = 10000
	}
	startMs := int64(0)
	if !start.IsZero() {
		startMs = start.UnixMilli()
	}
	endMs := int64(1<<62 - 1)
	if !end.IsZero() {
		endMs = end.UnixMilli()
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, balance, equity, used_margin, margin_level, positions
		 FROM equity_snapshots WHERE ts >= ? AND ts <= ? ORDER BY ts ASC LIMIT ?`,
		startMs, endMs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []engine.Snapshot
	for rows.Next() {
		var ts int64
		var snap engine.Snapshot
		if err := rows.Scan(&ts, &snap.Balance, &snap.Equity, &snap.UsedMargin, &snap.MarginLevel, &snap.Positions); err != nil {
			return nil, err
		}
		snap.Timestamp = time.UnixMilli(ts)
		out = append(out, snap)
	}
	return out, rows.Err()
}
