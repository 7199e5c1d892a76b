// Package journal persists an append-only record of committed engine
// operations to SQLite. The in-memory ledgers are authoritative; the
// journal exists for audit and post-mortem reconstruction, so writes are
// best-effort from the engine's point of view.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one committed operation.
type Record struct {
	ID      int64
	At      time.Time
	Op      string
	Account string
	Asset   string
	Amount  string
	Detail  string
}

// migrations holds the schema statements, executed one at a time.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS operations (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		at      TEXT NOT NULL,
		op      TEXT NOT NULL,
		account TEXT NOT NULL,
		asset   TEXT NOT NULL DEFAULT '',
		amount  TEXT NOT NULL DEFAULT '',
		detail  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_operations_account ON operations(account)`,
	`CREATE INDEX IF NOT EXISTS idx_operations_op ON operations(op)`,
}

// Journal is an append-only operation log backed by SQLite.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path and applies the
// schema. Use ":memory:" for an ephemeral journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: opening %s: %w", path, err)
	}
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal: applying schema: %w", err)
		}
	}
	return &Journal{db: db}, nil
}

// Append writes one committed operation.
func (j *Journal) Append(rec Record) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := j.db.Exec(
		`INSERT INTO operations (at, op, account, asset, amount, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(time.RFC3339Nano), rec.Op, rec.Account, rec.Asset, rec.Amount, rec.Detail,
	)
	if err != nil {
		return fmt.Errorf("journal: appending %s: %w", rec.Op, err)
	}
	return nil
}

// Recent returns up to n most recent records, newest first.
func (j *Journal) Recent(n int) ([]Record, error) {
	rows, err := j.db.Query(
		`SELECT id, at, op, account, asset, amount, detail FROM operations ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: querying recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var at string
		if err := rows.Scan(&rec.ID, &at, &rec.Op, &rec.Account, &rec.Asset, &rec.Amount, &rec.Detail); err != nil {
			return nil, fmt.Errorf("journal: scanning row: %w", err)
		}
		rec.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the total number of journaled operations.
func (j *Journal) Count() (int64, error) {
	var count int64
	err := j.db.QueryRow(`SELECT COUNT(*) FROM operations`).Scan(&count)
	return count, err
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}
