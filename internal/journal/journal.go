// Package journal records lattice queries and their answers in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS queries (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	source     TEXT NOT NULL,
	op         TEXT NOT NULL,
	query      TEXT NOT NULL,
	result     TEXT NOT NULL,
	passed     INTEGER
);
CREATE INDEX IF NOT EXISTS queries_created_at ON queries (created_at);
`

// Entry is one recorded query. Passed is nil for queries without an
// expected answer, such as service requests.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Source    string // case file path or "rpc"
	Op        string
	Query     string
	Result    string
	Passed    *bool
}

// Journal is a query log backed by a SQLite database.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating when needed) the database at path. ":memory:" gives
// a private in-memory journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	// in-memory databases are per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores e, assigning an ID and a timestamp when they are unset, and
// returns the stored entry.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}
	var passed sql.NullBool
	if e.Passed != nil {
		passed = sql.NullBool{Bool: *e.Passed, Valid: true}
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO queries (id, created_at, source, op, query, result, passed) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UnixNano(), e.Source, e.Op, e.Query, e.Result, passed)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: record %s: %w", e.ID, err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, created_at, source, op, query, result, passed FROM queries ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			nanos  int64
			passed sql.NullBool
		)
		if err := rows.Scan(&e.ID, &nanos, &e.Source, &e.Op, &e.Query, &e.Result, &passed); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.CreatedAt = time.Unix(0, nanos)
		if passed.Valid {
			p := passed.Bool
			e.Passed = &p
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
