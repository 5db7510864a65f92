// Package history stores every part run in a SQLite database so runtimes
// can be compared across runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the database file inside the data dir.
const FileName = "history.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id   TEXT    NOT NULL,
	ran_at   INTEGER NOT NULL,
	lang     TEXT    NOT NULL,
	year     INTEGER NOT NULL,
	day      INTEGER NOT NULL,
	part     INTEGER NOT NULL,
	answer   TEXT    NOT NULL DEFAULT '',
	seconds  REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_puzzle ON runs (lang, year, day, part, ran_at);
`

// Entry is one recorded part run.
type Entry struct {
	RunID   string    `json:"run_id"`
	RanAt   time.Time `json:"ran_at"`
	Lang    string    `json:"lang"`
	Year    int       `json:"year"`
	Day     int       `json:"day"`
	Part    int       `json:"part"`
	Answer  string    `json:"answer"`
	Seconds float64   `json:"seconds"`
}

// Store is the run history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating when needed) the history database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// single writer; workers report concurrently
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Record appends entries in one transaction.
func (s *Store) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO runs (run_id, ran_at, lang, year, day, part, answer, seconds) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.RunID, e.RanAt.UnixNano(), e.Lang, e.Year, e.Day, e.Part, e.Answer, e.Seconds); err != nil {
			return fmt.Errorf("insert %s %d/%d/%d: %w", e.Lang, e.Year, e.Day, e.Part, err)
		}
	}
	return tx.Commit()
}

// Filter narrows a query. Zero fields match everything.
type Filter struct {
	Lang  string
	Year  int
	Day   int
	Part  int
	Limit int
}

// Trend returns matching entries, newest first.
func (s *Store) Trend(ctx context.Context, f Filter) ([]Entry, error) {
	q := `SELECT run_id, ran_at, lang, year, day, part, answer, seconds FROM runs WHERE 1=1`
	var args []any
	if f.Lang != "" {
		q += ` AND lang = ?`
		args = append(args, f.Lang)
	}
	if f.Year != 0 {
		q += ` AND year = ?`
		args = append(args, f.Year)
	}
	if f.Day != 0 {
		q += ` AND day = ?`
		args = append(args, f.Day)
	}
	if f.Part != 0 {
		q += ` AND part = ?`
		args = append(args, f.Part)
	}
	q += ` ORDER BY ran_at DESC, id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ranAt int64
		if err := rows.Scan(&e.RunID, &ranAt, &e.Lang, &e.Year, &e.Day, &e.Part, &e.Answer, &e.Seconds); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.RanAt = time.Unix(0, ranAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats summarizes the runtimes of one part.
type Stats struct {
	Runs int
	Best float64
	Mean float64
	Last float64
}

// Summary aggregates the runtimes matching f (Limit is ignored).
func (s *Store) Summary(ctx context.Context, f Filter) (Stats, error) {
	f.Limit = 0
	entries, err := s.Trend(ctx, f)
	if err != nil || len(entries) == 0 {
		return Stats{}, err
	}
	st := Stats{Runs: len(entries), Best: entries[0].Seconds, Last: entries[0].Seconds}
	var sum float64
	for _, e := range entries {
		sum += e.Seconds
		st.Best = min(st.Best, e.Seconds)
	}
	st.Mean = sum / float64(len(entries))
	return st, nil
}
