// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/potlog/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width so stored timestamps sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sessionColumns = `id, room, start_time, duration, game_format, stakes, hands_played, result, total_hours, created_at, bb_result, variance`

// Store wraps SQLite access for session data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps transactions and plain reads consistent.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			room TEXT NOT NULL DEFAULT '',
			start_time TEXT NOT NULL,
			duration TEXT NOT NULL,
			game_format TEXT NOT NULL,
			stakes TEXT NOT NULL,
			hands_played INTEGER NOT NULL,
			result REAL NOT NULL,
			total_hours REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS imports (
			batch_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			imported INTEGER NOT NULL,
			duplicates INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON sessions(start_time, id);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_dedup ON sessions(start_time, duration, hands_played, result);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	// Columns added after the first schema version.
	for _, col := range []struct{ name, decl string }{
		{"bb_result", "REAL"},
		{"variance", "REAL"},
	} {
		if err := s.addColumnIfMissing("sessions", col.name, col.decl); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) addColumnIfMissing(table, column, decl string) error {
	rows, err := s.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return err
	}
	found := false
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			if cerr := rows.Close(); cerr != nil {
				_ = cerr
			}
			return err
		}
		if name == column {
			found = true
		}
	}
	err = rows.Err()
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	_, err = s.db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
	return err
}

// Tx is a write transaction.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn in a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(&Tx{tx: tx}); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// HasDuplicate reports whether a session with the same de-duplication key
// is already stored, including rows inserted earlier in this transaction.
func (t *Tx) HasDuplicate(ctx context.Context, key model.DedupKey) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sessions
		 WHERE start_time = ? AND duration = ? AND hands_played = ? AND result = ?`,
		formatTime(key.StartTime), key.Duration, key.HandsPlayed, key.Result,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Insert stores a session and returns its id.
func (t *Tx) Insert(ctx context.Context, s model.Session) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO sessions (room, start_time, duration, game_format, stakes, hands_played, result, total_hours, created_at, bb_result, variance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Room,
		formatTime(s.StartTime),
		s.Duration,
		s.GameFormat,
		s.Stakes,
		s.HandsPlayed,
		s.Result,
		s.TotalHours,
		formatTime(s.CreatedAt),
		nullFloat(s.BBResult),
		nullFloat(s.Variance),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListOrdered returns every session ordered by start time, then id.
func (t *Tx) ListOrdered(ctx context.Context) ([]model.Session, error) {
	return listSessions(ctx, t.tx, model.Query{Order: model.ColumnDate})
}

// UpdateDerived stores recomputed analytics for a session.
func (t *Tx) UpdateDerived(ctx context.Context, id int64, totalHours float64, bbResult *float64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE sessions SET total_hours = ?, bb_result = ? WHERE id = ?`,
		totalHours, nullFloat(bbResult), id)
	return err
}

// RecordImport appends an entry to the import log.
func (t *Tx) RecordImport(ctx context.Context, rec model.ImportRecord) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO imports (batch_id, source, imported, duplicates, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.BatchID, rec.Source, rec.Imported, rec.Duplicates, formatTime(rec.CreatedAt))
	return err
}

// ListSessions returns a filtered, ordered page of sessions.
func (s *Store) ListSessions(ctx context.Context, q model.Query) ([]model.Session, error) {
	return listSessions(ctx, s.db, q)
}

// ListAll returns every session matching the filter in chronological order.
func (s *Store) ListAll(ctx context.Context, f model.Filter) ([]model.Session, error) {
	return listSessions(ctx, s.db, model.Query{Filter: f, Order: model.ColumnDate})
}

// CountSessions counts sessions matching the filter.
func (s *Store) CountSessions(ctx context.Context, f model.Filter) (int, error) {
	where, args := filterClause(f)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sessions WHERE `+where, args...).Scan(&n)
	return n, err
}

// DistinctStakes returns the stored stakes values in lexical order.
func (s *Store) DistinctStakes(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "stakes")
}

// DistinctFormats returns the stored game formats in lexical order.
func (s *Store) DistinctFormats(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "game_format")
}

func (s *Store) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT DISTINCT %s FROM sessions ORDER BY %s`, column, column))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAll removes every session and the import log.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.tx.ExecContext(ctx, `DELETE FROM sessions`)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return err
		}
		_, err = tx.tx.ExecContext(ctx, `DELETE FROM imports`)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ListImports returns the most recent import log entries, newest first.
func (s *Store) ListImports(ctx context.Context, limit int) ([]model.ImportRecord, error) {
	query := `SELECT batch_id, source, imported, duplicates, created_at FROM imports ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var out []model.ImportRecord
	for rows.Next() {
		var rec model.ImportRecord
		var createdAt string
		if err := rows.Scan(&rec.BatchID, &rec.Source, &rec.Imported, &rec.Duplicates, &createdAt); err != nil {
			return nil, err
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var orderColumns = map[model.Column]string{
	model.ColumnDate:   "start_time",
	model.ColumnStakes: "stakes",
	model.ColumnGame:   "game_format",
	model.ColumnHands:  "hands_played",
	model.ColumnResult: "result",
}

func listSessions(ctx context.Context, q queryer, query model.Query) ([]model.Session, error) {
	where, args := filterClause(query.Filter)
	col, ok := orderColumns[query.Order]
	if !ok {
		col = "start_time"
	}
	dir := "ASC"
	if query.Desc {
		dir = "DESC"
	}
	stmt := fmt.Sprintf(`SELECT %s FROM sessions WHERE %s ORDER BY %s %s, id %s`, sessionColumns, where, col, dir, dir)
	if query.Limit > 0 {
		stmt += ` LIMIT ? OFFSET ?`
		args = append(args, query.Limit, query.Offset)
	}
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.Session
	for rows.Next() {
		var (
			sess      model.Session
			startTime string
			createdAt string
			bbResult  sql.NullFloat64
			variance  sql.NullFloat64
		)
		if err := rows.Scan(&sess.ID, &sess.Room, &startTime, &sess.Duration, &sess.GameFormat, &sess.Stakes,
			&sess.HandsPlayed, &sess.Result, &sess.TotalHours, &createdAt, &bbResult, &variance); err != nil {
			return nil, err
		}
		if sess.StartTime, err = parseTime(startTime); err != nil {
			return nil, err
		}
		if sess.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if bbResult.Valid {
			sess.BBResult = &bbResult.Float64
		}
		if variance.Valid {
			sess.Variance = &variance.Float64
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func filterClause(f model.Filter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.Stakes != "" {
		clauses = append(clauses, "stakes = ?")
		args = append(args, f.Stakes)
	}
	if f.GameFormat != "" {
		clauses = append(clauses, "game_format = ?")
		args = append(args, f.GameFormat)
	}
	switch f.Outcome {
	case model.OutcomeWinning:
		clauses = append(clauses, "result > 0")
	case model.OutcomeLosing:
		clauses = append(clauses, "result < 0")
	}
	if f.Since != nil {
		clauses = append(clauses, "start_time >= ?")
		args = append(args, formatTime(*f.Since))
	}
	if f.Until != nil {
		clauses = append(clauses, "start_time < ?")
		args = append(args, formatTime(*f.Until))
	}
	return strings.Join(clauses, " AND "), args
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", v, err)
	}
	return t.Local(), nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
