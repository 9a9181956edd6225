package lead

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS leads (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	id       INTEGER NOT NULL,
	name     TEXT NOT NULL DEFAULT '',
	contact  TEXT NOT NULL DEFAULT '',
	industry TEXT NOT NULL DEFAULT '',
	status   TEXT NOT NULL DEFAULT '',
	notes    TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_leads_id ON leads(id);
`

// SQLiteStore keeps leads in a single table. Ids are not unique; store order
// is insertion order (seq).
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	memory := path == ":memory:" || strings.HasPrefix(path, "file::memory:")
	if !memory {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if !memory {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite wal: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, leads ...Lead) error {
	if len(leads) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leads (id, name, contact, industry, status, notes) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range leads {
		notes, err := encodeNotes(l.Notes)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, l.ID, l.Name, l.Contact, l.Industry, string(l.Status), notes); err != nil {
			return fmt.Errorf("insert lead %d: %w", l.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Get(ctx context.Context, id int) (Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT seq, id, name, contact, industry, status, notes FROM leads WHERE id = ? ORDER BY seq LIMIT 1`, id)
	_, l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, &NotFoundError{ID: id}
	}
	return l, err
}

func (s *SQLiteStore) Search(ctx context.Context, m Matcher) ([]Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, name, contact, industry, status, notes FROM leads ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("scan leads: %w", err)
	}
	defer rows.Close()

	out := []Lead{}
	for rows.Next() {
		_, l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		if m == nil || m(l) {
			out = append(out, l)
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Update(ctx context.Context, id int, mutate func(*Lead) error) (Lead, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Lead{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT seq, id, name, contact, industry, status, notes FROM leads WHERE id = ? ORDER BY seq LIMIT 1`, id)
	seq, current, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, &NotFoundError{ID: id}
	}
	if err != nil {
		return Lead{}, err
	}

	if mutate != nil {
		if err := mutate(&current); err != nil {
			return Lead{}, err
		}
	}
	current = normalize(current)

	notes, err := encodeNotes(current.Notes)
	if err != nil {
		return Lead{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE leads SET status = ?, notes = ? WHERE seq = ?`, string(current.Status), notes, seq); err != nil {
		return Lead{}, fmt.Errorf("update lead %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return Lead{}, fmt.Errorf("commit update: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(r rowScanner) (int64, Lead, error) {
	var (
		seq    int64
		l      Lead
		status string
		notes  string
	)
	if err := r.Scan(&seq, &l.ID, &l.Name, &l.Contact, &l.Industry, &status, &notes); err != nil {
		return 0, Lead{}, err
	}
	l.Status = Status(status)
	if err := json.Unmarshal([]byte(notes), &l.Notes); err != nil {
		return 0, Lead{}, fmt.Errorf("decode notes for lead %d: %w", l.ID, err)
	}
	return seq, normalize(l), nil
}

func encodeNotes(notes []string) (string, error) {
	if notes == nil {
		notes = []string{}
	}
	raw, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("encode notes: %w", err)
	}
	return string(raw), nil
}
