// Package audit persists the mutation journal in SQLite.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/xltable/internal/core"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 100

var errNotOpened = errors.New("journal database not opened")

// Store records journal entries. It implements core.Journal.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at path and applies
// migrations. Use ":memory:" for a throwaway journal.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	// A second connection to :memory: would see a different database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}

	s := NewStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an already opened database. The schema must exist.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Entry is a stored journal entry.
type Entry struct {
	ID int64 `json:"id"`
	core.JournalEntry
}

// Record inserts one entry.
func (s *Store) Record(ctx context.Context, e core.JournalEntry) error {
	if s.db == nil {
		return errNotOpened
	}

	key, err := encodeJSON(e.Key)
	if err != nil {
		return fmt.Errorf("encode journal key: %w", err)
	}
	values, err := encodeJSON(e.Values)
	if err != nil {
		return fmt.Errorf("encode journal values: %w", err)
	}
	severity := e.Severity
	if severity == "" {
		severity = core.SeverityOf(e.Action)
	}
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO journal (op_id, action, severity, table_name, row_key, position, row_values, ip_address, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OpID, string(e.Action), string(severity), e.Table, key, e.Position, values,
		nullString(e.IPAddress), nullString(e.UserAgent), at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record journal entry: %w", err)
	}
	return nil
}

// ListFilter narrows List. Zero fields do not filter.
type ListFilter struct {
	Table  string
	Action core.JournalAction
	Since  time.Time
	Limit  int
	Offset int
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Entry, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}

	query := `SELECT id, op_id, action, severity, table_name, row_key, position, row_values, ip_address, user_agent, created_at
		FROM journal WHERE 1=1`
	var args []any
	if f.Table != "" {
		query += ` AND table_name = ?`
		args = append(args, f.Table)
	}
	if f.Action != "" {
		query += ` AND action = ?`
		args = append(args, string(f.Action))
	}
	if !f.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                   Entry
			action, severity    string
			key, values, ip, ua sql.NullString
			createdAt           string
		)
		if err := rows.Scan(&e.ID, &e.OpID, &action, &severity, &e.Table, &key, &e.Position, &values, &ip, &ua, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.Action = core.JournalAction(action)
		e.Severity = core.JournalSeverity(severity)
		e.IPAddress = ip.String
		e.UserAgent = ua.String
		if key.Valid {
			if err := json.Unmarshal([]byte(key.String), &e.Key); err != nil {
				return nil, fmt.Errorf("decode journal key: %w", err)
			}
		}
		if values.Valid {
			if err := json.Unmarshal([]byte(values.String), &e.Values); err != nil {
				return nil, fmt.Errorf("decode journal values: %w", err)
			}
		}
		if e.At, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("decode journal time: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	return entries, nil
}

func encodeJSON(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
