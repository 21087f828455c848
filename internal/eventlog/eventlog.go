// Package eventlog records upload and error events in a SQLite database and
// answers history and analytics queries over them.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Event kinds.
const (
	KindUpload = "upload"
	KindError  = "error"
)

// Event statuses.
const (
	StatusAnalyzed = "analyzed"
	StatusStored   = "stored"
	StatusFailed   = "failed"
)

// DefaultHistoryLimit is used when History is called with limit <= 0.
const DefaultHistoryLimit = 20

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("event not found")

// Event is one row of the log.
type Event struct {
	ID         string    `json:"id" yaml:"id"`
	Kind       string    `json:"kind" yaml:"kind"`
	Filename   string    `json:"filename" yaml:"filename"`
	Database   string    `json:"database,omitempty" yaml:"database,omitempty"`
	Fields     []string  `json:"fields,omitempty" yaml:"fields,omitempty"`
	Status     string    `json:"status" yaml:"status"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	SampleSize int       `json:"sample_size" yaml:"sample_size"`
	Stored     int64     `json:"stored" yaml:"stored"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// Upload describes a processed upload.
type Upload struct {
	Filename   string
	Database   string
	Fields     []string
	SampleSize int
	// Stored is the number of rows or documents written; zero with
	// Persisted false means analysis only.
	Stored    int64
	Persisted bool
}

// Analytics aggregates the log.
type Analytics struct {
	Total      int            `json:"total" yaml:"total"`
	Uploads    int            `json:"uploads" yaml:"uploads"`
	Errors     int            `json:"errors" yaml:"errors"`
	Stored     int64          `json:"stored" yaml:"stored"`
	ByDatabase map[string]int `json:"by_database" yaml:"by_database"`
	ByStatus   map[string]int `json:"by_status" yaml:"by_status"`
	LastEvent  *time.Time     `json:"last_event,omitempty" yaml:"last_event,omitempty"`
}

// Log is the event store.
type Log struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the SQLite file at path. An empty path or
// ":memory:" keeps the log in memory for the life of the process.
func Open(path string) (*Log, error) {
	dsn := ":memory:"
	if path != "" && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create event db directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open event db: %w", err)
	}
	// one connection: SQLite has a single writer and :memory: is per connection
	conn.SetMaxOpenConns(1)

	l := &Log{conn: conn, now: time.Now}
	if err := l.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate event db: %w", err)
	}
	return l, nil
}

// Close closes the database.
func (l *Log) Close() error {
	return l.conn.Close()
}

func (l *Log) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS upload_events (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			filename TEXT NOT NULL DEFAULT '',
			"database" TEXT NOT NULL DEFAULT '',
			fields TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			sample_size INTEGER NOT NULL DEFAULT 0,
			stored INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_upload_events_created ON upload_events(created_at)`,
	}
	for _, m := range migrations {
		if _, err := l.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// LogUpload records a successful upload.
func (l *Log) LogUpload(ctx context.Context, u Upload) (*Event, error) {
	status := StatusAnalyzed
	if u.Persisted {
		status = StatusStored
	}
	ev := &Event{
		Kind:       KindUpload,
		Filename:   u.Filename,
		Database:   u.Database,
		Fields:     u.Fields,
		Status:     status,
		SampleSize: u.SampleSize,
		Stored:     u.Stored,
	}
	if err := l.insert(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// LogError records a failed upload.
func (l *Log) LogError(ctx context.Context, filename string, cause error) (*Event, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	ev := &Event{
		Kind:     KindError,
		Filename: filename,
		Status:   StatusFailed,
		Error:    msg,
	}
	if err := l.insert(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (l *Log) insert(ctx context.Context, ev *Event) error {
	ev.ID = uuid.New().String()
	ev.CreatedAt = l.now().UTC()

	fields, err := json.Marshal(nonNil(ev.Fields))
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}

	_, err = l.conn.ExecContext(ctx,
		`INSERT INTO upload_events (id, kind, filename, "database", fields, status, error, sample_size, stored, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Kind, ev.Filename, ev.Database, string(fields), ev.Status,
		ev.Error, ev.SampleSize, ev.Stored, ev.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

const selectColumns = `id, kind, filename, "database", fields, status, error, sample_size, stored, created_at`

// History returns the newest events first. limit <= 0 selects
// DefaultHistoryLimit.
func (l *Log) History(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := l.conn.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM upload_events ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// Get returns one event by id.
func (l *Log) Get(ctx context.Context, id string) (*Event, error) {
	row := l.conn.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM upload_events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ev, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*Event, error) {
	var (
		ev      Event
		fields  string
		created string
	)
	err := s.Scan(&ev.ID, &ev.Kind, &ev.Filename, &ev.Database, &fields,
		&ev.Status, &ev.Error, &ev.SampleSize, &ev.Stored, &created)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &ev.Fields); err != nil {
		return nil, fmt.Errorf("decode fields of event %s: %w", ev.ID, err)
	}
	if len(ev.Fields) == 0 {
		ev.Fields = nil
	}
	ev.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("decode created_at of event %s: %w", ev.ID, err)
	}
	return &ev, nil
}

// Analytics totals the log per database label and per status.
func (l *Log) Analytics(ctx context.Context) (*Analytics, error) {
	a := &Analytics{
		ByDatabase: map[string]int{},
		ByStatus:   map[string]int{},
	}

	rows, err := l.conn.QueryContext(ctx,
		`SELECT kind, "database", status, COUNT(*), COALESCE(SUM(stored), 0), MAX(created_at)
		 FROM upload_events GROUP BY kind, "database", status`)
	if err != nil {
		return nil, fmt.Errorf("query analytics: %w", err)
	}
	defer rows.Close()

	var last string
	for rows.Next() {
		var (
			kind, database, status, latest string
			count                           int
			stored                          int64
		)
		if err := rows.Scan(&kind, &database, &status, &count, &stored, &latest); err != nil {
			return nil, fmt.Errorf("scan analytics: %w", err)
		}
		a.Total += count
		a.Stored += stored
		a.ByStatus[status] += count
		if kind == KindError {
			a.Errors += count
		} else {
			a.Uploads += count
		}
		if database != "" {
			a.ByDatabase[database] += count
		}
		if latest > last {
			last = latest
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if last != "" {
		t, err := time.Parse(timeLayout, last)
		if err == nil {
			a.LastEvent = &t
		}
	}
	return a, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
