// Package sqlstore implements store.RelationalWriter over database/sql for
// SQLite, MySQL and SQL Server.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/usestring/storeadvisor/internal/store"
	"github.com/usestring/storeadvisor/pkg/analyzer"
)

type backend struct {
	driver      string
	dialect     analyzer.Dialect
	placeholder store.Placeholder
	maxParams   int
}

var backends = map[string]backend{
	"sqlite":    {driver: "sqlite", dialect: analyzer.SQLite, placeholder: store.QuestionPlaceholder, maxParams: 999},
	"mysql":     {driver: "mysql", dialect: analyzer.MySQL, placeholder: store.QuestionPlaceholder, maxParams: 65000},
	"sqlserver": {driver: "sqlserver", dialect: analyzer.SQLServer, placeholder: store.AtPPlaceholder, maxParams: 2000},
}

func init() {
	for kind, b := range backends {
		store.RegisterRelational(kind, func(ctx context.Context, cfg store.RelationalConfig) (store.RelationalWriter, error) {
			w, err := open(ctx, b, cfg)
			if err != nil {
				return nil, err
			}
			return w, nil
		})
	}
}

// Writer writes analyzed records through a database/sql driver.
type Writer struct {
	db      *sql.DB
	backend backend
	table   string
}

func open(ctx context.Context, b backend, cfg store.RelationalConfig) (*Writer, error) {
	db, err := sql.Open(b.driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", b.driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", b.driver, err)
	}
	if b.dialect == analyzer.SQLite {
		// single writer avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}
	return &Writer{db: db, backend: b, table: cfg.Table}, nil
}

// NewSQLite opens a writer on a SQLite database file or DSN.
func NewSQLite(ctx context.Context, dsn, table string) (*Writer, error) {
	if table == "" {
		table = analyzer.DefaultTable
	}
	return open(ctx, backends["sqlite"], store.RelationalConfig{Kind: "sqlite", DSN: dsn, Table: table})
}

// Close closes the database handle.
func (w *Writer) Close() { _ = w.db.Close() }

// DB exposes the underlying handle.
func (w *Writer) DB() *sql.DB { return w.db }

// Write implements store.RelationalWriter.
func (w *Writer) Write(ctx context.Context, res *analyzer.Result, records []any) (int64, error) {
	ddl, cols := analyzer.GenerateDDL(res.Fields, analyzer.DDLOptions{
		Dialect:     w.backend.dialect,
		Table:       w.table,
		IfNotExists: true,
	})
	rows, err := store.BuildRows(res, cols, records)
	if err != nil {
		return 0, err
	}

	// MySQL commits DDL implicitly, so the table is created outside the
	// insert transaction everywhere.
	if _, err := w.db.ExecContext(ctx, ddl); err != nil {
		return 0, fmt.Errorf("%s: create table %s: %w", w.backend.driver, w.table, err)
	}
	if len(cols) == 0 || len(rows) == 0 {
		return 0, nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin: %w", w.backend.driver, err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for _, batch := range store.Batches(rows, len(cols), w.backend.maxParams) {
		query, args := store.BuildInsertSQL(w.backend.dialect, w.table, cols, batch, w.backend.placeholder)
		r, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("%s: insert into %s: %w", w.backend.driver, w.table, err)
		}
		n, err := r.RowsAffected()
		if err != nil {
			n = int64(len(batch))
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", w.backend.driver, err)
	}
	return total, nil
}
