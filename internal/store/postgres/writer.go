// Package postgres implements store.RelationalWriter on a pgx pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/usestring/storeadvisor/internal/store"
	"github.com/usestring/storeadvisor/pkg/analyzer"
)

// maxParams stays under the 65535 bind parameter limit of the protocol.
const maxParams = 65000

func init() {
	store.RegisterRelational("postgres", New)
}

// Writer creates the analyzed table and inserts rows in one transaction.
type Writer struct {
	pool  *pgxpool.Pool
	table string
}

// New opens a pool on cfg.DSN.
func New(ctx context.Context, cfg store.RelationalConfig) (store.RelationalWriter, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	return &Writer{pool: pool, table: cfg.Table}, nil
}

// Close closes the connection pool.
func (w *Writer) Close() {
	w.pool.Close()
}

// statement is one SQL command with its bind arguments.
type statement struct {
	sql  string
	args []any
}

// plan builds the CREATE TABLE IF NOT EXISTS and the batched INSERT
// statements for records, without touching the database.
func plan(table string, params int, res *analyzer.Result, records []any) (string, []statement, error) {
	ddl, cols := analyzer.GenerateDDL(res.Fields, analyzer.DDLOptions{
		Dialect:     analyzer.Postgres,
		Table:       table,
		IfNotExists: true,
	})
	if len(cols) == 0 {
		return ddl, nil, nil
	}
	rows, err := store.BuildRows(res, cols, records)
	if err != nil {
		return "", nil, err
	}

	var inserts []statement
	for _, batch := range store.Batches(rows, len(cols), params) {
		sql, args := store.BuildInsertSQL(analyzer.Postgres, table, cols, batch, store.DollarPlaceholder)
		inserts = append(inserts, statement{sql: sql, args: args})
	}
	return ddl, inserts, nil
}

// Write implements store.RelationalWriter.
func (w *Writer) Write(ctx context.Context, res *analyzer.Result, records []any) (int64, error) {
	ddl, inserts, err := plan(w.table, maxParams, res, records)
	if err != nil {
		return 0, err
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, ddl); err != nil {
		return 0, fmt.Errorf("postgres: create table %s: %w", w.table, err)
	}

	n, err := execInserts(ctx, tx, w.table, inserts)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return n, nil
}

func execInserts(ctx context.Context, tx pgx.Tx, table string, inserts []statement) (int64, error) {
	var total int64
	for _, st := range inserts {
		cmd, err := tx.Exec(ctx, st.sql, st.args...)
		if err != nil {
			return total, fmt.Errorf("postgres: insert into %s: %w", table, err)
		}
		total += cmd.RowsAffected()
	}
	return total, nil
}
