package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/storeadvisor/internal/store"
	"github.com/usestring/storeadvisor/pkg/analyzer"
)

func TestSQLiteWriter(t *testing.T) {
	ctx := context.Background()
	input := `[
		{"id": 1, "name": "a", "score": 1.5, "active": true, "tags": ["x"], "geo": {"lat": 1}},
		{"id": 2, "name": "b", "score": 2.5, "active": false, "tags": [], "geo": {"lat": 2}},
		{"id": 3, "name": "c", "score": 3.25, "active": true, "tags": ["y", "z"]}
	]`
	res, err := analyzer.Analyze(input)
	require.NoError(t, err)
	require.True(t, res.Relational())

	v, err := analyzer.Decode([]byte(input))
	require.NoError(t, err)
	records, _, err := analyzer.AllRecords(v)
	require.NoError(t, err)

	w, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "rows.db"), "people")
	require.NoError(t, err)
	defer w.Close()

	n, err := w.Write(ctx, res, records)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// Writing again appends to the existing table.
	n, err = w.Write(ctx, res, records[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var count int
	require.NoError(t, w.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM people`).Scan(&count))
	assert.Equal(t, 4, count)

	var (
		rowID  int64
		name   string
		score  float64
		tags   string
		geoLat int64
	)
	row := w.DB().QueryRowContext(ctx, `SELECT _id, "name", "score", "tags", "geo_lat" FROM people WHERE "id" = 3`)
	require.NoError(t, row.Scan(&rowID, &name, &score, &tags, new(any)))
	assert.Equal(t, int64(3), rowID)
	assert.Equal(t, "c", name)
	assert.Equal(t, 3.25, score)
	assert.Equal(t, `["y","z"]`, tags)

	require.NoError(t, w.DB().QueryRowContext(ctx, `SELECT "geo_lat" FROM people WHERE "id" = 1`).Scan(&geoLat))
	assert.Equal(t, int64(1), geoLat)
}

func TestOpenRelational_SQLite(t *testing.T) {
	ctx := context.Background()
	w, err := store.OpenRelational(ctx, store.RelationalConfig{
		Kind: "sqlite",
		DSN:  filepath.Join(t.TempDir(), "reg.db"),
	})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, analyzer.DefaultTable, w.(*Writer).table)
	assert.Contains(t, store.RelationalKinds(), "sqlserver")
	assert.Contains(t, store.RelationalKinds(), "mysql")
}
