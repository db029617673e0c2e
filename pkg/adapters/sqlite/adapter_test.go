package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: ":memory:"}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"default in-memory", func(*testing.T) string { return "" }},
		{"explicit in-memory", func(*testing.T) string { return ":memory:" }},
		{"file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "edit.db") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adp := New(nil)
			require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: tt.path(t)}))
			defer func() { _ = adp.Close() }()
			assert.True(t, adp.IsConnected())
		})
	}
}

func TestAdapter_NotConnected(t *testing.T) {
	adp := New(nil)
	_, err := adp.GetTableMetadata(context.Background(), "users")
	require.ErrorIs(t, err, adapter.ErrNotConnected)

	_, err = adp.OpenExecutionContext(context.Background(), "test")
	require.ErrorIs(t, err, adapter.ErrNotConnected)
}

func TestAdapter_GetTableMetadata(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)

	require.NoError(t, adp.Exec(ctx, `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			email TEXT NOT NULL,
			status TEXT DEFAULT 'active'
		)
	`))
	require.NoError(t, adp.Exec(ctx, `INSERT INTO users (email) VALUES ('a@example.com')`))

	tests := []struct {
		name  string
		table string
	}{
		{"unqualified", "users"},
		{"qualified", "main.users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := adp.GetTableMetadata(ctx, tt.table)
			require.NoError(t, err)
			assert.Equal(t, "main", meta.Schema)
			assert.Equal(t, "users", meta.Name)
			assert.Equal(t, int64(1), meta.RowCount)
			require.Len(t, meta.Columns, 3)

			assert.Equal(t, core.Column{Name: "id", Type: "INTEGER", PrimaryKey: true, Position: 1}, meta.Columns[0])
			assert.Equal(t, core.Column{Name: "email", Type: "TEXT", Position: 2}, meta.Columns[1])
			assert.Equal(t, core.Column{Name: "status", Type: "TEXT", Nullable: true, Default: "'active'", HasDefault: true, Position: 3}, meta.Columns[2])
		})
	}

	_, err := adp.GetTableMetadata(ctx, "missing")
	assert.ErrorContains(t, err, "table missing not found")
}

func TestAdapter_ExecutionContextSharesSession(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)

	ec, err := adp.OpenExecutionContext(ctx, "add column")
	require.NoError(t, err)
	require.NoError(t, ec.Exec(ctx, `CREATE TABLE t (id INTEGER)`))
	require.NoError(t, ec.Exec(ctx, `ALTER TABLE t ADD COLUMN name TEXT`))
	require.Error(t, ec.Exec(ctx, `ALTER TABLE t ALTER COLUMN name TYPE INTEGER`))
	require.NoError(t, ec.Close())

	meta, err := adp.GetTableMetadata(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, meta.Columns, 2)
}

func TestAdapter_Registered(t *testing.T) {
	assert.True(t, adapter.IsRegistered("sqlite"))
	adp, err := adapter.NewAdapter(core.AdapterConfig{Type: "sqlite"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", adp.Dialect().Name)
}
