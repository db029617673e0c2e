package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMySQLConfig(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		addr     string
		database string
		params   map[string]string
	}{
		{
			name:   "defaults",
			config: adapter.Config{Database: "shop"},
			addr:   "localhost:3306", database: "shop",
		},
		{
			name:   "custom host and port",
			config: adapter.Config{Host: "db.internal", Port: 3307, Database: "crm", Username: "app", Password: "pw"},
			addr:   "db.internal:3307", database: "crm",
		},
		{
			name:   "ipv6 host",
			config: adapter.Config{Host: "::1", Database: "shop"},
			addr:   "[::1]:3306", database: "shop",
		},
		{
			name:   "options become params",
			config: adapter.Config{Database: "shop", Options: map[string]string{"charset": "utf8mb4"}},
			addr:   "localhost:3306", database: "shop",
			params: map[string]string{"charset": "utf8mb4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := buildMySQLConfig(tt.config)
			assert.Equal(t, "tcp", c.Net)
			assert.Equal(t, tt.addr, c.Addr)
			assert.Equal(t, tt.database, c.DBName)
			assert.Equal(t, tt.config.Username, c.User)
			assert.Equal(t, tt.config.Password, c.Passwd)
			assert.True(t, c.ParseTime)
			assert.Equal(t, tt.params, c.Params)
			assert.Contains(t, c.FormatDSN(), "parseTime=true")
		})
	}
}

func TestDialect(t *testing.T) {
	d := New(nil).Dialect()

	assert.Equal(t, "mysql", d.Name)
	assert.Equal(t, core.CommentInline, d.Comments)
	assert.Equal(t, core.AlterColumnModify, d.AlterColumn)
	assert.Equal(t, core.RenameTableStatement, d.RenameTable)
	assert.Equal(t, "?", d.FormatPlaceholder(3))

	tests := []struct {
		input    string
		expected string
	}{
		{"name", "name"},
		{"order", "`order`"},
		{"CamelCase", "CamelCase"},
		{"has`tick", "`has``tick`"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, d.QuoteIdentifierIfNeeded(tt.input))
		})
	}
}

func TestAdapter_NotConnected(t *testing.T) {
	adp := New(nil)
	ctx := context.Background()

	require.ErrorIs(t, adp.Exec(ctx, "SELECT 1"), adapter.ErrNotConnected)
	_, err := adp.GetTableMetadata(ctx, "orders")
	require.ErrorIs(t, err, adapter.ErrNotConnected)
	_, err = adp.OpenExecutionContext(ctx, "drop table")
	require.ErrorIs(t, err, adapter.ErrNotConnected)
}

func TestAdapter_GetTableMetadataUsesDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`table_schema = \? AND table_name = \?`).
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default", "ordinal_position"}).
			AddRow("id", "int", "NO", nil, 1).
			AddRow("note", "varchar", "YES", "none", 2))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM shop\\.orders").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	adp := New(nil)
	adp.DB = db
	adp.Cfg = adapter.Config{Database: "shop"}

	meta, err := adp.GetTableMetadata(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, "shop", meta.Schema)
	assert.Equal(t, int64(7), meta.RowCount)
	require.Len(t, meta.Columns, 2)
	assert.True(t, meta.Columns[1].HasDefault)
	assert.Equal(t, "none", meta.Columns[1].Default)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Registry(t *testing.T) {
	factory, ok := adapter.Get("mysql")
	require.True(t, ok)

	m, ok := factory(nil).(*Adapter)
	require.True(t, ok)
	assert.Equal(t, "mysql", m.DialectName())
}
