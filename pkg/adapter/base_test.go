package adapter

import (
	"context"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapdb/internal/testutil"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		expectErr bool
	}{
		{
			name:      "close with nil DB",
			setupDB:   false,
			expectErr: false,
		},
		{
			name:      "close with open DB",
			setupDB:   true,
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			err := base.Close()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		expectErr bool
		errMsg    string
	}{
		{
			name:      "exec without connection",
			setupDB:   false,
			sql:       "SELECT 1",
			expectErr: true,
			errMsg:    "database connection not established",
		},
		{
			name:    "exec success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE users").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			sql:       "CREATE TABLE users (id INT)",
			expectErr: false,
		},
		{
			name:    "exec with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INVALID SQL").WillReturnError(assert.AnError)
			},
			sql:       "INVALID SQL",
			expectErr: true,
			errMsg:    "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()

				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				base.DB = db
			}

			err := base.Exec(ctx, tt.sql)
			if tt.expectErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLAdapter_Query(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		expectErr bool
		errMsg    string
	}{
		{
			name:      "query without connection",
			setupDB:   false,
			sql:       "SELECT 1",
			expectErr: true,
			errMsg:    "database connection not established",
		},
		{
			name:    "query success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name"}).
					AddRow(1, "alice").
					AddRow(2, "bob")
				mock.ExpectQuery("SELECT").WillReturnRows(rows)
			},
			sql:       "SELECT id, name FROM users",
			expectErr: false,
		},
		{
			name:    "query with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("INVALID").WillReturnError(assert.AnError)
			},
			sql:       "INVALID SQL",
			expectErr: true,
			errMsg:    "failed to execute query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()

				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				base.DB = db
			}

			rows, err := base.Query(ctx, tt.sql)
			if tt.expectErr {
				require.Error(t, err)
				assert.Nil(t, rows)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				require.NoError(t, err)
				assert.NotNil(t, rows)
				defer func() { _ = rows.Close() }()
			}
		})
	}
}

func TestBaseSQLAdapter_IsConnected(t *testing.T) {
	tests := []struct {
		name     string
		setupDB  bool
		expected bool
	}{
		{
			name:     "not connected",
			setupDB:  false,
			expected: false,
		},
		{
			name:     "connected",
			setupDB:  true,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, _, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()
				base.DB = db
			}

			assert.Equal(t, tt.expected, base.IsConnected())
		})
	}
}

func TestBaseSQLAdapter_ConcurrentClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	base := &BaseSQLAdapter{Logger: testutil.NewTestLogger(t)}
	base.SetDB(db)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				_ = base.IsConnected()
				_ = base.Handle()
			}
			assert.NoError(t, base.Close())
		}()
	}
	wg.Wait()

	assert.False(t, base.IsConnected())
	assert.NoError(t, mock.ExpectationsWereMet(), "the handle is closed exactly once")
}

func TestBaseSQLAdapter_OpenExecutionContext(t *testing.T) {
	ctx := context.Background()

	t.Run("not connected", func(t *testing.T) {
		base := &BaseSQLAdapter{}
		_, err := base.OpenExecutionContext(ctx, "create table")
		require.ErrorIs(t, err, ErrNotConnected)
	})

	t.Run("runs statements on a dedicated connection", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec("CREATE TABLE users").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("COMMENT ON TABLE users").WillReturnError(assert.AnError)

		base := &BaseSQLAdapter{DB: db, Logger: testutil.NewTestLogger(t)}
		ec, err := base.OpenExecutionContext(ctx, "create table")
		require.NoError(t, err)

		require.NoError(t, ec.Exec(ctx, "CREATE TABLE users (id INT)"))
		err = ec.Exec(ctx, "COMMENT ON TABLE users IS 'x'")
		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to execute SQL")
		require.NoError(t, ec.Close())

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBaseSQLAdapter_Ping(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, (&BaseSQLAdapter{}).Ping(ctx), ErrNotConnected)

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(assert.AnError)

	base := &BaseSQLAdapter{DB: db}
	require.NoError(t, base.Ping(ctx))
	err = base.Ping(ctx)
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to ping database")
}

func TestParseQualifiedName(t *testing.T) {
	tests := []struct {
		table      string
		wantSchema string
		wantName   string
	}{
		{"users", "public", "users"},
		{"sales.orders", "sales", "orders"},
		{"a.b.c", "a", "b.c"},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			schema, name := ParseQualifiedName(tt.table, "public")
			assert.Equal(t, tt.wantSchema, schema)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestBaseSQLAdapter_GetTableMetadataCommon(t *testing.T) {
	ctx := context.Background()
	d := dialect.NewDialect("test").
		DefaultSchema("public").
		PlaceholderStyle(dialect.PlaceholderDollar).
		WithReservedWords("user").
		Build()

	metaColumns := []string{"column_name", "data_type", "is_nullable", "column_default", "ordinal_position"}

	tests := []struct {
		name          string
		table         string
		defaultSchema string
		setupMock     func(mock sqlmock.Sqlmock)
		want          *core.TableMetadata
		errMsg        string
	}{
		{
			name:  "columns and row count",
			table: "user",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM information_schema.columns").
					WithArgs("public", "user").
					WillReturnRows(sqlmock.NewRows(metaColumns).
						AddRow("id", "integer", "NO", nil, 1).
						AddRow("email", "text", "YES", "'none'::text", 2))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM public\."user"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
			},
			want: &core.TableMetadata{
				Schema: "public",
				Name:   "user",
				Columns: []core.Column{
					{Name: "id", Type: "integer", Nullable: false, Position: 1},
					{Name: "email", Type: "text", Nullable: true, Default: "'none'::text", HasDefault: true, Position: 2},
				},
				RowCount: 42,
			},
		},
		{
			name:          "explicit default schema and failing count",
			table:         "orders",
			defaultSchema: "shop",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM information_schema.columns").
					WithArgs("shop", "orders").
					WillReturnRows(sqlmock.NewRows(metaColumns).AddRow("id", "int", "NO", nil, 1))
				mock.ExpectQuery("SELECT COUNT").WillReturnError(assert.AnError)
			},
			want: &core.TableMetadata{
				Schema:  "shop",
				Name:    "orders",
				Columns: []core.Column{{Name: "id", Type: "int", Position: 1}},
			},
		},
		{
			name:  "missing table",
			table: "sales.missing",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM information_schema.columns").
					WithArgs("sales", "missing").
					WillReturnRows(sqlmock.NewRows(metaColumns))
			},
			errMsg: "table sales.missing not found",
		},
		{
			name:  "query failure",
			table: "users",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM information_schema.columns").WillReturnError(assert.AnError)
			},
			errMsg: "failed to query column metadata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.setupMock(mock)

			base := &BaseSQLAdapter{DB: db}
			got, err := base.GetTableMetadataCommon(ctx, tt.table, d, tt.defaultSchema)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
