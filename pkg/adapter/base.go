package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapdb/pkg/command"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/dialect"
)

// ErrNotConnected is returned when an operation needs an open connection.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query and execution context implementations.
//
// DB may be set directly before the adapter is shared. Afterwards use SetDB
// and Handle, which are safe for concurrent use with Close and IsConnected.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger

	mu sync.RWMutex
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// Handle returns the open database handle, or nil when disconnected.
func (b *BaseSQLAdapter) Handle() *sql.DB {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.DB
}

// SetDB installs the handle opened by Connect.
func (b *BaseSQLAdapter) SetDB(db *sql.DB) {
	b.mu.Lock()
	b.DB = db
	b.mu.Unlock()
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	b.mu.Lock()
	db := b.DB
	b.DB = nil
	b.mu.Unlock()

	if db == nil {
		return nil
	}
	b.logger().Debug("closing database connection")
	return db.Close()
}

// Ping verifies the connection is still alive.
func (b *BaseSQLAdapter) Ping(ctx context.Context) error {
	db := b.Handle()
	if db == nil {
		return ErrNotConnected
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	db := b.Handle()
	if db == nil {
		return ErrNotConnected
	}
	_, err := db.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string) (*core.Rows, error) {
	db := b.Handle()
	if db == nil {
		return nil, ErrNotConnected
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.Handle() != nil
}

// OpenExecutionContext checks out a dedicated connection from the pool.
// Statements of one command run on the same session.
func (b *BaseSQLAdapter) OpenExecutionContext(ctx context.Context, purpose string) (command.ExecutionContext, error) {
	db := b.Handle()
	if db == nil {
		return nil, ErrNotConnected
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &sqlExecutionContext{conn: conn, purpose: purpose, logger: b.logger()}, nil
}

type sqlExecutionContext struct {
	conn    *sql.Conn
	purpose string
	logger  *slog.Logger
}

func (e *sqlExecutionContext) Exec(ctx context.Context, script string) error {
	e.logger.Debug("executing statement", slog.String("purpose", e.purpose), slog.String("sql", script))
	if _, err := e.conn.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

func (e *sqlExecutionContext) Close() error {
	return e.conn.Close()
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses defaultSchema if the reference is not qualified.
func ParseQualifiedName(table, defaultSchema string) (schema, name string) {
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

// GetTableMetadataCommon provides a shared implementation of GetTableMetadata
// over information_schema.columns with dialect-appropriate placeholders.
// An empty defaultSchema falls back to the dialect's default schema.
func (b *BaseSQLAdapter) GetTableMetadataCommon(ctx context.Context, table string, d *dialect.Dialect, defaultSchema string) (*core.TableMetadata, error) {
	db := b.Handle()
	if db == nil {
		return nil, ErrNotConnected
	}
	if defaultSchema == "" {
		defaultSchema = d.DefaultSchema
	}

	schema, tableName := ParseQualifiedName(table, defaultSchema)

	// The placeholders come from the dialect and are safe (? or $N)
	//nolint:gosec // Placeholders are safe - they come from dialect.FormatPlaceholder
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			column_default,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, d.FormatPlaceholder(1), d.FormatPlaceholder(2))

	rows, err := db.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable string
		var def sql.NullString
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &def, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		col.Default, col.HasDefault = def.String, def.Valid
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	countQuery := "SELECT COUNT(*) FROM " + d.QualifiedName(schema, tableName) //nolint:gosec // identifiers are quoted by the dialect
	var rowCount int64
	if err := db.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		// Non-fatal error, just set to 0
		b.logger().Debug("failed to count rows", slog.String("table", table), slog.String("error", err.Error()))
		rowCount = 0
	}

	return &core.TableMetadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}
