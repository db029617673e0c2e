// Package adapter provides the database adapter contract LeapDB edits through.
//
// Concrete adapter implementations live in pkg/adapters/ subdirectories and
// register themselves with this package in init(). Every Adapter is also a
// command.Connection, so a command context can save straight into it.
package adapter

import (
	"context"

	"github.com/leapstack-labs/leapdb/pkg/command"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/dialect"
)

// Shorthands for the core types adapters deal in.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Ping verifies the connection is still alive.
	Ping(ctx context.Context) error

	// Exec executes a SQL statement that doesn't return rows (e.g., CREATE, ALTER).
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// GetTableMetadata retrieves metadata for a table, given as "name" or "schema.name".
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// Dialect returns the SQL dialect used to generate DDL for this database.
	Dialect() *dialect.Dialect

	// IsConnected reports whether Connect succeeded and Close was not called.
	IsConnected() bool

	// OpenExecutionContext checks out a dedicated connection for one command.
	OpenExecutionContext(ctx context.Context, purpose string) (command.ExecutionContext, error)
}
