// Package dialect provides the PostgreSQL DDL dialect definition.
// This package has no database driver dependencies, so tools that only
// generate scripts can use it without opening connections.
package dialect

import (
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// postgresReservedWords contains common PostgreSQL reserved words.
// This is a manually maintained list of frequently problematic identifiers.
// For a complete list, use pg_get_keywords() at runtime.
var postgresReservedWords = []string{
	"user", "order", "group", "table", "select", "from", "where", "index",
	"all", "and", "any", "array", "as", "asc", "asymmetric", "authorization",
	"between", "binary", "both", "case", "cast", "check", "collate", "column",
	"constraint", "create", "cross", "current_catalog", "current_date",
	"current_role", "current_schema", "current_time", "current_timestamp",
	"current_user", "default", "deferrable", "desc", "distinct", "do", "else",
	"end", "except", "false", "fetch", "for", "foreign", "freeze", "full",
	"grant", "having", "ilike", "in", "initially", "inner", "intersect",
	"into", "is", "isnull", "join", "lateral", "leading", "left", "like",
	"limit", "localtime", "localtimestamp", "natural", "not", "notnull",
	"null", "offset", "on", "only", "or", "outer", "overlaps", "placing",
	"primary", "references", "returning", "right", "session_user", "similar",
	"some", "symmetric", "then", "to", "trailing", "true", "union", "unique",
	"using", "variadic", "verbose", "when", "window", "with",
}

var postgresDataTypes = []string{
	"SMALLINT", "INTEGER", "INT", "BIGINT", "SERIAL", "BIGSERIAL",
	"NUMERIC", "DECIMAL", "REAL", "DOUBLE PRECISION", "MONEY",
	"TEXT", "VARCHAR", "CHARACTER VARYING", "CHAR", "CHARACTER", "CITEXT",
	"BOOLEAN", "BOOL", "BYTEA", "UUID", "JSON", "JSONB", "XML",
	"DATE", "TIME", "TIMETZ", "TIMESTAMP", "TIMESTAMPTZ", "INTERVAL",
	"INET", "CIDR", "MACADDR", "TSVECTOR", "INT4", "INT8", "FLOAT4", "FLOAT8",
}

// Postgres is the PostgreSQL dialect configuration.
var Postgres = dialect.NewDialect("postgres").
	Identifiers(`"`, `"`, `""`, dialect.NormLowercase). // Postgres normalizes unquoted identifiers to lowercase
	DefaultSchema("public").
	PlaceholderStyle(dialect.PlaceholderDollar).
	Comments(core.CommentOn).
	AlterColumn(core.AlterColumnStandard).
	RenameTable(core.RenameTableAlter).
	DropColumn(true).
	RenameColumn(true).
	WithKeywords("CREATE", "ALTER", "DROP", "TABLE", "COLUMN", "COMMENT", "RENAME", "TYPE", "DEFAULT", "NOT", "NULL").
	WithDataTypes(postgresDataTypes...).
	WithReservedWords(postgresReservedWords...).
	Build()
