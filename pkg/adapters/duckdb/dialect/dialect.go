// Package dialect provides the DuckDB DDL dialect definition.
// This package has no database driver dependencies.
package dialect

import (
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
}

var duckdbReservedWords = []string{
	"all", "analyse", "analyze", "and", "any", "array", "as", "asc",
	"asymmetric", "both", "case", "cast", "check", "collate", "column",
	"constraint", "create", "default", "deferrable", "desc", "describe",
	"distinct", "do", "else", "end", "except", "false", "fetch", "for",
	"foreign", "from", "grant", "group", "having", "in", "initially",
	"intersect", "into", "lateral", "leading", "limit", "not", "null",
	"offset", "on", "only", "or", "order", "pivot", "placing", "primary",
	"qualify", "references", "returning", "select", "show", "some",
	"summarize", "symmetric", "table", "then", "to", "trailing", "true",
	"union", "unique", "unpivot", "using", "variadic", "when", "where",
	"window", "with",
}

var duckdbDataTypes = []string{
	"BOOLEAN", "BOOL", "TINYINT", "SMALLINT", "INTEGER", "INT", "BIGINT", "HUGEINT",
	"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT",
	"FLOAT", "REAL", "DOUBLE", "DECIMAL", "NUMERIC",
	"VARCHAR", "TEXT", "STRING", "BLOB", "UUID", "JSON",
	"DATE", "TIME", "TIMESTAMP", "TIMESTAMPTZ", "INTERVAL",
	"LIST", "STRUCT", "MAP", "UNION", "ENUM",
}

// DuckDB is the DuckDB dialect configuration.
var DuckDB = dialect.NewDialect("duckdb").
	Identifiers(`"`, `"`, `""`, dialect.NormCaseInsensitive).
	DefaultSchema("main").
	PlaceholderStyle(dialect.PlaceholderQuestion).
	Comments(core.CommentOn).
	AlterColumn(core.AlterColumnStandard).
	RenameTable(core.RenameTableAlter).
	DropColumn(true).
	RenameColumn(true).
	WithKeywords("CREATE", "ALTER", "DROP", "TABLE", "COLUMN", "COMMENT", "RENAME", "TYPE", "DEFAULT", "NOT", "NULL").
	WithDataTypes(duckdbDataTypes...).
	WithReservedWords(duckdbReservedWords...).
	Build()
