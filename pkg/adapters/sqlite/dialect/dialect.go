// Package dialect provides the SQLite DDL dialect definition.
// This package has no database driver dependencies.
package dialect

import (
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
}

var sqliteReservedWords = []string{
	"abort", "add", "all", "alter", "and", "as", "autoincrement", "between",
	"check", "collate", "column", "commit", "constraint", "create", "cross",
	"default", "deferrable", "delete", "distinct", "drop", "else", "escape",
	"except", "exists", "foreign", "from", "group", "having", "in", "index",
	"inner", "insert", "intersect", "into", "is", "isnull", "join", "limit",
	"natural", "not", "notnull", "null", "on", "or", "order", "primary",
	"references", "select", "set", "table", "then", "to", "transaction",
	"union", "unique", "update", "using", "values", "when", "where",
}

var sqliteDataTypes = []string{
	"INTEGER", "INT", "REAL", "TEXT", "BLOB", "NUMERIC",
	"BOOLEAN", "DATE", "DATETIME", "VARCHAR", "DOUBLE",
}

// SQLite is the SQLite dialect configuration.
// Comments are not stored and column definitions cannot be altered in place.
var SQLite = dialect.NewDialect("sqlite").
	Identifiers(`"`, `"`, `""`, dialect.NormCaseInsensitive).
	DefaultSchema("main").
	PlaceholderStyle(dialect.PlaceholderQuestion).
	Comments(core.CommentNone).
	AlterColumn(core.AlterColumnNone).
	RenameTable(core.RenameTableAlter).
	DropColumn(true).
	RenameColumn(true).
	WithKeywords("CREATE", "ALTER", "DROP", "TABLE", "COLUMN", "RENAME", "ADD", "DEFAULT", "NOT", "NULL").
	WithDataTypes(sqliteDataTypes...).
	WithReservedWords(sqliteReservedWords...).
	Build()
