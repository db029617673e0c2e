// Package dialect provides the MySQL DDL dialect definition.
// This package has no database driver dependencies.
package dialect

import (
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/dialect"
)

func init() {
	dialect.Register(MySQL)
}

var mysqlReservedWords = []string{
	"add", "all", "alter", "and", "as", "asc", "between", "by", "case",
	"change", "check", "column", "condition", "constraint", "create", "cross",
	"database", "default", "delete", "desc", "describe", "distinct", "drop",
	"else", "exists", "false", "for", "foreign", "from", "group", "having",
	"in", "index", "inner", "insert", "interval", "into", "is", "join", "key",
	"keys", "left", "like", "limit", "modify", "not", "null", "on", "or",
	"order", "primary", "references", "rename", "select", "set", "table",
	"then", "to", "true", "union", "unique", "update", "use", "using",
	"values", "when", "where", "with",
}

var mysqlDataTypes = []string{
	"TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT",
	"DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "BIT", "BOOLEAN", "BOOL",
	"CHAR", "VARCHAR", "TINYTEXT", "TEXT", "MEDIUMTEXT", "LONGTEXT",
	"BINARY", "VARBINARY", "BLOB", "LONGBLOB", "ENUM", "SET", "JSON",
	"DATE", "TIME", "DATETIME", "TIMESTAMP", "YEAR",
}

// MySQL is the MySQL dialect configuration.
// Schemas are databases, comments are inline clauses and column changes
// restate the whole definition with MODIFY COLUMN.
var MySQL = dialect.NewDialect("mysql").
	Identifiers("`", "`", "``", dialect.NormCaseSensitive).
	PlaceholderStyle(dialect.PlaceholderQuestion).
	Comments(core.CommentInline).
	AlterColumn(core.AlterColumnModify).
	RenameTable(core.RenameTableStatement).
	DropColumn(true).
	RenameColumn(true).
	WithKeywords("CREATE", "ALTER", "DROP", "TABLE", "COLUMN", "COMMENT", "RENAME", "MODIFY", "DEFAULT", "NOT", "NULL").
	WithDataTypes(mysqlDataTypes...).
	WithReservedWords(mysqlReservedWords...).
	Build()
