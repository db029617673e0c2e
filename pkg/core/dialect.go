package core

// DialectConfig holds the static configuration for a SQL dialect.
// This is pure data. DDL generation lives in pkg/editor and identifier
// handling in pkg/dialect.Dialect.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "duckdb", "postgres")
	Name string

	// Identifiers defines quoting and normalization rules
	Identifiers IdentifierConfig

	// DefaultSchema is the default schema name ("main" for DuckDB, "public" for Postgres)
	DefaultSchema string

	// Placeholder defines how query parameters are formatted
	Placeholder PlaceholderStyle

	// DDL capabilities
	Comments     CommentStyle
	AlterColumn  AlterColumnStyle
	RenameTable  RenameTableStyle
	DropColumn   bool
	RenameColumn bool

	Keywords  []string
	DataTypes []string
}

// NormalizationStrategy defines how unquoted identifiers are normalized.
type NormalizationStrategy int

const (
	// NormLowercase normalizes unquoted identifiers to lowercase (default SQL behavior).
	NormLowercase NormalizationStrategy = iota
	// NormUppercase normalizes unquoted identifiers to uppercase (Snowflake, Oracle).
	NormUppercase
	// NormCaseSensitive preserves identifier case exactly (MySQL on Linux).
	NormCaseSensitive
	// NormCaseInsensitive normalizes to lowercase for comparison (DuckDB, SQLite).
	NormCaseInsensitive
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, MySQL, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// IdentifierConfig defines how identifiers are quoted and normalized.
type IdentifierConfig struct {
	Quote         string                // Quote character: ", `, [
	QuoteEnd      string                // End quote character (usually same as Quote, ] for [)
	Escape        string                // Escape sequence: "", ``, ]]
	Normalization NormalizationStrategy // How to normalize unquoted identifiers
}

// CommentStyle defines how object comments are written.
type CommentStyle int

const (
	// CommentNone means the database cannot store comments.
	CommentNone CommentStyle = iota
	// CommentOn uses COMMENT ON TABLE/COLUMN statements (Postgres, DuckDB).
	CommentOn
	// CommentInline uses COMMENT clauses inside CREATE/ALTER statements (MySQL).
	CommentInline
)

// String returns the string representation of CommentStyle.
func (s CommentStyle) String() string {
	switch s {
	case CommentNone:
		return "none"
	case CommentOn:
		return "comment-on"
	case CommentInline:
		return "inline"
	default:
		return "unknown"
	}
}

// AlterColumnStyle defines how column type, nullability and defaults are changed.
type AlterColumnStyle int

const (
	// AlterColumnNone means columns cannot be altered in place (SQLite).
	AlterColumnNone AlterColumnStyle = iota
	// AlterColumnStandard uses ALTER TABLE ... ALTER COLUMN ... (Postgres, DuckDB).
	AlterColumnStandard
	// AlterColumnModify restates the full column with MODIFY COLUMN (MySQL).
	AlterColumnModify
)

// String returns the string representation of AlterColumnStyle.
func (s AlterColumnStyle) String() string {
	switch s {
	case AlterColumnNone:
		return "none"
	case AlterColumnStandard:
		return "standard"
	case AlterColumnModify:
		return "modify"
	default:
		return "unknown"
	}
}

// RenameTableStyle defines how tables are renamed.
type RenameTableStyle int

const (
	// RenameTableAlter uses ALTER TABLE ... RENAME TO ...
	RenameTableAlter RenameTableStyle = iota
	// RenameTableStatement uses RENAME TABLE ... TO ... (MySQL).
	RenameTableStatement
)
