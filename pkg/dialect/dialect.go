// Package dialect provides SQL dialect configuration for DDL generation.
//
// A Dialect describes how a database quotes and normalizes identifiers and
// which schema changes it supports. Adapter packages define their dialect in a
// dialect sub-package and register it in init(); the object editor consults it
// when turning edits into statements.
package dialect

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Re-exported for dialect definitions.
const (
	NormLowercase       = core.NormLowercase
	NormUppercase       = core.NormUppercase
	NormCaseSensitive   = core.NormCaseSensitive
	NormCaseInsensitive = core.NormCaseInsensitive

	PlaceholderQuestion = core.PlaceholderQuestion
	PlaceholderDollar   = core.PlaceholderDollar
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers core.IdentifierConfig

	// Database-specific settings
	DefaultSchema string                // Default schema name ("main" for DuckDB, "public" for Postgres)
	Placeholder   core.PlaceholderStyle // How to format query parameters

	// DDL capabilities
	Comments     core.CommentStyle
	AlterColumn  core.AlterColumnStyle
	RenameTable  core.RenameTableStyle
	DropColumn   bool
	RenameColumn bool

	keywords      map[string]struct{}
	reservedWords map[string]struct{}
	dataTypes     []string
}

// Config returns the pure data configuration for this dialect.
func (d *Dialect) Config() *core.DialectConfig {
	return &core.DialectConfig{
		Name:          d.Name,
		Identifiers:   d.Identifiers,
		DefaultSchema: d.DefaultSchema,
		Placeholder:   d.Placeholder,
		Comments:      d.Comments,
		AlterColumn:   d.AlterColumn,
		RenameTable:   d.RenameTable,
		DropColumn:    d.DropColumn,
		RenameColumn:  d.RenameColumn,
		Keywords:      d.Keywords(),
		DataTypes:     d.DataTypes(),
	}
}

// NormalizeName normalizes an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case core.NormUppercase:
		return strings.ToUpper(name)
	case core.NormLowercase, core.NormCaseInsensitive:
		return strings.ToLower(name)
	default: // NormCaseSensitive
		return name
	}
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// Keywords returns all registered keywords.
func (d *Dialect) Keywords() []string {
	kws := make([]string, 0, len(d.keywords))
	for kw := range d.keywords {
		kws = append(kws, kw)
	}
	return kws
}

// DataTypes returns all supported data types.
func (d *Dialect) DataTypes() []string {
	return d.dataTypes
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reservedWords[strings.ToLower(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteIdentifierIfNeeded quotes an identifier if it is a reserved word, is not
// a plain identifier, or would change under the dialect's normalization.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.IsReservedWord(name) || !isPlainIdentifier(name) || d.NormalizeName(name) != name {
		return d.QuoteIdentifier(name)
	}
	return name
}

// QualifiedName joins schema and name, quoting both as needed.
// An empty schema yields the bare name.
func (d *Dialect) QualifiedName(schema, name string) string {
	if schema == "" {
		return d.QuoteIdentifierIfNeeded(name)
	}
	return d.QuoteIdentifierIfNeeded(schema) + "." + d.QuoteIdentifierIfNeeded(name)
}

// QuoteString renders s as a SQL string literal.
func (d *Dialect) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// IsDataType reports whether typ starts with a known data type of the dialect.
// Dialects without a type list accept everything.
func (d *Dialect) IsDataType(typ string) bool {
	if len(d.dataTypes) == 0 {
		return true
	}
	base := strings.ToUpper(strings.TrimSpace(typ))
	if i := strings.IndexAny(base, "(["); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	for _, dt := range d.dataTypes {
		if strings.EqualFold(dt, base) {
			return true
		}
	}
	return false
}

func isPlainIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name: name,
			Identifiers: core.IdentifierConfig{
				Quote:         `"`,
				QuoteEnd:      `"`,
				Escape:        `""`,
				Normalization: core.NormLowercase,
			},
			Comments:      core.CommentOn,
			AlterColumn:   core.AlterColumnStandard,
			RenameTable:   core.RenameTableAlter,
			DropColumn:    true,
			RenameColumn:  true,
			keywords:      make(map[string]struct{}),
			reservedWords: make(map[string]struct{}),
		},
	}
}

// New creates a dialect builder from a DialectConfig.
func New(cfg *core.DialectConfig) *Builder {
	b := &Builder{
		dialect: &Dialect{
			Name:          cfg.Name,
			Identifiers:   cfg.Identifiers,
			DefaultSchema: cfg.DefaultSchema,
			Placeholder:   cfg.Placeholder,
			Comments:      cfg.Comments,
			AlterColumn:   cfg.AlterColumn,
			RenameTable:   cfg.RenameTable,
			DropColumn:    cfg.DropColumn,
			RenameColumn:  cfg.RenameColumn,
			keywords:      make(map[string]struct{}),
			reservedWords: make(map[string]struct{}),
		},
	}
	return b.WithKeywords(cfg.Keywords...).WithDataTypes(cfg.DataTypes...)
}

// Identifiers configures identifier quoting and normalization.
func (b *Builder) Identifiers(quote, quoteEnd, escape string, norm core.NormalizationStrategy) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:         quote,
		QuoteEnd:      quoteEnd,
		Escape:        escape,
		Normalization: norm,
	}
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style core.PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// Comments sets how object comments are written.
func (b *Builder) Comments(style core.CommentStyle) *Builder {
	b.dialect.Comments = style
	return b
}

// AlterColumn sets how columns are altered in place.
func (b *Builder) AlterColumn(style core.AlterColumnStyle) *Builder {
	b.dialect.AlterColumn = style
	return b
}

// RenameTable sets how tables are renamed.
func (b *Builder) RenameTable(style core.RenameTableStyle) *Builder {
	b.dialect.RenameTable = style
	return b
}

// DropColumn sets whether ALTER TABLE ... DROP COLUMN is supported.
func (b *Builder) DropColumn(supported bool) *Builder {
	b.dialect.DropColumn = supported
	return b
}

// RenameColumn sets whether ALTER TABLE ... RENAME COLUMN is supported.
func (b *Builder) RenameColumn(supported bool) *Builder {
	b.dialect.RenameColumn = supported
	return b
}

// WithKeywords registers keywords for completion in the editor REPL.
func (b *Builder) WithKeywords(kws ...string) *Builder {
	for _, kw := range kws {
		b.dialect.keywords[strings.ToUpper(kw)] = struct{}{}
	}
	return b
}

// WithDataTypes registers supported data types.
func (b *Builder) WithDataTypes(types ...string) *Builder {
	b.dialect.dataTypes = append(b.dialect.dataTypes, types...)
	return b
}

// WithReservedWords registers words that need quoting when used as identifiers.
func (b *Builder) WithReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.dialect.reservedWords[strings.ToLower(w)] = struct{}{}
	}
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
