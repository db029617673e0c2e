package editor

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/dialect"
	"github.com/leapstack-labs/leapdb/pkg/model"
)

// ddl renders statements for one dialect.
type ddl struct {
	d *dialect.Dialect
}

func (b ddl) ident(name string) string {
	return b.d.QuoteIdentifierIfNeeded(name)
}

// table returns the qualified name the database currently knows t by.
func (b ddl) table(t *model.Table) string {
	return b.d.QualifiedName(t.Schema, t.SavedName())
}

func (b ddl) literal(s string) string {
	if s == "" {
		return "NULL"
	}
	return b.d.QuoteString(s)
}

func (b ddl) columnDef(s model.ColumnState) string {
	var sb strings.Builder
	sb.WriteString(b.ident(s.Name))
	sb.WriteString(" ")
	sb.WriteString(s.Type)
	if s.Default != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(s.Default)
	}
	if !s.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if b.d.Comments == core.CommentInline && s.Comment != "" {
		sb.WriteString(" COMMENT ")
		sb.WriteString(b.d.QuoteString(s.Comment))
	}
	return sb.String()
}

func (b ddl) createTable(t *model.Table) string {
	cols := t.Columns()
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		defs = append(defs, "  "+b.columnDef(c.State()))
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (\n%s\n)", b.d.QualifiedName(t.Schema, t.Name), strings.Join(defs, ",\n"))
	if b.d.Comments == core.CommentInline && t.Comment != "" {
		stmt += " COMMENT = " + b.d.QuoteString(t.Comment)
	}
	return stmt
}

func (b ddl) dropTable(t *model.Table) string {
	return "DROP TABLE " + b.table(t)
}

func (b ddl) renameTable(t *model.Table, name string) string {
	if b.d.RenameTable == core.RenameTableStatement {
		return fmt.Sprintf("RENAME TABLE %s TO %s", b.table(t), b.d.QualifiedName(t.Schema, name))
	}
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", b.table(t), b.ident(name))
}

// commentTable renders a table comment for dialects with CommentOn or
// CommentInline. qualified is the current table reference.
func (b ddl) commentTable(qualified, comment string) string {
	if b.d.Comments == core.CommentInline {
		return fmt.Sprintf("ALTER TABLE %s COMMENT = %s", qualified, b.d.QuoteString(comment))
	}
	return fmt.Sprintf("COMMENT ON TABLE %s IS %s", qualified, b.literal(comment))
}

func (b ddl) commentColumn(qualified, column, comment string) string {
	return fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s", qualified, b.ident(column), b.literal(comment))
}

func (b ddl) addColumn(qualified string, s model.ColumnState) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", qualified, b.columnDef(s))
}

func (b ddl) dropColumn(qualified, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", qualified, b.ident(column))
}

func (b ddl) renameColumn(qualified, from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", qualified, b.ident(from), b.ident(to))
}

func (b ddl) alterColumnType(qualified, column, typ string) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", qualified, b.ident(column), typ)
}

func (b ddl) alterColumnNullable(qualified, column string, nullable bool) string {
	op := "SET NOT NULL"
	if nullable {
		op = "DROP NOT NULL"
	}
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s", qualified, b.ident(column), op)
}

func (b ddl) alterColumnDefault(qualified, column, def string) string {
	if def == "" {
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", qualified, b.ident(column))
	}
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", qualified, b.ident(column), def)
}

func (b ddl) modifyColumn(qualified string, s model.ColumnState) string {
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", qualified, b.columnDef(s))
}

// unsupportedComment is shown in previews for dialects that cannot store comments.
func unsupportedComment(object, comment string) string {
	return fmt.Sprintf("-- %s comment not stored: %s", object, strings.ReplaceAll(comment, "\n", " "))
}

// validateColumn checks a column definition against the dialect.
func validateColumn(d *dialect.Dialect, s model.ColumnState) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("column: %w", ErrEmptyName)
	}
	if strings.TrimSpace(s.Type) == "" {
		return fmt.Errorf("column %s: %w", s.Name, ErrEmptyType)
	}
	if !d.IsDataType(s.Type) {
		return fmt.Errorf("column %s: %w %q for %s", s.Name, ErrUnknownType, s.Type, d.Name)
	}
	return nil
}
