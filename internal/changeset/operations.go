package changeset

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/editor"
	"github.com/leapstack-labs/leapdb/pkg/model"
)

// Column describes a column in create_table and add_column.
type Column struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
	// Nullable defaults to true.
	Nullable *bool  `mapstructure:"nullable"`
	Default  string `mapstructure:"default"`
	Comment  string `mapstructure:"comment"`
}

func (c Column) state() model.ColumnState {
	nullable := true
	if c.Nullable != nil {
		nullable = *c.Nullable
	}
	return model.ColumnState{
		Name:     c.Name,
		Type:     c.Type,
		Nullable: nullable,
		Default:  c.Default,
		Comment:  c.Comment,
	}
}

func (c Column) validate() error {
	return required("name", c.Name, "type", c.Type)
}

// CreateTable creates a new table.
type CreateTable struct {
	Table   string   `mapstructure:"table"`
	Comment string   `mapstructure:"comment"`
	Columns []Column `mapstructure:"columns"`
}

func (*CreateTable) Kind() string { return "create_table" }

func (o *CreateTable) validate() error {
	if err := required("table", o.Table); err != nil {
		return err
	}
	for _, c := range o.Columns {
		if err := c.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (o *CreateTable) Apply(_ context.Context, s *editor.Session) error {
	schema, name := splitRef(o.Table)
	states := make([]model.ColumnState, len(o.Columns))
	for i, c := range o.Columns {
		states[i] = c.state()
	}
	t, err := s.CreateTable(schema, name, states...)
	if err != nil {
		return err
	}
	if o.Comment != "" {
		return s.CommentTable(t, o.Comment)
	}
	return nil
}

// DropTable drops a table.
type DropTable struct {
	Table string `mapstructure:"table"`
}

func (*DropTable) Kind() string { return "drop_table" }

func (o *DropTable) validate() error { return required("table", o.Table) }

func (o *DropTable) Apply(ctx context.Context, s *editor.Session) error {
	t, err := s.LoadTable(ctx, o.Table)
	if err != nil {
		return err
	}
	return s.DropTable(t)
}

// RenameTable renames a table within its schema.
type RenameTable struct {
	Table string `mapstructure:"table"`
	To    string `mapstructure:"to"`
}

func (*RenameTable) Kind() string { return "rename_table" }

func (o *RenameTable) validate() error { return required("table", o.Table, "to", o.To) }

func (o *RenameTable) Apply(ctx context.Context, s *editor.Session) error {
	t, err := s.LoadTable(ctx, o.Table)
	if err != nil {
		return err
	}
	return s.RenameTable(t, o.To)
}

// CommentTable sets or clears a table comment.
type CommentTable struct {
	Table   string `mapstructure:"table"`
	Comment string `mapstructure:"comment"`
}

func (*CommentTable) Kind() string { return "comment_table" }

func (o *CommentTable) validate() error { return required("table", o.Table) }

func (o *CommentTable) Apply(ctx context.Context, s *editor.Session) error {
	t, err := s.LoadTable(ctx, o.Table)
	if err != nil {
		return err
	}
	return s.CommentTable(t, o.Comment)
}

// AddColumn appends a column to a table.
type AddColumn struct {
	Table  string `mapstructure:"table"`
	Column `mapstructure:",squash"`
}

func (*AddColumn) Kind() string { return "add_column" }

func (o *AddColumn) validate() error {
	if err := required("table", o.Table); err != nil {
		return err
	}
	return o.Column.validate()
}

func (o *AddColumn) Apply(ctx context.Context, s *editor.Session) error {
	t, err := s.LoadTable(ctx, o.Table)
	if err != nil {
		return err
	}
	_, err = s.AddColumn(t, o.state())
	return err
}

// DropColumn drops a column.
type DropColumn struct {
	Table  string `mapstructure:"table"`
	Column string `mapstructure:"column"`
}

func (*DropColumn) Kind() string { return "drop_column" }

func (o *DropColumn) validate() error { return required("table", o.Table, "column", o.Column) }

func (o *DropColumn) Apply(ctx context.Context, s *editor.Session) error {
	col, err := lookupColumn(ctx, s, o.Table, o.Column)
	if err != nil {
		return err
	}
	return s.DropColumn(col)
}

// RenameColumn renames a column.
type RenameColumn struct {
	Table  string `mapstructure:"table"`
	Column string `mapstructure:"column"`
	To     string `mapstructure:"to"`
}

func (*RenameColumn) Kind() string { return "rename_column" }

func (o *RenameColumn) validate() error {
	return required("table", o.Table, "column", o.Column, "to", o.To)
}

func (o *RenameColumn) Apply(ctx context.Context, s *editor.Session) error {
	col, err := lookupColumn(ctx, s, o.Table, o.Column)
	if err != nil {
		return err
	}
	return s.RenameColumn(col, o.To)
}

// AlterColumn changes any subset of a column's properties. Unset fields keep
// their current value.
type AlterColumn struct {
	Table    string  `mapstructure:"table"`
	Column   string  `mapstructure:"column"`
	To       string  `mapstructure:"to"`
	Type     *string `mapstructure:"type"`
	Nullable *bool   `mapstructure:"nullable"`
	Default  *string `mapstructure:"default"`
	Comment  *string `mapstructure:"comment"`
}

func (*AlterColumn) Kind() string { return "alter_column" }

func (o *AlterColumn) validate() error { return required("table", o.Table, "column", o.Column) }

func (o *AlterColumn) Apply(ctx context.Context, s *editor.Session) error {
	col, err := lookupColumn(ctx, s, o.Table, o.Column)
	if err != nil {
		return err
	}
	after := col.State()
	if o.To != "" {
		after.Name = o.To
	}
	if o.Type != nil {
		after.Type = *o.Type
	}
	if o.Nullable != nil {
		after.Nullable = *o.Nullable
	}
	if o.Default != nil {
		after.Default = *o.Default
	}
	if o.Comment != nil {
		after.Comment = *o.Comment
	}
	return s.UpdateColumn(col, after)
}

// CommentColumn sets or clears a column comment.
type CommentColumn struct {
	Table   string `mapstructure:"table"`
	Column  string `mapstructure:"column"`
	Comment string `mapstructure:"comment"`
}

func (*CommentColumn) Kind() string { return "comment_column" }

func (o *CommentColumn) validate() error { return required("table", o.Table, "column", o.Column) }

func (o *CommentColumn) Apply(ctx context.Context, s *editor.Session) error {
	col, err := lookupColumn(ctx, s, o.Table, o.Column)
	if err != nil {
		return err
	}
	return s.CommentColumn(col, o.Comment)
}

func lookupColumn(ctx context.Context, s *editor.Session, table, column string) (*model.Column, error) {
	t, err := s.LoadTable(ctx, table)
	if err != nil {
		return nil, err
	}
	col, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("column %s not found in table %s", column, t.Name)
	}
	return col, nil
}

func splitRef(ref string) (schema, name string) {
	if s, n, ok := strings.Cut(ref, "."); ok {
		return s, n
	}
	return "", ref
}
