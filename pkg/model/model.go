package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// ErrDuplicate is returned when an object with the same name already exists.
var ErrDuplicate = errors.New("object already exists")

// TableState is the editable part of a table.
type TableState struct {
	Name    string
	Comment string
}

// Table is an editable table.
type Table struct {
	Schema  string
	Name    string
	Comment string

	columns   []*Column
	savedName string
	persisted bool
}

// NewTable returns a table that does not exist in the database yet.
func NewTable(schema, name string) *Table {
	return &Table{Schema: schema, Name: name}
}

// FromMetadata builds a persisted table from catalog metadata.
func FromMetadata(meta *core.TableMetadata) *Table {
	t := &Table{Schema: meta.Schema, Name: meta.Name, savedName: meta.Name, persisted: true}
	for _, mc := range meta.Columns {
		col := &Column{
			table:     t,
			Name:      mc.Name,
			Type:      mc.Type,
			Nullable:  mc.Nullable,
			Default:   mc.Default,
			savedName: mc.Name,
			persisted: true,
		}
		t.columns = append(t.columns, col)
	}
	return t
}

// State returns the current editable state.
func (t *Table) State() TableState {
	return TableState{Name: t.Name, Comment: t.Comment}
}

// Restore sets the current editable state.
func (t *Table) Restore(s TableState) {
	t.Name = s.Name
	t.Comment = s.Comment
}

// Persisted reports whether the table exists in the database.
func (t *Table) Persisted() bool { return t.persisted }

// SavedName returns the name the database knows the table by.
// For tables that are not persisted it is the current name.
func (t *Table) SavedName() string {
	if !t.persisted {
		return t.Name
	}
	return t.savedName
}

// MarkPersisted records that the table exists under name.
func (t *Table) MarkPersisted(name string) {
	t.persisted = true
	t.savedName = name
}

// MarkDropped records that the table no longer exists in the database.
func (t *Table) MarkDropped() {
	t.persisted = false
	t.savedName = ""
}

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.columns...)
}

// Column returns the column with the given current name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// NewColumn creates a column that does not exist in the database yet and
// appends it to the table.
func (t *Table) NewColumn(name, typ string) (*Column, error) {
	if _, exists := t.Column(name); exists {
		return nil, fmt.Errorf("column %s.%s: %w", t.Name, name, ErrDuplicate)
	}
	c := &Column{table: t, Name: name, Type: typ, Nullable: true}
	t.columns = append(t.columns, c)
	return c, nil
}

// RemoveColumn detaches c and returns its position, or -1 if c is not a column
// of the table.
func (t *Table) RemoveColumn(c *Column) int {
	for i, col := range t.columns {
		if col == c {
			t.columns = append(t.columns[:i], t.columns[i+1:]...)
			return i
		}
	}
	return -1
}

// InsertColumn puts c back at position i. Positions past the end append.
func (t *Table) InsertColumn(i int, c *Column) {
	if i < 0 || i > len(t.columns) {
		i = len(t.columns)
	}
	t.columns = append(t.columns, nil)
	copy(t.columns[i+1:], t.columns[i:])
	t.columns[i] = c
}

// ColumnState is the editable part of a column.
type ColumnState struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
	Comment  string
}

// Column is an editable column of a table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	// Default is a SQL expression. Empty means no default.
	Default string
	Comment string

	table     *Table
	savedName string
	persisted bool
}

// Table returns the owning table.
func (c *Column) Table() *Table { return c.table }

// ParentObject returns the owning table.
func (c *Column) ParentObject() any { return c.table }

// State returns the current editable state.
func (c *Column) State() ColumnState {
	return ColumnState{
		Name:     c.Name,
		Type:     c.Type,
		Nullable: c.Nullable,
		Default:  c.Default,
		Comment:  c.Comment,
	}
}

// Restore sets the current editable state.
func (c *Column) Restore(s ColumnState) {
	c.Name = s.Name
	c.Type = s.Type
	c.Nullable = s.Nullable
	c.Default = s.Default
	c.Comment = s.Comment
}

// Persisted reports whether the column exists in the database.
func (c *Column) Persisted() bool { return c.persisted }

// SavedName returns the name the database knows the column by.
func (c *Column) SavedName() string {
	if !c.persisted {
		return c.Name
	}
	return c.savedName
}

// MarkPersisted records that the column exists under name.
func (c *Column) MarkPersisted(name string) {
	c.persisted = true
	c.savedName = name
}

// MarkDropped records that the column no longer exists in the database.
func (c *Column) MarkDropped() {
	c.persisted = false
	c.savedName = ""
}
