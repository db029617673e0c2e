package model

import (
	"fmt"
	"strings"
)

// Catalog is the set of tables an editing session knows about.
type Catalog struct {
	DefaultSchema string
	tables        []*Table
}

// NewCatalog creates an empty catalog.
func NewCatalog(defaultSchema string) *Catalog {
	return &Catalog{DefaultSchema: defaultSchema}
}

// Tables returns the tables in insertion order.
func (c *Catalog) Tables() []*Table {
	return append([]*Table(nil), c.tables...)
}

// Table looks up a table by current name. An empty schema means the default
// schema.
func (c *Catalog) Table(schema, name string) (*Table, bool) {
	schema = c.schemaOrDefault(schema)
	for _, t := range c.tables {
		if strings.EqualFold(c.schemaOrDefault(t.Schema), schema) && strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return nil, false
}

// Lookup resolves a "name" or "schema.name" reference.
func (c *Catalog) Lookup(ref string) (*Table, bool) {
	if schema, name, ok := strings.Cut(ref, "."); ok {
		return c.Table(schema, name)
	}
	return c.Table("", ref)
}

// Add appends t. Fails if a table with the same name exists.
func (c *Catalog) Add(t *Table) error {
	if _, exists := c.Table(t.Schema, t.Name); exists {
		return fmt.Errorf("table %s: %w", t.Name, ErrDuplicate)
	}
	c.tables = append(c.tables, t)
	return nil
}

// Remove detaches t and returns its position, or -1 if it is not in the catalog.
func (c *Catalog) Remove(t *Table) int {
	for i, tbl := range c.tables {
		if tbl == t {
			c.tables = append(c.tables[:i], c.tables[i+1:]...)
			return i
		}
	}
	return -1
}

// Insert puts t back at position i. Positions past the end append.
func (c *Catalog) Insert(i int, t *Table) {
	if i < 0 || i > len(c.tables) {
		i = len(c.tables)
	}
	c.tables = append(c.tables, nil)
	copy(c.tables[i+1:], c.tables[i:])
	c.tables[i] = t
}

func (c *Catalog) schemaOrDefault(schema string) string {
	if schema == "" {
		return c.DefaultSchema
	}
	return schema
}
