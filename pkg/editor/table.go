package editor

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapdb/pkg/command"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/dialect"
	"github.com/leapstack-labs/leapdb/pkg/model"
)

// CreateTable creates a table from its state at save time. It absorbs the
// column commands of its table, whose effects the CREATE already contains.
type CreateTable struct {
	command.Base
	table *model.Table
	ddl   ddl

	mu       sync.Mutex
	absorbed []command.Command
}

// NewCreateTable returns the command creating t.
func NewCreateTable(t *model.Table, d *dialect.Dialect) *CreateTable {
	return &CreateTable{
		Base:  command.Base{Target: t, Name: "Create table " + t.Name},
		table: t,
		ddl:   ddl{d: d},
	}
}

// Table returns the table being created.
func (c *CreateTable) Table() *model.Table { return c.table }

// Absorbed returns a copy of the column commands aggregated in the last
// recomputation.
func (c *CreateTable) Absorbed() []command.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.absorbed)
}

// Validate implements command.Command.
func (c *CreateTable) Validate() error {
	if strings.TrimSpace(c.table.Name) == "" {
		return fmt.Errorf("table: %w", ErrEmptyName)
	}
	cols := c.table.Columns()
	if len(cols) == 0 {
		return fmt.Errorf("table %s: %w", c.table.Name, ErrNoColumns)
	}
	seen := make(map[string]struct{}, len(cols))
	for _, col := range cols {
		if err := validateColumn(c.ddl.d, col.State()); err != nil {
			return err
		}
		key := strings.ToLower(col.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("table %s: column %s: %w", c.table.Name, col.Name, model.ErrDuplicate)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// PersistActions implements command.Command.
func (c *CreateTable) PersistActions() []command.PersistAction {
	t := c.table
	actions := []command.PersistAction{
		command.NewAction("Create table "+t.Name, c.ddl.createTable(t)),
	}

	switch c.ddl.d.Comments {
	case core.CommentOn:
		qualified := c.ddl.d.QualifiedName(t.Schema, t.Name)
		if t.Comment != "" {
			actions = append(actions, command.PersistAction{
				Title:  "Comment table " + t.Name,
				Script: c.ddl.commentTable(qualified, t.Comment),
				Type:   command.ActionOptional,
			})
		}
		for _, col := range t.Columns() {
			if col.Comment == "" {
				continue
			}
			actions = append(actions, command.PersistAction{
				Title:  "Comment column " + col.Name,
				Script: c.ddl.commentColumn(qualified, col.Name, col.Comment),
				Type:   command.ActionOptional,
			})
		}
	case core.CommentNone:
		if t.Comment != "" {
			actions = append(actions, command.NewCommentAction("Comment table "+t.Name, unsupportedComment("table "+t.Name, t.Comment)))
		}
		for _, col := range t.Columns() {
			if col.Comment != "" {
				actions = append(actions, command.NewCommentAction("Comment column "+col.Name, unsupportedComment("column "+col.Name, col.Comment)))
			}
		}
	}
	return actions
}

// UpdateModel implements command.Command.
func (c *CreateTable) UpdateModel() {
	c.table.MarkPersisted(c.table.Name)
	for _, col := range c.table.Columns() {
		col.MarkPersisted(col.Name)
	}
}

// Merge implements command.Command.
func (c *CreateTable) Merge(command.Command, map[any]any) command.Command {
	return c
}

// AggregateCommand implements command.Aggregator.
func (c *CreateTable) AggregateCommand(cmd command.Command) bool {
	cc, ok := cmd.(columnCommand)
	if !ok || cc.Column().Table() != c.table {
		return false
	}
	c.mu.Lock()
	c.absorbed = append(c.absorbed, cmd)
	c.mu.Unlock()
	return true
}

// ResetAggregatedCommands implements command.Aggregator.
func (c *CreateTable) ResetAggregatedCommands() {
	c.mu.Lock()
	c.absorbed = nil
	c.mu.Unlock()
}

// DropTable drops a table. Dropping a table whose creation is pending
// cancels both commands.
type DropTable struct {
	command.Base
	table   *model.Table
	ddl     ddl
	pending bool
}

// NewDropTable returns the command dropping t.
func NewDropTable(t *model.Table, d *dialect.Dialect) *DropTable {
	return &DropTable{
		Base:    command.Base{Target: t, Name: "Drop table " + t.Name},
		table:   t,
		ddl:     ddl{d: d},
		pending: !t.Persisted(),
	}
}

// PersistActions implements command.Command.
func (c *DropTable) PersistActions() []command.PersistAction {
	if c.pending {
		return nil
	}
	return []command.PersistAction{command.NewAction(c.Name, c.ddl.dropTable(c.table))}
}

// UpdateModel implements command.Command.
func (c *DropTable) UpdateModel() {
	c.table.MarkDropped()
	for _, col := range c.table.Columns() {
		col.MarkDropped()
	}
}

// Merge implements command.Command.
func (c *DropTable) Merge(prev command.Command, _ map[any]any) command.Command {
	if create, ok := prev.(*CreateTable); ok && create.table == c.table {
		return nil
	}
	return c
}

// TableProperty changes the name or comment of a table.
type TableProperty struct {
	command.Base
	table   *model.Table
	ddl     ddl
	before  model.TableState
	after   model.TableState
	pending bool
	alter   *AlterTable
}

// NewTableProperty records the change of t from before to after.
func NewTableProperty(t *model.Table, d *dialect.Dialect, title string, before, after model.TableState) *TableProperty {
	return &TableProperty{
		Base:    command.Base{Target: t, Name: title},
		table:   t,
		ddl:     ddl{d: d},
		before:  before,
		after:   after,
		pending: !t.Persisted(),
	}
}

// Before returns the table state before the change.
func (c *TableProperty) Before() model.TableState { return c.before }

// After returns the table state after the change.
func (c *TableProperty) After() model.TableState { return c.after }

// Validate implements command.Command.
func (c *TableProperty) Validate() error {
	if strings.TrimSpace(c.after.Name) == "" {
		return fmt.Errorf("table: %w", ErrEmptyName)
	}
	return nil
}

// PersistActions implements command.Command.
func (c *TableProperty) PersistActions() []command.PersistAction {
	if c.pending {
		return nil
	}
	return newAlterTable(c.table, c.ddl.d, c).PersistActions()
}

// Merge folds the change into the pending CREATE of its table, or into the
// table's ALTER composite shared through params.
func (c *TableProperty) Merge(prev command.Command, params map[any]any) command.Command {
	if c.pending {
		if create, ok := prev.(*CreateTable); ok && create.table == c.table {
			return prev
		}
		return c
	}

	key := alterTableKey{table: c.table}
	if v, ok := params[key]; ok {
		alter := v.(*AlterTable)
		alter.changes = append(alter.changes, c)
		return alter
	}

	// Reusing the composite keeps its action progress across a failed save.
	if c.alter == nil {
		c.alter = newAlterTable(c.table, c.ddl.d, c)
	} else {
		c.alter.changes = []*TableProperty{c}
	}
	params[key] = c.alter
	return c.alter
}

type alterTableKey struct {
	table *model.Table
}

// AlterTable is the composite of all property changes of one existing table.
type AlterTable struct {
	command.Base
	table   *model.Table
	ddl     ddl
	changes []*TableProperty
}

func newAlterTable(t *model.Table, d *dialect.Dialect, first *TableProperty) *AlterTable {
	return &AlterTable{
		Base:    command.Base{Target: t, Name: "Alter table " + t.SavedName()},
		table:   t,
		ddl:     ddl{d: d},
		changes: []*TableProperty{first},
	}
}

// Changes returns the merged property changes in issue order.
func (c *AlterTable) Changes() []*TableProperty { return c.changes }

func (c *AlterTable) span() (before, after model.TableState) {
	return c.changes[0].before, c.changes[len(c.changes)-1].after
}

// Validate implements command.Command.
func (c *AlterTable) Validate() error {
	if _, after := c.span(); strings.TrimSpace(after.Name) == "" {
		return fmt.Errorf("table %s: %w", c.table.SavedName(), ErrEmptyName)
	}
	return nil
}

// PersistActions implements command.Command.
func (c *AlterTable) PersistActions() []command.PersistAction {
	before, after := c.span()
	var actions []command.PersistAction

	name := c.table.SavedName()
	if after.Name != before.Name && after.Name != name {
		actions = append(actions, command.NewAction(
			fmt.Sprintf("Rename table %s to %s", name, after.Name),
			c.ddl.renameTable(c.table, after.Name)))
		name = after.Name
	}

	if after.Comment != before.Comment {
		title := "Comment table " + name
		switch c.ddl.d.Comments {
		case core.CommentNone:
			actions = append(actions, command.NewCommentAction(title, unsupportedComment("table "+name, after.Comment)))
		default:
			qualified := c.ddl.d.QualifiedName(c.table.Schema, name)
			actions = append(actions, command.NewAction(title, c.ddl.commentTable(qualified, after.Comment)))
		}
	}
	return actions
}

// UpdateModel implements command.Command.
func (c *AlterTable) UpdateModel() {
	_, after := c.span()
	c.table.MarkPersisted(after.Name)
}

// Merge implements command.Command.
func (c *AlterTable) Merge(command.Command, map[any]any) command.Command {
	return c
}
