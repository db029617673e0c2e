package editor

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/command"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/dialect"
	"github.com/leapstack-labs/leapdb/pkg/model"
)

// columnCommand is implemented by every command targeting a column.
type columnCommand interface {
	command.Command
	Column() *model.Column
}

// AddColumn adds a column to an existing table. Columns added to a table
// whose creation is pending are created by the CREATE statement instead.
type AddColumn struct {
	command.Base
	column  *model.Column
	ddl     ddl
	pending bool
}

// NewAddColumn returns the command adding col.
func NewAddColumn(col *model.Column, d *dialect.Dialect) *AddColumn {
	return &AddColumn{
		Base:    command.Base{Target: col, Name: fmt.Sprintf("Add column %s.%s", col.Table().Name, col.Name)},
		column:  col,
		ddl:     ddl{d: d},
		pending: !col.Table().Persisted(),
	}
}

// Column returns the column being added.
func (c *AddColumn) Column() *model.Column { return c.column }

// Validate implements command.Command.
func (c *AddColumn) Validate() error {
	return validateColumn(c.ddl.d, c.column.State())
}

// PersistActions implements command.Command.
func (c *AddColumn) PersistActions() []command.PersistAction {
	if c.pending {
		return nil
	}
	col := c.column
	qualified := c.ddl.table(col.Table())
	actions := []command.PersistAction{
		command.NewAction("Add column "+col.Name, c.ddl.addColumn(qualified, col.State())),
	}
	if col.Comment == "" {
		return actions
	}
	switch c.ddl.d.Comments {
	case core.CommentOn:
		actions = append(actions, command.PersistAction{
			Title:  "Comment column " + col.Name,
			Script: c.ddl.commentColumn(qualified, col.Name, col.Comment),
			Type:   command.ActionOptional,
		})
	case core.CommentNone:
		actions = append(actions, command.NewCommentAction("Comment column "+col.Name, unsupportedComment("column "+col.Name, col.Comment)))
	}
	return actions
}

// UpdateModel implements command.Command.
func (c *AddColumn) UpdateModel() {
	c.column.MarkPersisted(c.column.Name)
}

// Merge implements command.Command.
func (c *AddColumn) Merge(command.Command, map[any]any) command.Command {
	return c
}

// DropColumn drops a column. Dropping a column whose creation is pending
// cancels both commands.
type DropColumn struct {
	command.Base
	column  *model.Column
	ddl     ddl
	pending bool
}

// NewDropColumn returns the command dropping col.
func NewDropColumn(col *model.Column, d *dialect.Dialect) *DropColumn {
	return &DropColumn{
		Base:    command.Base{Target: col, Name: fmt.Sprintf("Drop column %s.%s", col.Table().Name, col.Name)},
		column:  col,
		ddl:     ddl{d: d},
		pending: !col.Persisted(),
	}
}

// Column returns the column being dropped.
func (c *DropColumn) Column() *model.Column { return c.column }

// Validate implements command.Command.
func (c *DropColumn) Validate() error {
	if !c.pending && !c.ddl.d.DropColumn {
		return fmt.Errorf("drop column %s: %w", c.column.SavedName(), ErrUnsupported)
	}
	return nil
}

// PersistActions implements command.Command.
func (c *DropColumn) PersistActions() []command.PersistAction {
	if c.pending {
		return nil
	}
	return []command.PersistAction{
		command.NewAction("Drop column "+c.column.SavedName(), c.ddl.dropColumn(c.ddl.table(c.column.Table()), c.column.SavedName())),
	}
}

// UpdateModel implements command.Command.
func (c *DropColumn) UpdateModel() {
	c.column.MarkDropped()
}

// Merge implements command.Command.
func (c *DropColumn) Merge(prev command.Command, _ map[any]any) command.Command {
	if add, ok := prev.(*AddColumn); ok && add.column == c.column {
		return nil
	}
	return c
}

// ColumnProperty changes the name, type, nullability, default or comment of
// a column.
type ColumnProperty struct {
	command.Base
	column  *model.Column
	ddl     ddl
	before  model.ColumnState
	after   model.ColumnState
	pending bool
	alter   *AlterColumn
}

// NewColumnProperty records the change of col from before to after.
func NewColumnProperty(col *model.Column, d *dialect.Dialect, title string, before, after model.ColumnState) *ColumnProperty {
	return &ColumnProperty{
		Base:    command.Base{Target: col, Name: title},
		column:  col,
		ddl:     ddl{d: d},
		before:  before,
		after:   after,
		pending: !col.Persisted(),
	}
}

// Column returns the changed column.
func (c *ColumnProperty) Column() *model.Column { return c.column }

// Before returns the column state before the change.
func (c *ColumnProperty) Before() model.ColumnState { return c.before }

// After returns the column state after the change.
func (c *ColumnProperty) After() model.ColumnState { return c.after }

// Validate implements command.Command.
func (c *ColumnProperty) Validate() error {
	if c.pending {
		return nil
	}
	return newAlterColumn(c.column, c.ddl.d, c).Validate()
}

// PersistActions implements command.Command.
func (c *ColumnProperty) PersistActions() []command.PersistAction {
	if c.pending {
		return nil
	}
	return newAlterColumn(c.column, c.ddl.d, c).PersistActions()
}

// Merge folds the change into the pending ADD of its column, or into the
// column's ALTER composite shared through params.
func (c *ColumnProperty) Merge(prev command.Command, params map[any]any) command.Command {
	if c.pending {
		if add, ok := prev.(*AddColumn); ok && add.column == c.column {
			return prev
		}
		return c
	}

	key := alterColumnKey{column: c.column}
	if v, ok := params[key]; ok {
		alter := v.(*AlterColumn)
		alter.changes = append(alter.changes, c)
		return alter
	}

	if c.alter == nil {
		c.alter = newAlterColumn(c.column, c.ddl.d, c)
	} else {
		c.alter.changes = []*ColumnProperty{c}
	}
	params[key] = c.alter
	return c.alter
}

type alterColumnKey struct {
	column *model.Column
}

// AlterColumn is the composite of all property changes of one existing column.
type AlterColumn struct {
	command.Base
	column  *model.Column
	ddl     ddl
	changes []*ColumnProperty
}

func newAlterColumn(col *model.Column, d *dialect.Dialect, first *ColumnProperty) *AlterColumn {
	return &AlterColumn{
		Base:    command.Base{Target: col, Name: fmt.Sprintf("Alter column %s.%s", col.Table().SavedName(), col.SavedName())},
		column:  col,
		ddl:     ddl{d: d},
		changes: []*ColumnProperty{first},
	}
}

// Column returns the changed column.
func (c *AlterColumn) Column() *model.Column { return c.column }

// Changes returns the merged property changes in issue order.
func (c *AlterColumn) Changes() []*ColumnProperty { return c.changes }

func (c *AlterColumn) span() (before, after model.ColumnState) {
	return c.changes[0].before, c.changes[len(c.changes)-1].after
}

func definitionChanged(before, after model.ColumnState) bool {
	return before.Type != after.Type || before.Nullable != after.Nullable || before.Default != after.Default
}

// Validate implements command.Command.
func (c *AlterColumn) Validate() error {
	before, after := c.span()
	d := c.ddl.d
	if err := validateColumn(d, after); err != nil {
		return err
	}
	if before.Name != after.Name && !d.RenameColumn {
		return fmt.Errorf("rename column %s: %w", before.Name, ErrUnsupported)
	}
	if definitionChanged(before, after) && d.AlterColumn == core.AlterColumnNone {
		return fmt.Errorf("alter column %s: %w", after.Name, ErrUnsupported)
	}
	return nil
}

// PersistActions implements command.Command.
func (c *AlterColumn) PersistActions() []command.PersistAction {
	before, after := c.span()
	d := c.ddl.d
	qualified := c.ddl.table(c.column.Table())
	name := c.column.SavedName()

	var actions []command.PersistAction
	add := func(title, script string) {
		actions = append(actions, command.NewAction(title, script))
	}

	if after.Name != before.Name && after.Name != name {
		add(fmt.Sprintf("Rename column %s to %s", name, after.Name), c.ddl.renameColumn(qualified, name, after.Name))
		name = after.Name
	}

	commentChanged := before.Comment != after.Comment
	switch d.AlterColumn {
	case core.AlterColumnStandard:
		if before.Type != after.Type {
			add("Change type of "+name, c.ddl.alterColumnType(qualified, name, after.Type))
		}
		if before.Nullable != after.Nullable {
			add("Change nullability of "+name, c.ddl.alterColumnNullable(qualified, name, after.Nullable))
		}
		if before.Default != after.Default {
			add("Change default of "+name, c.ddl.alterColumnDefault(qualified, name, after.Default))
		}
	case core.AlterColumnModify:
		inlineComment := commentChanged && d.Comments == core.CommentInline
		if definitionChanged(before, after) || inlineComment {
			add("Modify column "+name, c.ddl.modifyColumn(qualified, after))
		}
		if inlineComment {
			commentChanged = false
		}
	}

	if commentChanged {
		title := "Comment column " + name
		switch d.Comments {
		case core.CommentOn:
			add(title, c.ddl.commentColumn(qualified, name, after.Comment))
		default:
			actions = append(actions, command.NewCommentAction(title, unsupportedComment("column "+name, after.Comment)))
		}
	}
	return actions
}

// UpdateModel implements command.Command.
func (c *AlterColumn) UpdateModel() {
	_, after := c.span()
	c.column.MarkPersisted(after.Name)
}

// Merge implements command.Command.
func (c *AlterColumn) Merge(command.Command, map[any]any) command.Command {
	return c
}

// describeColumnChange names what changed between two column states.
func describeColumnChange(before, after model.ColumnState) string {
	var parts []string
	if before.Name != after.Name {
		parts = append(parts, "name")
	}
	if before.Type != after.Type {
		parts = append(parts, "type")
	}
	if before.Nullable != after.Nullable {
		parts = append(parts, "nullability")
	}
	if before.Default != after.Default {
		parts = append(parts, "default")
	}
	if before.Comment != after.Comment {
		parts = append(parts, "comment")
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, ", ")
}
