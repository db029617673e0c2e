package editor

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leapdb/pkg/command"
	"github.com/leapstack-labs/leapdb/pkg/model"
)

// SQLManager executes persist actions as SQL statements.
type SQLManager struct {
	Logger *slog.Logger
}

func (m *SQLManager) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.Logger
}

// ExecutePersistAction implements command.ObjectManager.
// Comment actions are skipped.
func (m *SQLManager) ExecutePersistAction(ctx context.Context, ec command.ExecutionContext, cmd command.Command, action command.PersistAction) error {
	if action.Type == command.ActionComment {
		return nil
	}
	m.logger().Debug("executing persist action",
		slog.String("command", cmd.Title()),
		slog.String("action", action.Title),
		slog.String("type", action.Type.String()))
	return ec.Exec(ctx, action.Script)
}

// TableManager manages tables. A pending drop supersedes every other change
// of the table and its columns.
type TableManager struct {
	SQLManager
}

// FilterCommands implements command.CommandFilter.
func (m *TableManager) FilterCommands(q *command.Queue) {
	var drop command.Command
	for _, cmd := range q.Commands() {
		if d, ok := cmd.(*DropTable); ok {
			drop = d
		}
	}
	if drop == nil {
		return
	}

	removed := q.RemoveIf(func(cmd command.Command) bool { return cmd != drop })
	for _, sub := range q.SubQueues() {
		removed += sub.RemoveIf(func(command.Command) bool { return true })
	}
	if removed > 0 {
		m.logger().Debug("dropped changes superseded by table drop",
			slog.String("command", drop.Title()),
			slog.Int("removed", removed))
	}
}

// ColumnManager manages columns. A pending drop supersedes every other change
// of the column, and changes of columns whose table is neither in the
// database nor about to be created are discarded.
type ColumnManager struct {
	SQLManager
}

// FilterCommands implements command.CommandFilter.
func (m *ColumnManager) FilterCommands(q *command.Queue) {
	col, ok := q.Object().(*model.Column)
	if !ok {
		return
	}

	if !col.Table().Persisted() && !creationPending(q.Parent(), col.Table()) {
		n := q.RemoveIf(func(command.Command) bool { return true })
		m.logger().Debug("dropped changes of a discarded table",
			slog.String("column", col.Name),
			slog.Int("removed", n))
		return
	}

	var drop command.Command
	for _, cmd := range q.Commands() {
		if d, ok := cmd.(*DropColumn); ok {
			drop = d
		}
	}
	if drop != nil {
		q.RemoveIf(func(cmd command.Command) bool { return cmd != drop })
	}
}

func creationPending(tableQueue *command.Queue, t *model.Table) bool {
	if tableQueue == nil {
		return false
	}
	for _, cmd := range tableQueue.Commands() {
		if create, ok := cmd.(*CreateTable); ok && create.table == t {
			return true
		}
	}
	return false
}

// NewRegistry returns the object managers for tables and columns.
func NewRegistry(logger *slog.Logger) *command.Registry {
	r := command.NewRegistry()
	base := SQLManager{Logger: logger}
	r.Register(&model.Table{}, &TableManager{SQLManager: base})
	r.Register(&model.Column{}, &ColumnManager{SQLManager: base})
	return r
}

var (
	_ command.CommandFilter = (*TableManager)(nil)
	_ command.CommandFilter = (*ColumnManager)(nil)
	_ command.Aggregator    = (*CreateTable)(nil)
)
