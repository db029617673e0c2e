package editor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/command"
	"github.com/leapstack-labs/leapdb/pkg/dialect"
	"github.com/leapstack-labs/leapdb/pkg/model"
)

// Session edits the objects of one database connection.
//
// Edits change the model right away and are recorded in a command context.
// Undo, redo and reset restore the model through command reflectors; nothing
// reaches the database before Save.
type Session struct {
	adapter adapter.Adapter
	dialect *dialect.Dialect
	catalog *model.Catalog
	ctx     *command.Context
	logger  *slog.Logger
}

// NewSession creates a session saving into adp.
// If logger is nil, a discard logger is used.
func NewSession(adp adapter.Adapter, logger *slog.Logger, opts ...command.Option) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := adp.Dialect()
	opts = append([]command.Option{command.WithLogger(logger)}, opts...)
	return &Session{
		adapter: adp,
		dialect: d,
		catalog: model.NewCatalog(d.DefaultSchema),
		ctx:     command.New(adp, NewRegistry(logger), opts...),
		logger:  logger,
	}
}

// Catalog returns the tables known to the session.
func (s *Session) Catalog() *model.Catalog { return s.catalog }

// Commands returns the underlying command context.
func (s *Session) Commands() *command.Context { return s.ctx }

// Dialect returns the dialect statements are rendered for.
func (s *Session) Dialect() *dialect.Dialect { return s.dialect }

// LoadTable returns the table referenced as "name" or "schema.name", reading
// its metadata from the database the first time.
func (s *Session) LoadTable(ctx context.Context, ref string) (*model.Table, error) {
	if t, ok := s.catalog.Lookup(ref); ok {
		return t, nil
	}
	meta, err := s.adapter.GetTableMetadata(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", ref, err)
	}
	t := model.FromMetadata(meta)
	if err := s.catalog.Add(t); err != nil {
		return nil, err
	}
	s.logger.Debug("table loaded", slog.String("table", ref), slog.Int("columns", len(meta.Columns)))
	return t, nil
}

// CreateTable adds a new table with the given columns.
func (s *Session) CreateTable(schema, name string, columns ...model.ColumnState) (*model.Table, error) {
	t := model.NewTable(schema, name)
	for _, cs := range columns {
		col, err := t.NewColumn(cs.Name, cs.Type)
		if err != nil {
			return nil, err
		}
		col.Restore(cs)
	}
	if err := s.catalog.Add(t); err != nil {
		return nil, err
	}

	reflector := command.ReflectorFuncs{
		Undo: func(command.Command) { s.catalog.Remove(t) },
		Redo: func(command.Command) { s.catalog.Insert(len(s.catalog.Tables()), t) },
	}
	if err := s.ctx.AddCommand(NewCreateTable(t, s.dialect), reflector); err != nil {
		s.catalog.Remove(t)
		return nil, err
	}
	return t, nil
}

// DropTable removes t.
func (s *Session) DropTable(t *model.Table) error {
	pos := s.catalog.Remove(t)
	if pos < 0 {
		return fmt.Errorf("table %s is not part of the session", t.Name)
	}

	reflector := command.ReflectorFuncs{
		Undo: func(command.Command) { s.catalog.Insert(pos, t) },
		Redo: func(command.Command) { s.catalog.Remove(t) },
	}
	if err := s.ctx.AddCommand(NewDropTable(t, s.dialect), reflector); err != nil {
		s.catalog.Insert(pos, t)
		return err
	}
	return nil
}

// RenameTable changes the name of t.
func (s *Session) RenameTable(t *model.Table, name string) error {
	if other, ok := s.catalog.Table(t.Schema, name); ok && other != t {
		return fmt.Errorf("table %s: %w", name, model.ErrDuplicate)
	}
	before := t.State()
	after := before
	after.Name = name
	return s.updateTable(t, fmt.Sprintf("Rename table %s to %s", before.Name, name), before, after)
}

// CommentTable changes the comment of t.
func (s *Session) CommentTable(t *model.Table, comment string) error {
	before := t.State()
	after := before
	after.Comment = comment
	return s.updateTable(t, "Comment table "+t.Name, before, after)
}

func (s *Session) updateTable(t *model.Table, title string, before, after model.TableState) error {
	if before == after {
		return nil
	}
	t.Restore(after)
	reflector := command.ReflectorFuncs{
		Undo: func(command.Command) { t.Restore(before) },
		Redo: func(command.Command) { t.Restore(after) },
	}
	if err := s.ctx.AddCommand(NewTableProperty(t, s.dialect, title, before, after), reflector); err != nil {
		t.Restore(before)
		return err
	}
	return nil
}

// AddColumn appends a column to t.
func (s *Session) AddColumn(t *model.Table, cs model.ColumnState) (*model.Column, error) {
	col, err := t.NewColumn(cs.Name, cs.Type)
	if err != nil {
		return nil, err
	}
	col.Restore(cs)
	pos := len(t.Columns()) - 1

	reflector := command.ReflectorFuncs{
		Undo: func(command.Command) { t.RemoveColumn(col) },
		Redo: func(command.Command) { t.InsertColumn(pos, col) },
	}
	if err := s.ctx.AddCommand(NewAddColumn(col, s.dialect), reflector); err != nil {
		t.RemoveColumn(col)
		return nil, err
	}
	return col, nil
}

// DropColumn removes col from its table.
func (s *Session) DropColumn(col *model.Column) error {
	t := col.Table()
	pos := t.RemoveColumn(col)
	if pos < 0 {
		return fmt.Errorf("column %s is not part of table %s", col.Name, t.Name)
	}

	reflector := command.ReflectorFuncs{
		Undo: func(command.Command) { t.InsertColumn(pos, col) },
		Redo: func(command.Command) { t.RemoveColumn(col) },
	}
	if err := s.ctx.AddCommand(NewDropColumn(col, s.dialect), reflector); err != nil {
		t.InsertColumn(pos, col)
		return err
	}
	return nil
}

// UpdateColumn replaces the editable state of col.
func (s *Session) UpdateColumn(col *model.Column, after model.ColumnState) error {
	before := col.State()
	if before == after {
		return nil
	}
	if before.Name != after.Name {
		if other, ok := col.Table().Column(after.Name); ok && other != col {
			return fmt.Errorf("column %s.%s: %w", col.Table().Name, after.Name, model.ErrDuplicate)
		}
	}

	col.Restore(after)
	title := fmt.Sprintf("Change %s of %s.%s", describeColumnChange(before, after), col.Table().Name, before.Name)
	reflector := command.ReflectorFuncs{
		Undo: func(command.Command) { col.Restore(before) },
		Redo: func(command.Command) { col.Restore(after) },
	}
	if err := s.ctx.AddCommand(NewColumnProperty(col, s.dialect, title, before, after), reflector); err != nil {
		col.Restore(before)
		return err
	}
	return nil
}

// RenameColumn changes the name of col.
func (s *Session) RenameColumn(col *model.Column, name string) error {
	after := col.State()
	after.Name = name
	return s.UpdateColumn(col, after)
}

// CommentColumn changes the comment of col.
func (s *Session) CommentColumn(col *model.Column, comment string) error {
	after := col.State()
	after.Comment = comment
	return s.UpdateColumn(col, after)
}

// Undo reverts the last edit.
func (s *Session) Undo() error { return s.ctx.UndoCommand() }

// Redo reapplies the last undone edit.
func (s *Session) Redo() error { return s.ctx.RedoCommand() }

// Reset reverts every pending edit.
func (s *Session) Reset() { s.ctx.ResetChanges() }

// IsDirty reports whether there are unsaved edits.
func (s *Session) IsDirty() bool { return s.ctx.IsDirty() }

// Save persists all pending edits.
func (s *Session) Save(ctx context.Context) error {
	return s.ctx.SaveChanges(ctx)
}

// Plan returns the actions the next save would run.
func (s *Session) Plan() []command.PendingAction {
	return s.ctx.PendingActions()
}

// Script renders the plan as a SQL script.
func (s *Session) Script() string {
	return FormatScript(s.Plan())
}

// FormatScript renders actions one per line, terminating executable
// statements with a semicolon.
func FormatScript(pending []command.PendingAction) string {
	var sb strings.Builder
	for _, pa := range pending {
		sb.WriteString(pa.Action.Script)
		if pa.Action.Type != command.ActionComment {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
