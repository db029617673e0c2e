package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/leapstack-labs/leapdb/pkg/model"
	"github.com/spf13/cobra"
)

var errQuit = errors.New("quit")

// NewEditCommand creates the interactive edit command.
func NewEditCommand() *cobra.Command {
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit tables interactively",
		Long: `Start an interactive session against a connection. Edits are kept in
memory, can be undone and redone, and only reach the database on "save".

Columns are referenced as table:column, for example "rename users:email mail".
Type "help" for the list of commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			conn, err := cc.Connect(cmd.Context(), "")
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			return runEdit(cmd, &editLoop{cc: cc, conn: conn, record: !noHistory})
		},
	}

	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record saves in the state database")
	return cmd
}

func runEdit(cmd *cobra.Command, e *editLoop) error {
	ctx := cmd.Context()
	prompt := e.conn.Name + "> "

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(filepath.Dir(e.cc.Cfg.StatePath), "edit_history"),
		AutoComplete:    newEditCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize editor: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := e.cc.Renderer
	r.Printf("LeapDB editor (%s, %s)\n", e.conn.Name, e.conn.Session.Dialect().Name)
	r.Println(`Type "help" for commands, "quit" to exit`)
	r.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		err = e.execLine(ctx, line)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			r.Error(err.Error())
		}
	}

	if e.conn.Session.IsDirty() {
		r.Warning("unsaved changes discarded")
	}
	return nil
}

// editLoop executes editor commands against one connection.
type editLoop struct {
	cc     *CommandContext
	conn   *Connection
	record bool
}

func (e *editLoop) execLine(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	s := e.conn.Session
	r := e.cc.Renderer

	switch name {
	case "quit", "exit", "\\q":
		return errQuit
	case "help", "?":
		printEditHelp(r)
		return nil
	case "tables":
		return e.tables()
	case "load", "describe":
		if err := want(name, args, 1); err != nil {
			return err
		}
		t, err := s.LoadTable(ctx, args[0])
		if err != nil {
			return err
		}
		e.describe(t)
		return nil
	case "create":
		if len(args) < 1 {
			return usage(name)
		}
		schema, tableName := splitTableRef(args[0])
		cols := make([]model.ColumnState, 0, len(args)-1)
		for _, spec := range args[1:] {
			cs, err := parseColumnSpec(spec)
			if err != nil {
				return err
			}
			cols = append(cols, cs)
		}
		_, err := s.CreateTable(schema, tableName, cols...)
		return err
	case "add":
		if len(args) < 2 {
			return usage(name)
		}
		t, err := s.LoadTable(ctx, args[0])
		if err != nil {
			return err
		}
		cs, err := parseColumnSpec(args[1])
		if err != nil {
			return err
		}
		cs.Default = strings.Join(args[2:], " ")
		_, err = s.AddColumn(t, cs)
		return err
	case "drop":
		if err := want(name, args, 1); err != nil {
			return err
		}
		t, col, err := e.resolve(ctx, args[0])
		if err != nil {
			return err
		}
		if col != nil {
			return s.DropColumn(col)
		}
		return s.DropTable(t)
	case "rename":
		if err := want(name, args, 2); err != nil {
			return err
		}
		t, col, err := e.resolve(ctx, args[0])
		if err != nil {
			return err
		}
		if col != nil {
			return s.RenameColumn(col, args[1])
		}
		return s.RenameTable(t, args[1])
	case "comment":
		if len(args) < 1 {
			return usage(name)
		}
		t, col, err := e.resolve(ctx, args[0])
		if err != nil {
			return err
		}
		text := unquote(strings.Join(args[1:], " "))
		if col != nil {
			return s.CommentColumn(col, text)
		}
		return s.CommentTable(t, text)
	case "alter":
		if len(args) < 2 {
			return usage(name)
		}
		_, col, err := e.resolve(ctx, args[0])
		if err != nil {
			return err
		}
		if col == nil {
			return fmt.Errorf("alter expects a column reference, like %s:column", args[0])
		}
		after, err := applyAssignments(col.State(), args[1:])
		if err != nil {
			return err
		}
		return s.UpdateColumn(col, after)
	case "undo":
		return s.Undo()
	case "redo":
		return s.Redo()
	case "reset":
		s.Reset()
		r.Muted("All changes reverted.")
		return nil
	case "plan", "status":
		return renderPlan(r, e.conn.Name, s.Plan())
	case "save":
		if !s.IsDirty() {
			r.Muted("No changes.")
			return nil
		}
		save, err := e.cc.save(ctx, e.conn, e.record)
		if err != nil {
			return err
		}
		if save != nil {
			r.Success("Saved " + save.ID)
		} else {
			r.Success("Saved")
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q, type help for the list of commands", name)
	}
}

// resolve returns the table of ref and, for "table:column" refs, the column.
func (e *editLoop) resolve(ctx context.Context, ref string) (*model.Table, *model.Column, error) {
	tableRef, colName, isColumn := strings.Cut(ref, ":")
	t, err := e.conn.Session.LoadTable(ctx, tableRef)
	if err != nil {
		return nil, nil, err
	}
	if !isColumn {
		return t, nil, nil
	}
	col, ok := t.Column(colName)
	if !ok {
		return nil, nil, fmt.Errorf("column %s not found in table %s", colName, t.Name)
	}
	return t, col, nil
}

func (e *editLoop) tables() error {
	r := e.cc.Renderer
	tables := e.conn.Session.Catalog().Tables()
	if len(tables) == 0 {
		r.Muted(`No tables loaded. Use "load <table>" or "create <table> ...".`)
		return nil
	}
	rows := make([][]string, 0, len(tables))
	for _, t := range tables {
		status := "saved"
		if !t.Persisted() {
			status = "new"
		} else if t.SavedName() != t.Name {
			status = "renamed from " + t.SavedName()
		}
		rows = append(rows, []string{t.Schema, t.Name, strconv.Itoa(len(t.Columns())), status})
	}
	r.Table([]string{"Schema", "Table", "Columns", "Status"}, rows)
	return nil
}

func (e *editLoop) describe(t *model.Table) {
	r := e.cc.Renderer
	r.Header(2, t.Name)
	if t.Comment != "" {
		r.Muted(t.Comment)
	}
	rows := make([][]string, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		null := "yes"
		if !c.Nullable {
			null = "no"
		}
		rows = append(rows, []string{c.Name, c.Type, null, c.Default, c.Comment})
	}
	r.Table([]string{"Column", "Type", "Nullable", "Default", "Comment"}, rows)
}

// parseColumnSpec parses "name:TYPE", with a trailing "!" for NOT NULL.
func parseColumnSpec(spec string) (model.ColumnState, error) {
	name, typ, ok := strings.Cut(spec, ":")
	if !ok || name == "" || typ == "" || typ == "!" {
		return model.ColumnState{}, fmt.Errorf("invalid column %q, expected name:TYPE", spec)
	}
	cs := model.ColumnState{Name: name, Type: typ, Nullable: true}
	if strings.HasSuffix(typ, "!") {
		cs.Type = strings.TrimSuffix(typ, "!")
		cs.Nullable = false
	}
	return cs, nil
}

func applyAssignments(cs model.ColumnState, assignments []string) (model.ColumnState, error) {
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return cs, fmt.Errorf("invalid assignment %q, expected key=value", a)
		}
		value = unquote(value)
		switch strings.ToLower(key) {
		case "name":
			cs.Name = value
		case "type":
			cs.Type = value
		case "nullable", "null":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return cs, fmt.Errorf("invalid nullable value %q: %w", value, err)
			}
			cs.Nullable = b
		case "default":
			cs.Default = value
		case "comment":
			cs.Comment = value
		default:
			return cs, fmt.Errorf("unknown column property %q", key)
		}
	}
	return cs, nil
}

func splitTableRef(ref string) (schema, name string) {
	if s, n, ok := strings.Cut(ref, "."); ok {
		return s, n
	}
	return "", ref
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func want(name string, args []string, n int) error {
	if len(args) != n {
		return usage(name)
	}
	return nil
}

func usage(name string) error {
	for _, h := range editHelp {
		if strings.HasPrefix(h[0], name+" ") || h[0] == name {
			return fmt.Errorf("usage: %s", h[0])
		}
	}
	return fmt.Errorf("invalid arguments for %s", name)
}

var editHelp = [][2]string{
	{"tables", "List tables in the session"},
	{"load <table>", "Load a table from the database and describe it"},
	{"create <table> name:TYPE[!]...", "Create a table, ! marks NOT NULL"},
	{"add <table> name:TYPE[!] [default]", "Add a column"},
	{"drop <table>|<table:column>", "Drop a table or column"},
	{"rename <table>|<table:column> <name>", "Rename a table or column"},
	{"comment <table>|<table:column> [text]", "Set or clear a comment"},
	{"alter <table:column> key=value...", "Change name, type, nullable, default or comment"},
	{"undo", "Undo the last edit"},
	{"redo", "Redo the last undone edit"},
	{"plan", "Show the statements save would run"},
	{"save", "Run pending statements against the database"},
	{"reset", "Revert all pending edits"},
	{"quit", "Leave the editor"},
}

func printEditHelp(r *output.Renderer) {
	rows := make([][]string, len(editHelp))
	for i, h := range editHelp {
		rows[i] = []string{h[0], h[1]}
	}
	r.Table([]string{"Command", "Description"}, rows)
}

func newEditCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(editHelp))
	for _, h := range editHelp {
		word, _, _ := strings.Cut(h[0], " ")
		items = append(items, readline.PcItem(word))
	}
	return readline.NewPrefixCompleter(items...)
}
