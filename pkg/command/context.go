package command

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "leapdb/command"

// Context collects pending commands for one editing session and persists
// them on SaveChanges.
type Context struct {
	conn     Connection
	managers ManagerLookup
	logger   *slog.Logger
	tracer   trace.Tracer

	mu       sync.Mutex
	commands []*commandInfo
	undid    []*commandInfo
	queues   []*Queue
	// results keeps infos for merge results that are not user commands, so a
	// retried save keeps their action progress.
	results map[Command]*commandInfo
	nextID  uint64

	listenersMu sync.Mutex
	listeners   []Listener
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the tracer used by SaveChanges.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Context) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// New creates a Context saving into conn, with managers resolved through lookup.
func New(conn Connection, lookup ManagerLookup, opts ...Option) *Context {
	c := &Context{
		conn:     conn,
		managers: lookup,
		logger:   slog.New(slog.DiscardHandler),
		results:  make(map[Command]*commandInfo),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

// AddCommand appends cmd to the pending commands. reflector may be nil.
// Adding a command clears the redo history.
func (c *Context) AddCommand(cmd Command, reflector Reflector) error {
	ci, err := c.wrap(cmd, reflector)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.commands = append(c.commands, ci)
	c.undid = nil
	c.invalidate()
	c.mu.Unlock()

	c.logger.Debug("command added", slog.String("command", cmd.Title()))
	c.fireCommandChange(cmd)
	c.fireCommandDo(cmd)
	return nil
}

// AddCommandBatch adds all commands at once and fires a single change event
// with a nil command. Nothing is added if any command is rejected.
func (c *Context) AddCommandBatch(cmds []Command) error {
	infos := make([]*commandInfo, 0, len(cmds))
	for _, cmd := range cmds {
		ci, err := c.wrap(cmd, nil)
		if err != nil {
			return err
		}
		infos = append(infos, ci)
	}

	c.mu.Lock()
	c.commands = append(c.commands, infos...)
	c.undid = nil
	c.invalidate()
	c.mu.Unlock()

	c.logger.Debug("command batch added", slog.Int("count", len(infos)))
	c.fireCommandChange(nil)
	return nil
}

// RemoveCommand drops a pending command without undoing it.
func (c *Context) RemoveCommand(cmd Command) {
	c.mu.Lock()
	found := false
	for i, ci := range c.commands {
		if ci.command == cmd {
			c.commands = append(c.commands[:i], c.commands[i+1:]...)
			found = true
			break
		}
	}
	if found {
		c.invalidate()
	}
	c.mu.Unlock()

	if found {
		c.fireCommandChange(cmd)
	}
}

// UpdateCommand signals that a pending command was changed in place.
// It does nothing if cmd is not pending.
func (c *Context) UpdateCommand(cmd Command) {
	c.mu.Lock()
	found := false
	for _, ci := range c.commands {
		if ci.command == cmd {
			found = true
			break
		}
	}
	if found {
		c.invalidate()
	}
	c.mu.Unlock()

	if found {
		c.fireCommandChange(cmd)
	}
}

// CanUndoCommand reports whether the last pending command can be undone.
func (c *Context) CanUndoCommand() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canUndo()
}

func (c *Context) canUndo() bool {
	return len(c.commands) > 0 && c.commands[len(c.commands)-1].command.Undoable()
}

// CanRedoCommand reports whether an undone command can be redone.
func (c *Context) CanRedoCommand() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.undid) > 0
}

// UndoCommand moves the last pending command to the undo stack.
func (c *Context) UndoCommand() error {
	c.mu.Lock()
	if !c.canUndo() {
		c.mu.Unlock()
		return ErrCannotUndo
	}
	ci := c.commands[len(c.commands)-1]
	c.commands = c.commands[:len(c.commands)-1]
	c.undid = append(c.undid, ci)
	c.invalidate()
	c.mu.Unlock()

	if ci.reflector != nil {
		ci.reflector.UndoCommand(ci.command)
	}
	c.logger.Debug("command undone", slog.String("command", ci.command.Title()))
	c.fireCommandUndo(ci.command)
	return nil
}

// RedoCommand moves the last undone command back onto the pending list.
func (c *Context) RedoCommand() error {
	c.mu.Lock()
	if len(c.undid) == 0 {
		c.mu.Unlock()
		return ErrCannotRedo
	}
	ci := c.undid[len(c.undid)-1]
	c.undid = c.undid[:len(c.undid)-1]
	c.commands = append(c.commands, ci)
	c.invalidate()
	c.mu.Unlock()

	if ci.reflector != nil {
		ci.reflector.RedoCommand(ci.command)
	}
	c.logger.Debug("command redone", slog.String("command", ci.command.Title()))
	c.fireCommandDo(ci.command)
	return nil
}

// ResetChanges discards every pending command, last first, running their
// undo reflectors. The backend is not touched and the redo history is cleared.
// Commands that are not undoable are discarded as well.
func (c *Context) ResetChanges() {
	c.mu.Lock()
	discarded := make([]*commandInfo, 0, len(c.commands))
	for i := len(c.commands) - 1; i >= 0; i-- {
		discarded = append(discarded, c.commands[i])
	}
	c.commands = nil
	c.undid = nil
	c.invalidate()
	c.mu.Unlock()

	for _, ci := range discarded {
		if ci.reflector != nil {
			ci.reflector.UndoCommand(ci.command)
		}
		c.fireCommandUndo(ci.command)
	}
	c.logger.Debug("changes reset", slog.Int("discarded", len(discarded)))
	c.fireReset()
}

// IsDirty reports whether any queue has pending entries.
func (c *Context) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, q := range c.ensureQueues() {
		if !q.IsEmpty() {
			return true
		}
	}
	return false
}

// Commands returns the commands that will execute on the next save, in
// execution order. Absorbed and already executed commands are left out.
func (c *Context) Commands() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Command
	for _, ci := range c.canonicalInfos() {
		out = append(out, ci.command)
	}
	return out
}

// PendingAction pairs an action with the command producing it.
type PendingAction struct {
	Command Command
	Action  PersistAction
}

// PendingActions returns the actions the next save would run, including
// comment actions. Actions executed by an earlier failed save are left out.
func (c *Context) PendingActions() []PendingAction {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []PendingAction
	for _, ci := range c.canonicalInfos() {
		for _, a := range ci.pending() {
			out = append(out, PendingAction{Command: ci.command, Action: a})
		}
	}
	return out
}

// EditedObjects returns the targets of all non-empty queues.
func (c *Context) EditedObjects() []any {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []any
	for _, q := range c.ensureQueues() {
		if !q.IsEmpty() {
			out = append(out, q.object)
		}
	}
	return out
}

// Queues returns a snapshot of the current queues.
func (c *Context) Queues() []*Queue {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.ensureQueues()
	copies := make(map[*Queue]*Queue, len(live))
	out := make([]*Queue, 0, len(live))
	for _, q := range live {
		s := q.snapshot()
		copies[q] = s
		out = append(out, s)
	}
	for _, q := range live {
		s := copies[q]
		if q.parent != nil {
			s.parent = copies[q.parent]
		}
		for _, sub := range q.subQueues {
			s.subQueues = append(s.subQueues, copies[sub])
		}
	}
	return out
}

// canonicalInfos lists the distinct execution owners across all queues.
// Caller must hold c.mu.
func (c *Context) canonicalInfos() []*commandInfo {
	seen := make(map[*commandInfo]struct{})
	var out []*commandInfo
	for _, q := range c.ensureQueues() {
		for _, ci := range q.infos {
			canon := ci.canonical()
			if canon == nil {
				c.logger.Warn("skipping command with cyclic merge chain", slog.String("command", ci.command.Title()))
				continue
			}
			if canon.executed {
				continue
			}
			if _, dup := seen[canon]; dup {
				continue
			}
			seen[canon] = struct{}{}
			out = append(out, canon)
		}
	}
	return out
}

// wrap checks cmd and creates its info.
func (c *Context) wrap(cmd Command, reflector Reflector) (*commandInfo, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: nil command", ErrInvalidCommand)
	}
	if !isPointer(cmd) {
		return nil, fmt.Errorf("%w: %T is not a pointer", ErrInvalidCommand, cmd)
	}
	obj := cmd.Object()
	if obj == nil || !isPointer(obj) {
		return nil, fmt.Errorf("%w: target of %q must be a non-nil pointer, got %T", ErrInvalidCommand, cmd.Title(), obj)
	}
	if c.managers == nil {
		return nil, fmt.Errorf("%w for %T", ErrNoObjectManager, obj)
	}
	m, ok := c.managers.Manager(obj)
	if !ok {
		return nil, fmt.Errorf("%w for %T", ErrNoObjectManager, obj)
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.mu.Unlock()

	return &commandInfo{id: id, command: cmd, reflector: reflector, manager: m}, nil
}

// resultInfo returns the info for a merge result that is not a pending
// command, reusing the one from an earlier pass. Caller must hold c.mu.
func (c *Context) resultInfo(cmd Command, m ObjectManager) *commandInfo {
	if ci, ok := c.results[cmd]; ok {
		ci.mergedBy = nil
		return ci
	}
	c.nextID++
	ci := &commandInfo{id: c.nextID, command: cmd, manager: m}
	c.results[cmd] = ci
	return ci
}

// invalidate drops the queue cache after a user mutation. Every info is
// rebuilt from its command on the next save, keeping executed actions. Merge
// results that never ran are forgotten. Caller must hold c.mu.
func (c *Context) invalidate() {
	c.queues = nil
	for _, ci := range c.commands {
		ci.stale = true
	}
	for _, ci := range c.undid {
		ci.stale = true
	}
	for cmd, ci := range c.results {
		if !ci.started() {
			delete(c.results, cmd)
			continue
		}
		ci.stale = true
	}
}

func isPointer(v any) bool {
	return reflect.ValueOf(v).Kind() == reflect.Pointer
}
