package command

// ActionType classifies how a PersistAction is treated during save.
type ActionType int

const (
	// ActionNormal actions are executed and stop the save when they fail.
	ActionNormal ActionType = iota
	// ActionOptional actions are executed, but a failure is logged and skipped.
	ActionOptional
	// ActionComment actions are never executed. They only appear in script previews.
	ActionComment
)

// String returns the string representation of ActionType.
func (t ActionType) String() string {
	switch t {
	case ActionNormal:
		return "normal"
	case ActionOptional:
		return "optional"
	case ActionComment:
		return "comment"
	default:
		return "unknown"
	}
}

// PersistAction is one unit of backend work, typically a single SQL statement.
type PersistAction struct {
	Title  string
	Script string
	Type   ActionType
}

// NewAction returns a normal action.
func NewAction(title, script string) PersistAction {
	return PersistAction{Title: title, Script: script, Type: ActionNormal}
}

// NewCommentAction returns an action that is shown in previews but never executed.
func NewCommentAction(title, script string) PersistAction {
	return PersistAction{Title: title, Script: script, Type: ActionComment}
}

// Command is a pending change to exactly one target object.
type Command interface {
	// Object returns the target object. It never changes after construction.
	Object() any

	// Title is a human readable description of the change.
	Title() string

	// Undoable reports whether the command may be undone.
	Undoable() bool

	// Validate is called for every pending command before a save starts.
	Validate() error

	// PersistActions returns the backend work for this command. It must not
	// have side effects and may return nil when nothing is left to persist.
	PersistActions() []PersistAction

	// UpdateModel applies the change to the in-memory model. It is called once,
	// after all persist actions of the command succeeded.
	UpdateModel()

	// Merge combines the command with prev, the closest preceding command on the
	// same object (nil for the first one). It returns the receiver for no merge,
	// prev when the receiver is absorbed, another command that replaces both, or
	// nil to discard both. params is shared by all merge calls of one queue
	// during a single recomputation.
	Merge(prev Command, params map[any]any) Command
}

// Aggregator is a command that can absorb commands of other queues.
type Aggregator interface {
	Command

	// AggregateCommand reports whether cmd is absorbed by the aggregator.
	AggregateCommand(cmd Command) bool

	// ResetAggregatedCommands forgets everything absorbed in a previous pass.
	ResetAggregatedCommands()
}

// Reflector replays the UI visible side effects of a command on redo and undo.
// Reflectors must not touch persistence state.
type Reflector interface {
	RedoCommand(cmd Command)
	UndoCommand(cmd Command)
}

// ReflectorFuncs adapts a pair of functions to the Reflector interface.
// Nil functions are skipped.
type ReflectorFuncs struct {
	Redo func(cmd Command)
	Undo func(cmd Command)
}

// RedoCommand implements Reflector.
func (r ReflectorFuncs) RedoCommand(cmd Command) {
	if r.Redo != nil {
		r.Redo(cmd)
	}
}

// UndoCommand implements Reflector.
func (r ReflectorFuncs) UndoCommand(cmd Command) {
	if r.Undo != nil {
		r.Undo(cmd)
	}
}

// Nested is implemented by objects owned by another editable object. Queues of
// nested objects become sub-queues of their parent's queue.
type Nested interface {
	ParentObject() any
}

// Base carries the fields most commands share. Embed it and implement
// PersistActions and Merge.
type Base struct {
	Target      any
	Name        string
	NotUndoable bool
}

// Object implements Command.
func (b *Base) Object() any { return b.Target }

// Title implements Command.
func (b *Base) Title() string { return b.Name }

// Undoable implements Command.
func (b *Base) Undoable() bool { return !b.NotUndoable }

// Validate implements Command.
func (b *Base) Validate() error { return nil }

// UpdateModel implements Command.
func (b *Base) UpdateModel() {}
