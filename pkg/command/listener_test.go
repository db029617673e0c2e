package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcListener struct {
	ListenerAdapter
	onChange func(Command)
	onReset  func()
	events   []string
	actions  []string
}

func (l *funcListener) OnCommandChange(cmd Command) {
	l.events = append(l.events, "change")
	if l.onChange != nil {
		l.onChange(cmd)
	}
}

func (l *funcListener) OnReset() {
	l.events = append(l.events, "reset")
	if l.onReset != nil {
		l.onReset()
	}
}

func (l *funcListener) OnSave()                { l.events = append(l.events, "save") }
func (l *funcListener) OnCommandDo(Command)   { l.events = append(l.events, "do") }
func (l *funcListener) OnCommandUndo(Command) { l.events = append(l.events, "undo") }

func (l *funcListener) OnActionExecuted(_ Command, action PersistAction, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	l.actions = append(l.actions, action.Script+":"+status)
}

func TestListener_Events(t *testing.T) {
	f := newFixture(t)
	l := &funcListener{}
	f.ctx.AddListener(l)

	obj := &target{}
	a := newCmd(obj, "a", "A")
	f.add(t, a)
	require.NoError(t, f.ctx.UndoCommand())
	require.NoError(t, f.ctx.RedoCommand())
	f.manager.failNext("A", 1)
	require.Error(t, f.ctx.SaveChanges(context.Background()))
	require.NoError(t, f.ctx.SaveChanges(context.Background()))

	assert.Equal(t, []string{"change", "do", "undo", "do", "save", "save"}, l.events)
	assert.Equal(t, []string{"A:failed", "A:ok"}, l.actions)

	f.ctx.RemoveListener(l)
	f.add(t, newCmd(obj, "b"))
	assert.Len(t, l.events, 6)
}

func TestListener_AdapterIsNoop(t *testing.T) {
	f := newFixture(t)
	f.ctx.AddListener(ListenerAdapter{})
	f.add(t, newCmd(&target{}, "a", "A"))
	f.ctx.ResetChanges()
	assert.False(t, f.ctx.IsDirty())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	mgr := &fakeManager{}
	reg.Register(&target{}, mgr)

	got, ok := reg.Manager(&target{name: "any"})
	require.True(t, ok)
	assert.Same(t, mgr, got)

	_, ok = reg.Manager(&childTarget{})
	assert.False(t, ok)
	_, ok = reg.Manager(nil)
	assert.False(t, ok)

	assert.Equal(t, []string{"*command.target"}, reg.Types())
	assert.Panics(t, func() { reg.Register(&target{}, mgr) })
	assert.Panics(t, func() { reg.Register(nil, mgr) })
}

func TestActionType_String(t *testing.T) {
	tests := []struct {
		typ  ActionType
		want string
	}{
		{ActionNormal, "normal"},
		{ActionOptional, "optional"},
		{ActionComment, "comment"},
		{ActionType(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}
