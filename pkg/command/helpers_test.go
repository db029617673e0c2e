package command

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdb/internal/testutil"
)

type target struct {
	name   string
	parent *target
}

type childTarget struct {
	name   string
	parent *target
}

func (c *childTarget) ParentObject() any { return c.parent }

type mergeFunc func(self, prev Command, params map[any]any) Command

type testCmd struct {
	Base
	actions  []PersistAction
	merge    mergeFunc
	validErr error
	updates  int
}

func newCmd(obj any, title string, scripts ...string) *testCmd {
	cmd := &testCmd{Base: Base{Target: obj, Name: title}}
	for _, s := range scripts {
		cmd.actions = append(cmd.actions, NewAction(s, s))
	}
	return cmd
}

func (c *testCmd) PersistActions() []PersistAction { return c.actions }
func (c *testCmd) Validate() error                 { return c.validErr }
func (c *testCmd) UpdateModel()                    { c.updates++ }

func (c *testCmd) Merge(prev Command, params map[any]any) Command {
	if c.merge != nil {
		return c.merge(c, prev, params)
	}
	return c
}

// absorbInto returns a merge function folding the command into want.
func absorbInto(want Command) mergeFunc {
	return func(self, prev Command, _ map[any]any) Command {
		if prev == want {
			return want
		}
		return self
	}
}

// cancelWith returns a merge function discarding the command and want.
func cancelWith(want Command) mergeFunc {
	return func(self, prev Command, _ map[any]any) Command {
		if prev == want {
			return nil
		}
		return self
	}
}

type aggregatorCmd struct {
	testCmd
	accepts    func(Command) bool
	aggregated []Command
	resets     int
}

func (a *aggregatorCmd) Merge(prev Command, params map[any]any) Command {
	if a.merge != nil {
		return a.merge(a, prev, params)
	}
	return a
}

func (a *aggregatorCmd) AggregateCommand(cmd Command) bool {
	if a.accepts(cmd) {
		a.aggregated = append(a.aggregated, cmd)
		return true
	}
	return false
}

func (a *aggregatorCmd) ResetAggregatedCommands() {
	a.aggregated = nil
	a.resets++
}

type fakeManager struct {
	mu       sync.Mutex
	attempts []string
	executed []string
	failures map[string]int
	filter   func(q *Queue)
}

func (m *fakeManager) failNext(script string, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = make(map[string]int)
	}
	m.failures[script] = times
}

func (m *fakeManager) ExecutePersistAction(_ context.Context, ec ExecutionContext, _ Command, action PersistAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, action.Script)
	if m.failures[action.Script] > 0 {
		m.failures[action.Script]--
		return errors.New("boom: " + action.Script)
	}
	if err := ec.Exec(context.Background(), action.Script); err != nil {
		return err
	}
	m.executed = append(m.executed, action.Script)
	return nil
}

type filteringManager struct {
	*fakeManager
}

func (m filteringManager) FilterCommands(q *Queue) {
	if m.filter != nil {
		m.filter(q)
	}
}

type fakeExec struct {
	conn *fakeConn
}

func (e *fakeExec) Exec(_ context.Context, script string) error {
	e.conn.mu.Lock()
	defer e.conn.mu.Unlock()
	e.conn.scripts = append(e.conn.scripts, script)
	return nil
}

func (e *fakeExec) Close() error {
	e.conn.mu.Lock()
	defer e.conn.mu.Unlock()
	e.conn.closed++
	return nil
}

type fakeConn struct {
	mu        sync.Mutex
	connected bool
	opened    int
	closed    int
	scripts   []string
}

func (c *fakeConn) IsConnected() bool { return c.connected }

func (c *fakeConn) OpenExecutionContext(_ context.Context, _ string) (ExecutionContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened++
	return &fakeExec{conn: c}, nil
}

type recordingReflector struct {
	redone []Command
	undone []Command
}

func (r *recordingReflector) RedoCommand(cmd Command) { r.redone = append(r.redone, cmd) }
func (r *recordingReflector) UndoCommand(cmd Command) { r.undone = append(r.undone, cmd) }

type fixture struct {
	ctx     *Context
	manager *fakeManager
	conn    *fakeConn
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	mgr := &fakeManager{}
	conn := &fakeConn{connected: true}
	reg := NewRegistry()
	reg.Register(&target{}, filteringManager{mgr})
	reg.Register(&childTarget{}, filteringManager{mgr})

	opts = append([]Option{WithLogger(testutil.NewTestLogger(t))}, opts...)
	return &fixture{
		ctx:     New(conn, reg, opts...),
		manager: mgr,
		conn:    conn,
	}
}

func (f *fixture) add(t *testing.T, cmds ...Command) {
	t.Helper()
	for _, cmd := range cmds {
		require.NoError(t, f.ctx.AddCommand(cmd, nil))
	}
}
