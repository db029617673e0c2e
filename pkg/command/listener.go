package command

// Listener receives lifecycle events from a Context.
//
// Callbacks run without the command lock held, except OnActionExecuted which
// runs during a save. Listeners must not call back into the Context from
// OnActionExecuted.
type Listener interface {
	OnCommandChange(cmd Command)
	OnSave()
	OnReset()
	OnCommandDo(cmd Command)
	OnCommandUndo(cmd Command)
}

// ActionListener is an optional Listener capability reporting every executed
// persist action. err is nil on success.
type ActionListener interface {
	OnActionExecuted(cmd Command, action PersistAction, err error)
}

// ListenerAdapter implements Listener with no-op methods. Embed it to
// override only the events you need.
type ListenerAdapter struct{}

func (ListenerAdapter) OnCommandChange(Command) {}
func (ListenerAdapter) OnSave()                 {}
func (ListenerAdapter) OnReset()                {}
func (ListenerAdapter) OnCommandDo(Command)     {}
func (ListenerAdapter) OnCommandUndo(Command)   {}

// AddListener registers l.
func (c *Context) AddListener(l Listener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, l)
}

// RemoveListener unregisters l.
func (c *Context) RemoveListener(l Listener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	for i, existing := range c.listeners {
		if existing == l {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

func (c *Context) snapshotListeners() []Listener {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	return append([]Listener(nil), c.listeners...)
}

func (c *Context) fireCommandChange(cmd Command) {
	for _, l := range c.snapshotListeners() {
		l.OnCommandChange(cmd)
	}
}

func (c *Context) fireCommandDo(cmd Command) {
	for _, l := range c.snapshotListeners() {
		l.OnCommandDo(cmd)
	}
}

func (c *Context) fireCommandUndo(cmd Command) {
	for _, l := range c.snapshotListeners() {
		l.OnCommandUndo(cmd)
	}
}

func (c *Context) fireSave() {
	for _, l := range c.snapshotListeners() {
		l.OnSave()
	}
}

func (c *Context) fireReset() {
	for _, l := range c.snapshotListeners() {
		l.OnReset()
	}
}

func (c *Context) fireActionExecuted(cmd Command, action PersistAction, err error) {
	for _, l := range c.snapshotListeners() {
		if al, ok := l.(ActionListener); ok {
			al.OnActionExecuted(cmd, action, err)
		}
	}
}
