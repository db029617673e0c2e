package command

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ExecutionContext runs scripts against the backend on behalf of one command.
type ExecutionContext interface {
	Exec(ctx context.Context, script string) error
	Close() error
}

// Connection is the backend a Context saves into.
type Connection interface {
	IsConnected() bool
	OpenExecutionContext(ctx context.Context, purpose string) (ExecutionContext, error)
}

// ObjectManager executes persist actions for one type of object.
type ObjectManager interface {
	ExecutePersistAction(ctx context.Context, ec ExecutionContext, cmd Command, action PersistAction) error
}

// CommandFilter is an optional ObjectManager capability. FilterCommands is
// called once per queue each time queues are recomputed, after merging.
type CommandFilter interface {
	FilterCommands(q *Queue)
}

// ManagerLookup resolves the ObjectManager responsible for an object.
type ManagerLookup interface {
	Manager(object any) (ObjectManager, bool)
}

// Registry maps object types to their managers.
type Registry struct {
	mu       sync.RWMutex
	managers map[reflect.Type]ObjectManager
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{managers: make(map[reflect.Type]ObjectManager)}
}

// Register binds the dynamic type of sample to m.
// Panics if sample is nil or the type is already registered.
func (r *Registry) Register(sample any, m ObjectManager) {
	t := reflect.TypeOf(sample)
	if t == nil {
		panic("command: Register called with nil sample")
	}
	if m == nil {
		panic(fmt.Sprintf("command: Register called with nil manager for %s", t))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.managers[t]; exists {
		panic(fmt.Sprintf("command: manager for %s already registered", t))
	}
	r.managers[t] = m
}

// Manager implements ManagerLookup.
func (r *Registry) Manager(object any) (ObjectManager, bool) {
	t := reflect.TypeOf(object)
	if t == nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.managers[t]
	return m, ok
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.managers))
	for t := range r.managers {
		names = append(names, t.String())
	}
	sort.Strings(names)
	return names
}
