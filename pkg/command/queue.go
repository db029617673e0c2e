package command

import "sort"

// Queue is the ordered list of commands targeting one object.
//
// Queues handed to a CommandFilter are live: changes made through Remove,
// Append and Sort are applied to the save plan. Queues returned by
// Context.Queues are snapshots.
type Queue struct {
	object    any
	manager   ObjectManager
	parent    *Queue
	subQueues []*Queue
	infos     []*commandInfo
	modified  bool

	owner *Context
}

// Object returns the target object shared by every command in the queue.
func (q *Queue) Object() any { return q.object }

// Manager returns the manager responsible for the queue's object.
func (q *Queue) Manager() ObjectManager { return q.manager }

// Parent returns the queue of the owning object, or nil.
func (q *Queue) Parent() *Queue { return q.parent }

// SubQueues returns the queues of objects owned by this queue's object.
func (q *Queue) SubQueues() []*Queue { return q.subQueues }

// Len returns the number of entries, including entries absorbed by another.
func (q *Queue) Len() int { return len(q.infos) }

// IsEmpty reports whether the queue has no entries.
func (q *Queue) IsEmpty() bool { return len(q.infos) == 0 }

// Modified reports whether a filter changed the queue in the current pass.
func (q *Queue) Modified() bool { return q.modified }

// Commands returns the queue entries in order.
func (q *Queue) Commands() []Command {
	out := make([]Command, 0, len(q.infos))
	for _, ci := range q.infos {
		out = append(out, ci.command)
	}
	return out
}

// Contains reports whether cmd is an entry of the queue.
func (q *Queue) Contains(cmd Command) bool {
	for _, ci := range q.infos {
		if ci.command == cmd {
			return true
		}
	}
	return false
}

// Remove drops cmd from the queue. Returns false if it was not present.
func (q *Queue) Remove(cmd Command) bool {
	return q.RemoveIf(func(c Command) bool { return c == cmd }) > 0
}

// RemoveIf drops every entry matching pred and returns how many were dropped.
func (q *Queue) RemoveIf(pred func(Command) bool) int {
	kept := make([]*commandInfo, 0, len(q.infos))
	for _, ci := range q.infos {
		if !pred(ci.command) {
			kept = append(kept, ci)
		}
	}
	removed := len(q.infos) - len(kept)
	if removed > 0 {
		q.infos = kept
		q.modified = true
	}
	return removed
}

// Append adds a command produced by a filter to the end of the queue.
func (q *Queue) Append(cmd Command) {
	ci := &commandInfo{command: cmd, manager: q.manager}
	if q.owner != nil {
		ci = q.owner.resultInfo(cmd, q.manager)
	}
	q.infos = append(q.infos, ci)
	q.modified = true
}

// Sort reorders the entries with a stable sort.
func (q *Queue) Sort(less func(a, b Command) bool) {
	sort.SliceStable(q.infos, func(i, j int) bool {
		return less(q.infos[i].command, q.infos[j].command)
	})
	q.modified = true
}

// reflatten drops entries whose execution owner left the queue.
func (q *Queue) reflatten() {
	present := make(map[*commandInfo]struct{}, len(q.infos))
	for _, ci := range q.infos {
		present[ci] = struct{}{}
	}
	kept := make([]*commandInfo, 0, len(q.infos))
	for _, ci := range q.infos {
		canon := ci.canonical()
		if canon == nil {
			continue
		}
		if _, ok := present[canon]; !ok {
			continue
		}
		kept = append(kept, ci)
	}
	q.infos = kept
}

// snapshot copies the queue without links back into the context.
func (q *Queue) snapshot() *Queue {
	return &Queue{
		object:  q.object,
		manager: q.manager,
		infos:   append([]*commandInfo(nil), q.infos...),
	}
}
