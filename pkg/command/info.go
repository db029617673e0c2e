package command

// persistInfo tracks one materialized action of a command.
type persistInfo struct {
	action   PersistAction
	executed bool
	err      error
}

// commandInfo wraps a command with its engine-side state.
type commandInfo struct {
	id        uint64
	command   Command
	reflector Reflector
	manager   ObjectManager

	// actions is nil until the first save attempt materializes it.
	actions      []*persistInfo
	materialized bool
	// stale is set when the command may have changed since materializing.
	stale bool

	// mergedBy points at the info that took over this command, if any.
	mergedBy *commandInfo
	executed bool
}

// canonical follows the mergedBy chain to the info that owns execution.
// Returns nil if the chain loops.
func (ci *commandInfo) canonical() *commandInfo {
	var seen map[*commandInfo]struct{}
	cur := ci
	for cur.mergedBy != nil {
		if seen == nil {
			seen = make(map[*commandInfo]struct{})
		}
		if _, loop := seen[cur]; loop {
			return nil
		}
		seen[cur] = struct{}{}
		cur = cur.mergedBy
	}
	return cur
}

// resolvesTo reports whether target appears on the chain starting at ci.
func (ci *commandInfo) resolvesTo(target *commandInfo) bool {
	seen := make(map[*commandInfo]struct{})
	for cur := ci; cur != nil; cur = cur.mergedBy {
		if cur == target {
			return true
		}
		if _, loop := seen[cur]; loop {
			return false
		}
		seen[cur] = struct{}{}
	}
	return false
}

// started reports whether any action has already been executed.
func (ci *commandInfo) started() bool {
	for _, pi := range ci.actions {
		if pi.executed {
			return true
		}
	}
	return false
}

func (ci *commandInfo) materialize() {
	if ci.materialized && !ci.stale {
		return
	}
	ci.actions = ci.rebuild()
	ci.materialized = true
	ci.stale = false
}

// rebuild turns the command's current actions into persist infos. Actions
// whose script already ran in an earlier attempt stay executed, each earlier
// execution matching at most one action.
func (ci *commandInfo) rebuild() []*persistInfo {
	ran := make(map[string]int)
	for _, pi := range ci.actions {
		if pi.executed {
			ran[pi.action.Script]++
		}
	}
	actions := ci.command.PersistActions()
	out := make([]*persistInfo, 0, len(actions))
	for _, a := range actions {
		pi := &persistInfo{action: a}
		if ran[a.Script] > 0 {
			ran[a.Script]--
			pi.executed = true
		}
		out = append(out, pi)
	}
	return out
}

// pending returns the actions that still have to run, without caching.
func (ci *commandInfo) pending() []PersistAction {
	actions := ci.actions
	if !ci.materialized || ci.stale {
		actions = ci.rebuild()
	}
	var out []PersistAction
	for _, pi := range actions {
		if !pi.executed {
			out = append(out, pi.action)
		}
	}
	return out
}

func indexOfInfo(infos []*commandInfo, target *commandInfo) int {
	for i, ci := range infos {
		if ci == target {
			return i
		}
	}
	return -1
}
