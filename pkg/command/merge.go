package command

import "log/slog"

// ensureQueues returns the cached queues, computing them when needed.
// Caller must hold c.mu.
func (c *Context) ensureQueues() []*Queue {
	if c.queues != nil {
		return c.queues
	}

	queues := make([]*Queue, 0)
	byObject := make(map[any]*Queue)
	var aggregators []*commandInfo

	for _, ci := range c.commands {
		ci.mergedBy = nil
		if _, ok := ci.command.(Aggregator); ok {
			aggregators = append(aggregators, ci)
		}
		obj := ci.command.Object()
		q, ok := byObject[obj]
		if !ok {
			q = &Queue{object: obj, manager: ci.manager, owner: c}
			byObject[obj] = q
			queues = append(queues, q)
		}
		q.infos = append(q.infos, ci)
	}

	for _, q := range queues {
		n, ok := q.object.(Nested)
		if !ok {
			continue
		}
		if parent, ok := byObject[n.ParentObject()]; ok && parent != q {
			q.parent = parent
			parent.subQueues = append(parent.subQueues, q)
		}
	}

	for _, q := range queues {
		c.mergeQueue(q)
	}

	for _, q := range queues {
		if f, ok := q.manager.(CommandFilter); ok {
			f.FilterCommands(q)
		}
	}
	for _, q := range queues {
		if q.modified {
			q.reflatten()
			q.modified = false
		}
	}

	c.aggregate(queues, aggregators)

	kept := queues[:0]
	for _, q := range queues {
		if !q.IsEmpty() {
			kept = append(kept, q)
		}
	}
	for _, q := range kept {
		subs := q.subQueues[:0]
		for _, sub := range q.subQueues {
			if !sub.IsEmpty() {
				subs = append(subs, sub)
			}
		}
		q.subQueues = subs
		if q.parent != nil && q.parent.IsEmpty() {
			q.parent = nil
		}
	}
	c.queues = kept

	c.logger.Debug("command queues computed",
		slog.Int("commands", len(c.commands)),
		slog.Int("queues", len(kept)))
	return c.queues
}

// mergeQueue collapses the raw entries of q into its merged entries.
func (c *Context) mergeQueue(q *Queue) {
	raw := q.infos
	params := make(map[any]any)
	byResult := make(map[Command]*commandInfo)
	merged := make([]*commandInfo, 0, len(raw))

	for i, last := range raw {
		var first *commandInfo
		var result Command

		if len(merged) == 0 {
			result = last.command.Merge(nil, params)
		} else {
			for k := len(merged) - 1; k >= 0; k-- {
				first = merged[k]
				result = last.command.Merge(first.command, params)
				if result != last.command {
					break
				}
			}
		}

		if result == nil {
			if first != nil {
				merged = dropResolving(merged, first)
				for key, ci := range byResult {
					if ci.resolvesTo(first) {
						delete(byResult, key)
					}
				}
			}
			continue
		}

		merged = append(merged, last)

		switch {
		case result == last.command:
		case first != nil && result == first.command:
			last.mergedBy = first
		default:
			if !isPointer(result) {
				c.logger.Error("ignoring merge result that is not a pointer",
					slog.String("command", last.command.Title()))
				continue
			}
			target, ok := byResult[result]
			if !ok {
				for k := i; k >= 0; k-- {
					if raw[k].command == result {
						target = raw[k]
						break
					}
				}
				if target == nil {
					target = c.resultInfo(result, q.manager)
				}
				byResult[result] = target
			}
			if target != last {
				last.mergedBy = target
			}
			if indexOfInfo(merged, target) < 0 {
				merged = append(merged, target)
			}
		}
	}

	q.infos = merged
}

// dropResolving removes target and every entry absorbed into it.
func dropResolving(infos []*commandInfo, target *commandInfo) []*commandInfo {
	kept := infos[:0]
	for _, ci := range infos {
		if !ci.resolvesTo(target) {
			kept = append(kept, ci)
		}
	}
	return kept
}

// aggregate offers independent entries to the last pending aggregator.
func (c *Context) aggregate(queues []*Queue, aggregators []*commandInfo) {
	if len(aggregators) == 0 {
		return
	}

	present := make(map[*commandInfo]struct{})
	for _, q := range queues {
		for _, ci := range q.infos {
			present[ci] = struct{}{}
		}
	}

	var agg *commandInfo
	for i := len(aggregators) - 1; i >= 0; i-- {
		ci := aggregators[i]
		if _, ok := present[ci]; ok && ci.mergedBy == nil {
			agg = ci
			break
		}
	}
	if agg == nil {
		return
	}

	a := agg.command.(Aggregator)
	a.ResetAggregatedCommands()
	for _, q := range queues {
		for _, ci := range q.infos {
			if ci == agg || ci.mergedBy != nil || ci.executed {
				continue
			}
			if a.AggregateCommand(ci.command) {
				ci.mergedBy = agg
			}
		}
	}
}
