package command

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SaveChanges validates and persists every pending command.
//
// Validation runs for all commands before anything executes. When an action
// fails, SaveChanges returns a *PersistError and keeps the progress made so
// far: calling it again resumes at the failed action. Cancelling ctx stops the
// save before the next action and returns an error wrapping ErrSaveCanceled.
// The redo history is cleared in every case once validation has started.
func (c *Context) SaveChanges(ctx context.Context) (err error) {
	if c.conn == nil || !c.conn.IsConnected() {
		return ErrNotConnected
	}

	ctx, span := c.tracer.Start(ctx, "command.SaveChanges")
	defer span.End()

	c.mu.Lock()
	defer func() {
		c.queues = nil
		c.undid = nil
		if err == nil {
			c.results = make(map[Command]*commandInfo)
		}
		c.mu.Unlock()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		c.fireSave()
	}()

	queues := c.ensureQueues()
	span.SetAttributes(attribute.Int("queues", len(queues)))

	if err := c.validate(queues); err != nil {
		return err
	}

	executed := 0
	for _, q := range queues {
		for _, entry := range q.infos {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrSaveCanceled, err)
			}
			canon := entry.canonical()
			if canon == nil {
				return fmt.Errorf("%w at %q", ErrMergeCycle, entry.command.Title())
			}
			if !canon.executed {
				if err := c.execute(ctx, canon); err != nil {
					return err
				}
				executed++
			}
			c.removePending(entry)
		}
	}

	// Whatever is still pending was merged away or filtered out.
	if len(c.commands) > 0 {
		c.logger.Debug("discarding merged commands", slog.Int("count", len(c.commands)))
		c.commands = nil
	}

	span.SetAttributes(attribute.Int("commands", executed))
	c.logger.Debug("changes saved", slog.Int("commands", executed))
	return nil
}

// validate checks every distinct pending command. Caller must hold c.mu.
func (c *Context) validate(queues []*Queue) error {
	seen := make(map[*commandInfo]struct{})
	for _, q := range queues {
		for _, entry := range q.infos {
			canon := entry.canonical()
			if canon == nil {
				return fmt.Errorf("%w at %q", ErrMergeCycle, entry.command.Title())
			}
			if canon.executed {
				continue
			}
			if _, dup := seen[canon]; dup {
				continue
			}
			seen[canon] = struct{}{}
			if err := canon.command.Validate(); err != nil {
				return &ValidationError{Command: canon.command.Title(), Err: err}
			}
		}
	}
	return nil
}

// execute runs the remaining actions of ci and applies it to the model.
// Caller must hold c.mu.
func (c *Context) execute(ctx context.Context, ci *commandInfo) error {
	ci.materialize()
	title := ci.command.Title()

	runnable := false
	for _, pi := range ci.actions {
		if !pi.executed && pi.action.Type != ActionComment {
			runnable = true
			break
		}
	}

	if runnable {
		ec, err := c.conn.OpenExecutionContext(ctx, title)
		if err != nil {
			return &PersistError{Command: title, Err: fmt.Errorf("failed to open execution context: %w", err)}
		}
		defer func() {
			if cerr := ec.Close(); cerr != nil {
				c.logger.Warn("failed to close execution context",
					slog.String("command", title),
					slog.String("error", cerr.Error()))
			}
		}()

		for _, pi := range ci.actions {
			if pi.executed {
				continue
			}
			if pi.action.Type == ActionComment {
				pi.executed = true
				continue
			}
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrSaveCanceled, err)
			}
			if err := c.executeAction(ctx, ec, ci, pi); err != nil {
				return &PersistError{Command: title, Action: pi.action, Err: err}
			}
		}
	} else {
		for _, pi := range ci.actions {
			pi.executed = true
		}
	}

	ci.command.UpdateModel()
	ci.executed = true
	c.logger.Debug("command persisted", slog.String("command", title), slog.Int("actions", len(ci.actions)))
	return nil
}

func (c *Context) executeAction(ctx context.Context, ec ExecutionContext, ci *commandInfo, pi *persistInfo) error {
	ctx, span := c.tracer.Start(ctx, "command.PersistAction",
		trace.WithAttributes(
			attribute.String("command", ci.command.Title()),
			attribute.String("action", pi.action.Title),
			attribute.String("type", pi.action.Type.String()),
		))
	defer span.End()

	err := ci.manager.ExecutePersistAction(ctx, ec, ci.command, pi.action)
	c.fireActionExecuted(ci.command, pi.action, err)

	if err != nil && pi.action.Type == ActionOptional {
		c.logger.Warn("optional action failed",
			slog.String("command", ci.command.Title()),
			slog.String("action", pi.action.Title),
			slog.String("error", err.Error()))
		span.RecordError(err)
		pi.err = err
		pi.executed = true
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		pi.err = err
		return err
	}

	pi.err = nil
	pi.executed = true
	return nil
}

// removePending drops ci from the pending list if present. Caller must hold c.mu.
func (c *Context) removePending(ci *commandInfo) {
	if i := indexOfInfo(c.commands, ci); i >= 0 {
		c.commands = append(c.commands[:i], c.commands[i+1:]...)
	}
}
