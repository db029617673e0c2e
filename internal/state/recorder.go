package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapdb/pkg/command"
)

// ErrNoSaveInProgress is returned by Recorder.Finish without a matching Begin.
var ErrNoSaveInProgress = errors.New("no save in progress")

// Recorder writes save history for a command context. Register it with
// command.Context.AddListener and bracket each SaveChanges call with Begin and
// Finish.
type Recorder struct {
	command.ListenerAdapter

	store      Store
	connection string
	logger     *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	current *Save
	seq     int
	errs    []error
}

// NewRecorder returns a recorder writing saves of connection to store.
func NewRecorder(store Store, connection string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{store: store, connection: connection, logger: logger}
}

// Begin starts recording a save.
func (r *Recorder) Begin(ctx context.Context) (*Save, error) {
	save, err := r.store.BeginSave(ctx, r.connection)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = ctx
	r.current = save
	r.seq = 0
	r.errs = nil
	r.logger.Debug("recording save", slog.String("save_id", save.ID), slog.String("connection", r.connection))
	return save, nil
}

// Finish closes the save started by Begin with the outcome of SaveChanges.
// It also reports actions that could not be written.
func (r *Recorder) Finish(ctx context.Context, saveErr error) error {
	r.mu.Lock()
	save := r.current
	errs := r.errs
	r.current = nil
	r.ctx = nil
	r.errs = nil
	r.mu.Unlock()

	if save == nil {
		return ErrNoSaveInProgress
	}
	if err := r.store.FinishSave(ctx, save.ID, saveErr); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to record save %s: %w", save.ID, errors.Join(errs...))
	}
	return nil
}

// OnActionExecuted implements command.ActionListener.
func (r *Recorder) OnActionExecuted(cmd command.Command, action command.PersistAction, err error) {
	if action.Type == command.ActionComment {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return
	}

	r.seq++
	rec := &SaveAction{
		SaveID:  r.current.ID,
		Seq:     r.seq,
		Command: cmd.Title(),
		Title:   action.Title,
		Script:  action.Script,
		Type:    action.Type.String(),
		Status:  ActionExecuted,
	}
	if err != nil {
		rec.Error = err.Error()
		rec.Status = ActionFailed
		if action.Type == command.ActionOptional {
			rec.Status = ActionSkipped
		}
	}

	if werr := r.store.RecordAction(r.ctx, rec); werr != nil {
		r.logger.Warn("failed to record action", slog.String("action", action.Title), slog.String("error", werr.Error()))
		r.errs = append(r.errs, werr)
	}
}
