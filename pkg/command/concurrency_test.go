package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingListener struct {
	ListenerAdapter
	saves atomic.Int64
}

func (l *countingListener) OnSave() { l.saves.Add(1) }

// Run with -race: callers share one Context across goroutines.
func TestContext_ConcurrentUse(t *testing.T) {
	const (
		workers    = 8
		iterations = 50
	)
	f := newFixture(t)
	shared := &target{name: "shared"}
	listener := &countingListener{}
	f.ctx.AddListener(listener)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			own := &target{name: fmt.Sprintf("t%d", w)}
			for i := range iterations {
				obj := own
				if i%3 == 0 {
					obj = shared
				}
				script := fmt.Sprintf("W%d-%d", w, i)
				if err := f.ctx.AddCommand(newCmd(obj, script, script), nil); err != nil {
					errs <- err
					return
				}
				switch i % 5 {
				case 1:
					if err := f.ctx.UndoCommand(); err != nil && !errors.Is(err, ErrCannotUndo) {
						errs <- err
						return
					}
				case 2:
					if err := f.ctx.RedoCommand(); err != nil && !errors.Is(err, ErrCannotRedo) {
						errs <- err
						return
					}
				case 3:
					if err := f.ctx.SaveChanges(context.Background()); err != nil {
						errs <- err
						return
					}
				}
				_ = f.ctx.IsDirty()
				_ = f.ctx.Queues()
				_ = f.ctx.PendingActions()
				_ = f.ctx.Commands()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.NoError(t, f.ctx.SaveChanges(context.Background()))
	assert.False(t, f.ctx.IsDirty())
	assert.Positive(t, listener.saves.Load())

	seen := make(map[string]int)
	for _, s := range f.manager.executed {
		seen[s]++
	}
	for script, n := range seen {
		assert.Equal(t, 1, n, "script %s executed more than once", script)
	}
	assert.Equal(t, f.manager.executed, f.conn.scripts)
}
