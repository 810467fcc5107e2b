package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kilianp07/factorysim/core/logger"
	"github.com/kilianp07/factorysim/core/monitoring"
)

// ErrStopped is returned by Exec once the runner has exited.
var ErrStopped = errors.New("engine runner stopped")

type command struct {
	fn   func(*Engine) error
	done chan error
}

// Runner drives an Engine from a ticker. The engine is touched only by the
// goroutine executing Run; other goroutines go through Exec.
type Runner struct {
	eng      *Engine
	interval time.Duration
	cmds     chan command
	stopped  chan struct{}
	paused   atomic.Bool
	log      logger.Logger
}

// NewRunner creates a runner ticking at the engine's tick interval.
func NewRunner(eng *Engine, log logger.Logger) *Runner {
	return &Runner{
		eng:      eng,
		interval: eng.Config().TickInterval(),
		cmds:     make(chan command),
		stopped:  make(chan struct{}),
		log:      logger.OrNop(log),
	}
}

// Pause stops advancing carts while commands keep being served.
func (r *Runner) Pause() { r.paused.Store(true) }

// Resume restarts ticking after Pause.
func (r *Runner) Resume() { r.paused.Store(false) }

// Paused reports whether ticking is suspended.
func (r *Runner) Paused() bool { return r.paused.Load() }

// Run ticks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.stopped)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.log.Infof("engine running, tick every %s", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.log.Infof("engine stopped at tick %d", r.eng.CurrentTick())
			return ctx.Err()
		case cmd := <-r.cmds:
			cmd.done <- r.exec(cmd.fn)
		case <-ticker.C:
			if r.paused.Load() {
				continue
			}
			if err := r.exec(func(e *Engine) error { e.Tick(); return nil }); err != nil {
				r.log.Errorf("tick %d: %v", r.eng.CurrentTick(), err)
			}
		}
	}
}

// Exec runs fn on the engine between two ticks and returns its error.
func (r *Runner) Exec(ctx context.Context, fn func(*Engine) error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case r.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.stopped:
		return ErrStopped
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot fetches a copy of the engine state through Exec.
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.Exec(ctx, func(e *Engine) error {
		snap = e.Snapshot()
		return nil
	})
	return snap, err
}

func (r *Runner) exec(fn func(*Engine) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("engine panic: %v", rec)
			monitoring.CaptureException(err, map[string]string{"component": "engine"})
		}
	}()
	return fn(r.eng)
}
