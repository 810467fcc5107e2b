package engine

import (
	"context"

	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/model"
)

// DeployCart creates a random delivery and hands it to the first idle cart.
// The delivery is returned even when it stays pending.
func (r *Runner) DeployCart(ctx context.Context) (model.Delivery, error) {
	var del model.Delivery
	err := r.Exec(ctx, func(e *Engine) error {
		var err error
		del, err = e.disp.DeployCart()
		return err
	})
	return del, err
}

// DeployAllCarts creates one delivery per idle cart up to the bulk limit.
func (r *Runner) DeployAllCarts(ctx context.Context) (int, error) {
	var n int
	err := r.Exec(ctx, func(e *Engine) error {
		var err error
		n, err = e.disp.DeployAllCarts()
		return err
	})
	return n, err
}

// RecallAllCarts sends every cart back to its start.
func (r *Runner) RecallAllCarts(ctx context.Context) (int, error) {
	var n int
	err := r.Exec(ctx, func(e *Engine) error {
		n = e.disp.RecallAllCarts()
		return nil
	})
	return n, err
}

// SendGridCommand moves one idle cart to a grid coordinate.
func (r *Runner) SendGridCommand(ctx context.Context, cmd dispatch.GridCommand) error {
	return r.Exec(ctx, func(e *Engine) error {
		return e.disp.SendGridCommand(cmd)
	})
}

// ResetCarts parks every cart and clears all deliveries.
func (r *Runner) ResetCarts(ctx context.Context) error {
	return r.Exec(ctx, func(e *Engine) error {
		e.Reset()
		return nil
	})
}

// SetProduction starts or stops the machines. It reports whether the state
// changed.
func (r *Runner) SetProduction(ctx context.Context, on bool) (bool, error) {
	var changed bool
	err := r.Exec(ctx, func(e *Engine) error {
		if on {
			changed = e.StartProduction()
		} else {
			changed = e.StopProduction()
		}
		return nil
	})
	return changed, err
}

// ResetProduction clears the production totals.
func (r *Runner) ResetProduction(ctx context.Context) error {
	return r.Exec(ctx, func(e *Engine) error {
		e.ResetProduction()
		return nil
	})
}
