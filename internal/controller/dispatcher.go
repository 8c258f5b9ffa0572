// SPDX-License-Identifier: MIT
package controller

import (
	"context"

	"voxcut/internal/settings"
)

// Dispatcher hands transport events to a Controller on its Loop. It is safe
// for concurrent use.
type Dispatcher struct {
	loop *Loop
	ctrl *Controller
}

// NewDispatcher returns a dispatcher for ctrl, which must be driven by loop.
func NewDispatcher(loop *Loop, ctrl *Controller) *Dispatcher {
	return &Dispatcher{loop: loop, ctrl: ctrl}
}

// HandleUpdate queues an update and returns without waiting for it.
func (d *Dispatcher) HandleUpdate(_ context.Context, p settings.Patch, forceReinit bool) error {
	return d.loop.Post(func() { d.ctrl.Update(p, forceReinit) })
}

// HandleStatus reads the controller status on the loop.
func (d *Dispatcher) HandleStatus(ctx context.Context) (bool, error) {
	st, err := d.Status(ctx)
	return st.Active, err
}

// Status returns the full controller status.
func (d *Dispatcher) Status(ctx context.Context) (Status, error) {
	var st Status
	err := d.loop.Call(ctx, func() { st = d.ctrl.Status() })
	return st, err
}

// Start starts the controller's sweep on the loop.
func (d *Dispatcher) Start(ctx context.Context) error {
	return d.loop.Call(ctx, d.ctrl.Start)
}

// Close closes the controller on the loop.
func (d *Dispatcher) Close(ctx context.Context) error {
	var closeErr error
	if err := d.loop.Call(ctx, func() { closeErr = d.ctrl.Close() }); err != nil {
		return err
	}
	return closeErr
}
