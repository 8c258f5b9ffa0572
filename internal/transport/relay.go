// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"fmt"
	"time"

	applog "voxcut/internal/log"
	"voxcut/internal/settings"
)

// Relay pushes settings snapshots towards the page: either a snapshot a
// control surface already holds, or the one persisted in the store.
type Relay struct {
	store  settings.Store
	sender Sender
}

// NewRelay returns a relay reading from store and sending through sender.
func NewRelay(store settings.Store, sender Sender) *Relay {
	return &Relay{store: store, sender: sender}
}

// Forward sends the complete snapshot s.
func (r *Relay) Forward(ctx context.Context, s settings.Settings, forceReinit bool) error {
	if err := r.sender.Update(ctx, settings.Full(s), forceReinit); err != nil {
		return fmt.Errorf("forward settings: %w", err)
	}
	return nil
}

// Sync sends the stored snapshot, with defaults for unset keys.
func (r *Relay) Sync(ctx context.Context, forceReinit bool) error {
	p, err := r.store.Get(ctx, settings.Keys()...)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	return r.Forward(ctx, settings.Defaults().Merge(p), forceReinit)
}

// InitialSync waits delay, then sends the stored snapshot once. It returns
// early with the context error if ctx ends first.
func (r *Relay) InitialSync(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	applog.Debugf("Relay: pushing stored settings")
	return r.Sync(ctx, false)
}
