// SPDX-License-Identifier: MIT
package settings

import (
	"context"
	"sync"
	"time"

	applog "voxcut/internal/log"
)

// Writer coalesces bursts of control changes into a single store write.
// Queued patches are merged and written once the debounce window has been
// quiet; Immediate writes bypass the window and carry any pending changes
// with them so ordering is preserved.
type Writer struct {
	store  Store
	window time.Duration

	mu      sync.Mutex
	pending Patch
	timer   *time.Timer
	closed  bool
}

// NewWriter wraps store with a debounce window. A zero window writes every
// queued patch immediately.
func NewWriter(store Store, window time.Duration) *Writer {
	return &Writer{store: store, window: window}
}

// Queue merges p into the pending write and restarts the debounce window.
func (w *Writer) Queue(p Patch) {
	if p.IsEmpty() {
		return
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.pending = w.pending.Combine(p)
	if w.window <= 0 {
		w.mu.Unlock()
		w.flushPending()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.window, w.flushPending)
	w.mu.Unlock()
}

// Immediate writes wr now, together with anything still pending.
func (w *Writer) Immediate(ctx context.Context, wr Write) error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	wr.Settings = w.pending.Combine(wr.Settings)
	w.pending = Patch{}
	w.mu.Unlock()

	return w.store.Set(ctx, wr)
}

// Flush writes pending changes without waiting for the window.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	p := w.pending
	w.pending = Patch{}
	w.mu.Unlock()

	if p.IsEmpty() {
		return nil
	}
	return w.store.Set(ctx, Write{Settings: p})
}

// Pending returns the changes not yet written.
func (w *Writer) Pending() Patch {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Close flushes and stops accepting queued changes.
func (w *Writer) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return w.Flush(context.Background())
}

func (w *Writer) flushPending() {
	if err := w.Flush(context.Background()); err != nil {
		applog.Errorf("Settings: debounced write failed: %v", err)
	}
}
