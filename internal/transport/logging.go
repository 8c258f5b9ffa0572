// SPDX-License-Identifier: MIT
package transport

import (
	"context"

	applog "voxcut/internal/log"
	"voxcut/internal/settings"
)

// LoggingHandler logs every inbound event at debug level before passing it
// on to the wrapped Handler.
type LoggingHandler struct {
	next Handler
}

// NewLoggingHandler wraps next.
func NewLoggingHandler(next Handler) *LoggingHandler {
	applog.Debugf("Transport: logging inbound messages")
	return &LoggingHandler{next: next}
}

// HandleUpdate implements Handler.
func (h *LoggingHandler) HandleUpdate(ctx context.Context, p settings.Patch, forceReinit bool) error {
	applog.WithFields(applog.Fields{
		"type":        TypeUpdate,
		"settings":    p.String(),
		"forceReinit": forceReinit,
	}).Debug("Transport: inbound")
	err := h.next.HandleUpdate(ctx, p, forceReinit)
	if err != nil {
		applog.Warnf("Transport: update not delivered: %v", err)
	}
	return err
}

// HandleStatus implements Handler.
func (h *LoggingHandler) HandleStatus(ctx context.Context) (bool, error) {
	active, err := h.next.HandleStatus(ctx)
	applog.WithFields(applog.Fields{
		"type":   TypeGetStatus,
		"active": active,
	}).Debug("Transport: inbound")
	return active, err
}

// Ensure LoggingHandler satisfies the interface at compile time.
var _ Handler = (*LoggingHandler)(nil)
