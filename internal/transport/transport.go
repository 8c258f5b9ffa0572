// SPDX-License-Identifier: MIT
/*
Package transport carries settings snapshots and status queries between the
control surfaces (CLI, terminal panel) and the page host.

Messages are JSON objects over a websocket at /ws:

	{"type":"update","settings":{...},"forceReinit":true}
	{"type":"get_status","id":7}
	{"type":"status","id":7,"active":true}

Updates are fire-and-forget. Status queries are request/response; a client
that gets no answer within its status timeout reports inactive.
*/
package transport

import (
	"context"
	"errors"

	"voxcut/internal/settings"
)

// Message types.
const (
	TypeUpdate    = "update"
	TypeGetStatus = "get_status"
	TypeStatus    = "status"
)

// ErrTimeout is returned alongside an inactive status when a status query
// goes unanswered.
var ErrTimeout = errors.New("transport: status query timed out")

// Message is the wire envelope for every message type.
type Message struct {
	Type        string          `json:"type"`
	ID          uint64          `json:"id,omitempty"`
	Settings    *settings.Patch `json:"settings,omitempty"`
	ForceReinit bool            `json:"forceReinit,omitempty"`
	Active      bool            `json:"active,omitempty"`
}

// Status is the answer to a status query.
type Status struct {
	Active bool `json:"active"`
}

// Handler is the page-side receiver of transport events.
// Implementations must be safe for concurrent use.
type Handler interface {
	HandleUpdate(ctx context.Context, p settings.Patch, forceReinit bool) error
	HandleStatus(ctx context.Context) (active bool, err error)
}

// Sender delivers settings updates to the page.
type Sender interface {
	Update(ctx context.Context, p settings.Patch, forceReinit bool) error
}

// SenderFunc adapts a function, such as a Handler's HandleUpdate, to Sender.
type SenderFunc func(ctx context.Context, p settings.Patch, forceReinit bool) error

// Update implements Sender.
func (f SenderFunc) Update(ctx context.Context, p settings.Patch, forceReinit bool) error {
	return f(ctx, p, forceReinit)
}

// WebSocketURL returns the endpoint URL for a listen address.
func WebSocketURL(addr string) string {
	return "ws://" + addr + "/ws"
}
