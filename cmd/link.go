// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"sync"
	"time"

	applog "voxcut/internal/log"
	"voxcut/internal/settings"
	"voxcut/internal/transport"
)

// hostLink is the control surface's connection to the page host. It dials
// on first use and redials after a failure, so a panel outlives host
// restarts. It is safe for concurrent use.
type hostLink struct {
	url           string
	statusTimeout time.Duration

	mu     sync.Mutex
	client *transport.Client
}

func newHostLink(addr string, statusTimeout time.Duration) *hostLink {
	return &hostLink{url: transport.WebSocketURL(addr), statusTimeout: statusTimeout}
}

func (l *hostLink) get(ctx context.Context) (*transport.Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client != nil {
		return l.client, nil
	}
	c, err := transport.Dial(ctx, l.url, l.statusTimeout)
	if err != nil {
		return nil, err
	}
	l.client = c
	return c, nil
}

// drop forgets c after a failure so the next call redials.
func (l *hostLink) drop(c *transport.Client) {
	l.mu.Lock()
	if l.client == c {
		l.client = nil
	}
	l.mu.Unlock()
	c.Close()
}

// Update implements transport.Sender.
func (l *hostLink) Update(ctx context.Context, p settings.Patch, forceReinit bool) error {
	c, err := l.get(ctx)
	if err != nil {
		return err
	}
	if err := c.Update(ctx, p, forceReinit); err != nil {
		l.drop(c)
		return err
	}
	return nil
}

// Status reports inactive whenever the host cannot be reached or does not
// answer in time. The status timeout bounds the dial as well as the query.
func (l *hostLink) Status(ctx context.Context) (transport.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, l.statusTimeout)
	defer cancel()
	c, err := l.get(ctx)
	if err != nil {
		return transport.Status{}, err
	}
	st, err := c.Status(ctx)
	if err != nil && !errors.Is(err, transport.ErrTimeout) && !errors.Is(err, context.DeadlineExceeded) {
		l.drop(c)
	}
	return st, err
}

// Close closes the current connection, if any.
func (l *hostLink) Close() {
	l.mu.Lock()
	c := l.client
	l.client = nil
	l.mu.Unlock()
	if c != nil {
		if err := c.Close(); err != nil {
			applog.Debugf("Link: close: %v", err)
		}
	}
}
