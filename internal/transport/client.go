// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	applog "voxcut/internal/log"
	"voxcut/internal/settings"

	"github.com/gorilla/websocket"
)

// ErrClientClosed is returned by calls on a closed client.
var ErrClientClosed = errors.New("transport: client closed")

// Client is the control-side end of the websocket. It is safe for
// concurrent use.
type Client struct {
	ws            *websocket.Conn
	writeMu       sync.Mutex
	statusTimeout time.Duration

	nextID  atomic.Uint64
	mu      sync.Mutex
	waiters map[uint64]chan Message

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to a page host websocket URL.
func Dial(ctx context.Context, url string, statusTimeout time.Duration) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		ws:            ws,
		statusTimeout: statusTimeout,
		waiters:       make(map[uint64]chan Message),
		done:          make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Update implements Sender.
func (c *Client) Update(_ context.Context, p settings.Patch, forceReinit bool) error {
	return c.write(Message{Type: TypeUpdate, Settings: &p, ForceReinit: forceReinit})
}

// Status asks whether processing is active. It never waits longer than the
// status timeout: without a reply it returns an inactive status together
// with ErrTimeout (or the context or connection error).
func (c *Client) Status(ctx context.Context) (Status, error) {
	id := c.nextID.Add(1)
	reply := make(chan Message, 1)

	c.mu.Lock()
	c.waiters[id] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.waiters, id)
		c.mu.Unlock()
	}()

	if err := c.write(Message{Type: TypeGetStatus, ID: id}); err != nil {
		return Status{}, err
	}

	timer := time.NewTimer(c.statusTimeout)
	defer timer.Stop()
	select {
	case msg := <-reply:
		return Status{Active: msg.Active}, nil
	case <-timer.C:
		return Status{}, ErrTimeout
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case <-c.done:
		return Status{}, ErrClientClosed
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	<-c.done
	return err
}

func (c *Client) write(msg Message) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(msg)
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				applog.Debugf("WebSocketClient: read: %v", err)
			}
			return
		}
		if msg.Type != TypeStatus {
			continue
		}
		c.mu.Lock()
		reply, ok := c.waiters[msg.ID]
		c.mu.Unlock()
		if ok {
			select {
			case reply <- msg:
			default:
			}
		}
	}
}
