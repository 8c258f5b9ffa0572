// SPDX-License-Identifier: MIT
/*
Package controller owns the voice-removal processing graph of one page. It
finds the page's media element, binds it to a processing context once,
wires the mid/side chain, reparameterizes it in place on settings updates
and falls back to a plain bypass (source straight to destination) whenever
processing is off or construction fails.

Thread Safety:
- A Controller is not safe for concurrent use. Every method, and every
  callback it schedules, must run on the goroutine that owns it: the Loop
  in production, the test goroutine with a ManualScheduler
- Dispatcher is the goroutine-safe front door used by the transport
*/
package controller

import (
	"errors"
	"fmt"
	"math"
	"time"

	"voxcut/internal/graph"
	applog "voxcut/internal/log"
	"voxcut/internal/media"
	"voxcut/internal/settings"
)

var (
	// ErrElementUnavailable means the page has no media element yet. The
	// sweep retries it; it does not consume the retry budget.
	ErrElementUnavailable = errors.New("controller: no media element available")
	// ErrConstruction wraps any other failure while building the graph.
	ErrConstruction = errors.New("controller: graph construction failed")
)

// State is the controller's position in its activation state machine.
type State int

const (
	Idle         State = iota // no graph, or bypassed
	Binding                   // locating the element and wiring the graph
	Active                    // graph wired and parameterized
	Reconnecting              // construction failed, retry scheduled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Binding:
		return "binding"
	case Active:
		return "active"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Element is the media element surface the controller drives.
type Element interface {
	graph.MediaElement
	ReadyState() media.ReadyState
	Paused() bool
	Play()
	CurrentTime() float64
	Seek(seconds float64)
}

// Status is a snapshot for status queries and diagnostics.
type Status struct {
	Active  bool   `json:"active"`
	State   string `json:"state"`
	Shelves bool   `json:"shelves"`
	Retries int    `json:"retries"`
}

// Options wires a Controller to its environment.
type Options struct {
	// NewContext creates a processing context. It is called lazily and
	// again only after the previous context was closed.
	NewContext func() (graph.Context, error)
	// Find returns the page's media element, or nil if there is none.
	Find func() Element

	Scheduler      Scheduler
	Retry          RetryPolicy
	RebuildDelay   time.Duration
	SweepInterval  time.Duration
	ReadyThreshold media.ReadyState
	// RebuildOnEQChange rebuilds an active graph built without shelves as
	// soon as a shelf gain becomes non-zero.
	RebuildOnEQChange bool
}

// Controller is the per-page processing graph owner.
type Controller struct {
	opts     Options
	settings settings.Settings
	state    State

	ctx     graph.Context
	source  *graph.MediaElementSourceNode
	element Element
	chain   *chain

	// Elements a different context already bound; skipped from then on.
	rejected map[Element]struct{}

	retries int
	pending Timer // rebuild or retry
	gen     uint64
	sweep   Timer
	closed  bool

	builds int // completed graph constructions
}

// New returns an idle controller with default settings.
func New(opts Options) (*Controller, error) {
	if opts.NewContext == nil || opts.Find == nil || opts.Scheduler == nil {
		return nil, errors.New("controller: NewContext, Find and Scheduler are required")
	}
	if opts.SweepInterval <= 0 {
		return nil, fmt.Errorf("controller: sweep interval must be positive, got %s", opts.SweepInterval)
	}
	return &Controller{
		opts:     opts,
		settings: settings.Defaults(),
		rejected: make(map[Element]struct{}),
	}, nil
}

// Start begins the periodic self-healing sweep.
func (c *Controller) Start() {
	if c.sweep == nil && !c.closed {
		c.sweep = c.opts.Scheduler.Every(c.opts.SweepInterval, c.Sweep)
	}
}

// Settings returns the merged settings snapshot.
func (c *Controller) Settings() settings.Settings {
	return c.settings
}

// Status reports whether the graph is active.
func (c *Controller) Status() Status {
	return Status{
		Active:  c.state == Active,
		State:   c.state.String(),
		Shelves: c.chain != nil && c.chain.hasShelves(),
		Retries: c.retries,
	}
}

// Update merges p over the current settings and drives the state machine.
// Turning processing off always wins immediately and bypasses. Turning it
// on, a forced reinit, or an update while the graph is not active tears
// down and rebuilds after RebuildDelay; otherwise gains change in place.
func (c *Controller) Update(p settings.Patch, forceReinit bool) {
	if c.closed {
		return
	}
	wasEnabled := c.settings.MasterEnabled
	c.settings = c.settings.Merge(p)
	c.retries = 0

	if !c.settings.MasterEnabled {
		c.cancelPending()
		c.deactivate()
		applog.Debugf("Controller: processing disabled, bypassing")
		return
	}

	params := ComputeParams(c.settings)
	eqRebuild := c.opts.RebuildOnEQChange && c.state == Active && !c.chain.hasShelves() && params.WantsShelves()
	if !wasEnabled || c.state != Active || forceReinit || eqRebuild {
		c.deactivate()
		c.state = Binding
		c.schedule(c.opts.RebuildDelay, c.build)
		applog.WithFields(applog.Fields{
			"force":   forceReinit,
			"enabled": !wasEnabled,
			"eq":      eqRebuild,
		}).Debug("Controller: rebuild scheduled")
		return
	}

	c.chain.apply(params)
}

// Sweep is the periodic self-healing check: when processing is wanted but
// not active it binds a ready element. It also moves an active graph onto
// a new element when the page swapped its player.
func (c *Controller) Sweep() {
	if c.closed || !c.settings.MasterEnabled || c.pending != nil {
		return
	}
	el := c.opts.Find()
	if el == nil || c.isRejected(el) || el.ReadyState() < c.opts.ReadyThreshold {
		return
	}
	if c.state == Active {
		if el == c.element {
			return
		}
		applog.Infof("Controller: media element changed, rebinding")
		c.deactivate()
	}
	c.retries = 0
	c.build()
}

// Close cancels timers, bypasses and closes the processing context. The
// controller ignores every call afterwards.
func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.cancelPending()
	if c.sweep != nil {
		c.sweep.Stop()
		c.sweep = nil
	}
	c.deactivate()
	c.closed = true
	if c.ctx != nil && c.ctx.State() != graph.StateClosed {
		return c.ctx.Close()
	}
	return nil
}

// build attempts one construction and takes the resulting transition.
func (c *Controller) build() {
	if c.closed || !c.settings.MasterEnabled || c.state == Active {
		return
	}
	c.state = Binding

	err := c.construct()
	switch {
	case err == nil:
		c.state = Active
		c.retries = 0
		c.builds++
		applog.Infof("Controller: processing active (shelves: %t)", c.chain.hasShelves())

	case errors.Is(err, ErrElementUnavailable):
		c.state = Idle
		applog.Debugf("Controller: %v, waiting for sweep", err)

	case errors.Is(err, graph.ErrAlreadyBound):
		c.state = Idle
		applog.Warnf("Controller: media element is bound to another context, leaving it alone: %v", err)

	default:
		c.bypass()
		delay, ok := c.opts.Retry.Next(c.retries)
		if !ok {
			c.state = Idle
			applog.Errorf("Controller: giving up after %d retries: %v", c.retries, err)
			return
		}
		c.retries++
		c.state = Reconnecting
		c.schedule(delay, c.build)
		applog.Warnf("Controller: %v, retry %d/%d in %s", err, c.retries, c.opts.Retry.MaxAttempts, delay)
	}
}

func (c *Controller) construct() error {
	el := c.opts.Find()
	if el == nil {
		return ErrElementUnavailable
	}
	if c.isRejected(el) {
		return fmt.Errorf("%w: element rejected earlier", graph.ErrAlreadyBound)
	}

	ctx, err := c.context()
	if err != nil {
		return err
	}
	if ctx.State() == graph.StateSuspended {
		c.opts.Scheduler.AfterFunc(0, func() {
			if err := ctx.Resume(); err != nil {
				applog.Warnf("Controller: resume context: %v", err)
			}
		})
	}

	if c.source == nil || c.element != el {
		if err := c.bind(ctx, el); err != nil {
			return err
		}
	}

	ch, err := buildChain(ctx, c.source, ComputeParams(c.settings))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConstruction, err)
	}
	c.chain = ch
	return nil
}

// bind creates the element's source node, keeping playback going.
func (c *Controller) bind(ctx graph.Context, el Element) error {
	if c.source != nil {
		c.source.Disconnect()
		c.source, c.element = nil, nil
	}

	wasPlaying := !el.Paused()
	at := el.CurrentTime()

	src, err := ctx.CreateMediaElementSource(el)
	if err != nil {
		if errors.Is(err, graph.ErrAlreadyBound) {
			c.rejected[el] = struct{}{}
			return err
		}
		return fmt.Errorf("%w: create source: %v", ErrConstruction, err)
	}
	c.source, c.element = src, el

	if wasPlaying && el.Paused() {
		el.Play()
	}
	if math.Abs(el.CurrentTime()-at) > 1e-3 {
		el.Seek(at)
	}
	return nil
}

// context returns the live processing context, creating one if needed.
func (c *Controller) context() (graph.Context, error) {
	if c.ctx != nil && c.ctx.State() != graph.StateClosed {
		return c.ctx, nil
	}
	ctx, err := c.opts.NewContext()
	if err != nil {
		return nil, fmt.Errorf("%w: create context: %v", ErrConstruction, err)
	}
	c.ctx = ctx
	c.source, c.element, c.chain = nil, nil, nil
	return ctx, nil
}

// deactivate tears the chain down and routes the source straight to the
// destination. It never fails; wiring errors are only logged.
func (c *Controller) deactivate() {
	if c.chain != nil {
		c.chain.disconnect()
		c.chain = nil
	}
	c.bypass()
	c.state = Idle
}

func (c *Controller) bypass() {
	if c.source == nil {
		return
	}
	c.source.Disconnect()
	if err := c.source.Connect(c.ctx.Destination(), 0, 0); err != nil {
		applog.Warnf("Controller: bypass: %v", err)
	}
}

func (c *Controller) isRejected(el Element) bool {
	_, ok := c.rejected[el]
	return ok
}

// schedule replaces the pending timer. Stale callbacks that already left
// their timer are discarded by the generation check.
func (c *Controller) schedule(d time.Duration, fn func()) {
	c.cancelPending()
	gen := c.gen
	c.pending = c.opts.Scheduler.AfterFunc(d, func() {
		if gen != c.gen || c.closed {
			return
		}
		c.pending = nil
		fn()
	})
}

func (c *Controller) cancelPending() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.gen++
}
