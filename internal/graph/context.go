// SPDX-License-Identifier: MIT
/*
Package graph implements a small pull-rendered audio node graph modelled on
the Web Audio API: a processing context owns nodes (media element source,
gain, channel splitter, channel merger, biquad filter, destination) that are
wired with Connect/Disconnect and rendered one quantum at a time.

Thread Safety:
- Graph mutation, parameter changes and Render all hold the context lock
- Render is called from the output driver's callback; it never allocates
  once the graph is wired
- Each node renders at most once per quantum, so fan-out is cheap
*/
package graph

import (
	"errors"
	"fmt"
	"sync"
)

// RenderQuantum is the number of frames rendered per graph pass.
const RenderQuantum = 128

var (
	// ErrContextClosed is returned by any operation on a closed context.
	ErrContextClosed = errors.New("graph: context is closed")
	// ErrAlreadyBound is returned when a media element already feeds a
	// source node, in this or any other context. Binding is irreversible.
	ErrAlreadyBound = errors.New("graph: media element already bound to a source node")
	// ErrIndexSize is returned for out-of-range input or output indices.
	ErrIndexSize = errors.New("graph: input or output index out of range")
	// ErrInvalidNode is returned when connecting nodes of different contexts.
	ErrInvalidNode = errors.New("graph: node belongs to a different context")
)

// ContextState mirrors AudioContext.state.
type ContextState int

const (
	StateSuspended ContextState = iota
	StateRunning
	StateClosed
)

func (s ContextState) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MediaElement is the part of a playing media element a source node needs.
type MediaElement interface {
	// Claim records owner as the element's single consumer. It returns false
	// if the element was claimed before.
	Claim(owner any) bool
	// Read fills left and right with the next frames and returns how many
	// frames carried audio. Paused or starved elements yield 0.
	Read(left, right []float64) int
}

// Context is the processing-context surface the controller relies on.
// *AudioContext implements it; tests wrap it to inject failures.
type Context interface {
	State() ContextState
	Resume() error
	Close() error
	SampleRate() float64
	Destination() Node
	CreateMediaElementSource(el MediaElement) (*MediaElementSourceNode, error)
	CreateGain() (*GainNode, error)
	CreateChannelSplitter(outputs int) (Node, error)
	CreateChannelMerger(inputs int) (Node, error)
	CreateBiquadFilter() (*BiquadFilterNode, error)
}

// Options configures a new AudioContext.
type Options struct {
	SampleRate     float64
	StartSuspended bool // Mimic autoplay policies that start contexts suspended.
}

// AudioContext owns a node graph and renders it.
type AudioContext struct {
	mu         sync.Mutex
	sampleRate float64
	state      ContextState
	quantum    uint64
	dest       *DestinationNode

	// Rendered frames not yet handed out by Render.
	leftover [2][]float64
	offset   int
}

var _ Context = (*AudioContext)(nil)

// NewAudioContext creates a running (or suspended) context.
func NewAudioContext(opts Options) (*AudioContext, error) {
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("graph: sample rate must be positive, got %f", opts.SampleRate)
	}
	c := &AudioContext{
		sampleRate: opts.SampleRate,
		state:      StateRunning,
		offset:     RenderQuantum,
	}
	if opts.StartSuspended {
		c.state = StateSuspended
	}
	c.dest = &DestinationNode{}
	c.dest.init(c, c.dest, "destination", 1, 0, &busSpec{mode: modeExplicit, channels: 2, speakers: true})
	c.leftover[0] = make([]float64, RenderQuantum)
	c.leftover[1] = make([]float64, RenderQuantum)
	return c, nil
}

// SampleRate returns the context sample rate in Hz.
func (c *AudioContext) SampleRate() float64 {
	return c.sampleRate
}

// State returns the current context state.
func (c *AudioContext) State() ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resume starts rendering a suspended context.
func (c *AudioContext) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrContextClosed
	}
	c.state = StateRunning
	return nil
}

// Suspend pauses rendering; Render produces silence until Resume.
func (c *AudioContext) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrContextClosed
	}
	c.state = StateSuspended
	return nil
}

// Close permanently stops the context. Element bindings are not released.
func (c *AudioContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrContextClosed
	}
	c.state = StateClosed
	return nil
}

// Destination returns the final node of the graph.
func (c *AudioContext) Destination() Node {
	return c.dest
}

// Render fills out with interleaved stereo samples. A suspended or closed
// context renders silence. len(out) must be even.
func (c *AudioContext) Render(out []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	frames := len(out) / 2
	if c.state != StateRunning {
		clear(out)
		return
	}
	for i := 0; i < frames; i++ {
		if c.offset == RenderQuantum {
			c.renderQuantum()
		}
		out[2*i] = float32(c.leftover[0][c.offset])
		out[2*i+1] = float32(c.leftover[1][c.offset])
		c.offset++
	}
}

// renderQuantum pulls one quantum through the graph. Caller holds c.mu.
func (c *AudioContext) renderQuantum() {
	c.quantum++
	c.dest.pull(c.quantum)
	mix := &c.dest.ins[0]
	copy(c.leftover[0], mix.ch[0])
	copy(c.leftover[1], mix.ch[1])
	c.offset = 0
}

func (c *AudioContext) checkOpen() error {
	if c.state == StateClosed {
		return ErrContextClosed
	}
	return nil
}

// CreateMediaElementSource binds el to a new source node. Binding is a
// one-time operation per element.
func (c *AudioContext) CreateMediaElementSource(el MediaElement) (*MediaElementSourceNode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if el == nil {
		return nil, errors.New("graph: nil media element")
	}
	if !el.Claim(c) {
		return nil, ErrAlreadyBound
	}
	n := &MediaElementSourceNode{element: el}
	n.init(c, n, "media-element-source", 0, 1, nil)
	n.outs[0].setChannels(2)
	n.proc = n.process
	return n, nil
}

// CreateGain returns a gain node with gain 1.
func (c *AudioContext) CreateGain() (*GainNode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	n := &GainNode{}
	n.init(c, n, "gain", 1, 1, &busSpec{mode: modeMax, speakers: true})
	n.gain = newParam(c, 1)
	n.proc = n.process
	return n, nil
}

// CreateChannelSplitter returns a splitter with one mono output per channel.
func (c *AudioContext) CreateChannelSplitter(outputs int) (Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if outputs < 1 || outputs > 2 {
		return nil, fmt.Errorf("%w: splitter outputs %d", ErrIndexSize, outputs)
	}
	n := &splitterNode{}
	n.init(c, n, "channel-splitter", 1, outputs, &busSpec{mode: modeExplicit, channels: outputs})
	for i := range n.outs {
		n.outs[i].setChannels(1)
	}
	n.proc = n.process
	return n, nil
}

// CreateChannelMerger returns a merger whose output channel i is input i
// down-mixed to mono.
func (c *AudioContext) CreateChannelMerger(inputs int) (Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if inputs < 1 || inputs > 2 {
		return nil, fmt.Errorf("%w: merger inputs %d", ErrIndexSize, inputs)
	}
	n := &mergerNode{}
	n.init(c, n, "channel-merger", inputs, 1, &busSpec{mode: modeExplicit, channels: 1, speakers: true})
	n.outs[0].setChannels(inputs)
	n.proc = n.process
	return n, nil
}

// CreateBiquadFilter returns a lowpass filter at 350 Hz, Q 1, gain 0 dB.
func (c *AudioContext) CreateBiquadFilter() (*BiquadFilterNode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	n := &BiquadFilterNode{filterType: Lowpass, dirty: true}
	n.init(c, n, "biquad", 1, 1, &busSpec{mode: modeMax, speakers: true})
	n.frequency = newParam(c, 350)
	n.q = newParam(c, 1)
	n.gainDB = newParam(c, 0)
	n.proc = n.process
	return n, nil
}
