// SPDX-License-Identifier: MIT
package graph

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Node is a vertex of the processing graph.
type Node interface {
	// Connect routes output of this node into input of dst.
	Connect(dst Node, output, input int) error
	// Disconnect removes every outgoing connection of this node.
	Disconnect()
	// Outputs returns the distinct nodes this node feeds.
	Outputs() []Node
	// ConnectedTo reports whether any output of this node feeds dst.
	ConnectedTo(dst Node) bool
	// Kind names the node type, e.g. "gain" or "biquad".
	Kind() string
	NumberOfInputs() int
	NumberOfOutputs() int

	base() *node
}

type countMode int

const (
	modeMax      countMode = iota // channels = widest connected source
	modeExplicit                  // channels = busSpec.channels
)

// busSpec describes how an input bus mixes its connections.
type busSpec struct {
	mode     countMode
	channels int
	speakers bool // speakers up/down-mix; false means discrete
}

// bus is a set of channel buffers, one quantum long.
type bus struct {
	ch [][]float64
	n  int // active channels
}

func newBus() bus {
	return bus{ch: [][]float64{make([]float64, RenderQuantum), make([]float64, RenderQuantum)}, n: 1}
}

func (b *bus) setChannels(n int) {
	b.n = n
}

func (b *bus) zero() {
	for _, c := range b.ch {
		clear(c)
	}
}

// mixFrom adds src into b according to the speakers/discrete rules for
// mono and stereo buses.
func (b *bus) mixFrom(src *bus, speakers bool) {
	switch {
	case src.n == b.n:
		for i := 0; i < b.n; i++ {
			floats.Add(b.ch[i], src.ch[i])
		}
	case src.n == 1 && b.n == 2:
		floats.Add(b.ch[0], src.ch[0])
		if speakers {
			floats.Add(b.ch[1], src.ch[0])
		}
	case src.n == 2 && b.n == 1:
		if speakers {
			floats.AddScaled(b.ch[0], 0.5, src.ch[0])
			floats.AddScaled(b.ch[0], 0.5, src.ch[1])
		} else {
			floats.Add(b.ch[0], src.ch[0])
		}
	}
}

type connection struct {
	node   *node
	output int
	input  int
}

// node carries the wiring and buffers shared by every node type.
type node struct {
	ctx    *AudioContext
	self   Node
	kind   string
	spec   *busSpec
	ins    []bus
	outs   []bus
	out    []connection   // outgoing
	in     [][]connection // incoming, per input
	stamp  uint64
	proc   func()
	nInput int
}

func (n *node) init(ctx *AudioContext, self Node, kind string, inputs, outputs int, spec *busSpec) {
	n.ctx = ctx
	n.self = self
	n.kind = kind
	n.spec = spec
	n.nInput = inputs
	n.ins = make([]bus, inputs)
	n.in = make([][]connection, inputs)
	for i := range n.ins {
		n.ins[i] = newBus()
	}
	n.outs = make([]bus, outputs)
	for i := range n.outs {
		n.outs[i] = newBus()
	}
}

func (n *node) base() *node { return n }

// Kind implements Node.
func (n *node) Kind() string { return n.kind }

// NumberOfInputs implements Node.
func (n *node) NumberOfInputs() int { return n.nInput }

// NumberOfOutputs implements Node.
func (n *node) NumberOfOutputs() int { return len(n.outs) }

// Connect implements Node.
func (n *node) Connect(dst Node, output, input int) error {
	if dst == nil {
		return fmt.Errorf("graph: connect %s to nil node", n.kind)
	}
	d := dst.base()
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	if err := n.ctx.checkOpen(); err != nil {
		return err
	}
	if d.ctx != n.ctx {
		return ErrInvalidNode
	}
	if output < 0 || output >= len(n.outs) {
		return fmt.Errorf("%w: %s has no output %d", ErrIndexSize, n.kind, output)
	}
	if input < 0 || input >= d.nInput {
		return fmt.Errorf("%w: %s has no input %d", ErrIndexSize, d.kind, input)
	}
	for _, c := range n.out {
		if c.node == d && c.output == output && c.input == input {
			return nil // duplicate connections are ignored
		}
	}
	n.out = append(n.out, connection{node: d, output: output, input: input})
	d.in[input] = append(d.in[input], connection{node: n, output: output, input: input})
	return nil
}

// Disconnect implements Node.
func (n *node) Disconnect() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	for _, c := range n.out {
		kept := c.node.in[c.input][:0]
		for _, ic := range c.node.in[c.input] {
			if ic.node != n {
				kept = append(kept, ic)
			}
		}
		c.node.in[c.input] = kept
	}
	n.out = nil
}

// Outputs implements Node.
func (n *node) Outputs() []Node {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	var nodes []Node
	seen := make(map[*node]bool)
	for _, c := range n.out {
		if !seen[c.node] {
			seen[c.node] = true
			nodes = append(nodes, c.node.self)
		}
	}
	return nodes
}

// ConnectedTo implements Node.
func (n *node) ConnectedTo(dst Node) bool {
	if dst == nil {
		return false
	}
	d := dst.base()
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	for _, c := range n.out {
		if c.node == d {
			return true
		}
	}
	return false
}

// pull renders this node for quantum q, rendering its sources first.
// Caller holds the context lock.
func (n *node) pull(q uint64) {
	if n.stamp == q {
		return
	}
	// Stamp first so a cycle renders from last quantum's buffers.
	n.stamp = q
	for i := range n.ins {
		n.mixInput(i, q)
	}
	if n.proc != nil {
		n.proc()
	}
}

func (n *node) mixInput(i int, q uint64) {
	b := &n.ins[i]
	b.zero()

	channels := 1
	if n.spec != nil && n.spec.mode == modeExplicit {
		channels = n.spec.channels
	}
	for _, c := range n.in[i] {
		c.node.pull(q)
		if n.spec == nil || n.spec.mode == modeMax {
			if src := c.node.outs[c.output].n; src > channels {
				channels = src
			}
		}
	}
	b.setChannels(channels)

	speakers := n.spec != nil && n.spec.speakers
	for _, c := range n.in[i] {
		b.mixFrom(&c.node.outs[c.output], speakers)
	}
}
