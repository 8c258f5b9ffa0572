// SPDX-License-Identifier: MIT
package graph

import "gonum.org/v1/gonum/floats"

// Param is a single automatable value, read once per quantum.
type Param struct {
	ctx   *AudioContext
	value float64
}

func newParam(ctx *AudioContext, v float64) *Param {
	return &Param{ctx: ctx, value: v}
}

// Value returns the current value.
func (p *Param) Value() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.value
}

// SetValue changes the value; it takes effect from the next quantum.
func (p *Param) SetValue(v float64) {
	p.ctx.mu.Lock()
	p.value = v
	p.ctx.mu.Unlock()
}

// MediaElementSourceNode plays a bound media element into the graph as
// a stereo output.
type MediaElementSourceNode struct {
	node
	element MediaElement
}

// Element returns the media element this source is bound to.
func (n *MediaElementSourceNode) Element() MediaElement {
	return n.element
}

func (n *MediaElementSourceNode) process() {
	out := &n.outs[0]
	got := n.element.Read(out.ch[0], out.ch[1])
	if got < RenderQuantum {
		clear(out.ch[0][got:])
		clear(out.ch[1][got:])
	}
}

// GainNode multiplies every input channel by its gain.
type GainNode struct {
	node
	gain *Param
}

// Gain returns the gain parameter (linear).
func (n *GainNode) Gain() *Param {
	return n.gain
}

func (n *GainNode) process() {
	in, out := &n.ins[0], &n.outs[0]
	out.setChannels(in.n)
	g := n.gain.value
	for i := 0; i < in.n; i++ {
		floats.ScaleTo(out.ch[i], g, in.ch[i])
	}
}

// splitterNode routes input channel i to mono output i.
type splitterNode struct {
	node
}

func (n *splitterNode) process() {
	in := &n.ins[0]
	for i := range n.outs {
		copy(n.outs[i].ch[0], in.ch[i])
	}
}

// mergerNode builds output channel i from mono input i.
type mergerNode struct {
	node
}

func (n *mergerNode) process() {
	out := &n.outs[0]
	for i := range n.ins {
		copy(out.ch[i], n.ins[i].ch[0])
	}
}

// DestinationNode is the stereo sink of a context. Its mixed input is what
// Render hands to the output driver.
type DestinationNode struct {
	node
}
