// SPDX-License-Identifier: MIT
package controller

import (
	"fmt"

	"voxcut/internal/graph"
)

// chain is one wired mid/side processing graph between a source and the
// destination:
//
//	splitter L,R        -> midSum (0.5)  -> midGain                         -> merger 0 and 1
//	splitter L, R*(-1)  -> sideSum (0.5) -> sideGain [-> lowShelf -> highShelf] -> merger 0 and 1
//	merger              -> destination
//
// Both merger inputs receive mid+side, so the output is the same on both
// channels.
type chain struct {
	splitter graph.Node
	merger   graph.Node
	midSum   *graph.GainNode
	sideSum  *graph.GainNode
	sideInv  *graph.GainNode
	midGain  *graph.GainNode
	sideGain *graph.GainNode

	// nil unless shelves were wanted when the chain was built
	lowShelf  *graph.BiquadFilterNode
	highShelf *graph.BiquadFilterNode
}

// buildChain creates the processing nodes, routes src through them and
// applies p. On failure every node created so far is disconnected and src
// is left disconnected.
func buildChain(ctx graph.Context, src graph.Node, p Params) (ch *chain, err error) {
	ch = &chain{}
	defer func() {
		if err != nil {
			ch.disconnect()
			ch = nil
		}
	}()

	if ch.splitter, err = ctx.CreateChannelSplitter(2); err != nil {
		return ch, fmt.Errorf("create splitter: %w", err)
	}
	if ch.merger, err = ctx.CreateChannelMerger(2); err != nil {
		return ch, fmt.Errorf("create merger: %w", err)
	}
	for _, g := range []**graph.GainNode{&ch.midSum, &ch.sideSum, &ch.sideInv, &ch.midGain, &ch.sideGain} {
		if *g, err = ctx.CreateGain(); err != nil {
			return ch, fmt.Errorf("create gain: %w", err)
		}
	}
	ch.midSum.Gain().SetValue(0.5)
	ch.sideSum.Gain().SetValue(0.5)
	ch.sideInv.Gain().SetValue(-1)

	if p.WantsShelves() {
		if ch.lowShelf, err = newShelf(ctx, graph.Lowshelf, LowShelfFrequency); err != nil {
			return ch, err
		}
		if ch.highShelf, err = newShelf(ctx, graph.Highshelf, HighShelfFrequency); err != nil {
			return ch, err
		}
	}

	src.Disconnect()
	side := graph.Node(ch.sideGain)
	if ch.lowShelf != nil {
		side = ch.highShelf
	}
	links := []link{
		{src, ch.splitter, 0, 0},
		{ch.splitter, ch.midSum, 0, 0},
		{ch.splitter, ch.midSum, 1, 0},
		{ch.splitter, ch.sideSum, 0, 0},
		{ch.splitter, ch.sideInv, 1, 0},
		{ch.sideInv, ch.sideSum, 0, 0},
		{ch.midSum, ch.midGain, 0, 0},
		{ch.sideSum, ch.sideGain, 0, 0},
	}
	if ch.lowShelf != nil {
		links = append(links, link{ch.sideGain, ch.lowShelf, 0, 0}, link{ch.lowShelf, ch.highShelf, 0, 0})
	}
	links = append(links,
		link{ch.midGain, ch.merger, 0, 0},
		link{ch.midGain, ch.merger, 0, 1},
		link{side, ch.merger, 0, 0},
		link{side, ch.merger, 0, 1},
		link{ch.merger, ctx.Destination(), 0, 0},
	)
	for _, l := range links {
		if err = l.from.Connect(l.to, l.output, l.input); err != nil {
			src.Disconnect()
			return ch, fmt.Errorf("connect %s → %s: %w", l.from.Kind(), l.to.Kind(), err)
		}
	}

	ch.apply(p)
	return ch, nil
}

type link struct {
	from, to      graph.Node
	output, input int
}

func newShelf(ctx graph.Context, t graph.FilterType, freq float64) (*graph.BiquadFilterNode, error) {
	f, err := ctx.CreateBiquadFilter()
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", t, err)
	}
	f.SetType(t)
	f.Frequency().SetValue(freq)
	return f, nil
}

// apply sets gains in place; topology is untouched.
func (ch *chain) apply(p Params) {
	ch.midGain.Gain().SetValue(p.Mid)
	ch.sideGain.Gain().SetValue(p.Side)
	if ch.lowShelf != nil {
		ch.lowShelf.Gain().SetValue(p.Bass)
		ch.highShelf.Gain().SetValue(p.Clarity)
	}
}

func (ch *chain) hasShelves() bool {
	return ch.lowShelf != nil
}

// nodes lists the created processing nodes, skipping any never built.
func (ch *chain) nodes() []graph.Node {
	var out []graph.Node
	if ch.splitter != nil {
		out = append(out, ch.splitter)
	}
	if ch.merger != nil {
		out = append(out, ch.merger)
	}
	for _, g := range []*graph.GainNode{ch.midSum, ch.sideSum, ch.sideInv, ch.midGain, ch.sideGain} {
		if g != nil {
			out = append(out, g)
		}
	}
	for _, f := range []*graph.BiquadFilterNode{ch.lowShelf, ch.highShelf} {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

func (ch *chain) disconnect() {
	for _, n := range ch.nodes() {
		n.Disconnect()
	}
}
