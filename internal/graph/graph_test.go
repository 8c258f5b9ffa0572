// SPDX-License-Identifier: MIT
package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 48000

// constElement plays a constant (DC) stereo signal.
type constElement struct {
	left, right float64
	owner       any
}

func (e *constElement) Claim(owner any) bool {
	if e.owner != nil {
		return false
	}
	e.owner = owner
	return true
}

func (e *constElement) Read(left, right []float64) int {
	for i := range left {
		left[i] = e.left
		right[i] = e.right
	}
	return len(left)
}

func newTestContext(t *testing.T) *AudioContext {
	t.Helper()
	ctx, err := NewAudioContext(Options{SampleRate: testSampleRate})
	require.NoError(t, err)
	return ctx
}

// renderFrames renders n frames and returns the last frame.
func renderFrames(ctx *AudioContext, n int) (float64, float64) {
	out := make([]float32, 2*n)
	ctx.Render(out)
	return float64(out[2*n-2]), float64(out[2*n-1])
}

func TestNewAudioContextRejectsBadRate(t *testing.T) {
	_, err := NewAudioContext(Options{})
	assert.Error(t, err)
}

func TestBypassPassesStereo(t *testing.T) {
	ctx := newTestContext(t)
	src, err := ctx.CreateMediaElementSource(&constElement{left: 0.25, right: -0.5})
	require.NoError(t, err)
	require.NoError(t, src.Connect(ctx.Destination(), 0, 0))

	l, r := renderFrames(ctx, RenderQuantum)
	assert.InDelta(t, 0.25, l, 1e-6)
	assert.InDelta(t, -0.5, r, 1e-6)
	assert.True(t, src.ConnectedTo(ctx.Destination()))
}

// buildMidSide wires the voice-removal topology and returns the two gains.
func buildMidSide(t *testing.T, ctx *AudioContext, el MediaElement) (*GainNode, *GainNode) {
	t.Helper()
	src, err := ctx.CreateMediaElementSource(el)
	require.NoError(t, err)
	splitter, err := ctx.CreateChannelSplitter(2)
	require.NoError(t, err)
	merger, err := ctx.CreateChannelMerger(2)
	require.NoError(t, err)

	newGain := func(v float64) *GainNode {
		g, err := ctx.CreateGain()
		require.NoError(t, err)
		g.Gain().SetValue(v)
		return g
	}
	midSum, sideSum, sideInv := newGain(0.5), newGain(0.5), newGain(-1)
	midGain, sideGain := newGain(1), newGain(1)

	require.NoError(t, splitter.Connect(midSum, 0, 0))
	require.NoError(t, splitter.Connect(midSum, 1, 0))
	require.NoError(t, midSum.Connect(midGain, 0, 0))
	require.NoError(t, splitter.Connect(sideSum, 0, 0))
	require.NoError(t, splitter.Connect(sideInv, 1, 0))
	require.NoError(t, sideInv.Connect(sideSum, 0, 0))
	require.NoError(t, sideSum.Connect(sideGain, 0, 0))
	for _, g := range []*GainNode{midGain, sideGain} {
		require.NoError(t, g.Connect(merger, 0, 0))
		require.NoError(t, g.Connect(merger, 0, 1))
	}
	require.NoError(t, src.Connect(splitter, 0, 0))
	require.NoError(t, merger.Connect(ctx.Destination(), 0, 0))
	return midGain, sideGain
}

func TestMidSideMatrix(t *testing.T) {
	tests := []struct {
		name       string
		left       float64
		right      float64
		mid, side  float64
		wantOutput float64
	}{
		{"unity recombines to left", 0.6, 0.2, 1, 1, 0.6},
		{"mid muted keeps side only", 0.6, 0.2, 0, 1, 0.2},
		{"side muted keeps mid only", 0.6, 0.2, 1, 0, 0.4},
		{"scaled", 0.6, 0.2, 0.5, 2, 0.2 + 0.4},
		{"centred voice cancels", 0.3, 0.3, 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext(t)
			midGain, sideGain := buildMidSide(t, ctx, &constElement{left: tt.left, right: tt.right})
			midGain.Gain().SetValue(tt.mid)
			sideGain.Gain().SetValue(tt.side)

			l, r := renderFrames(ctx, RenderQuantum)
			// Both output channels carry the same mid+side signal.
			assert.InDelta(t, tt.wantOutput, l, 1e-6)
			assert.InDelta(t, tt.wantOutput, r, 1e-6)
		})
	}
}

func TestAlreadyBound(t *testing.T) {
	el := &constElement{}
	ctx := newTestContext(t)
	_, err := ctx.CreateMediaElementSource(el)
	require.NoError(t, err)

	_, err = ctx.CreateMediaElementSource(el)
	assert.ErrorIs(t, err, ErrAlreadyBound)

	other := newTestContext(t)
	_, err = other.CreateMediaElementSource(el)
	assert.ErrorIs(t, err, ErrAlreadyBound)
}

func TestClosedContext(t *testing.T) {
	ctx := newTestContext(t)
	g, err := ctx.CreateGain()
	require.NoError(t, err)
	require.NoError(t, ctx.Close())

	assert.Equal(t, StateClosed, ctx.State())
	assert.ErrorIs(t, ctx.Close(), ErrContextClosed)
	assert.ErrorIs(t, ctx.Resume(), ErrContextClosed)
	_, err = ctx.CreateGain()
	assert.ErrorIs(t, err, ErrContextClosed)
	_, err = ctx.CreateBiquadFilter()
	assert.ErrorIs(t, err, ErrContextClosed)
	assert.ErrorIs(t, g.Connect(ctx.Destination(), 0, 0), ErrContextClosed)

	out := []float32{1, 1, 1, 1}
	ctx.Render(out)
	assert.Equal(t, []float32{0, 0, 0, 0}, out)
}

func TestSuspendedRendersSilence(t *testing.T) {
	ctx, err := NewAudioContext(Options{SampleRate: testSampleRate, StartSuspended: true})
	require.NoError(t, err)
	src, err := ctx.CreateMediaElementSource(&constElement{left: 1, right: 1})
	require.NoError(t, err)
	require.NoError(t, src.Connect(ctx.Destination(), 0, 0))

	l, _ := renderFrames(ctx, 64)
	assert.Zero(t, l)

	require.NoError(t, ctx.Resume())
	assert.Equal(t, StateRunning, ctx.State())
	l, _ = renderFrames(ctx, 64)
	assert.InDelta(t, 1, l, 1e-6)

	require.NoError(t, ctx.Suspend())
	assert.Equal(t, StateSuspended, ctx.State())
}

func TestConnectErrors(t *testing.T) {
	ctx := newTestContext(t)
	g, _ := ctx.CreateGain()
	merger, _ := ctx.CreateChannelMerger(2)

	assert.ErrorIs(t, g.Connect(merger, 1, 0), ErrIndexSize)
	assert.ErrorIs(t, g.Connect(merger, 0, 2), ErrIndexSize)
	assert.Error(t, g.Connect(nil, 0, 0))

	other := newTestContext(t)
	assert.ErrorIs(t, g.Connect(other.Destination(), 0, 0), ErrInvalidNode)

	_, err := ctx.CreateChannelSplitter(3)
	assert.ErrorIs(t, err, ErrIndexSize)
	_, err = ctx.CreateChannelMerger(0)
	assert.ErrorIs(t, err, ErrIndexSize)
}

func TestDisconnectRemovesAllOutputs(t *testing.T) {
	ctx := newTestContext(t)
	src, _ := ctx.CreateMediaElementSource(&constElement{left: 1, right: 1})
	g, _ := ctx.CreateGain()
	require.NoError(t, src.Connect(g, 0, 0))
	require.NoError(t, src.Connect(ctx.Destination(), 0, 0))
	require.NoError(t, src.Connect(ctx.Destination(), 0, 0)) // duplicate ignored
	assert.Len(t, src.Outputs(), 2)

	src.Disconnect()
	assert.Empty(t, src.Outputs())
	assert.False(t, src.ConnectedTo(ctx.Destination()))

	l, _ := renderFrames(ctx, RenderQuantum)
	assert.Zero(t, l)
}

func TestRenderAcrossQuantumBoundaries(t *testing.T) {
	ctx := newTestContext(t)
	src, _ := ctx.CreateMediaElementSource(&constElement{left: 0.5, right: 0.5})
	require.NoError(t, src.Connect(ctx.Destination(), 0, 0))

	for _, frames := range []int{100, 100, 57, 300} {
		out := make([]float32, 2*frames)
		ctx.Render(out)
		for i, v := range out {
			if math.Abs(float64(v)-0.5) > 1e-6 {
				t.Fatalf("sample %d of %d-frame render = %f", i, frames, v)
			}
		}
	}
}

func TestShelfFilters(t *testing.T) {
	tests := []struct {
		name   string
		typ    FilterType
		freq   float64
		gainDB float64
		wantDC float64
	}{
		// DC sits fully inside a low shelf and fully outside a high shelf.
		{"low shelf boost", Lowshelf, 200, 6, math.Pow(10, 6.0/20)},
		{"low shelf cut", Lowshelf, 200, -12, math.Pow(10, -12.0/20)},
		{"low shelf flat", Lowshelf, 200, 0, 1},
		{"high shelf boost", Highshelf, 4000, 6, 1},
		{"lowpass", Lowpass, 350, 0, 1},
		{"highpass", Highpass, 350, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext(t)
			src, _ := ctx.CreateMediaElementSource(&constElement{left: 0.1, right: 0.1})
			f, err := ctx.CreateBiquadFilter()
			require.NoError(t, err)
			f.SetType(tt.typ)
			f.Frequency().SetValue(tt.freq)
			f.Gain().SetValue(tt.gainDB)
			require.NoError(t, src.Connect(f, 0, 0))
			require.NoError(t, f.Connect(ctx.Destination(), 0, 0))

			// Let the transient settle.
			l, r := renderFrames(ctx, testSampleRate/2)
			assert.InDelta(t, 0.1*tt.wantDC, l, 1e-4)
			assert.InDelta(t, l, r, 1e-9)
			assert.Equal(t, tt.typ, f.Type())
		})
	}
}

func TestFanOutRendersOnce(t *testing.T) {
	ctx := newTestContext(t)
	src, _ := ctx.CreateMediaElementSource(&constElement{left: 0.2, right: 0.4})
	splitter, _ := ctx.CreateChannelSplitter(2)
	merger, _ := ctx.CreateChannelMerger(2)
	f, _ := ctx.CreateBiquadFilter()
	f.SetType(Lowshelf)
	f.Gain().SetValue(0)

	// A stateful node feeding both merger inputs must produce identical channels.
	require.NoError(t, src.Connect(splitter, 0, 0))
	require.NoError(t, splitter.Connect(f, 0, 0))
	require.NoError(t, f.Connect(merger, 0, 0))
	require.NoError(t, f.Connect(merger, 0, 1))
	require.NoError(t, merger.Connect(ctx.Destination(), 0, 0))

	out := make([]float32, 2*RenderQuantum)
	ctx.Render(out)
	for i := 0; i < RenderQuantum; i++ {
		require.Equal(t, out[2*i], out[2*i+1], "frame %d", i)
	}
	assert.InDelta(t, 0.2, float64(out[2*RenderQuantum-2]), 1e-3)
}

func TestNodeMetadata(t *testing.T) {
	ctx := newTestContext(t)
	splitter, _ := ctx.CreateChannelSplitter(2)
	merger, _ := ctx.CreateChannelMerger(2)
	f, _ := ctx.CreateBiquadFilter()

	assert.Equal(t, "channel-splitter", splitter.Kind())
	assert.Equal(t, 2, splitter.NumberOfOutputs())
	assert.Equal(t, 2, merger.NumberOfInputs())
	assert.Equal(t, "biquad", f.Kind())
	assert.Equal(t, Lowpass, f.Type())
	assert.Equal(t, 350.0, f.Frequency().Value())
	assert.Equal(t, "lowshelf", Lowshelf.String())
	assert.Equal(t, "running", ctx.State().String())
}
