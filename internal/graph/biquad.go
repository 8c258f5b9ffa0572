// SPDX-License-Identifier: MIT
package graph

import "math"

// FilterType selects the biquad response.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Lowshelf
	Highshelf
)

func (t FilterType) String() string {
	switch t {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Lowshelf:
		return "lowshelf"
	case Highshelf:
		return "highshelf"
	default:
		return "unknown"
	}
}

// biquadState is the Direct Form I history of one channel.
type biquadState struct {
	x1, x2 float64
	y1, y2 float64
}

// BiquadFilterNode is a second-order IIR filter. Coefficients follow the
// RBJ audio EQ cookbook; shelves use a slope of 1.
type BiquadFilterNode struct {
	node
	filterType FilterType
	frequency  *Param
	q          *Param
	gainDB     *Param

	// Normalized coefficients (a0 == 1) and the values they were built from.
	b0, b1, b2, a1, a2  float64
	lastF, lastQ, lastG float64
	dirty               bool

	state [2]biquadState
}

// Type returns the response type.
func (n *BiquadFilterNode) Type() FilterType {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	return n.filterType
}

// SetType changes the response type.
func (n *BiquadFilterNode) SetType(t FilterType) {
	n.ctx.mu.Lock()
	n.filterType = t
	n.dirty = true
	n.ctx.mu.Unlock()
}

// Frequency is the corner (or cutoff) frequency in Hz.
func (n *BiquadFilterNode) Frequency() *Param { return n.frequency }

// Q is the quality factor, unused by the shelves.
func (n *BiquadFilterNode) Q() *Param { return n.q }

// Gain is the shelf gain in dB, unused by lowpass and highpass.
func (n *BiquadFilterNode) Gain() *Param { return n.gainDB }

func (n *BiquadFilterNode) updateCoefficients() {
	f, q, g := n.frequency.value, n.q.value, n.gainDB.value
	if !n.dirty && f == n.lastF && q == n.lastQ && g == n.lastG {
		return
	}
	n.lastF, n.lastQ, n.lastG = f, q, g
	n.dirty = false

	nyquist := n.ctx.sampleRate / 2
	f = math.Max(1, math.Min(f, nyquist*0.999))
	if q <= 0 {
		q = 1e-4
	}

	w0 := 2 * math.Pi * f / n.ctx.sampleRate
	cosw0, sinw0 := math.Cos(w0), math.Sin(w0)

	var b0, b1, b2, a0, a1, a2 float64
	switch n.filterType {
	case Lowpass:
		alpha := sinw0 / (2 * q)
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case Highpass:
		alpha := sinw0 / (2 * q)
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case Lowshelf:
		A := math.Pow(10, g/40)
		alpha := sinw0 / 2 * math.Sqrt2
		k := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) - (A-1)*cosw0 + k)
		b1 = 2 * A * ((A - 1) - (A+1)*cosw0)
		b2 = A * ((A + 1) - (A-1)*cosw0 - k)
		a0 = (A + 1) + (A-1)*cosw0 + k
		a1 = -2 * ((A - 1) + (A+1)*cosw0)
		a2 = (A + 1) + (A-1)*cosw0 - k
	case Highshelf:
		A := math.Pow(10, g/40)
		alpha := sinw0 / 2 * math.Sqrt2
		k := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) + (A-1)*cosw0 + k)
		b1 = -2 * A * ((A - 1) + (A+1)*cosw0)
		b2 = A * ((A + 1) + (A-1)*cosw0 - k)
		a0 = (A + 1) - (A-1)*cosw0 + k
		a1 = 2 * ((A - 1) - (A+1)*cosw0)
		a2 = (A + 1) - (A-1)*cosw0 - k
	}

	n.b0, n.b1, n.b2 = b0/a0, b1/a0, b2/a0
	n.a1, n.a2 = a1/a0, a2/a0
}

func (n *BiquadFilterNode) process() {
	n.updateCoefficients()
	in, out := &n.ins[0], &n.outs[0]
	out.setChannels(in.n)
	for c := 0; c < in.n; c++ {
		s := &n.state[c]
		src, dst := in.ch[c], out.ch[c]
		for i, x := range src {
			y := n.b0*x + n.b1*s.x1 + n.b2*s.x2 - n.a1*s.y1 - n.a2*s.y2
			s.x2, s.x1 = s.x1, x
			s.y2, s.y1 = s.y1, y
			dst[i] = y
		}
	}
}
