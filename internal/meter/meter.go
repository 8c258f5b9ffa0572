// SPDX-License-Identifier: MIT
/*
Package meter measures what the listener hears. It keeps the latest window
of the page output and reports the level of the speech band next to the
overall level, which is how far the center channel has been pulled down.

Thread Safety:
- Write runs on the audio thread and only copies into a pre-allocated ring
- Read analyses a snapshot under its own lock, so it never stalls Write
  for the length of an FFT
*/
package meter

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	applog "voxcut/internal/log"
	"voxcut/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	// Speech band edges in Hz.
	VoiceLow  = 300.0
	VoiceHigh = 3400.0

	// Floor is reported for silence.
	Floor = -120.0

	// DefaultSize is the analysis window in frames.
	DefaultSize = 2048
)

// Reading is one analysis of the latest window. Levels are mean-square
// power in dB relative to full scale: a full-scale sine reads -3 dB.
type Reading struct {
	VoiceBandDB float64
	TotalDB     float64
}

// Suppression is how far the speech band sits below the overall level.
func (r Reading) Suppression() float64 {
	return r.TotalDB - r.VoiceBandDB
}

// Meter holds the latest window of mono output.
type Meter struct {
	size       int
	sampleRate float64
	fft        *fourier.FFT
	window     []float64
	windowSum  float64 // sum of squared coefficients

	mu   sync.Mutex
	ring []float64
	pos  int

	readMu sync.Mutex
	input  []float64
	coeffs []complex128
}

// New returns a meter analysing size frames at sampleRate.
func New(size int, sampleRate float64) (*Meter, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("meter size must be a power of 2, got %d", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1
	}
	window.Hann(coeffs)
	var sum float64
	for _, w := range coeffs {
		sum += w * w
	}

	return &Meter{
		size:       size,
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(size),
		window:     coeffs,
		windowSum:  sum,
		ring:       make([]float64, size),
		input:      make([]float64, size),
		coeffs:     make([]complex128, size/2+1),
	}, nil
}

// Write appends interleaved stereo frames, folded to mono.
func (m *Meter) Write(frames []float32) {
	m.mu.Lock()
	for i := 0; i+1 < len(frames); i += 2 {
		m.ring[m.pos] = 0.5 * (float64(frames[i]) + float64(frames[i+1]))
		m.pos++
		if m.pos == m.size {
			m.pos = 0
		}
	}
	m.mu.Unlock()
}

// Read analyses the latest window.
func (m *Meter) Read() Reading {
	m.readMu.Lock()
	defer m.readMu.Unlock()

	// Oldest frame first.
	m.mu.Lock()
	n := copy(m.input, m.ring[m.pos:])
	copy(m.input[n:], m.ring[:m.pos])
	m.mu.Unlock()

	for i, w := range m.window {
		m.input[i] *= w
	}
	m.fft.Coefficients(m.coeffs, m.input)

	var voice, total float64
	last := len(m.coeffs) - 1
	for i, c := range m.coeffs {
		p := real(c)*real(c) + imag(c)*imag(c)
		if i != 0 && i != last {
			p *= 2 // fold in the negative frequencies
		}
		total += p
		if f := m.fft.Freq(i) * m.sampleRate; f >= VoiceLow && f <= VoiceHigh {
			voice += p
		}
	}
	norm := float64(m.size) * m.windowSum
	return Reading{VoiceBandDB: toDB(voice / norm), TotalDB: toDB(total / norm)}
}

// Log writes a reading at debug level every interval until ctx ends.
func (m *Meter) Log(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r := m.Read()
			applog.WithFields(applog.Fields{
				"voiceBand":   fmt.Sprintf("%.1f dB", r.VoiceBandDB),
				"total":       fmt.Sprintf("%.1f dB", r.TotalDB),
				"suppression": fmt.Sprintf("%.1f dB", r.Suppression()),
			}).Debug("Meter: output level")
		}
	}
}

func toDB(power float64) float64 {
	if power <= 0 {
		return Floor
	}
	return math.Max(Floor, 10*math.Log10(power))
}

// Source fills interleaved stereo frames.
type Source interface {
	Render(out []float32)
}

// Tap renders src and feeds what it produced to a meter.
type Tap struct {
	src   Source
	meter *Meter
}

// NewTap wraps src.
func NewTap(src Source, m *Meter) *Tap {
	return &Tap{src: src, meter: m}
}

// Render implements Source.
func (t *Tap) Render(out []float32) {
	t.src.Render(out)
	t.meter.Write(out)
}
