// SPDX-License-Identifier: MIT
/*
Package media models the page the processor attaches to: media elements that
play stereo PCM and the Page that hosts them and mixes their audio for the
output driver.

An Element's audio either routes natively to the page output or, once a
processing context has claimed it, only through that context's graph. The
claim is permanent for the element's lifetime.
*/
package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	applog "voxcut/internal/log"

	"github.com/smallnest/ringbuffer"
)

// ReadyState follows the HTML media element readyState values.
type ReadyState int

const (
	HaveNothing ReadyState = iota
	HaveMetadata
	HaveCurrentData
	HaveFutureData
	HaveEnoughData
)

func (r ReadyState) String() string {
	switch r {
	case HaveNothing:
		return "have-nothing"
	case HaveMetadata:
		return "have-metadata"
	case HaveCurrentData:
		return "have-current-data"
	case HaveFutureData:
		return "have-future-data"
	case HaveEnoughData:
		return "have-enough-data"
	default:
		return "unknown"
	}
}

// Kind tells video and audio elements apart; lookup prefers video.
type Kind int

const (
	KindVideo Kind = iota
	KindAudio
)

func (k Kind) String() string {
	if k == KindAudio {
		return "audio"
	}
	return "video"
}

var (
	// ErrElementClosed is reported by a streaming element after Close.
	ErrElementClosed = errors.New("media: element closed")
	// ErrSampleRateMismatch means an element would play at a rate other
	// than its own. Elements are never resampled.
	ErrSampleRateMismatch = errors.New("media: sample rate mismatch")
)

const (
	bytesPerFrame = 8 // two little-endian float32 samples
	drainChunk    = 4096 * bytesPerFrame
)

// Element is a stereo media element. Frames are held interleaved in track;
// streaming elements grow track as the decoder delivers data through ring.
type Element struct {
	mu sync.Mutex

	name       string
	kind       Kind
	sampleRate float64

	track    []float32
	pos      int // frame index of the playhead
	paused   bool
	loop     bool
	ended    bool
	complete bool // every frame is in track
	err      error
	owner    any

	ring    *ringbuffer.RingBuffer
	carry   []byte
	scratch []byte
}

// NewElement returns a fully loaded element over interleaved stereo samples.
// New elements start paused, like an element without autoplay.
func NewElement(name string, kind Kind, samples []float32, sampleRate float64) *Element {
	track := make([]float32, len(samples)&^1)
	copy(track, samples)
	return &Element{
		name:       name,
		kind:       kind,
		sampleRate: sampleRate,
		track:      track,
		paused:     true,
		complete:   true,
	}
}

// newStreamingElement returns an element whose frames arrive through a ring
// buffer of ringSize bytes.
func newStreamingElement(name string, kind Kind, sampleRate float64, ringSize int) *Element {
	return &Element{
		name:       name,
		kind:       kind,
		sampleRate: sampleRate,
		paused:     true,
		ring:       ringbuffer.New(ringSize).SetBlocking(true),
		scratch:    make([]byte, drainChunk),
	}
}

// Name returns the element's label (its file name for loaded media).
func (e *Element) Name() string { return e.name }

// Kind returns whether this is a video or audio element.
func (e *Element) Kind() Kind { return e.kind }

// SampleRate returns the element's native sample rate in Hz.
func (e *Element) SampleRate() float64 { return e.sampleRate }

// CheckSampleRate returns ErrSampleRateMismatch unless the element's
// native rate equals rate, the rate its frames will be consumed at.
func (e *Element) CheckSampleRate(rate float64) error {
	if math.Abs(e.sampleRate-rate) > 0.5 {
		return fmt.Errorf("%w: %s is %.0f Hz, output runs at %.0f Hz", ErrSampleRateMismatch, e.name, e.sampleRate, rate)
	}
	return nil
}

// Claim implements graph.MediaElement. The first owner wins forever.
func (e *Element) Claim(owner any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.owner != nil || owner == nil {
		return false
	}
	e.owner = owner
	return true
}

// Owner returns the processing context bound to the element, or nil.
func (e *Element) Owner() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

// Play starts or resumes playback. Playing an ended element restarts it.
func (e *Element) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ended {
		e.pos = 0
		e.ended = false
	}
	e.paused = false
}

// Pause stops playback, keeping the playhead.
func (e *Element) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

// Paused reports whether playback is stopped.
func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Ended reports whether playback ran off the end of a non-looping element.
func (e *Element) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended
}

// SetLoop makes playback wrap to the start at the end of the media.
func (e *Element) SetLoop(loop bool) {
	e.mu.Lock()
	e.loop = loop
	e.mu.Unlock()
}

// CurrentTime returns the playhead position in seconds.
func (e *Element) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return float64(e.pos) / e.sampleRate
}

// Seek moves the playhead. Positions past the decoded data are clamped to
// what has been buffered so far.
func (e *Element) Seek(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drainLocked()
	frame := int(math.Round(seconds * e.sampleRate))
	frame = max(0, min(frame, e.framesLocked()))
	e.pos = frame
	e.ended = false
}

// Duration returns the length in seconds of the data decoded so far.
func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drainLocked()
	return float64(e.framesLocked()) / e.sampleRate
}

// Err returns the decode error that stopped a streaming element, if any.
func (e *Element) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// ReadyState derives the HTML ready state from buffered data ahead of the
// playhead: one frame for current data, one second for enough data.
func (e *Element) ReadyState() ReadyState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drainLocked()

	ahead := e.framesLocked() - e.pos
	switch {
	case e.complete && e.framesLocked() > 0:
		return HaveEnoughData
	case ahead >= int(e.sampleRate):
		return HaveEnoughData
	case ahead > 1:
		return HaveFutureData
	case ahead == 1:
		return HaveCurrentData
	case e.ring != nil || e.complete:
		return HaveMetadata
	default:
		return HaveNothing
	}
}

// Read implements graph.MediaElement: it advances playback by up to
// len(left) frames and returns how many were produced.
func (e *Element) Read(left, right []float64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return 0
	}
	e.drainLocked()

	n := 0
	for n < len(left) {
		frames := e.framesLocked()
		if e.pos >= frames {
			if !e.complete {
				break // starved, more data is on its way
			}
			if e.loop && frames > 0 {
				e.pos = 0
				continue
			}
			e.ended = true
			e.paused = true
			break
		}
		take := min(len(left)-n, frames-e.pos)
		for i := 0; i < take; i++ {
			left[n+i] = float64(e.track[2*(e.pos+i)])
			right[n+i] = float64(e.track[2*(e.pos+i)+1])
		}
		n += take
		e.pos += take
	}
	return n
}

// Close stops a streaming element's decoder. Fully loaded elements have
// nothing to release.
func (e *Element) Close() error {
	if e.ring != nil {
		e.ring.CloseWithError(ErrElementClosed)
	}
	return nil
}

func (e *Element) framesLocked() int {
	return len(e.track) / 2
}

// drainLocked moves decoded bytes from the ring into track.
func (e *Element) drainLocked() {
	if e.ring == nil || e.complete {
		return
	}
	for {
		n, err := e.ring.TryRead(e.scratch)
		if n > 0 {
			e.appendBytes(e.scratch[:n])
		}
		switch {
		case err == nil:
			if n < len(e.scratch) {
				return
			}
		case errors.Is(err, io.EOF):
			e.complete = true
			return
		case errors.Is(err, ringbuffer.ErrIsEmpty), errors.Is(err, ringbuffer.ErrAcquireLock):
			return
		default:
			if e.err == nil && !errors.Is(err, ErrElementClosed) {
				e.err = err
				applog.Warnf("Media: %s stopped decoding: %v", e.name, err)
			}
			e.complete = true
			return
		}
	}
}

func (e *Element) appendBytes(b []byte) {
	if len(e.carry) > 0 {
		b = append(append([]byte(nil), e.carry...), b...)
	}
	whole := len(b) - len(b)%bytesPerFrame
	for i := 0; i < whole; i += 4 {
		e.track = append(e.track, math.Float32frombits(binary.LittleEndian.Uint32(b[i:])))
	}
	e.carry = append(e.carry[:0], b[whole:]...)
}
