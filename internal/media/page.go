// SPDX-License-Identifier: MIT
package media

import (
	"slices"
	"sync"
)

// Renderer produces interleaved stereo output; *graph.AudioContext is one.
type Renderer interface {
	Render(out []float32)
}

// Page hosts media elements in document order and mixes what the listener
// hears: every playing element that no processing context has claimed,
// plus the output of the attached processing context.
type Page struct {
	mu       sync.Mutex
	elements []*Element
	context  Renderer

	left, right []float64
}

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{}
}

// Add appends an element to the page.
func (p *Page) Add(el *Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !slices.Contains(p.elements, el) {
		p.elements = append(p.elements, el)
	}
}

// Remove takes an element off the page. It reports whether it was present.
func (p *Page) Remove(el *Element) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := slices.Index(p.elements, el)
	if i < 0 {
		return false
	}
	p.elements = slices.Delete(p.elements, i, i+1)
	return true
}

// Replace swaps old for el in place, the way a single-page app swaps its
// player on navigation. If old is absent, el is appended.
func (p *Page) Replace(old, el *Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := slices.Index(p.elements, old); i >= 0 {
		p.elements[i] = el
		return
	}
	p.elements = append(p.elements, el)
}

// Elements returns a snapshot of the elements in document order.
func (p *Page) Elements() []*Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.elements)
}

// FindMediaElement returns the first video element, else the first audio
// element, else nil.
func (p *Page) FindMediaElement() *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, kind := range []Kind{KindVideo, KindAudio} {
		for _, el := range p.elements {
			if el.Kind() == kind {
				return el
			}
		}
	}
	return nil
}

// Attach makes r the processing context whose output is mixed into the
// page output. A nil r detaches.
func (p *Page) Attach(r Renderer) {
	p.mu.Lock()
	p.context = r
	p.mu.Unlock()
}

// Render fills out with interleaved stereo: the attached context's output
// summed with every playing, unclaimed element.
func (p *Page) Render(out []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frames := len(out) / 2
	if p.context != nil {
		p.context.Render(out)
	} else {
		clear(out)
	}
	if cap(p.left) < frames {
		p.left = make([]float64, frames)
		p.right = make([]float64, frames)
	}
	left, right := p.left[:frames], p.right[:frames]

	for _, el := range p.elements {
		if el.Owner() != nil {
			continue // audible only through its processing context
		}
		n := el.Read(left, right)
		for i := 0; i < n; i++ {
			out[2*i] += float32(left[i])
			out[2*i+1] += float32(right[i])
		}
	}
}
