package tiler

import (
	"image"
	"sync"
)

// Frame is one delivery from the Tiler to the presentation layer: the
// composed buffer image and, when HasOffset is set, the point within it
// that aligns with the window's top-left corner. Frames without an offset
// are in-place tile updates; the receiver keeps using its previous offset.
type Frame struct {
	Image     *image.RGBA
	Offset    image.Point
	HasOffset bool
}

// Mailbox is a single-slot handoff between the goroutines producing buffer
// images (window updates, tile workers) and a single-threaded presentation
// loop that polls on its own schedule. Deliveries overwrite: the consumer
// always sees the most recent frame and an arbitrarily high rate of tile
// arrivals coalesces into at most one repaint per poll.
//
// Mailbox implements Redrawer, so it can be passed directly as
// Config.Redrawer. The zero value is ready to use.
type Mailbox struct {
	mu    sync.Mutex
	frame Frame
	full  bool
}

// Deliver stores f as the latest frame, discarding any undelivered one.
// A frame without an offset inherits the offset of an undelivered frame it
// replaces, so a tile update never loses a pending window move.
func (m *Mailbox) Deliver(f Frame) {
	m.mu.Lock()
	if !f.HasOffset && m.full && m.frame.HasOffset {
		f.Offset = m.frame.Offset
		f.HasOffset = true
	}
	m.frame = f
	m.full = true
	m.mu.Unlock()
}

// Poll takes and clears the stored frame. The second return is false if
// nothing was delivered since the last poll.
func (m *Mailbox) Poll() (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		return Frame{}, false
	}
	f := m.frame
	m.frame = Frame{}
	m.full = false
	return f, true
}

// Redraw delivers a full frame with its offset.
func (m *Mailbox) Redraw(buf *image.RGBA, offset image.Point) {
	m.Deliver(Frame{Image: buf, Offset: offset, HasOffset: true})
}

// Refresh delivers an in-place buffer update.
func (m *Mailbox) Refresh(buf *image.RGBA) {
	m.Deliver(Frame{Image: buf})
}
