package tiler

import "image"

// Provider produces the tile at a grid coordinate. Fetch runs on worker
// goroutines and may block on I/O; it must be safe to call concurrently.
// Returning a nil image with a nil error means "no tile available here",
// which is not an error: the coordinate simply stays blank.
type Provider interface {
	Fetch(tx, ty int) (image.Image, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(tx, ty int) (image.Image, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(tx, ty int) (image.Image, error) { return f(tx, ty) }

// Redrawer receives composed buffer images from the Tiler.
//
// Redraw is called on the same goroutine that changed the window, whenever
// the buffer extent changed: buf is the freshly composed buffer and offset
// is the point within it that aligns with the window's top-left corner.
//
// Refresh is called, possibly from a worker goroutine, when a fetched tile
// has been pasted into the live buffer; the previous offset still applies.
//
// Implementations must not call back into the Tiler.
type Redrawer interface {
	Redraw(buf *image.RGBA, offset image.Point)
	Refresh(buf *image.RGBA)
}

// NopRedrawer discards all notifications. It is the default Redrawer.
type NopRedrawer struct{}

// Redraw does nothing.
func (NopRedrawer) Redraw(*image.RGBA, image.Point) {}

// Refresh does nothing.
func (NopRedrawer) Refresh(*image.RGBA) {}
