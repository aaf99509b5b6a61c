// Package tiler generates large or infinite images from fixed-size tiles.
//
// A TileWindow tracks the geometry: the visible window, the optional bounds
// of the whole image, and the tile-aligned "buffer extent" that should be
// resident in memory. A Tiler owns the tile cache and the composed buffer
// image, hands out fetch jobs for missing tiles, and accepts fetched tiles
// back from a Pool of workers. Composed images reach the presentation layer
// through a Redrawer, typically a Mailbox polled once per frame.
package tiler

import "image"

// Bound is one side of an image constraint. A zero Bound leaves that side
// unconstrained, so the image may extend without limit in that direction.
type Bound struct {
	Value int
	Set   bool
}

// BoundAt returns a constrained Bound at the given pixel coordinate.
func BoundAt(v int) Bound { return Bound{Value: v, Set: true} }

// Bounds constrains the whole logical image. Each side is independently
// optional. Following the half-open pixel convention, Bounds with MinX=0,
// MinY=0, MaxX=100, MaxY=50 describes an image 100 wide and 50 tall.
type Bounds struct {
	MinX, MinY, MaxX, MaxY Bound
}

// RectBounds returns Bounds with all four sides constrained to r.
func RectBounds(r image.Rectangle) Bounds {
	return Bounds{
		MinX: BoundAt(r.Min.X),
		MinY: BoundAt(r.Min.Y),
		MaxX: BoundAt(r.Max.X),
		MaxY: BoundAt(r.Max.Y),
	}
}

// TileWindow tracks the geometry of a large or infinite tiled image:
//
//   - the optional bounds of the total image,
//   - the currently viewed window,
//   - the tile-aligned buffer extent held in memory,
//   - the border of extra tiles kept resident around the window.
//
// A typical update sequence is to set the window and then query
// NeededBufferExtent to find the buffer that should be resident; if it
// differs from BufferExtent the caller rebuilds the buffer.
//
// TileWindow is purely synchronous and performs no locking of its own.
type TileWindow struct {
	tileWidth  int
	tileHeight int
	bounds     Bounds
	window     image.Rectangle
	border     int
	extent     image.Rectangle
}

// NewTileWindow creates a TileWindow for tiles of the given size. The
// window starts as a single tile at the origin and the border defaults
// to one tile.
func NewTileWindow(tileWidth, tileHeight int) (*TileWindow, error) {
	if tileWidth <= 0 {
		return nil, invalidArg("TileWidth", "must be positive, got %d", tileWidth)
	}
	if tileHeight <= 0 {
		return nil, invalidArg("TileHeight", "must be positive, got %d", tileHeight)
	}
	return &TileWindow{
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
		window:     image.Rect(0, 0, tileWidth, tileHeight),
		border:     1,
	}, nil
}

// TileWidth returns the width of each tile in pixels.
func (w *TileWindow) TileWidth() int { return w.tileWidth }

// TileHeight returns the height of each tile in pixels.
func (w *TileWindow) TileHeight() int { return w.tileHeight }

// ImageBounds returns the current constraint on the total image.
func (w *TileWindow) ImageBounds() Bounds { return w.bounds }

// SetImageBounds constrains the total image. Every constrained side must be
// an exact multiple of the tile size on its axis, and if both sides of an
// axis are constrained the minimum must be below the maximum.
func (w *TileWindow) SetImageBounds(b Bounds) error {
	if b.MinX.Set && b.MinX.Value%w.tileWidth != 0 {
		return invalidArg("ImageBounds", "MinX %d is not a multiple of the tile width %d", b.MinX.Value, w.tileWidth)
	}
	if b.MaxX.Set && b.MaxX.Value%w.tileWidth != 0 {
		return invalidArg("ImageBounds", "MaxX %d is not a multiple of the tile width %d", b.MaxX.Value, w.tileWidth)
	}
	if b.MinY.Set && b.MinY.Value%w.tileHeight != 0 {
		return invalidArg("ImageBounds", "MinY %d is not a multiple of the tile height %d", b.MinY.Value, w.tileHeight)
	}
	if b.MaxY.Set && b.MaxY.Value%w.tileHeight != 0 {
		return invalidArg("ImageBounds", "MaxY %d is not a multiple of the tile height %d", b.MaxY.Value, w.tileHeight)
	}
	if b.MinX.Set && b.MaxX.Set && b.MinX.Value >= b.MaxX.Value {
		return invalidArg("ImageBounds", "MinX %d must be below MaxX %d", b.MinX.Value, b.MaxX.Value)
	}
	if b.MinY.Set && b.MaxY.Set && b.MinY.Value >= b.MaxY.Value {
		return invalidArg("ImageBounds", "MinY %d must be below MaxY %d", b.MinY.Value, b.MaxY.Value)
	}
	w.bounds = b
	return nil
}

// Window returns the currently viewed rectangle of the total image.
func (w *TileWindow) Window() image.Rectangle { return w.window }

// SetWindow sets the currently viewed rectangle. The rectangle need not be
// tile-aligned and is not validated against the image bounds, but each
// minimum must not exceed the corresponding maximum.
func (w *TileWindow) SetWindow(r image.Rectangle) error {
	if r.Min.X > r.Max.X || r.Min.Y > r.Max.Y {
		return invalidArg("Window", "malformed rectangle %v", r)
	}
	w.window = r
	return nil
}

// Border returns the width, in tiles, of the border kept around the window.
func (w *TileWindow) Border() int { return w.border }

// SetBorder sets the width of the tile border to keep resident around the
// window. A larger border lets the user scroll further before new tiles
// are needed, at the cost of memory and extra tile generation. Must be at
// least one.
func (w *TileWindow) SetBorder(n int) error {
	if n < 1 {
		return invalidArg("Border", "must be at least 1, got %d", n)
	}
	w.border = n
	return nil
}

// BufferExtent returns the rectangle of the total image currently backed by
// the buffer. All four bounds are multiples of the tile size.
func (w *TileWindow) BufferExtent() image.Rectangle { return w.extent }

// BufferSize returns the width and height of the buffer extent.
func (w *TileWindow) BufferSize() image.Point {
	return image.Pt(w.extent.Dx(), w.extent.Dy())
}

// SetBufferExtent records the rectangle backed by the buffer. Every bound
// must be a multiple of the corresponding tile dimension.
func (w *TileWindow) SetBufferExtent(r image.Rectangle) error {
	if r.Min.X%w.tileWidth != 0 || r.Max.X%w.tileWidth != 0 {
		return invalidArg("BufferExtent", "x bounds of %v are not multiples of the tile width %d", r, w.tileWidth)
	}
	if r.Min.Y%w.tileHeight != 0 || r.Max.Y%w.tileHeight != 0 {
		return invalidArg("BufferExtent", "y bounds of %v are not multiples of the tile height %d", r, w.tileHeight)
	}
	w.extent = r
	return nil
}

// NeededBufferExtent computes, from the current window, border and image
// bounds, the extent the buffer should cover: the window rounded out to
// tile boundaries, grown by the border, then clamped against any
// constrained image bound. Clamping against bounds may leave the minimum
// above the maximum; callers must treat such an extent as empty.
func (w *TileWindow) NeededBufferExtent() image.Rectangle {
	// In tile space first.
	xmin := floorDiv(w.window.Min.X, w.tileWidth) - w.border
	ymin := floorDiv(w.window.Min.Y, w.tileHeight) - w.border
	xmax := ceilDiv(w.window.Max.X, w.tileWidth) + w.border
	ymax := ceilDiv(w.window.Max.Y, w.tileHeight) + w.border
	xmin *= w.tileWidth
	xmax *= w.tileWidth
	ymin *= w.tileHeight
	ymax *= w.tileHeight
	if w.bounds.MinX.Set {
		xmin = max(xmin, w.bounds.MinX.Value)
	}
	if w.bounds.MaxX.Set {
		xmax = min(xmax, w.bounds.MaxX.Value)
	}
	if w.bounds.MinY.Set {
		ymin = max(ymin, w.bounds.MinY.Value)
	}
	if w.bounds.MaxY.Set {
		ymax = min(ymax, w.bounds.MaxY.Value)
	}
	return image.Rectangle{Min: image.Pt(xmin, ymin), Max: image.Pt(xmax, ymax)}
}

// floorDiv divides rounding toward negative infinity, so that pixel
// coordinates left of the origin land in the correct tile.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// ceilDiv divides rounding toward positive infinity.
func ceilDiv(a, b int) int { return -floorDiv(-a, b) }
