package tileview

import "image"

// dragTracker turns per-tick (pressed, cursor) input samples into pan
// deltas. It has no ebiten dependency so the drag behaviour is testable
// without a display.
type dragTracker struct {
	dragging bool
	start    image.Point
}

// sample feeds one input reading. delta is the cursor travel since the drag
// began, active reports whether a drag is in progress, and started is true
// exactly once per drag, on the press that began it.
func (d *dragTracker) sample(pressed bool, cursor image.Point) (delta image.Point, active, started bool) {
	if !pressed {
		d.dragging = false
		return image.Point{}, false, false
	}
	if !d.dragging {
		d.dragging = true
		d.start = cursor
		return image.Point{}, true, true
	}
	return cursor.Sub(d.start), true, false
}
