package tiler

import (
	"image"
	"image/draw"
	"log"
	"sync"
	"time"
)

// TileCoord identifies a tile on the infinite grid. Tile (X, Y) covers the
// pixel rectangle [X*tileWidth, Y*tileHeight) to ((X+1)*tileWidth,
// (Y+1)*tileHeight).
type TileCoord struct {
	X, Y int
}

// Config configures a Tiler. TileWidth is required; everything else has a
// usable default.
type Config struct {
	// TileWidth is the width of each tile in pixels. Required.
	TileWidth int
	// TileHeight is the height of each tile in pixels. Zero means square
	// tiles of TileWidth.
	TileHeight int
	// Border is the number of extra tiles kept resident beyond the window
	// on each side. Zero means 1.
	Border int
	// ImageBounds optionally constrains the total image. Constrained sides
	// must be tile-aligned.
	ImageBounds Bounds
	// Redrawer receives composed buffer images. Nil means discard.
	Redrawer Redrawer
	// Logger receives per-tile fetch failures. Nil means log.Default().
	Logger *log.Logger
}

// Tiler owns the tile cache and the composed buffer image for one viewer.
//
// The cache, the buffer image, the buffer extent and the pending job list
// form one consistency unit guarded by a single mutex: window updates
// (Update, Resize, MoveTo) and tile deposits (Deposit) may interleave from
// different goroutines without tearing the buffer. Window updates are
// expected from a single goroutine at a time, normally the presentation
// loop's.
type Tiler struct {
	mu    sync.Mutex
	geo   *TileWindow
	tiles map[TileCoord]image.Image
	buf   *image.RGBA

	queue  *jobQueue
	redraw Redrawer
	logger *log.Logger
}

// New creates a Tiler from cfg. The window starts empty at the origin; call
// Update to give it a size. Returns *InvalidArgumentError naming the
// offending Config field if the configuration is unusable.
func New(cfg Config) (*Tiler, error) {
	height := cfg.TileHeight
	if height == 0 {
		height = cfg.TileWidth
	}
	geo, err := NewTileWindow(cfg.TileWidth, height)
	if err != nil {
		return nil, err
	}
	if cfg.Border != 0 {
		if err := geo.SetBorder(cfg.Border); err != nil {
			return nil, err
		}
	}
	if err := geo.SetImageBounds(cfg.ImageBounds); err != nil {
		return nil, err
	}
	geo.window = image.Rectangle{}

	redraw := cfg.Redrawer
	if redraw == nil {
		redraw = NopRedrawer{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Tiler{
		geo:    geo,
		tiles:  make(map[TileCoord]image.Image),
		buf:    image.NewRGBA(image.Rectangle{}),
		queue:  newJobQueue(),
		redraw: redraw,
		logger: logger,
	}, nil
}

// TileWidth returns the width of each tile in pixels.
func (t *Tiler) TileWidth() int { return t.geo.TileWidth() }

// TileHeight returns the height of each tile in pixels.
func (t *Tiler) TileHeight() int { return t.geo.TileHeight() }

// Window returns the currently viewed rectangle of the total image.
func (t *Tiler) Window() image.Rectangle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.geo.Window()
}

// BufferExtent returns the rectangle of the total image currently backed
// by the buffer.
func (t *Tiler) BufferExtent() image.Rectangle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.geo.BufferExtent()
}

// Update moves the window. location is the position of the window's
// top-left corner relative to the top-left of the current buffer extent,
// which is how a presentation layer that scrolls a buffer texture
// naturally addresses it. size is the window size in pixels; negative
// components are treated as zero.
func (t *Tiler) Update(location, size image.Point) {
	t.update(location, &size)
}

// Resize changes the window size, keeping its top-left corner fixed.
func (t *Tiler) Resize(size image.Point) {
	t.mu.Lock()
	win := t.geo.Window()
	loc := win.Min.Sub(t.geo.BufferExtent().Min)
	t.mu.Unlock()
	t.update(loc, &size)
}

// MoveTo jumps the window's top-left corner to the absolute image
// coordinate (x, y), keeping the window size.
func (t *Tiler) MoveTo(x, y int) {
	t.mu.Lock()
	win := t.geo.Window()
	t.geo.SetWindow(image.Rect(x, y, x+win.Dx(), y+win.Dy()))
	buf, offset, changed := t.reconcile()
	t.mu.Unlock()
	if changed {
		t.redraw.Redraw(buf, offset)
	}
}

func (t *Tiler) update(location image.Point, size *image.Point) {
	t.mu.Lock()
	ext := t.geo.BufferExtent()
	win := t.geo.Window()
	x := ext.Min.X + location.X
	y := ext.Min.Y + location.Y
	w, h := win.Dx(), win.Dy()
	if size != nil {
		w, h = max(0, size.X), max(0, size.Y)
	}
	t.geo.SetWindow(image.Rect(x, y, x+w, y+h))
	buf, offset, changed := t.reconcile()
	t.mu.Unlock()
	if changed {
		t.redraw.Redraw(buf, offset)
	}
}

// reconcile brings the buffer in line with the extent the current window
// needs: reuse cached tiles, evict ones that fell out of range, and replace
// the pending job list with the missing coordinates. Returns the new buffer
// and window offset when the extent changed. Caller holds t.mu.
func (t *Tiler) reconcile() (buf *image.RGBA, offset image.Point, changed bool) {
	need := t.geo.NeededBufferExtent()
	if need == t.geo.BufferExtent() {
		return nil, image.Point{}, false
	}

	tw, th := t.geo.TileWidth(), t.geo.TileHeight()
	// Tile-space bounds of the needed extent. The extent is tile-aligned,
	// so these divisions are exact.
	txmin := floorDiv(need.Min.X, tw)
	tymin := floorDiv(need.Min.Y, th)
	txmax := floorDiv(need.Max.X, tw)
	tymax := floorDiv(need.Max.Y, th)

	// A window scrolled entirely outside a bounded image leaves min above
	// max; the buffer is then zero-sized and no tiles are needed.
	width := max(0, need.Dx())
	height := max(0, need.Dy())
	buf = image.NewRGBA(image.Rect(0, 0, width, height))

	var missing []TileCoord
	for ty := tymin; ty < tymax; ty++ {
		ydest := (ty - tymin) * th
		for tx := txmin; tx < txmax; tx++ {
			coord := TileCoord{tx, ty}
			if tile, ok := t.tiles[coord]; ok {
				xdest := (tx - txmin) * tw
				r := image.Rect(xdest, ydest, xdest+tw, ydest+th)
				draw.Draw(buf, r, tile, tile.Bounds().Min, draw.Src)
			} else {
				missing = append(missing, coord)
			}
		}
	}

	for coord := range t.tiles {
		if coord.X < txmin || coord.X >= txmax || coord.Y < tymin || coord.Y >= tymax {
			delete(t.tiles, coord)
		}
	}

	t.buf = buf
	t.geo.SetBufferExtent(need)
	t.queue.replace(missing)

	return buf, t.geo.Window().Min.Sub(need.Min), true
}

// NextJob removes and returns one tile coordinate that needs fetching,
// blocking up to timeout (indefinitely when timeout <= 0) and returning
// ErrEmpty if nothing became available. Safe for concurrent workers; each
// coordinate is handed to exactly one of them.
func (t *Tiler) NextJob(timeout time.Duration) (TileCoord, error) {
	return t.queue.take(timeout)
}

// Deposit inserts a fetched tile into the cache. A nil tile means the
// provider had nothing for this coordinate and is dropped. If the tile's
// rectangle still lies within the current buffer extent it is pasted into
// the live buffer and the redrawer is notified; a late arrival for a
// region the window has moved away from is cached silently for later
// reuse. Safe to call from any goroutine.
func (t *Tiler) Deposit(coord TileCoord, tile image.Image) {
	if tile == nil {
		return
	}
	t.mu.Lock()
	t.tiles[coord] = tile
	tw, th := t.geo.TileWidth(), t.geo.TileHeight()
	x, y := coord.X*tw, coord.Y*th
	ext := t.geo.BufferExtent()
	var buf *image.RGBA
	if x >= ext.Min.X && y >= ext.Min.Y && x+tw <= ext.Max.X && y+th <= ext.Max.Y {
		xdest := x - ext.Min.X
		ydest := y - ext.Min.Y
		r := image.Rect(xdest, ydest, xdest+tw, ydest+th)
		draw.Draw(t.buf, r, tile, tile.Bounds().Min, draw.Src)
		buf = t.buf
	}
	t.mu.Unlock()
	if buf != nil {
		t.redraw.Refresh(buf)
	}
}
