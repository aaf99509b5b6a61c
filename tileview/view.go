// Package tileview is an interactive ebiten widget for panning over a
// large or infinite tiled image. It wires a tiler.Tiler, a worker Pool and
// a delivery Mailbox together: background workers fetch tiles, and the
// view polls the mailbox once per tick, so repainting never blocks on tile
// production and always shows the most recent composed buffer.
package tileview

import (
	"image"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"chosenoffset.com/tilewindow/tiler"
)

// Config configures a View.
type Config struct {
	// Provider produces the tiles. Required.
	Provider tiler.Provider
	// TileWidth is the tile width in pixels. Required.
	TileWidth int
	// TileHeight is the tile height in pixels. Zero means square tiles.
	TileHeight int
	// Border is the tile border kept resident around the window. Zero means 1.
	Border int
	// ImageBounds optionally constrains the image; constrained sides must
	// be tile-aligned.
	ImageBounds tiler.Bounds
	// Workers is the number of background fetch goroutines. Zero means 1.
	Workers int
	// Logger receives tile fetch failures. Nil means log.Default().
	Logger *log.Logger
	// Background fills the parts of the screen not covered by the buffer.
	// Nil means a dark gray.
	Background color.Color
}

// View displays a tiled image and lets the user drag it around with the
// left mouse button. It implements ebiten.Game and can be passed straight
// to ebiten.RunGame, or driven from a larger game's Update/Draw.
type View struct {
	tiler *tiler.Tiler
	pool  *tiler.Pool
	mail  *tiler.Mailbox

	src    *image.RGBA   // latest composed buffer
	tex    *ebiten.Image // GPU copy of src
	offset image.Point   // window origin within the buffer
	size   image.Point   // viewport size in pixels

	drag      dragTracker
	dragStart image.Point // offset at the moment the drag began

	background color.Color
}

// New creates a View fetching tiles from cfg.Provider and starts its
// worker pool. Call Close when done with it.
func New(cfg Config) (*View, error) {
	mail := &tiler.Mailbox{}
	tl, err := tiler.New(tiler.Config{
		TileWidth:   cfg.TileWidth,
		TileHeight:  cfg.TileHeight,
		Border:      cfg.Border,
		ImageBounds: cfg.ImageBounds,
		Redrawer:    mail,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	pool := tiler.NewPool(tl, cfg.Provider, tiler.PoolConfig{
		Workers: cfg.Workers,
		Logger:  cfg.Logger,
	})
	bg := cfg.Background
	if bg == nil {
		bg = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	}
	v := &View{
		tiler:      tl,
		pool:       pool,
		mail:       mail,
		background: bg,
	}
	pool.Start()
	return v, nil
}

// Tiler returns the underlying Tiler, e.g. to query the current window in
// image coordinates.
func (v *View) Tiler() *tiler.Tiler { return v.tiler }

// MoveTo jumps the view so the image coordinate (x, y) is in the top-left
// corner.
func (v *View) MoveTo(x, y int) { v.tiler.MoveTo(x, y) }

// Close stops the worker pool. The View must not be used afterwards.
func (v *View) Close() { v.pool.Stop() }

// Update processes one tick: drag input first, then at most one frame from
// the mailbox.
func (v *View) Update() error {
	v.handleDrag()
	v.pollMailbox()
	return nil
}

func (v *View) handleDrag() {
	cx, cy := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	delta, active, started := v.drag.sample(pressed, image.Pt(cx, cy))
	if started {
		v.dragStart = v.offset
	}
	if !active {
		return
	}
	// Dragging the image right moves the window left.
	loc := v.dragStart.Sub(delta)
	if loc != v.offset {
		v.offset = loc
		v.tiler.Update(loc, v.size)
	}
}

func (v *View) pollMailbox() {
	f, ok := v.mail.Poll()
	if !ok {
		return
	}
	if f.HasOffset {
		// The buffer extent moved: the frame's offset is our location
		// rebased onto the new buffer. Shift any drag in progress by the
		// same amount so the gesture stays continuous.
		shift := f.Offset.Sub(v.offset)
		v.dragStart = v.dragStart.Add(shift)
		v.offset = f.Offset
	}
	v.src = f.Image
	v.upload()
}

// upload copies the composed buffer into the GPU texture, reallocating it
// when the buffer size changed.
func (v *View) upload() {
	b := v.src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		v.tex = nil
		return
	}
	if v.tex == nil || v.tex.Bounds().Dx() != b.Dx() || v.tex.Bounds().Dy() != b.Dy() {
		v.tex = ebiten.NewImage(b.Dx(), b.Dy())
	}
	v.tex.WritePixels(v.src.Pix)
}

// Draw paints the buffer shifted so the window origin lands at the
// screen's top-left corner.
func (v *View) Draw(screen *ebiten.Image) {
	screen.Fill(v.background)
	if v.tex == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(-v.offset.X), float64(-v.offset.Y))
	screen.DrawImage(v.tex, op)
}

// Layout reports the viewport size back to ebiten and propagates resizes
// to the tiler.
func (v *View) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := image.Pt(outsideWidth, outsideHeight)
	if size != v.size {
		v.size = size
		v.tiler.Resize(size)
	}
	return outsideWidth, outsideHeight
}
