package tiler

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"
)

// recordingRedrawer captures redraw notifications for assertions.
type recordingRedrawer struct {
	mu        sync.Mutex
	redraws   []image.Point
	lastBuf   *image.RGBA
	refreshes int
}

func (r *recordingRedrawer) Redraw(buf *image.RGBA, offset image.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redraws = append(r.redraws, offset)
	r.lastBuf = buf
}

func (r *recordingRedrawer) Refresh(buf *image.RGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes++
	r.lastBuf = buf
}

func newTestTiler(t *testing.T, cfg Config) *Tiler {
	t.Helper()
	tl, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return tl
}

func solidTile(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// drainJobs pulls jobs until ErrEmpty, failing on double delivery.
func drainJobs(t *testing.T, tl *Tiler) map[TileCoord]bool {
	t.Helper()
	got := make(map[TileCoord]bool)
	for {
		coord, err := tl.NextJob(50 * time.Millisecond)
		if err != nil {
			if !errors.Is(err, ErrEmpty) {
				t.Fatalf("NextJob failed: %v", err)
			}
			return got
		}
		if got[coord] {
			t.Errorf("Coordinate %v delivered twice", coord)
		}
		got[coord] = true
	}
}

func gridSet(xs, ys []int) map[TileCoord]bool {
	set := make(map[TileCoord]bool)
	for _, y := range ys {
		for _, x := range xs {
			set[TileCoord{x, y}] = true
		}
	}
	return set
}

func sameCoords(a, b map[TileCoord]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for c := range a {
		if !b[c] {
			return false
		}
	}
	return true
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("Expected error for missing tile width")
	}

	_, err := New(Config{TileWidth: 20, Border: -1})
	var inv *InvalidArgumentError
	if !errors.As(err, &inv) {
		t.Fatalf("Expected *InvalidArgumentError for negative border, got %v", err)
	}
	if inv.Field != "Border" {
		t.Errorf("Expected field Border, got %q", inv.Field)
	}

	if _, err := New(Config{TileWidth: 20, ImageBounds: Bounds{MaxX: BoundAt(15)}}); err == nil {
		t.Error("Expected error for misaligned image bounds")
	}

	tl := newTestTiler(t, Config{TileWidth: 20})
	if tl.TileHeight() != 20 {
		t.Errorf("Expected square tiles by default, got height %d", tl.TileHeight())
	}
	if got := tl.Window(); got != (image.Rectangle{}) {
		t.Errorf("Expected empty initial window, got %v", got)
	}
	if got := tl.BufferExtent(); got != (image.Rectangle{}) {
		t.Errorf("Expected empty initial extent, got %v", got)
	}
}

func TestUpdateMovesWindow(t *testing.T) {
	tl := newTestTiler(t, Config{TileWidth: 20})

	tl.Update(image.Pt(10, 10), image.Pt(35, 78))
	if got := tl.Window(); got != image.Rect(10, 10, 45, 88) {
		t.Errorf("Expected window (10,10,45,88), got %v", got)
	}
	if got := tl.BufferExtent(); got != image.Rect(-20, -20, 80, 120) {
		t.Errorf("Expected extent (-20,-20,80,120), got %v", got)
	}

	tl.Update(image.Pt(50, 50), image.Pt(35, 78))
	if got := tl.Window(); got != image.Rect(30, 30, 65, 108) {
		t.Errorf("Expected window (30,30,65,108), got %v", got)
	}
	if got := tl.BufferExtent(); got != image.Rect(0, 0, 100, 140) {
		t.Errorf("Expected extent (0,0,100,140), got %v", got)
	}
}

func TestNextJobDrainsNeededTiles(t *testing.T) {
	tl := newTestTiler(t, Config{TileWidth: 20})
	tl.Update(image.Pt(10, 10), image.Pt(35, 78))

	got := drainJobs(t, tl)
	want := gridSet([]int{-1, 0, 1, 2, 3}, []int{-1, 0, 1, 2, 3, 4, 5})
	if !sameCoords(got, want) {
		t.Errorf("Expected %d coordinates of the 5x6 grid, got %d: %v", len(want), len(got), got)
	}

	// A further take must time out again.
	if _, err := tl.NextJob(20 * time.Millisecond); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty after drain, got %v", err)
	}
}

func TestUpdateReplacesPendingJobs(t *testing.T) {
	tl := newTestTiler(t, Config{TileWidth: 20})
	tl.Update(image.Pt(10, 10), image.Pt(35, 78))
	for i := 0; i < 4; i++ {
		if _, err := tl.NextJob(50 * time.Millisecond); err != nil {
			t.Fatalf("NextJob failed: %v", err)
		}
	}

	// Buffer is now (-20,-20,80,120); move the window and the remaining
	// stale jobs must be superseded wholesale.
	tl.Update(image.Pt(0, 0), image.Pt(80, 60))
	if got := tl.Window(); got != image.Rect(-20, -20, 60, 40) {
		t.Errorf("Expected window (-20,-20,60,40), got %v", got)
	}

	got := drainJobs(t, tl)
	want := gridSet([]int{-2, -1, 0, 1, 2, 3}, []int{-2, -1, 0, 1, 2})
	if !sameCoords(got, want) {
		t.Errorf("Expected the %d-coordinate grid, got %d: %v", len(want), len(got), got)
	}
}

func TestDepositedTilesAreNotRequested(t *testing.T) {
	tl := newTestTiler(t, Config{TileWidth: 20})
	tile := solidTile(20, 20, color.White)
	for coord := range gridSet([]int{-1, 0, 1, 2, 3}, []int{-1, 0, 1, 2, 3, 4, 5}) {
		tl.Deposit(coord, tile)
	}

	tl.Update(image.Pt(10, 10), image.Pt(35, 78))
	if _, err := tl.NextJob(50 * time.Millisecond); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected no jobs when every tile was cached, got %v", err)
	}

	// Scroll left: only the newly exposed column is requested, cached
	// tiles that stayed in range are reused.
	tl.Update(image.Pt(0, 20), image.Pt(20, 20))
	if got := tl.Window(); got != image.Rect(-20, 0, 0, 20) {
		t.Errorf("Expected window (-20,0,0,20), got %v", got)
	}
	got := drainJobs(t, tl)
	want := gridSet([]int{-2}, []int{-1, 0, 1})
	if !sameCoords(got, want) {
		t.Errorf("Expected only the new column %v, got %v", want, got)
	}
}

func TestReconcileEvictsOutOfRangeTiles(t *testing.T) {
	tl := newTestTiler(t, Config{TileWidth: 20})
	tile := solidTile(20, 20, color.White)

	tl.Update(image.Pt(10, 10), image.Pt(35, 78))
	for coord := range drainJobs(t, tl) {
		tl.Deposit(coord, tile)
	}

	// Jump far away, then back. The earlier tiles must have been evicted
	// and so are requested again.
	tl.MoveTo(2000, 2000)
	drainJobs(t, tl)
	tl.MoveTo(10, 10)

	got := drainJobs(t, tl)
	want := gridSet([]int{-1, 0, 1, 2, 3}, []int{-1, 0, 1, 2, 3, 4, 5})
	if !sameCoords(got, want) {
		t.Errorf("Expected every evicted tile to be re-requested, got %d of %d", len(got), len(want))
	}
}

func TestRedrawCoalescing(t *testing.T) {
	rec := &recordingRedrawer{}
	tl := newTestTiler(t, Config{TileWidth: 20, Redrawer: rec})

	tl.Update(image.Pt(10, 10), image.Pt(35, 78))
	rec.mu.Lock()
	if len(rec.redraws) != 1 {
		t.Fatalf("Expected 1 redraw, got %d", len(rec.redraws))
	}
	if rec.redraws[0] != image.Pt(30, 30) {
		t.Errorf("Expected offset (30,30), got %v", rec.redraws[0])
	}
	if b := rec.lastBuf.Bounds(); b.Dx() != 100 || b.Dy() != 140 {
		t.Errorf("Expected a 100x140 buffer, got %v", b)
	}
	rec.mu.Unlock()

	// Same needed extent: no second redraw.
	tl.Update(image.Pt(30, 30), image.Pt(40, 80))
	rec.mu.Lock()
	if len(rec.redraws) != 1 {
		t.Errorf("Expected redraws to coalesce, got %d", len(rec.redraws))
	}
	rec.mu.Unlock()

	tl.Update(image.Pt(50, 50), image.Pt(35, 78))
	rec.mu.Lock()
	if len(rec.redraws) != 2 {
		t.Fatalf("Expected 2 redraws, got %d", len(rec.redraws))
	}
	if rec.redraws[1] != image.Pt(30, 30) {
		t.Errorf("Expected offset (30,30), got %v", rec.redraws[1])
	}
	rec.mu.Unlock()
}

func TestDepositPastesIntoLiveBuffer(t *testing.T) {
	rec := &recordingRedrawer{}
	tl := newTestTiler(t, Config{TileWidth: 20, Redrawer: rec})
	tl.Update(image.Pt(10, 10), image.Pt(35, 78)) // extent (-20,-20,80,120)

	red := color.RGBA{R: 0xff, A: 0xff}
	tl.Deposit(TileCoord{0, 0}, solidTile(20, 20, red))

	rec.mu.Lock()
	buf := rec.lastBuf
	refreshes := rec.refreshes
	rec.mu.Unlock()
	if refreshes != 1 {
		t.Fatalf("Expected 1 refresh notification, got %d", refreshes)
	}
	// Tile (0,0) lands at pixel (20,20) of the buffer.
	if got := buf.RGBAAt(20, 20); got != red {
		t.Errorf("Expected red at (20,20), got %v", got)
	}
	if got := buf.RGBAAt(39, 39); got != red {
		t.Errorf("Expected red at (39,39), got %v", got)
	}
	if got := buf.RGBAAt(40, 40); got == red {
		t.Error("Tile bled outside its rectangle")
	}
}

func TestLateArrivalIsCachedWithoutRedraw(t *testing.T) {
	rec := &recordingRedrawer{}
	tl := newTestTiler(t, Config{TileWidth: 20, Redrawer: rec})
	tl.Update(image.Pt(10, 10), image.Pt(35, 78))

	// A tile for a region nowhere near the current extent: cached, but no
	// refresh is triggered.
	far := TileCoord{50, 50}
	tl.Deposit(far, solidTile(20, 20, color.White))
	rec.mu.Lock()
	if rec.refreshes != 0 {
		t.Errorf("Expected no refresh for an out-of-extent tile, got %d", rec.refreshes)
	}
	rec.mu.Unlock()

	// Scroll there: the cached tile is reused, not re-requested.
	tl.MoveTo(50*20+5, 50*20+5)
	if got := drainJobs(t, tl); got[far] {
		t.Errorf("Cached late arrival %v was re-requested", far)
	}
}

func TestReuseSurvivesReconciliation(t *testing.T) {
	tl := newTestTiler(t, Config{TileWidth: 20})
	red := color.RGBA{R: 0xff, A: 0xff}

	tl.Update(image.Pt(10, 10), image.Pt(35, 78)) // extent (-20,-20,80,120)
	tl.Deposit(TileCoord{1, 1}, solidTile(20, 20, red))

	rec := &recordingRedrawer{}
	tl.redraw = rec
	tl.Update(image.Pt(50, 50), image.Pt(35, 78)) // extent (0,0,100,140)

	rec.mu.Lock()
	buf := rec.lastBuf
	rec.mu.Unlock()
	// Tile (1,1) now lands at pixel (20,20) of the new buffer.
	if got := buf.RGBAAt(25, 25); got != red {
		t.Errorf("Expected reused tile pixel at (25,25), got %v", got)
	}
	if got := drainJobs(t, tl); got[TileCoord{1, 1}] {
		t.Error("Cached tile (1,1) was re-requested after reconciliation")
	}
}

func TestWindowOutsideBoundedImage(t *testing.T) {
	rec := &recordingRedrawer{}
	tl := newTestTiler(t, Config{
		TileWidth:   20,
		ImageBounds: RectBounds(image.Rect(0, 0, 40, 40)),
		Redrawer:    rec,
	})

	tl.Update(image.Pt(500, 500), image.Pt(30, 30))
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.redraws) != 1 {
		t.Fatalf("Expected 1 redraw, got %d", len(rec.redraws))
	}
	if b := rec.lastBuf.Bounds(); b.Dx() != 0 || b.Dy() != 0 {
		t.Errorf("Expected a zero-size buffer, got %v", b)
	}
	if _, err := tl.NextJob(20 * time.Millisecond); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected no jobs for an empty extent, got %v", err)
	}
}

func TestMoveTo(t *testing.T) {
	tl := newTestTiler(t, Config{TileWidth: 20})
	tl.Update(image.Pt(0, 0), image.Pt(40, 40))

	tl.MoveTo(203, -77)
	if got := tl.Window(); got != image.Rect(203, -77, 243, -37) {
		t.Errorf("Expected window (203,-77,243,-37), got %v", got)
	}
	ext := tl.BufferExtent()
	if !image.Rect(203, -77, 243, -37).In(ext) {
		t.Errorf("Extent %v does not contain the window", ext)
	}
}

func TestResize(t *testing.T) {
	tl := newTestTiler(t, Config{TileWidth: 20})
	tl.Update(image.Pt(10, 10), image.Pt(35, 78))

	tl.Resize(image.Pt(100, 50))
	if got := tl.Window(); got != image.Rect(10, 10, 110, 60) {
		t.Errorf("Expected window (10,10,110,60), got %v", got)
	}
}
