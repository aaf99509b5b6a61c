package tileprovider

import (
	"fmt"
	"image"
	stddraw "image/draw"

	xdraw "golang.org/x/image/draw"

	"chosenoffset.com/tilewindow/tiler"
)

// Image serves tiles cut from a single decoded source image, optionally
// magnified by an integer zoom factor. Coordinates outside the source
// yield no tile. Bounds reports the tile-aligned cover of the (zoomed)
// source for use as tiler.Config.ImageBounds, so the viewer cannot scroll
// arbitrarily far from the picture.
type Image struct {
	src    image.Image
	tileW  int
	tileH  int
	zoom   int
	scaler xdraw.Interpolator
}

// NewImage creates a provider cutting tileWidth x tileHeight tiles from
// src at the given integer magnification. zoom must be at least 1 and must
// divide both tile dimensions, so tile edges stay exact in source space.
func NewImage(src image.Image, tileWidth, tileHeight, zoom int) (*Image, error) {
	if src == nil {
		return nil, fmt.Errorf("tileprovider: nil source image")
	}
	if tileWidth <= 0 || tileHeight <= 0 {
		return nil, fmt.Errorf("tileprovider: invalid tile size %dx%d", tileWidth, tileHeight)
	}
	if zoom < 1 {
		return nil, fmt.Errorf("tileprovider: zoom must be at least 1, got %d", zoom)
	}
	if tileWidth%zoom != 0 || tileHeight%zoom != 0 {
		return nil, fmt.Errorf("tileprovider: zoom %d must divide the tile size %dx%d", zoom, tileWidth, tileHeight)
	}
	return &Image{
		src:    src,
		tileW:  tileWidth,
		tileH:  tileHeight,
		zoom:   zoom,
		scaler: xdraw.NearestNeighbor,
	}, nil
}

// SetInterpolator changes the scaler used when zoom > 1. The default is
// nearest-neighbour, which keeps pixels crisp.
func (p *Image) SetInterpolator(s xdraw.Interpolator) { p.scaler = s }

// Bounds returns the tile-aligned rectangle covering the zoomed source,
// suitable for tiler.Config.ImageBounds.
func (p *Image) Bounds() tiler.Bounds {
	b := p.src.Bounds()
	return tiler.RectBounds(image.Rect(
		floorDiv(b.Min.X*p.zoom, p.tileW)*p.tileW,
		floorDiv(b.Min.Y*p.zoom, p.tileH)*p.tileH,
		ceilDiv(b.Max.X*p.zoom, p.tileW)*p.tileW,
		ceilDiv(b.Max.Y*p.zoom, p.tileH)*p.tileH,
	))
}

// Fetch cuts the tile at (tx, ty), returning (nil, nil) when the tile lies
// entirely outside the source.
func (p *Image) Fetch(tx, ty int) (image.Image, error) {
	// Tile rectangle in zoomed image space, then back in source space.
	r := image.Rect(tx*p.tileW, ty*p.tileH, (tx+1)*p.tileW, (ty+1)*p.tileH)
	srcRect := image.Rect(r.Min.X/p.zoom, r.Min.Y/p.zoom, r.Max.X/p.zoom, r.Max.Y/p.zoom)
	if !srcRect.Overlaps(p.src.Bounds()) {
		return nil, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, p.tileW, p.tileH))
	if p.zoom == 1 {
		stddraw.Draw(dst, dst.Bounds(), p.src, r.Min, stddraw.Src)
		return dst, nil
	}
	// Clip to the source before scaling; edge tiles map only the covered
	// part of the tile, the rest stays transparent.
	clipped := srcRect.Intersect(p.src.Bounds())
	dstRect := image.Rect(
		(clipped.Min.X-srcRect.Min.X)*p.zoom,
		(clipped.Min.Y-srcRect.Min.Y)*p.zoom,
		(clipped.Max.X-srcRect.Min.X)*p.zoom,
		(clipped.Max.Y-srcRect.Min.Y)*p.zoom,
	)
	p.scaler.Scale(dst, dstRect, p.src, clipped, xdraw.Src, nil)
	return dst, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int { return -floorDiv(-a, b) }
