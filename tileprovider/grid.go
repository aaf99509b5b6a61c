// Package tileprovider contains ready-made tile providers for demos and
// tests: a labelled coordinate grid, a Mandelbrot renderer, and a provider
// that cuts tiles out of a decoded image.
package tileprovider

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Grid produces square tiles over an infinite grid, each outlined and
// labelled with its own coordinates. Useful for demos and for eyeballing
// tile alignment.
type Grid struct {
	// Size is the tile edge in pixels. Required.
	Size int
	// Background and Foreground default to white and black.
	Background color.Color
	Foreground color.Color
}

// Fetch renders the tile at (tx, ty). It never fails.
func (g *Grid) Fetch(tx, ty int) (image.Image, error) {
	bg, fg := g.Background, g.Foreground
	if bg == nil {
		bg = color.White
	}
	if fg == nil {
		fg = color.Black
	}

	img := image.NewRGBA(image.Rect(0, 0, g.Size, g.Size))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	for i := 0; i < g.Size; i++ {
		img.Set(i, 0, fg)
		img.Set(i, g.Size-1, fg)
		img.Set(0, i, fg)
		img.Set(g.Size-1, i, fg)
	}

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(g.Size/4, g.Size/2),
	}
	d.DrawString(fmt.Sprintf("(%d,%d)", tx, ty))
	return img, nil
}
