package tileprovider

import (
	"image"
	"image/color"
)

// Mandelbrot renders escape-time tiles over the complex plane, giving an
// unbounded image that is cheap to generate and visibly different at every
// coordinate. Pixel (px, py) in image space maps to the complex number
// (px*Scale+OffsetX, py*Scale+OffsetY).
type Mandelbrot struct {
	// Size is the tile edge in pixels. Required.
	Size int
	// Scale is the width of one pixel in complex units. Zero means 1/256.
	Scale float64
	// OffsetX, OffsetY shift the plane; the defaults put the interesting
	// part of the set near the image origin.
	OffsetX, OffsetY float64
	// MaxIter bounds the escape iteration count. Zero means 256.
	MaxIter int
}

// Fetch renders the tile at (tx, ty). It never fails.
func (m *Mandelbrot) Fetch(tx, ty int) (image.Image, error) {
	scale := m.Scale
	if scale == 0 {
		scale = 1.0 / 256
	}
	maxIter := m.MaxIter
	if maxIter == 0 {
		maxIter = 256
	}
	offX := m.OffsetX
	if offX == 0 {
		offX = -0.75
	}

	img := image.NewRGBA(image.Rect(0, 0, m.Size, m.Size))
	for py := 0; py < m.Size; py++ {
		ci := float64(ty*m.Size+py)*scale + m.OffsetY
		for px := 0; px < m.Size; px++ {
			cr := float64(tx*m.Size+px)*scale + offX
			img.SetRGBA(px, py, escapeColor(cr, ci, maxIter))
		}
	}
	return img, nil
}

// escapeColor iterates z = z^2 + c and shades by how quickly z escapes.
// Points inside the set stay black.
func escapeColor(cr, ci float64, maxIter int) color.RGBA {
	var zr, zi float64
	for i := 0; i < maxIter; i++ {
		zr2, zi2 := zr*zr, zi*zi
		if zr2+zi2 > 4 {
			v := uint8(255 * i / maxIter)
			return color.RGBA{R: v, G: v / 2, B: 255 - v, A: 0xff}
		}
		zr, zi = zr2-zi2+cr, 2*zr*zi+ci
	}
	return color.RGBA{A: 0xff}
}
