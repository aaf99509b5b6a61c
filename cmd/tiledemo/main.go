// Command tiledemo pans over an infinite, procedurally generated tiled
// image. Drag with the left mouse button to scroll.
package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"chosenoffset.com/tilewindow/tileprovider"
	"chosenoffset.com/tilewindow/tiler"
	"chosenoffset.com/tilewindow/tileview"
)

func main() {
	var (
		providerName = flag.String("provider", "grid", "tile provider: grid or mandelbrot")
		tileSize     = flag.Int("tilesize", 128, "tile edge in pixels")
		border       = flag.Int("border", 1, "tile border kept resident around the window")
		workers      = flag.Int("workers", 2, "background tile workers")
	)
	flag.Parse()

	var provider tiler.Provider
	switch *providerName {
	case "grid":
		provider = &tileprovider.Grid{Size: *tileSize}
	case "mandelbrot":
		provider = &tileprovider.Mandelbrot{Size: *tileSize}
	default:
		log.Fatalf("Unknown provider %q", *providerName)
	}

	view, err := tileview.New(tileview.Config{
		Provider:  provider,
		TileWidth: *tileSize,
		Border:    *border,
		Workers:   *workers,
	})
	if err != nil {
		log.Fatalf("Failed to create view: %v", err)
	}
	defer view.Close()

	ebiten.SetWindowSize(1024, 768)
	ebiten.SetWindowTitle("tilewindow - " + *providerName)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	log.Printf("Starting viewer with %d workers, %dpx tiles...", *workers, *tileSize)
	if err := ebiten.RunGame(view); err != nil {
		log.Fatal(err)
	}
}
