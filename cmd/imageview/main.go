// Command imageview displays a (large) image file and lets the user drag
// it around. The image is cut into tiles on demand, so files much larger
// than the screen open instantly.
package main

import (
	"flag"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	// Extra decoders beyond the stdlib formats.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"chosenoffset.com/tilewindow/tileprovider"
	"chosenoffset.com/tilewindow/tileview"
)

func main() {
	var (
		tileSize = flag.Int("tilesize", 256, "tile edge in pixels")
		zoom     = flag.Int("zoom", 1, "integer magnification; must divide the tile size")
		workers  = flag.Int("workers", 2, "background tile workers")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("Usage: %s [flags] <image file>", os.Args[0])
	}
	path := flag.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	src, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		log.Fatalf("Failed to decode %s: %v", path, err)
	}
	log.Printf("Loaded %s %s image %v", path, format, src.Bounds())

	provider, err := tileprovider.NewImage(src, *tileSize, *tileSize, *zoom)
	if err != nil {
		log.Fatalf("Failed to create provider: %v", err)
	}

	view, err := tileview.New(tileview.Config{
		Provider:    provider,
		TileWidth:   *tileSize,
		ImageBounds: provider.Bounds(),
		Workers:     *workers,
	})
	if err != nil {
		log.Fatalf("Failed to create view: %v", err)
	}
	defer view.Close()

	ebiten.SetWindowSize(1024, 768)
	ebiten.SetWindowTitle("imageview - " + path)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(view); err != nil {
		log.Fatal(err)
	}
}
