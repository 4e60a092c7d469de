package main

import (
	"flag"
	"image"
	stdpng "image/png"
	"log"
	"os"
	"path/filepath"

	png "png.brickate.net"
)

func main() {
	// Used for default file in cmd line args.
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatal(err)
	}
	defaultFilePath := filepath.Join(home, "Pictures", "smiley.png")

	// cl-args for png file path
	var pngCLI string
	flag.StringVar(&pngCLI, "png", defaultFilePath, "png file to supply")
	flag.Parse()

	img, err := png.LoadPNG(pngCLI)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Successfully decoded %s: %dx%d, color type %d\n", pngCLI, img.Width, img.Height, img.ColorType)

	// Re-encode the decoded RGBA buffer so the result can be inspected.
	out := &image.NRGBA{
		Pix:    img.Pix,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
	f, err := os.Create("image.png")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := stdpng.Encode(f, out); err != nil {
		log.Fatal(err)
	}
	log.Println("PNG file parsed successfully!")
}
