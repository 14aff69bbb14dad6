package imageio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/draw"
)

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeAndScale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			src.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	img, err := Decode(writePNG(t, src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Fatalf("width = %d", img.Bounds().Dx())
	}

	small := Scale(img, 2, 1, draw.NearestNeighbor)
	if small.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Fatalf("bounds = %v", small.Bounds())
	}
	if got := small.RGBAAt(1, 0); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("pixel = %v", got)
	}
	if empty := Scale(img, 0, 3, nil); !empty.Bounds().Empty() {
		t.Errorf("zero width should give an empty image, got %v", empty.Bounds())
	}
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Decode(filepath.Join(dir, "missing.png")); !os.IsNotExist(err) {
		t.Errorf("missing file err = %v", err)
	}
	garbage := filepath.Join(dir, "bad.png")
	os.WriteFile(garbage, []byte("not an image"), 0o644)
	if _, err := Decode(garbage); err == nil {
		t.Error("expected decode error")
	}
}
