package canvas

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/layout"
	"github.com/go-drift/loom/pkg/node"
	"github.com/go-drift/loom/pkg/rendering"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func box(l, t, w, h float64) bounds.BoundingBox {
	return bounds.BoundingBox{Left: l, Top: t, Width: w, Height: h}
}

func present(t *testing.T, b *Backend, handles ...rendering.Handle) *image.RGBA {
	t.Helper()
	if err := b.Present(handles); err != nil {
		t.Fatalf("Present: %v", err)
	}
	return b.Image()
}

// anyPixel reports whether some pixel of r in img equals c.
func anyPixel(img *image.RGBA, r image.Rectangle, c color.RGBA) bool {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				return true
			}
		}
	}
	return false
}

func TestFillsCompositeInOrder(t *testing.T) {
	b := New(Options{Width: 20, Height: 20})
	back, _ := b.DrawSolidColor(box(0, 0, 10, 10), rendering.ColorRed)
	front, _ := b.DrawSolidColor(box(5, 5, 10, 10), rendering.ColorBlue)
	img := present(t, b, back, front)

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{2, 2, red},
		{7, 7, blue},
		{14, 14, blue},
		{17, 17, white},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestTextIsClippedToColumns(t *testing.T) {
	b := New(Options{Width: 100, Height: 20})
	cw, ch := b.CellSize()
	if cw != 7 || ch != 13 {
		t.Fatalf("cell size = %dx%d, want 7x13", cw, ch)
	}
	h, _ := b.DrawText(box(0, 0, 14, 13), rendering.WrapNone, "MMMMM")
	img := present(t, b, h)

	if !anyPixel(img, image.Rect(0, 0, 14, 13), black) {
		t.Error("no glyph pixels drawn")
	}
	if anyPixel(img, image.Rect(14, 0, 100, 20), black) {
		t.Error("glyphs drawn past the second column")
	}
}

func writePNG(t *testing.T, dir string, c color.RGBA) string {
	t.Helper()
	path := filepath.Join(dir, "px.png")
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, c)
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

func TestDrawImageScalesIntoBox(t *testing.T) {
	dir := t.TempDir()
	b := New(Options{Width: 10, Height: 10})
	h, err := b.DrawImage(box(2, 2, 4, 4), writePNG(t, dir, red))
	if err != nil {
		t.Fatalf("DrawImage: %v", err)
	}
	img := present(t, b, h)
	if got := img.RGBAAt(3, 3); got.R < 200 || got.B > 50 {
		t.Errorf("inside pixel = %v, want red", got)
	}
	if got := img.RGBAAt(8, 8); got != white {
		t.Errorf("outside pixel = %v, want background", got)
	}

	if _, err := b.DrawImage(box(0, 0, 1, 1), filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for a missing image")
	}
	if _, err := b.DrawVectorImage(box(0, 0, 1, 1), filepath.Join(dir, "missing.svg")); err == nil {
		t.Error("expected error for a missing vector image")
	}
}

func TestVectorImageFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.svg")
	os.WriteFile(path, []byte("<svg/>"), 0o644)
	b := New(Options{Width: 100, Height: 30})
	h, err := b.DrawVectorImage(box(10, 5, 80, 20), path)
	if err != nil {
		t.Fatalf("DrawVectorImage: %v", err)
	}
	img := present(t, b, h)
	if got := img.RGBAAt(10, 5); got != black {
		t.Errorf("corner = %v, want stroke", got)
	}
	if got := img.RGBAAt(50, 5); got != black {
		t.Errorf("top edge = %v, want stroke", got)
	}
	if !anyPixel(img, image.Rect(12, 7, 88, 23), black) {
		t.Error("label not drawn")
	}
}

func TestPipelineFrameAndPNG(t *testing.T) {
	b := New(Options{Width: 40, Height: 30, Background: rendering.ColorBlack})
	sized := func(h float64) node.Props {
		return node.Props{Bounds: bounds.Spec{Height: bounds.Cells(h)}.Resolver()}
	}
	root := node.Box(node.Props{}, bounds.Sublayout{Direction: bounds.Vertical},
		node.Color(sized(10), rendering.ColorRed),
		node.Border(sized(20), node.BorderThick, rendering.ColorBlue),
	)
	p := layout.NewPipeline(b)
	if err := p.Frame(root); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := b.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"fill", 20, 5, red},
		{"border top", 20, 11, blue},
		{"border left", 1, 20, blue},
		{"border inside", 20, 20, black},
	}
	for _, tt := range tests {
		r, g, bl, a := img.At(tt.x, tt.y).RGBA()
		got := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8), uint8(a >> 8)}
		if got != tt.want {
			t.Errorf("%s (%d,%d) = %v, want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}
	if b.Presents() != 1 {
		t.Errorf("Presents = %d", b.Presents())
	}

	p.Release()
	if b.Live() != 0 {
		t.Errorf("Live after Release = %d", b.Live())
	}
}

func TestClearAndForeignHandles(t *testing.T) {
	b := New(Options{Width: 4, Height: 4})
	h, _ := b.DrawSolidColor(box(0, 0, 4, 4), rendering.ColorRed)
	present(t, b, h)
	b.Clear()
	if got := b.Image().RGBAAt(1, 1); got != white {
		t.Errorf("after Clear = %v", got)
	}
	if err := b.Present([]rendering.Handle{"bogus"}); err == nil {
		t.Error("expected error for a foreign handle")
	}
}

func TestPressReachesHandlers(t *testing.T) {
	b := New(Options{Width: 1, Height: 1})
	var got []string
	unregister := b.CaptureInput(func(k rendering.Key) { got = append(got, k.Name) })
	b.Press(rendering.Key{Name: "a"})
	unregister()
	b.Press(rendering.Key{Name: "b"})
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("keys = %v", got)
	}
}
