// Package canvas is a raster backend. Each primitive is drawn once into its
// own layer; Present composites the layers over the background in z order.
package canvas

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/go-drift/loom/pkg/backend/internal/imageio"
	"github.com/go-drift/loom/pkg/backend/internal/textlayout"
	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/rendering"
)

// Options configures a Backend.
type Options struct {
	Width, Height int
	// Background fills the canvas on Clear. Defaults to white.
	Background rendering.Color
	// TextColor defaults to black.
	TextColor rendering.Color
	// Face is the text face, which should be monospaced. Defaults to
	// basicfont.Face7x13.
	Face font.Face
}

// Backend draws into an in-memory RGBA image.
type Backend struct {
	face    font.Face
	advance int
	lineH   int
	ascent  int
	bg      rendering.Color
	fg      rendering.Color

	mu       sync.Mutex
	width    int
	height   int
	frame    *image.RGBA
	live     map[*layer]struct{}
	presents int

	handlers map[int]rendering.InputHandler
	nextID   int
}

// layer is the handle type. src is nil for solid fills.
type layer struct {
	r     image.Rectangle
	src   *image.RGBA
	color rendering.Color
}

// New returns a Backend of opts.Width x opts.Height pixels.
func New(opts Options) *Backend {
	if opts.Background == 0 {
		opts.Background = rendering.ColorWhite
	}
	if opts.TextColor == 0 {
		opts.TextColor = rendering.ColorBlack
	}
	if opts.Face == nil {
		opts.Face = basicfont.Face7x13
	}
	m := opts.Face.Metrics()
	b := &Backend{
		face:     opts.Face,
		advance:  font.MeasureString(opts.Face, "M").Ceil(),
		lineH:    m.Height.Ceil(),
		ascent:   m.Ascent.Ceil(),
		bg:       opts.Background,
		fg:       opts.TextColor,
		width:    max(0, opts.Width),
		height:   max(0, opts.Height),
		live:     make(map[*layer]struct{}),
		handlers: make(map[int]rendering.InputHandler),
	}
	b.frame = b.blank()
	return b
}

func (b *Backend) blank() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(b.bg.NRGBA()), image.Point{}, draw.Src)
	return img
}

func pixels(box bounds.BoundingBox) image.Rectangle {
	return image.Rect(
		int(math.Round(box.Left)),
		int(math.Round(box.Top)),
		int(math.Round(box.Right())),
		int(math.Round(box.Bottom())),
	)
}

// CellSize is the pixel size of one text column and line.
func (b *Backend) CellSize() (w, h int) { return b.advance, b.lineH }

func (b *Backend) RootBoundingBox() bounds.BoundingBox {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bounds.BoundingBox{Width: float64(b.width), Height: float64(b.height)}
}

// Resize changes the canvas size and blanks it.
func (b *Backend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = max(0, width), max(0, height)
	b.frame = b.blank()
}

func (b *Backend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = b.blank()
}

func (b *Backend) track(l *layer) rendering.Handle {
	b.mu.Lock()
	b.live[l] = struct{}{}
	b.mu.Unlock()
	return l
}

func (b *Backend) DrawSolidColor(box bounds.BoundingBox, c rendering.Color) (rendering.Handle, error) {
	return b.track(&layer{r: pixels(box), color: c}), nil
}

func (b *Backend) DrawText(box bounds.BoundingBox, wrap rendering.WrapMode, content string) (rendering.Handle, error) {
	r := pixels(box)
	l := &layer{r: r, src: image.NewRGBA(r)}
	b.drawLines(l.src, r, textlayout.Lines(content, r.Dx()/b.advance, r.Dy()/b.lineH, wrap))
	return b.track(l), nil
}

func (b *Backend) drawLines(dst *image.RGBA, r image.Rectangle, lines []string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(b.fg.NRGBA()),
		Face: b.face,
	}
	for i, line := range lines {
		d.Dot = fixed.P(r.Min.X, r.Min.Y+i*b.lineH+b.ascent)
		d.DrawString(line)
	}
}

// DrawImage scales the image at path to fill box.
func (b *Backend) DrawImage(box bounds.BoundingBox, path string) (rendering.Handle, error) {
	img, err := imageio.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("canvas: %w", err)
	}
	r := pixels(box)
	scaled := imageio.Scale(img, r.Dx(), r.Dy(), draw.CatmullRom)
	scaled.Rect = scaled.Rect.Add(r.Min)
	return b.track(&layer{r: r, src: scaled}), nil
}

// DrawVectorImage draws a frame labelled with the file name. Vector files
// are not rasterized.
func (b *Backend) DrawVectorImage(box bounds.BoundingBox, path string) (rendering.Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("canvas: %w", err)
	}
	r := pixels(box)
	l := &layer{r: r, src: image.NewRGBA(r)}
	stroke := image.NewUniform(b.fg.NRGBA())
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(l.src, edge.Intersect(r), stroke, image.Point{}, draw.Src)
	}
	inner := r.Inset(2)
	b.drawLines(l.src, inner, textlayout.Lines(filepath.Base(path), inner.Dx()/b.advance, inner.Dy()/b.lineH, rendering.WrapChar))
	return b.track(l), nil
}

func (b *Backend) Release(h rendering.Handle) {
	l, ok := h.(*layer)
	if !ok {
		return
	}
	b.mu.Lock()
	delete(b.live, l)
	b.mu.Unlock()
}

// Live returns the number of layers not yet released.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

func (b *Backend) Present(handles []rendering.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := b.blank()
	for _, h := range handles {
		l, ok := h.(*layer)
		if !ok {
			return fmt.Errorf("canvas: foreign handle %T", h)
		}
		if l.src == nil {
			draw.Draw(next, l.r, image.NewUniform(l.color.NRGBA()), image.Point{}, draw.Over)
			continue
		}
		draw.Draw(next, l.r, l.src, l.r.Min, draw.Over)
	}
	b.frame = next
	b.presents++
	return nil
}

// Presents returns the number of successful Present calls.
func (b *Backend) Presents() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.presents
}

// Image returns a copy of the last presented frame.
func (b *Backend) Image() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := image.NewRGBA(b.frame.Bounds())
	copy(out.Pix, b.frame.Pix)
	return out
}

// WritePNG encodes the last presented frame.
func (b *Backend) WritePNG(w io.Writer) error {
	return png.Encode(w, b.Image())
}

// SavePNG writes the last presented frame to path.
func (b *Backend) SavePNG(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return b.WritePNG(f)
}

// CaptureInput registers handler. A canvas has no keyboard; keys arrive
// through Press.
func (b *Backend) CaptureInput(handler rendering.InputHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}
}

// Press delivers k to every registered handler.
func (b *Backend) Press(k rendering.Key) {
	b.mu.Lock()
	handlers := make([]rendering.InputHandler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()
	for _, h := range handlers {
		h(k)
	}
}

var (
	_ rendering.Backend  = (*Backend)(nil)
	_ rendering.Releaser = (*Backend)(nil)
)
