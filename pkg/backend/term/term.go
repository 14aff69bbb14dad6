// Package term is a character-cell backend. Primitives are composed into a
// cell grid on Present and only rows that changed since the last frame are
// written to the terminal.
package term

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/image/draw"

	"github.com/go-drift/loom/pkg/backend/internal/imageio"
	"github.com/go-drift/loom/pkg/backend/internal/textlayout"
	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/rendering"
)

const (
	escHome        = "\x1b[H"
	escErase       = "\x1b[2J"
	escHideCursor  = "\x1b[?25l"
	escShowCursor  = "\x1b[?25h"
	escAltScreen   = "\x1b[?1049h"
	escMainScreen  = "\x1b[?1049l"
	escResetStyles = "\x1b[0m"
)

// Options configures a Backend.
type Options struct {
	// In supplies key presses. Defaults to os.Stdin.
	In io.Reader
	// Out receives the frames. Defaults to os.Stdout.
	Out io.Writer
	// Width and Height are used when Out is not a terminal.
	Width, Height int
	// TextColor is the foreground of text primitives. Transparent uses the
	// terminal default.
	TextColor rendering.Color
}

// Backend renders into a terminal.
type Backend struct {
	in       io.Reader
	out      io.Writer
	renderer *lipgloss.Renderer
	textFG   rendering.Color
	tty      bool

	mu      sync.Mutex
	width   int
	height  int
	front   *grid
	pending bytes.Buffer
	live    map[primitive]struct{}
	raw     *ttyState
	opened  bool

	inputMu  sync.Mutex
	handlers map[int]rendering.InputHandler
	nextID   int
}

// New returns a backend sized to the terminal behind opts.Out, or to
// opts.Width x opts.Height when it is not a terminal.
func New(opts Options) *Backend {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	b := &Backend{
		in:       opts.In,
		out:      opts.Out,
		renderer: lipgloss.NewRenderer(opts.Out),
		textFG:   opts.TextColor,
		width:    max(0, opts.Width),
		height:   max(0, opts.Height),
		live:     make(map[primitive]struct{}),
		handlers: make(map[int]rendering.InputHandler),
	}
	if f, ok := opts.Out.(*os.File); ok && IsTerminal(f) {
		b.tty = true
		if cols, rows, ok := winSize(int(f.Fd())); ok {
			b.width, b.height = cols, rows
		}
	}
	b.front = newGrid(b.width, b.height)
	return b
}

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Open switches a terminal to the alternate screen with raw input. It is a
// no-op when the output is not a terminal.
func (b *Backend) Open() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.tty || b.opened {
		return nil
	}
	if f, ok := b.in.(*os.File); ok && IsTerminal(f) {
		raw, err := makeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("term: raw mode: %w", err)
		}
		b.raw = raw
	}
	b.opened = true
	_, err := io.WriteString(b.out, escAltScreen+escHideCursor+escErase+escHome)
	return err
}

// Close flushes pending output and undoes Open.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.flushLocked()
	if !b.opened {
		return err
	}
	b.opened = false
	if _, werr := io.WriteString(b.out, escResetStyles+escShowCursor+escMainScreen); err == nil {
		err = werr
	}
	if f, ok := b.in.(*os.File); ok && b.raw != nil {
		if rerr := restore(int(f.Fd()), b.raw); err == nil {
			err = rerr
		}
	}
	b.raw = nil
	return err
}

// Resize re-reads the terminal size, or sets it to width x height when the
// output is not a terminal. It reports whether the size changed; the next
// Present repaints everything.
func (b *Backend) Resize(width, height int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := b.out.(*os.File); ok && b.tty {
		if cols, rows, ok := winSize(int(f.Fd())); ok {
			width, height = cols, rows
		}
	}
	if width == b.width && height == b.height {
		return false
	}
	b.width, b.height = max(0, width), max(0, height)
	b.front = newGrid(b.width, b.height)
	b.pending.WriteString(escErase)
	return true
}

func (b *Backend) RootBoundingBox() bounds.BoundingBox {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bounds.BoundingBox{Width: float64(b.width), Height: float64(b.height)}
}

// Clear blanks the screen. The erase is written together with the next
// Present so the two reach the terminal in one write, or by Flush when no
// Present follows.
func (b *Backend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.front = newGrid(b.width, b.height)
	b.pending.WriteString(escErase)
}

// Flush writes any output queued by Clear.
func (b *Backend) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked()
}

func (b *Backend) flushLocked() error {
	if b.pending.Len() == 0 {
		return nil
	}
	_, err := b.out.Write(b.pending.Bytes())
	b.pending.Reset()
	return err
}

func (b *Backend) track(p primitive) rendering.Handle {
	b.mu.Lock()
	b.live[p] = struct{}{}
	b.mu.Unlock()
	return p
}

func (b *Backend) DrawText(box bounds.BoundingBox, wrap rendering.WrapMode, content string) (rendering.Handle, error) {
	r := snap(box)
	return b.track(&textPrim{
		r:     r,
		lines: textlayout.Lines(content, r.width(), r.height(), wrap),
		fg:    b.textFG,
	}), nil
}

func (b *Backend) DrawSolidColor(box bounds.BoundingBox, c rendering.Color) (rendering.Handle, error) {
	return b.track(&fillPrim{r: snap(box), color: c}), nil
}

// DrawImage samples the image at two pixels per cell vertically.
func (b *Backend) DrawImage(box bounds.BoundingBox, path string) (rendering.Handle, error) {
	img, err := imageio.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	r := snap(box)
	w, h := r.width(), r.height()
	scaled := imageio.Scale(img, w, 2*h, draw.ApproxBiLinear)
	p := &imagePrim{r: r, pixels: make([][2]rendering.Color, w*h)}
	for y := range h {
		for x := range w {
			p.pixels[y*w+x] = [2]rendering.Color{
				rendering.FromColor(scaled.At(x, 2*y)),
				rendering.FromColor(scaled.At(x, 2*y+1)),
			}
		}
	}
	return b.track(p), nil
}

// DrawVectorImage shows the file name in brackets; terminals have no vector
// output.
func (b *Backend) DrawVectorImage(box bounds.BoundingBox, path string) (rendering.Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	r := snap(box)
	label := "[" + filepath.Base(path) + "]"
	return b.track(&textPrim{
		r:     r,
		lines: textlayout.Lines(label, r.width(), r.height(), rendering.WrapChar),
		fg:    b.textFG,
	}), nil
}

func (b *Backend) Release(h rendering.Handle) {
	p, ok := h.(primitive)
	if !ok {
		return
	}
	b.mu.Lock()
	delete(b.live, p)
	b.mu.Unlock()
}

// Live returns the number of drawn primitives not yet released.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

func (b *Backend) Present(handles []rendering.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := newGrid(b.width, b.height)
	for _, h := range handles {
		p, ok := h.(primitive)
		if !ok {
			return fmt.Errorf("term: foreign handle %T", h)
		}
		p.paint(next)
	}
	for y := range next.h {
		if rowsEqual(next.row(y), b.front.row(y)) {
			continue
		}
		fmt.Fprintf(&b.pending, "\x1b[%d;1H", y+1)
		b.renderRow(&b.pending, next.row(y))
	}
	b.front = next
	return b.flushLocked()
}

func rowsEqual(a, b []Cell) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// renderRow writes runs of equally styled cells through lipgloss.
func (b *Backend) renderRow(w *bytes.Buffer, row []Cell) {
	for start := 0; start < len(row); {
		end := start + 1
		for end < len(row) && row[end].sameStyle(row[start]) {
			end++
		}
		var text strings.Builder
		for _, c := range row[start:end] {
			if !c.continuation() {
				text.WriteRune(c.Rune)
			}
		}
		w.WriteString(b.style(row[start]).Render(text.String()))
		start = end
	}
}

func (b *Backend) style(c Cell) lipgloss.Style {
	s := b.renderer.NewStyle()
	if !c.FG.Transparent() {
		s = s.Foreground(lipgloss.Color(c.FG.Hex()))
	}
	if !c.BG.Transparent() {
		s = s.Background(lipgloss.Color(c.BG.Hex()))
	}
	return s
}

// Screen returns the text of the last presented frame, one line per row.
func (b *Backend) Screen() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows := make([]string, b.front.h)
	for y := range rows {
		rows[y] = b.front.text(y)
	}
	return strings.Join(rows, "\n")
}

// CellAt returns the cell at (x, y) of the last presented frame.
func (b *Backend) CellAt(x, y int) Cell {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.front.at(x, y)
}

var (
	_ rendering.Backend  = (*Backend)(nil)
	_ rendering.Releaser = (*Backend)(nil)
	_ rendering.Flusher  = (*Backend)(nil)
)
