package term

import (
	"math"

	"github.com/mattn/go-runewidth"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/rendering"
)

// Cell is one character cell. Wide runes occupy two cells; the second is a
// continuation with Width 0. A transparent FG or BG uses the terminal
// default.
type Cell struct {
	Rune  rune
	Width uint8
	FG    rendering.Color
	BG    rendering.Color
}

var blank = Cell{Rune: ' ', Width: 1}

func (c Cell) continuation() bool { return c.Width == 0 }

func (c Cell) sameStyle(o Cell) bool { return c.FG == o.FG && c.BG == o.BG }

// rect is a box snapped to whole cells. It may extend past the grid.
type rect struct {
	x0, y0, x1, y1 int
}

func snap(b bounds.BoundingBox) rect {
	return rect{
		x0: int(math.Round(b.Left)),
		y0: int(math.Round(b.Top)),
		x1: int(math.Round(b.Right())),
		y1: int(math.Round(b.Bottom())),
	}
}

func (r rect) width() int  { return max(0, r.x1-r.x0) }
func (r rect) height() int { return max(0, r.y1-r.y0) }

type grid struct {
	w, h  int
	cells []Cell
}

func newGrid(w, h int) *grid {
	w, h = max(0, w), max(0, h)
	g := &grid{w: w, h: h, cells: make([]Cell, w*h)}
	for i := range g.cells {
		g.cells[i] = blank
	}
	return g
}

func (g *grid) idx(x, y int) int {
	if x < 0 || x >= g.w || y < 0 || y >= g.h {
		return -1
	}
	return y*g.w + x
}

func (g *grid) at(x, y int) Cell {
	if i := g.idx(x, y); i >= 0 {
		return g.cells[i]
	}
	return Cell{}
}

func (g *grid) row(y int) []Cell {
	return g.cells[y*g.w : (y+1)*g.w]
}

// setBG paints the background of a cell, keeping its rune.
func (g *grid) setBG(x, y int, c rendering.Color) {
	if i := g.idx(x, y); i >= 0 {
		g.cells[i].BG = c
	}
}

// put writes r at (x, y) keeping the background. It returns the number of
// cells consumed, 0 if r does not fit before limit.
func (g *grid) put(x, y, limit int, r rune, fg rendering.Color) int {
	w := runewidth.RuneWidth(r)
	if w == 0 {
		return 0
	}
	if x+w > limit || g.idx(x, y) < 0 {
		return 0
	}
	g.clearWide(x, y)
	i := g.idx(x, y)
	g.cells[i] = Cell{Rune: r, Width: uint8(w), FG: fg, BG: g.cells[i].BG}
	if w == 2 {
		j := g.idx(x+1, y)
		if j < 0 {
			g.cells[i].Rune, g.cells[i].Width = ' ', 1
			return 1
		}
		g.clearWide(x+1, y)
		g.cells[j] = Cell{Width: 0, FG: fg, BG: g.cells[j].BG}
	}
	return w
}

// clearWide blanks the wide rune covering (x, y), if any.
func (g *grid) clearWide(x, y int) {
	c := g.at(x, y)
	switch {
	case c.continuation() && g.idx(x, y) >= 0:
		if i := g.idx(x-1, y); i >= 0 {
			g.cells[i].Rune, g.cells[i].Width = ' ', 1
		}
		i := g.idx(x, y)
		g.cells[i].Rune, g.cells[i].Width = ' ', 1
	case c.Width == 2:
		if i := g.idx(x+1, y); i >= 0 {
			g.cells[i].Rune, g.cells[i].Width = ' ', 1
		}
	}
}

// text returns the runes of row y with continuations dropped.
func (g *grid) text(y int) string {
	out := make([]rune, 0, g.w)
	for _, c := range g.row(y) {
		if !c.continuation() {
			out = append(out, c.Rune)
		}
	}
	return string(out)
}
