package term

import (
	"github.com/go-drift/loom/pkg/rendering"
)

// primitive is the handle type returned by the draw methods.
type primitive interface {
	paint(g *grid)
}

type textPrim struct {
	r     rect
	lines []string
	fg    rendering.Color
}

func (p *textPrim) paint(g *grid) {
	limit := min(p.r.x1, g.w)
	for i, line := range p.lines {
		y := p.r.y0 + i
		x := p.r.x0
		for _, r := range line {
			if x < 0 {
				x++
				continue
			}
			n := g.put(x, y, limit, r, p.fg)
			if n == 0 {
				break
			}
			x += n
		}
	}
}

type fillPrim struct {
	r     rect
	color rendering.Color
}

func (p *fillPrim) paint(g *grid) {
	for y := p.r.y0; y < p.r.y1; y++ {
		for x := p.r.x0; x < p.r.x1; x++ {
			g.setBG(x, y, p.color)
		}
	}
}

// imagePrim holds two pixel rows per cell, drawn with an upper half block.
type imagePrim struct {
	r      rect
	pixels [][2]rendering.Color
}

const upperHalf = '▀'

func (p *imagePrim) paint(g *grid) {
	w := p.r.width()
	for i, px := range p.pixels {
		x, y := p.r.x0+i%w, p.r.y0+i/w
		j := g.idx(x, y)
		if j < 0 {
			continue
		}
		g.clearWide(x, y)
		g.cells[j] = Cell{Rune: upperHalf, Width: 1, FG: px[0], BG: px[1]}
	}
}
