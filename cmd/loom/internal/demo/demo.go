// Package demo is the sample application shown by the loom CLI.
package demo

import (
	"fmt"
	"time"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/core"
	"github.com/go-drift/loom/pkg/node"
	"github.com/go-drift/loom/pkg/rendering"
)

// Props wires the app to its host. Every func may be nil.
type Props struct {
	// Input registers a key handler and returns its removal.
	Input func(rendering.InputHandler) func()
	// Dispatch runs fn on the frame goroutine.
	Dispatch func(fn func())
	// Quit is called when the user asks to leave.
	Quit func()
	// Image is an optional picture shown beside the tiles.
	Image string
	// Tick is the uptime refresh interval. Zero disables the clock.
	Tick time.Duration
	// Scale is the size of one text line, 1 for terminals and the font
	// height for canvases.
	Scale float64
}

var palette = []rendering.Color{
	rendering.RGB(0xe0, 0x6c, 0x75),
	rendering.RGB(0x98, 0xc3, 0x79),
	rendering.RGB(0x61, 0xaf, 0xef),
	rendering.RGB(0xe5, 0xc0, 0x7b),
}

// App is the root component.
var App = core.Define("App", func(x *core.Ctx, p Props) *node.Node {
	scale := p.Scale
	if scale <= 0 {
		scale = 1
	}
	count := core.UseState(x, 3)
	dir := core.UseState(x, bounds.Horizontal)
	ticks := core.UseState(x, 0)

	core.UseEffect(x, func() func() {
		if p.Input == nil {
			return nil
		}
		return p.Input(func(k rendering.Key) {
			switch {
			case k.Name == "up" || k.Name == "+":
				count.Update(func(n *int) { *n = min(*n+1, len(palette)) })
			case k.Name == "down" || k.Name == "-":
				count.Update(func(n *int) { *n = max(*n-1, 0) })
			case k.Name == "tab":
				dir.Set(flip(dir.Get()))
			case k.Name == "q" || k.Name == "esc" || (k.Ctrl && k.Name == "c"):
				if p.Quit != nil {
					p.Quit()
				}
			}
		})
	})

	core.UseEffect(x, func() func() {
		if p.Tick <= 0 || p.Dispatch == nil {
			return nil
		}
		stop := make(chan struct{})
		go func() {
			t := time.NewTicker(p.Tick)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					p.Dispatch(func() { ticks.Update(func(n *int) { *n++ }) })
				case <-stop:
					return
				}
			}
		}()
		return func() { close(stop) }
	}, p.Tick)

	line := bounds.Spec{Height: bounds.Cells(scale)}.Resolver()
	body := bounds.Spec{Height: bounds.Percent(100).Plus(bounds.Cells(-2 * scale))}.Resolver()
	return node.Box(node.Props{}, bounds.Sublayout{Direction: bounds.Vertical},
		node.Text(node.Props{Key: "help", Bounds: line},
			"loom demo  up/down: tiles  tab: layout  q: quit", rendering.WrapNone),
		node.Box(node.Props{Key: "body", Bounds: body}, bounds.Sublayout{Direction: bounds.Horizontal, Gap: scale},
			core.Mount(x, Tiles, TilesProps{Count: count.Get(), Direction: dir.Get(), Scale: scale}),
			picture(p.Image, scale),
		),
		core.MountKeyed(x, Status, "status", StatusProps{Ticks: ticks.Get(), Tick: p.Tick, Count: count.Get(), Scale: scale}),
	)
})

func flip(d bounds.Direction) bounds.Direction {
	if d == bounds.Horizontal {
		return bounds.Vertical
	}
	return bounds.Horizontal
}

func picture(path string, scale float64) *node.Node {
	if path == "" {
		return nil
	}
	return node.Source(node.Props{
		Key:    "picture",
		Bounds: bounds.Spec{Width: bounds.Cells(20 * scale)}.Resolver(),
	}, path)
}

// TilesProps configures Tiles.
type TilesProps struct {
	Count     int
	Direction bounds.Direction
	Scale     float64
}

// Tiles lays out Count framed tiles.
var Tiles = core.Define("Tiles", func(x *core.Ctx, p TilesProps) *node.Node {
	tiles := make([]*node.Node, 0, p.Count)
	for i := range p.Count {
		tiles = append(tiles, tile(i, p.Scale))
	}
	if len(tiles) == 0 {
		return node.Text(node.Props{}, "no tiles", rendering.WrapNone)
	}
	return node.Box(node.Props{Bounds: bounds.Spec{Width: bounds.Percent(70)}.Resolver()},
		bounds.Sublayout{Direction: p.Direction, Gap: p.Scale}, tiles...)
})

func tile(i int, scale float64) *node.Node {
	return node.Box(node.Props{
		Key:    fmt.Sprintf("tile-%d", i),
		Bounds: bounds.Spec{Width: bounds.Cells(12 * scale), Height: bounds.Cells(4 * scale)}.Resolver(),
	}, bounds.Sublayout{Direction: bounds.Overlap},
		node.Color(node.Props{}, palette[i%len(palette)]),
		node.Border(node.Props{Bounds: bounds.Spec{Z: 1}.Resolver()}, node.BorderLine, rendering.ColorBlack),
		node.Text(node.Props{Bounds: bounds.Spec{
			Left: bounds.Cells(scale), Top: bounds.Cells(scale),
			Width: bounds.Percent(100).Plus(bounds.Cells(-2 * scale)), Height: bounds.Cells(scale),
			Z: 2,
		}.Resolver()}, fmt.Sprintf("tile %d", i+1), rendering.WrapNone),
	)
}

// StatusProps configures Status.
type StatusProps struct {
	Ticks int
	Tick  time.Duration
	Count int
	Scale float64
}

// Status is the bottom line.
var Status = core.Define("Status", func(x *core.Ctx, p StatusProps) *node.Node {
	uptime := time.Duration(p.Ticks) * p.Tick
	return node.Text(node.Props{Bounds: bounds.Spec{Height: bounds.Cells(p.Scale)}.Resolver()},
		fmt.Sprintf("tiles: %d  uptime: %s", p.Count, uptime.Truncate(time.Second)), rendering.WrapNone)
})
