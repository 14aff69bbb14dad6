package testing

import (
	"fmt"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/core"
	"github.com/go-drift/loom/pkg/node"
	"github.com/go-drift/loom/pkg/rendering"
)

func line() bounds.Resolver {
	return bounds.Spec{Height: bounds.Cells(1)}.Resolver()
}

type greetingProps struct {
	Name string
}

var greeting = core.Define("Greeting", func(x *core.Ctx, p greetingProps) *node.Node {
	return node.Box(node.Props{}, bounds.Sublayout{Direction: bounds.Vertical},
		node.Text(node.Props{Key: "title", Bounds: line()}, "hello "+p.Name, rendering.WrapNone),
		node.Color(node.Props{Bounds: line()}, rendering.RGB(0, 0, 255)),
	)
})

type counterProps struct {
	// State receives the counter's state cell on every render.
	State *core.Ref[*core.State[int]]
}

var counter = core.Define("Counter", func(x *core.Ctx, p counterProps) *node.Node {
	count := core.UseState(x, 0)
	p.State.Set(count)
	return node.Text(node.Props{Bounds: line()}, fmt.Sprintf("count: %d", count.Get()), rendering.WrapNone)
})

type settleProps struct {
	Until int
}

// settling counts up from an effect until it reaches Until.
var settling = core.Define("Settling", func(x *core.Ctx, p settleProps) *node.Node {
	n := core.UseState(x, 0)
	v := n.Get()
	core.UseEffect(x, func() func() {
		if v < p.Until {
			n.Set(v + 1)
		}
		return nil
	}, v)
	return node.Text(node.Props{Bounds: line()}, fmt.Sprintf("n=%d", v), rendering.WrapNone)
})

// restless reschedules itself on every render.
var restless = core.Define("Restless", func(x *core.Ctx, _ struct{}) *node.Node {
	x.Rerender()
	return node.Text(node.Props{}, "busy", rendering.WrapNone)
})
