// Package bounds resolves declarative position and size specs into absolute
// boxes.
//
// A node's bounds are a pure function of the context its parent hands down
// (ParentBounds). Values may be absolute cells, percentages of the parent
// size, or offsets from the preceding sibling, and compose by addition:
//
//	spec := bounds.Spec{
//	    Left:  bounds.Prev(1),
//	    Width: bounds.Percent(50).Plus(bounds.Cells(-2)),
//	}
//	res, err := spec.Resolve(parent)
//
// Boxes keep a z coordinate. Z values are compared on an integer grid of
// ZDelta steps (see ZKey) so that collision bumping is exact.
package bounds

import (
	"fmt"
	"math"
)

// ZDelta is the step used to separate colliding z positions.
const ZDelta = 0.001

// ZKey maps a z coordinate onto the integer grid of ZDelta steps.
func ZKey(z float64) int64 {
	return int64(math.Round(z / ZDelta))
}

// BoundingBox is an absolute box.
type BoundingBox struct {
	Left, Top, Width, Height, Z float64
}

// Right returns the x coordinate of the right edge.
func (b BoundingBox) Right() float64 { return b.Left + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b BoundingBox) Bottom() float64 { return b.Top + b.Height }

// Intersects reports whether b and o share a region of positive area.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.Left < o.Right() && o.Left < b.Right() &&
		b.Top < o.Bottom() && o.Top < b.Bottom()
}

// Expand grows the box by e on each side.
func (b BoundingBox) Expand(e Edges) BoundingBox {
	return BoundingBox{
		Left:   b.Left - e.Left,
		Top:    b.Top - e.Top,
		Width:  b.Width + e.Left + e.Right,
		Height: b.Height + e.Top + e.Bottom,
		Z:      b.Z,
	}
}

// Shrink reduces the box by e on each side. Sizes never go negative.
func (b BoundingBox) Shrink(e Edges) BoundingBox {
	return BoundingBox{
		Left:   b.Left + e.Left,
		Top:    b.Top + e.Top,
		Width:  math.Max(0, b.Width-e.Left-e.Right),
		Height: math.Max(0, b.Height-e.Top-e.Bottom),
		Z:      b.Z,
	}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%g,%g %gx%g z=%g]", b.Left, b.Top, b.Width, b.Height, b.Z)
}

// Edges holds per-side insets for margin and padding.
type Edges struct {
	Left, Top, Right, Bottom float64
}

// Uniform returns edges with the same inset on every side.
func Uniform(v float64) Edges {
	return Edges{Left: v, Top: v, Right: v, Bottom: v}
}

// Symmetric returns edges with horizontal inset h and vertical inset v.
func Symmetric(h, v float64) Edges {
	return Edges{Left: h, Top: v, Right: h, Bottom: v}
}
