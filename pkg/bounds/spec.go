package bounds

import (
	"fmt"

	"github.com/go-drift/loom/pkg/errors"
)

// Direction controls how a box arranges its children.
type Direction int

const (
	// DirectionNone leaves children where their own specs put them. It
	// behaves like Overlap.
	DirectionNone Direction = iota
	// Horizontal places children left to right.
	Horizontal
	// Vertical places children top to bottom.
	Vertical
	// Overlap stacks children on the same origin.
	Overlap
)

func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case Overlap:
		return "overlap"
	default:
		return "none"
	}
}

// Offset is a custom per-child shift applied after direction placement.
// Two sublayouts are equal only if they point to the same Offset.
type Offset struct {
	Name string
	Fn   func(index int, box BoundingBox) (dx, dy float64)
}

// Sublayout is a box's declaration of how its children are arranged.
type Sublayout struct {
	Direction Direction
	Gap       float64
	Offset    *Offset
}

// Validate reports configuration errors.
func (s Sublayout) Validate() error {
	if s.Gap != 0 && (s.Direction == Overlap || s.Direction == DirectionNone) {
		return fmt.Errorf("gap %g with %s direction: %w", s.Gap, s.Direction, errors.ErrGapWithOverlap)
	}
	return nil
}

// ParentBounds is the context a parent hands to a child during resolution.
type ParentBounds struct {
	// Box is the absolute area the child is positioned against.
	Box BoundingBox
	// Sublayout is the arrangement the parent applies to its children.
	Sublayout Sublayout
	// Prev is the outer box of the preceding visible sibling, if any.
	Prev *BoundingBox
}

// Equal reports structural equality. It is the cache validity test.
func (p ParentBounds) Equal(o ParentBounds) bool {
	if p.Box != o.Box || p.Sublayout != o.Sublayout {
		return false
	}
	if p.Prev == nil || o.Prev == nil {
		return p.Prev == o.Prev
	}
	return *p.Prev == *o.Prev
}

// Resolved is the outcome of resolving a node's bounds.
type Resolved struct {
	// Box is the node's own area; it is what gets drawn.
	Box BoundingBox
	// Outer is Box grown by margin; it is what the parent arranges.
	Outer BoundingBox
	// Content is Box shrunk by padding; it is what children receive.
	Content BoundingBox
}

// Resolver is a pure function from parent context to resolved bounds.
type Resolver func(ParentBounds) (Resolved, error)

// Spec is a declarative position and size.
type Spec struct {
	Left, Top     Value
	Width, Height Value
	// AnchorX and AnchorY pick which fraction of the box's own size lands on
	// Left/Top: 0 is the left/top edge, 1 the right/bottom edge.
	AnchorX, AnchorY float64
	// Z is relative to the parent's z.
	Z       float64
	Margin  Edges
	Padding Edges
}

// Resolve computes the absolute bounds of s within p.
func (s Spec) Resolve(p ParentBounds) (Resolved, error) {
	var prevRight, prevBottom, prevWidth, prevHeight *float64
	if p.Prev != nil {
		r := p.Prev.Right() - p.Box.Left
		b := p.Prev.Bottom() - p.Box.Top
		w, h := p.Prev.Width, p.Prev.Height
		prevRight, prevBottom, prevWidth, prevHeight = &r, &b, &w, &h
	}

	width, height := p.Box.Width, p.Box.Height
	var err error
	if s.Width.IsSet() {
		if width, err = s.Width.resolve(p.Box.Width, prevWidth); err != nil {
			return Resolved{}, fmt.Errorf("width %s: %w", s.Width, err)
		}
	}
	if s.Height.IsSet() {
		if height, err = s.Height.resolve(p.Box.Height, prevHeight); err != nil {
			return Resolved{}, fmt.Errorf("height %s: %w", s.Height, err)
		}
	}
	left, err := s.Left.resolve(p.Box.Width, prevRight)
	if err != nil {
		return Resolved{}, fmt.Errorf("left %s: %w", s.Left, err)
	}
	top, err := s.Top.resolve(p.Box.Height, prevBottom)
	if err != nil {
		return Resolved{}, fmt.Errorf("top %s: %w", s.Top, err)
	}

	box := BoundingBox{
		Left:   p.Box.Left + left - s.AnchorX*width + s.Margin.Left,
		Top:    p.Box.Top + top - s.AnchorY*height + s.Margin.Top,
		Width:  width,
		Height: height,
		Z:      p.Box.Z + s.Z,
	}
	return Resolved{
		Box:     box,
		Outer:   box.Expand(s.Margin),
		Content: box.Shrink(s.Padding),
	}, nil
}

// Resolver returns s as a Resolver.
func (s Spec) Resolver() Resolver {
	return s.Resolve
}

// Fill is the default resolver: the node covers its parent box.
func Fill() Resolver {
	return Spec{}.Resolve
}

// Translate shifts every box produced by r.
func Translate(r Resolver, dx, dy float64) Resolver {
	return func(p ParentBounds) (Resolved, error) {
		res, err := r(p)
		if err != nil {
			return res, err
		}
		res.Box.Left += dx
		res.Box.Top += dy
		res.Outer.Left += dx
		res.Outer.Top += dy
		res.Content.Left += dx
		res.Content.Top += dy
		return res, nil
	}
}
