package layout

import (
	"fmt"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/node"
	"github.com/go-drift/loom/pkg/rendering"
)

// paintLeaf asks the backend for the primitives of a leaf node drawn at box.
func paintLeaf(b rendering.Backend, n *node.Node, box bounds.BoundingBox) ([]rendering.Handle, error) {
	switch n.Kind() {
	case node.KindText:
		h, err := b.DrawText(box, n.Wrap(), n.Content())
		return one(h, err)
	case node.KindColor:
		h, err := b.DrawSolidColor(box, n.Color())
		return one(h, err)
	case node.KindBorder:
		return paintBorder(b, box, n.BorderStyle(), n.Color())
	case node.KindSource:
		kind, err := rendering.ClassifyMedia(n.Path())
		if err != nil {
			return nil, err
		}
		if kind == rendering.MediaVector {
			return one(b.DrawVectorImage(box, n.Path()))
		}
		return one(b.DrawImage(box, n.Path()))
	default:
		return nil, fmt.Errorf("%s: %w", n.Kind(), errors.ErrUnknownNode)
	}
}

func one(h rendering.Handle, err error) ([]rendering.Handle, error) {
	if err != nil {
		return nil, err
	}
	return []rendering.Handle{h}, nil
}

// paintBorder draws the outline of box as four solid strips: top, bottom,
// left, right. Strips that would have no area are skipped.
func paintBorder(b rendering.Backend, box bounds.BoundingBox, style node.BorderStyle, c rendering.Color) ([]rendering.Handle, error) {
	t := style.Thickness()
	tw, th := min(t, box.Width), min(t, box.Height)
	side := box.Height - 2*th
	strips := []bounds.BoundingBox{
		{Left: box.Left, Top: box.Top, Width: box.Width, Height: th, Z: box.Z},
		{Left: box.Left, Top: box.Bottom() - th, Width: box.Width, Height: th, Z: box.Z},
		{Left: box.Left, Top: box.Top + th, Width: tw, Height: side, Z: box.Z},
		{Left: box.Right() - tw, Top: box.Top + th, Width: tw, Height: side, Z: box.Z},
	}
	var out []rendering.Handle
	for _, s := range strips {
		if s.Width <= 0 || s.Height <= 0 {
			continue
		}
		h, err := b.DrawSolidColor(s, c)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
