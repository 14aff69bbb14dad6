package bounds

// Arranger hands out ParentBounds to the visible children of one box, in
// order. It advances the cursor for horizontal and vertical sublayouts and
// bumps z for siblings that would collide.
type Arranger struct {
	content BoundingBox
	sub     Sublayout
	cursor  float64
	index   int
	prev    *BoundingBox
	placed  []BoundingBox
}

// NewArranger starts arranging children inside content. It fails if the
// sublayout is misconfigured.
func NewArranger(content BoundingBox, sub Sublayout) (*Arranger, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	a := &Arranger{content: content, sub: sub}
	switch sub.Direction {
	case Horizontal:
		a.cursor = content.Left
	case Vertical:
		a.cursor = content.Top
	}
	return a, nil
}

// Next returns the context for the next child together with the child's
// bounds under that context.
func (a *Arranger) Next(child Resolver) (ParentBounds, Resolved, error) {
	base := a.content
	switch a.sub.Direction {
	case Horizontal:
		base.Left = a.cursor
	case Vertical:
		base.Top = a.cursor
	}
	if a.sub.Offset != nil && a.sub.Offset.Fn != nil {
		dx, dy := a.sub.Offset.Fn(a.index, base)
		base.Left += dx
		base.Top += dy
	}

	pb := ParentBounds{Box: base, Sublayout: a.sub, Prev: a.prev}
	res, err := child(pb)
	if err != nil {
		return pb, res, err
	}

	if a.sub.Direction == Horizontal || a.sub.Direction == Vertical {
		if bump := a.collisions(res.Outer); bump > 0 {
			pb.Box.Z += float64(bump) * ZDelta
			if res, err = child(pb); err != nil {
				return pb, res, err
			}
		}
		if a.sub.Direction == Horizontal {
			a.cursor += res.Outer.Width + a.sub.Gap
		} else {
			a.cursor += res.Outer.Height + a.sub.Gap
		}
	}

	outer := res.Outer
	a.prev = &outer
	a.placed = append(a.placed, outer)
	a.index++
	return pb, res, nil
}

// collisions counts how many ZDelta steps outer must move so that no placed
// sibling it intersects shares its z.
func (a *Arranger) collisions(outer BoundingBox) int {
	z := ZKey(outer.Z)
	bump := 0
	for {
		taken := false
		for _, p := range a.placed {
			if ZKey(p.Z) == z+int64(bump) && p.Intersects(outer) {
				taken = true
				break
			}
		}
		if !taken {
			return bump
		}
		bump++
	}
}
