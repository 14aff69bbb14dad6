package bounds

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	loomerrors "github.com/go-drift/loom/pkg/errors"
)

func parent(w, h float64) ParentBounds {
	return ParentBounds{Box: BoundingBox{Width: w, Height: h}}
}

func TestPercentResolvesAgainstParent(t *testing.T) {
	res, err := Spec{Width: Percent(50)}.Resolve(parent(100, 10))
	if err != nil {
		t.Fatal(err)
	}
	if res.Box.Width != 50 {
		t.Errorf("Width = %v, want 50", res.Box.Width)
	}
	if res.Box.Height != 10 {
		t.Errorf("Height = %v, want parent height 10", res.Box.Height)
	}
}

func TestAnchorAlignsRightEdge(t *testing.T) {
	res, err := Spec{Left: Cells(0), Width: Cells(10), AnchorX: 1}.Resolve(parent(100, 10))
	if err != nil {
		t.Fatal(err)
	}
	if res.Box.Right() != 0 {
		t.Errorf("Right() = %v, want 0", res.Box.Right())
	}
	if res.Box.Left != -10 {
		t.Errorf("Left = %v, want -10", res.Box.Left)
	}
}

func TestPrevRelativeLeft(t *testing.T) {
	sibling := BoundingBox{Left: 0, Width: 6, Height: 1}
	p := parent(100, 10)
	p.Prev = &sibling

	res, err := Spec{Left: Prev(4), Width: Cells(3)}.Resolve(p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Box.Left != 10 {
		t.Errorf("Left = %v, want 10", res.Box.Left)
	}
}

func TestPrevWithoutSiblingIsConfigError(t *testing.T) {
	_, err := Spec{Top: Prev(1)}.Resolve(parent(100, 10))
	if !errors.Is(err, loomerrors.ErrNoPrevSibling) {
		t.Fatalf("err = %v, want ErrNoPrevSibling", err)
	}
	if !loomerrors.IsConfig(err) {
		t.Error("expected config error classification")
	}
}

func TestValueComposition(t *testing.T) {
	v := Percent(50).Plus(Cells(-2))
	got, err := v.resolve(40, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != 18 {
		t.Errorf("resolve = %v, want 18", got)
	}
	if v.String() != "50%+-2" {
		t.Errorf("String() = %q", v.String())
	}
	if (Value{}).IsSet() {
		t.Error("zero Value should be unset")
	}
}

func TestMarginAndPadding(t *testing.T) {
	spec := Spec{
		Left:    Cells(2),
		Top:     Cells(1),
		Width:   Cells(20),
		Height:  Cells(6),
		Margin:  Uniform(1),
		Padding: Symmetric(2, 1),
	}
	res, err := spec.Resolve(parent(100, 10))
	if err != nil {
		t.Fatal(err)
	}
	want := Resolved{
		Box:     BoundingBox{Left: 3, Top: 2, Width: 20, Height: 6},
		Outer:   BoundingBox{Left: 2, Top: 1, Width: 22, Height: 8},
		Content: BoundingBox{Left: 5, Top: 3, Width: 16, Height: 4},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestZIsRelativeToParent(t *testing.T) {
	p := parent(10, 10)
	p.Box.Z = 2
	res, err := Spec{Z: 1}.Resolve(p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Box.Z != 3 {
		t.Errorf("Z = %v, want 3", res.Box.Z)
	}
}

func TestTranslate(t *testing.T) {
	r := Translate(Spec{Width: Cells(4)}.Resolver(), 3, -1)
	res, err := r(parent(10, 10))
	if err != nil {
		t.Fatal(err)
	}
	if res.Box.Left != 3 || res.Box.Top != -1 || res.Outer.Left != 3 {
		t.Errorf("translated box = %v", res.Box)
	}
}

func TestParentBoundsEqual(t *testing.T) {
	a := parent(100, 10)
	b := parent(100, 10)
	if !a.Equal(b) {
		t.Error("identical contexts should be equal")
	}

	prev := BoundingBox{Width: 5}
	prevCopy := prev
	a.Prev, b.Prev = &prev, &prevCopy
	if !a.Equal(b) {
		t.Error("prev boxes are compared by value")
	}

	b.Sublayout.Gap = 1
	if a.Equal(b) {
		t.Error("different sublayouts should not be equal")
	}

	off := &Offset{Name: "shift"}
	c, d := parent(1, 1), parent(1, 1)
	c.Sublayout.Offset = off
	d.Sublayout.Offset = &Offset{Name: "shift"}
	if c.Equal(d) {
		t.Error("offsets compare by identity")
	}
}

func TestGapWithOverlapIsRejected(t *testing.T) {
	for _, dir := range []Direction{Overlap, DirectionNone} {
		_, err := NewArranger(BoundingBox{Width: 10}, Sublayout{Direction: dir, Gap: 1})
		if !errors.Is(err, loomerrors.ErrGapWithOverlap) {
			t.Errorf("%s: err = %v, want ErrGapWithOverlap", dir, err)
		}
	}
}

func TestHorizontalArrangement(t *testing.T) {
	a, err := NewArranger(BoundingBox{Width: 100, Height: 10}, Sublayout{Direction: Horizontal, Gap: 1})
	if err != nil {
		t.Fatal(err)
	}
	child := Spec{Width: Cells(5), Height: Cells(1)}.Resolver()

	_, first, err := a.Next(child)
	if err != nil {
		t.Fatal(err)
	}
	pb, second, err := a.Next(child)
	if err != nil {
		t.Fatal(err)
	}

	if first.Box.Left != 0 {
		t.Errorf("first Left = %v, want 0", first.Box.Left)
	}
	if second.Box.Left != first.Box.Width+1 {
		t.Errorf("second Left = %v, want %v", second.Box.Left, first.Box.Width+1)
	}
	if first.Box.Z != 0 || second.Box.Z != 0 {
		t.Errorf("non-overlapping siblings keep z=0, got %v and %v", first.Box.Z, second.Box.Z)
	}
	if pb.Prev == nil || *pb.Prev != first.Outer {
		t.Errorf("second child's Prev = %v, want %v", pb.Prev, first.Outer)
	}
}

func TestVerticalArrangementUsesOuterSize(t *testing.T) {
	a, err := NewArranger(BoundingBox{Width: 20, Height: 20}, Sublayout{Direction: Vertical, Gap: 2})
	if err != nil {
		t.Fatal(err)
	}
	child := Spec{Height: Cells(3), Margin: Edges{Bottom: 1}}.Resolver()
	a.Next(child)
	_, res, err := a.Next(child)
	if err != nil {
		t.Fatal(err)
	}
	if res.Box.Top != 6 {
		t.Errorf("Top = %v, want 6 (3 height + 1 margin + 2 gap)", res.Box.Top)
	}
}

func TestZCollisionBump(t *testing.T) {
	a, err := NewArranger(BoundingBox{Width: 100, Height: 10}, Sublayout{Direction: Horizontal})
	if err != nil {
		t.Fatal(err)
	}
	// The second child is pulled back over the first one.
	_, first, _ := a.Next(Spec{Width: Cells(10)}.Resolver())
	_, second, err := a.Next(Spec{Left: Cells(-5), Width: Cells(10)}.Resolver())
	if err != nil {
		t.Fatal(err)
	}
	if got := ZKey(second.Box.Z) - ZKey(first.Box.Z); got != 1 {
		t.Errorf("z difference = %d steps, want 1", got)
	}
	if second.Box.Z-first.Box.Z < ZDelta/2 {
		t.Errorf("z positions should differ by ZDelta, got %v and %v", first.Box.Z, second.Box.Z)
	}
}

func TestOverlapKeepsOwnZ(t *testing.T) {
	a, err := NewArranger(BoundingBox{Width: 10, Height: 10}, Sublayout{Direction: Overlap})
	if err != nil {
		t.Fatal(err)
	}
	_, first, _ := a.Next(Fill())
	_, second, _ := a.Next(Fill())
	if first.Box.Z != second.Box.Z {
		t.Errorf("overlap children keep their own z, got %v and %v", first.Box.Z, second.Box.Z)
	}
	if first.Box != second.Box {
		t.Errorf("overlap children share the origin, got %v and %v", first.Box, second.Box)
	}
}

func TestCustomOffset(t *testing.T) {
	stagger := &Offset{Name: "stagger", Fn: func(i int, _ BoundingBox) (float64, float64) {
		return 0, float64(i)
	}}
	a, err := NewArranger(BoundingBox{Width: 30, Height: 10}, Sublayout{Direction: Horizontal, Offset: stagger})
	if err != nil {
		t.Fatal(err)
	}
	child := Spec{Width: Cells(4), Height: Cells(1)}.Resolver()
	a.Next(child)
	_, res, _ := a.Next(child)
	if res.Box.Top != 1 || res.Box.Left != 4 {
		t.Errorf("offset child box = %v, want left 4 top 1", res.Box)
	}
}
