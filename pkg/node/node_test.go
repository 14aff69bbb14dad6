package node

import (
	"testing"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/rendering"
)

type warningRecorder struct {
	warnings []*errors.Warning
}

func (r *warningRecorder) HandleError(*errors.LoomError)  {}
func (r *warningRecorder) HandlePanic(*errors.PanicError) {}
func (r *warningRecorder) HandleWarning(w *errors.Warning) {
	r.warnings = append(r.warnings, w)
}

func recordWarnings(t *testing.T) *warningRecorder {
	t.Helper()
	rec := &warningRecorder{}
	old := errors.DefaultHandler
	errors.SetHandler(rec)
	t.Cleanup(func() { errors.SetHandler(old) })
	return rec
}

func TestBoxLinksChildren(t *testing.T) {
	a := Text(Props{}, "a", rendering.WrapNone)
	b := Color(Props{}, rendering.ColorRed)
	box := Box(Props{}, bounds.Sublayout{Direction: bounds.Vertical}, a, nil, b)

	if got := len(box.Children()); got != 2 {
		t.Fatalf("children = %d, want 2 (nil skipped)", got)
	}
	for _, c := range box.Children() {
		if c.Parent() != box.ID() {
			t.Errorf("%s parent = %d, want %d", c.Label(), c.Parent(), box.ID())
		}
	}
	if box.Parent() != 0 {
		t.Errorf("root parent = %d, want 0", box.Parent())
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := map[ID]bool{}
	for i := 0; i < 100; i++ {
		n := Color(Props{}, rendering.ColorBlack)
		if seen[n.ID()] {
			t.Fatalf("duplicate id %d", n.ID())
		}
		seen[n.ID()] = true
	}
}

func TestBoxWithoutDirectionWarns(t *testing.T) {
	rec := recordWarnings(t)

	Box(Props{}, bounds.Sublayout{}, Color(Props{}, rendering.ColorRed))
	if len(rec.warnings) != 0 {
		t.Fatalf("single child should not warn, got %d warnings", len(rec.warnings))
	}

	Box(Props{Key: "stack"}, bounds.Sublayout{},
		Color(Props{}, rendering.ColorRed),
		Color(Props{}, rendering.ColorBlue),
	)
	if len(rec.warnings) != 1 {
		t.Fatalf("warnings = %d, want 1", len(rec.warnings))
	}
	if rec.warnings[0].Op != "node.Box" {
		t.Errorf("warning op = %q", rec.warnings[0].Op)
	}

	Box(Props{}, bounds.Sublayout{Direction: bounds.Overlap},
		Color(Props{}, rendering.ColorRed),
		Color(Props{}, rendering.ColorBlue),
	)
	if len(rec.warnings) != 1 {
		t.Errorf("explicit overlap should not warn")
	}
}

func TestDefaultBoundsFillParent(t *testing.T) {
	n := Text(Props{}, "x", rendering.WrapNone)
	res, err := n.Bounds()(bounds.ParentBounds{Box: bounds.BoundingBox{Left: 2, Width: 8, Height: 3}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Box.Left != 2 || res.Box.Width != 8 || res.Box.Height != 3 {
		t.Errorf("box = %v", res.Box)
	}
}

func TestHostDelegatesToChild(t *testing.T) {
	h := Host("counter")
	if h.Visible() {
		t.Error("empty host should not be visible")
	}

	child := Text(Props{Bounds: bounds.Spec{Width: bounds.Cells(3)}.Resolver()}, "abc", rendering.WrapNone)
	h.Adopt(child)
	if h.Child() != child || child.Parent() != h.ID() {
		t.Fatal("Adopt did not link child")
	}
	if !h.Visible() {
		t.Error("host with visible child should be visible")
	}
	res, err := h.Bounds()(bounds.ParentBounds{Box: bounds.BoundingBox{Width: 10, Height: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Box.Width != 3 {
		t.Errorf("host width = %v, want child's 3", res.Box.Width)
	}

	next := Text(Props{Hidden: true}, "", rendering.WrapNone)
	h.Adopt(next)
	if child.Parent() != 0 {
		t.Errorf("replaced child still points at host")
	}
	if h.Visible() {
		t.Error("host with hidden child should be hidden")
	}
}

func TestAdoptOnNonHostPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Color(Props{}, rendering.ColorRed).Adopt(nil)
}

func TestLabelAndWalk(t *testing.T) {
	leaf := Source(Props{Key: "logo"}, "logo.png")
	root := Box(Props{}, bounds.Sublayout{Direction: bounds.Horizontal}, leaf, Border(Props{}, BorderThick, rendering.ColorWhite))

	if want := "source[logo]#"; len(leaf.Label()) <= len(want) || leaf.Label()[:len(want)] != want {
		t.Errorf("Label() = %q", leaf.Label())
	}

	var kinds []Kind
	root.Walk(func(n *Node) bool {
		kinds = append(kinds, n.Kind())
		return true
	})
	if len(kinds) != 3 || kinds[0] != KindBox || kinds[1] != KindSource || kinds[2] != KindBorder {
		t.Errorf("walk order = %v", kinds)
	}

	count := 0
	root.Walk(func(*Node) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("walk should stop early, visited %d", count)
	}
}

func TestBorderThickness(t *testing.T) {
	if BorderLine.Thickness() != 1 || BorderThick.Thickness() != 2 {
		t.Error("unexpected border thickness")
	}
}
