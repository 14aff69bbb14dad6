package demo

import (
	"testing"

	"github.com/go-drift/loom/pkg/rendering"
	loomtest "github.com/go-drift/loom/pkg/testing"
)

func newApp(t *testing.T) (*loomtest.Tester, *bool) {
	t.Helper()
	quit := new(bool)
	var tester *loomtest.Tester
	tester = loomtest.NewTester(t, App, Props{
		Input: func(h rendering.InputHandler) func() { return tester.Engine().CaptureInput(h) },
		Quit:  func() { *quit = true },
	})
	tester.MustPump()
	return tester, quit
}

func TestAppKeysChangeTiles(t *testing.T) {
	tester, _ := newApp(t)
	if got := tester.Find(loomtest.ByTextContaining("tile ")).Count(); got != 3 {
		t.Fatalf("tiles = %d, want 3", got)
	}
	if !tester.Find(loomtest.ByText("tiles: 3  uptime: 0s")).Exists() {
		t.Error("status line missing")
	}

	tester.Press("up")
	tester.MustPump()
	if got := tester.Find(loomtest.ByTextContaining("tile ")).Count(); got != 4 {
		t.Errorf("tiles after up = %d, want 4", got)
	}

	for range 5 {
		tester.Press("down")
	}
	tester.MustPump()
	if !tester.Find(loomtest.ByText("no tiles")).Exists() {
		t.Error("expected the empty placeholder after removing every tile")
	}
}

func TestAppTabFlipsDirection(t *testing.T) {
	tester, _ := newApp(t)
	first, _ := tester.Resolved(loomtest.ByKey("tile-0"))
	second, _ := tester.Resolved(loomtest.ByKey("tile-1"))
	if second.Left <= first.Left || second.Top != first.Top {
		t.Fatalf("horizontal tiles at %v and %v", first, second)
	}

	tester.Press("tab")
	tester.MustPump()
	first, _ = tester.Resolved(loomtest.ByKey("tile-0"))
	second, _ = tester.Resolved(loomtest.ByKey("tile-1"))
	if second.Top <= first.Top || second.Left != first.Left {
		t.Errorf("vertical tiles at %v and %v", first, second)
	}
}

func TestAppQuit(t *testing.T) {
	tester, quit := newApp(t)
	tester.Press("x")
	tester.MustPump()
	if *quit {
		t.Fatal("unrelated key quit the app")
	}
	tester.Press("q")
	tester.MustPump()
	if !*quit {
		t.Error("q did not quit")
	}
}

func TestTileLayersStack(t *testing.T) {
	tester, _ := newApp(t)
	fill, _ := tester.Resolved(loomtest.ByKey("tile-0"))
	label, ok := tester.Resolved(loomtest.ByText("tile 1"))
	if !ok {
		t.Fatal("label not cached")
	}
	if label.Left != fill.Left+1 || label.Top != fill.Top+1 || label.Z <= fill.Z {
		t.Errorf("label %v should sit inside and above tile %v", label, fill)
	}
}
