package testing

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/loom/pkg/bounds"
	"github.com/go-drift/loom/pkg/core"
	"github.com/go-drift/loom/pkg/node"
	"github.com/go-drift/loom/pkg/rendering"
)

func TestTester_MountsOnFirstPump(t *testing.T) {
	tester := NewTester(t, greeting, greetingProps{Name: "loom"})

	if tester.Find(ByText("hello loom")).Exists() {
		t.Fatal("tree rendered before the first frame")
	}
	tester.MustPump()

	if !tester.Find(ByText("hello loom")).Exists() {
		t.Fatal("expected greeting text after first frame")
	}
	if got := tester.Backend().Presents(); got != 1 {
		t.Errorf("Presents() = %d, want 1", got)
	}
	var kinds []string
	for _, op := range tester.Backend().Visible() {
		kinds = append(kinds, op.Kind)
	}
	if diff := cmp.Diff([]string{"text", "color"}, kinds); diff != "" {
		t.Errorf("visible ops mismatch (-want +got):\n%s", diff)
	}
}

func TestTester_Resolved(t *testing.T) {
	tester := NewTester(t, greeting, greetingProps{Name: "a"})
	tester.MustPump()

	box, ok := tester.Resolved(ByKind(node.KindText))
	if !ok {
		t.Fatal("text node not cached")
	}
	want := bounds.BoundingBox{Width: DefaultWidth, Height: 1}
	if box != want {
		t.Errorf("text box = %v, want %v", box, want)
	}
	if _, ok := tester.Resolved(ByText("missing")); ok {
		t.Error("Resolved found a node that does not exist")
	}
}

func TestTester_InputUpdatesState(t *testing.T) {
	ref := &core.Ref[*core.State[int]]{}
	tester := NewTester(t, counter, counterProps{State: ref})
	tester.MustPump()

	unregister := tester.Engine().CaptureInput(func(k rendering.Key) {
		if k.Rune == '+' {
			s := ref.Get()
			s.Set(s.Get() + 1)
		}
	})
	tester.Press("+")
	tester.Press("+")
	tester.MustPump()

	if !tester.Find(ByText("count: 2")).Exists() {
		t.Errorf("expected count: 2, tree has %q", tester.Find(ByTextContaining("count")).First().Content())
	}

	unregister()
	tester.Press("+")
	tester.MustPump()
	if !tester.Find(ByText("count: 2")).Exists() {
		t.Error("input delivered after unregister")
	}
}

func TestTester_PumpUntilIdle(t *testing.T) {
	tester := NewTester(t, settling, settleProps{Until: 3})
	if err := tester.PumpUntilIdle(); err != nil {
		t.Fatalf("PumpUntilIdle: %v", err)
	}
	if !tester.Find(ByText("n=3")).Exists() {
		t.Error("expected n=3 after settling")
	}
	if got := tester.Engine().Frames(); got != 4 {
		t.Errorf("Frames() = %d, want 4", got)
	}
}

func TestTester_PumpUntilIdleTimeout(t *testing.T) {
	tester := NewTester(t, restless, struct{}{})
	if err := tester.PumpUntilIdle(); !errors.Is(err, ErrSettleTimeout) {
		t.Fatalf("PumpUntilIdle error = %v, want ErrSettleTimeout", err)
	}
}

func TestTester_StatsAfterIdleFrame(t *testing.T) {
	tester := NewTester(t, greeting, greetingProps{Name: "a"})
	tester.MustPump()
	if tester.Stats().Misses == 0 {
		t.Fatal("first frame should miss")
	}

	tester.Engine().ForceRerender()
	tester.MustPump()
	if got := tester.Stats(); got.Misses != 0 || got.Hits != 1 {
		t.Errorf("Stats() = %+v, want a single root hit", got)
	}
}
