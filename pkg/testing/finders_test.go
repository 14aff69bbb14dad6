package testing

import (
	"strings"
	"testing"

	"github.com/go-drift/loom/pkg/node"
)

func TestByText(t *testing.T) {
	tester := NewTester(t, greeting, greetingProps{Name: "42"})
	tester.MustPump()

	if !tester.Find(ByText("hello 42")).Exists() {
		t.Error("expected to find text 'hello 42'")
	}
	if tester.Find(ByText("hello")).Exists() {
		t.Error("ByText should not match a prefix")
	}
}

func TestByTextContaining(t *testing.T) {
	tester := NewTester(t, greeting, greetingProps{Name: "world"})
	tester.MustPump()

	result := tester.Find(ByTextContaining("wor"))
	if result.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", result.Count())
	}
	if got := result.First().Content(); got != "hello world" {
		t.Errorf("content = %q", got)
	}
}

func TestByKind(t *testing.T) {
	tester := NewTester(t, greeting, greetingProps{})
	tester.MustPump()

	for _, tc := range []struct {
		kind node.Kind
		want int
	}{
		{node.KindHost, 1},
		{node.KindBox, 1},
		{node.KindText, 1},
		{node.KindColor, 1},
		{node.KindBorder, 0},
	} {
		if got := tester.Find(ByKind(tc.kind)).Count(); got != tc.want {
			t.Errorf("ByKind(%s).Count() = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestByKey(t *testing.T) {
	tester := NewTester(t, greeting, greetingProps{Name: "k"})
	tester.MustPump()

	n := tester.Find(ByKey("title")).FirstOrNil()
	if n == nil || n.Content() != "hello k" {
		t.Fatalf("ByKey(title) = %v", n)
	}
	if tester.Find(ByKey("nope")).Exists() {
		t.Error("unexpected match for unknown key")
	}
}

func TestByPredicate(t *testing.T) {
	tester := NewTester(t, greeting, greetingProps{})
	tester.MustPump()

	leaves := tester.Find(ByPredicate("leaf", func(n *node.Node) bool {
		return len(n.Children()) == 0
	}))
	if leaves.Count() != 2 {
		t.Errorf("leaf count = %d, want 2", leaves.Count())
	}
	if leaves.At(0).Kind() != node.KindText || leaves.At(1).Kind() != node.KindColor {
		t.Errorf("leaves out of tree order: %v, %v", leaves.At(0).Kind(), leaves.At(1).Kind())
	}
}

func TestFinderResult_FirstPanicsWhenEmpty(t *testing.T) {
	tester := NewTester(t, greeting, greetingProps{})
	tester.MustPump()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, `ByText("absent")`) {
			t.Errorf("panic message %q does not name the finder", msg)
		}
	}()
	tester.Find(ByText("absent")).First()
}

func TestFinderResult_AtOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	FinderResult{}.At(0)
}
