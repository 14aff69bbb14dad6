package layout

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/loom/pkg/bounds"
	loomerrors "github.com/go-drift/loom/pkg/errors"
	"github.com/go-drift/loom/pkg/node"
)

func TestBatchPutBumpsCollidingZ(t *testing.T) {
	b := Batch{}
	if k := b.Put(0, "a"); k != 0 {
		t.Errorf("first key = %d, want 0", k)
	}
	if k := b.Put(0, "b"); k != 1 {
		t.Errorf("colliding key = %d, want 1", k)
	}
	if k := b.Put(bounds.ZDelta, "c"); k != 2 {
		t.Errorf("key after chain = %d, want 2", k)
	}
	if diff := cmp.Diff([]int64{0, 1, 2}, b.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

func TestBatchMergeKeepsOrder(t *testing.T) {
	a := Batch{0: "a0", 5: "a5"}
	o := Batch{0: "o0", 1: "o1", 7: "o7"}
	a.Merge(o)

	want := []any{"a0", "o0", "o1", "a5", "o7"}
	got := make([]any, 0, len(a))
	for _, h := range a.Handles() {
		got = append(got, h)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("handles (-want +got):\n%s", diff)
	}
	if len(o) != 3 {
		t.Error("Merge mutated its argument")
	}
}

func TestBatchNegativeZ(t *testing.T) {
	b := Batch{}
	b.Put(1, "front")
	b.Put(-1, "back")
	if got := b.Handles(); got[0] != "back" || got[1] != "front" {
		t.Errorf("handles = %v, want back before front", got)
	}
}

func TestPaintLeafUnknownKind(t *testing.T) {
	_, err := paintLeaf(nil, &node.Node{}, bounds.BoundingBox{})
	if !errors.Is(err, loomerrors.ErrUnknownNode) {
		t.Fatalf("err = %v, want ErrUnknownNode", err)
	}
	if !loomerrors.IsUsage(err) {
		t.Error("unknown kind should classify as a usage error")
	}
}
